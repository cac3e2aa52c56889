package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joypaint/joypaint/internal/joystick"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want Event
	}{
		{"BTN:A", true, Event{Kind: EventButton, Button: ButtonA}},
		{"BTN:F\r", true, Event{Kind: EventButton, Button: ButtonF}},
		{"  BTN:c  ", true, Event{Kind: EventButton, Button: ButtonC}},
		{"BTN:Z", false, Event{}},
		{"BTN:", false, Event{}},
		{"STOP", true, Event{Kind: EventStop}},
		{"X:100,Y:4095,B:1", true, Event{Kind: EventJoystick, Reading: joystick.Reading{X: 100, Y: 4095, B: 1}}},
		{"X:2048,Y:2048", true, Event{Kind: EventJoystick, Reading: joystick.Reading{X: 2048, Y: 2048}}},
		{"X:-1,Y:5,B:0", false, Event{}},
		{"X:1,Y:", false, Event{}},
		{"hello", false, Event{}},
		{"", false, Event{}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestButtonCode(t *testing.T) {
	for _, code := range []string{"A", "B", "C", "D", "E", "F"} {
		b, ok := ParseButton(code)
		assert.True(t, ok)
		assert.Equal(t, code, b.Code())
		assert.Equal(t, "BTN:"+code, b.String())
	}
	assert.Equal(t, "", Button(42).Code())
}

func TestLineSplitter(t *testing.T) {
	var lines []string
	s := lineSplitter{max: 8}
	emit := func(l string) { lines = append(lines, l) }

	s.feed([]byte("BTN"), emit)
	s.feed([]byte(":A\r\nST"), emit)
	s.feed([]byte("OP\n"), emit)
	assert.Equal(t, []string{"BTN:A", "STOP"}, lines)

	lines = nil
	s.feed([]byte("0123456789abcdef\nBTN:B\n"), emit)
	assert.Equal(t, []string{"BTN:B"}, lines, "overlong line is dropped whole")
}
