package device

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joypaint/joypaint/internal/joystick"
)

// Button is the closed set of device buttons the controller acts on.
type Button int

const (
	ButtonA Button = iota + 1 // next palette color
	ButtonB                   // fill region under cursor
	ButtonC                   // clear region under cursor
	ButtonD                   // previous palette color
	ButtonE                   // next drawing
	ButtonF                   // clear all
)

var buttonCodes = map[string]Button{
	"A": ButtonA,
	"B": ButtonB,
	"C": ButtonC,
	"D": ButtonD,
	"E": ButtonE,
	"F": ButtonF,
}

// ParseButton maps a wire code to a Button.
func ParseButton(code string) (Button, bool) {
	b, ok := buttonCodes[strings.ToUpper(strings.TrimSpace(code))]
	return b, ok
}

// Code returns the wire code, e.g. "A".
func (b Button) Code() string {
	for code, v := range buttonCodes {
		if v == b {
			return code
		}
	}
	return ""
}

func (b Button) String() string {
	if c := b.Code(); c != "" {
		return "BTN:" + c
	}
	return fmt.Sprintf("button(%d)", int(b))
}

// EventKind discriminates Event.
type EventKind int

const (
	EventButton EventKind = iota + 1
	EventJoystick
	EventStop
)

// Event is one decoded device line.
type Event struct {
	Kind    EventKind
	Button  Button
	Reading joystick.Reading
}

var joystickLine = regexp.MustCompile(`^X:(\d+),Y:(\d+)(?:,B:(\d+))?$`)

// ParseLine decodes one line from the device. Unrecognized lines, unknown
// button codes and malformed readings are reported as false.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Event{}, false
	case line == "STOP":
		return Event{Kind: EventStop}, true
	case strings.HasPrefix(line, "BTN:"):
		b, ok := ParseButton(strings.TrimPrefix(line, "BTN:"))
		if !ok {
			return Event{}, false
		}
		return Event{Kind: EventButton, Button: b}, true
	}

	m := joystickLine.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	x, errX := strconv.Atoi(m[1])
	y, errY := strconv.Atoi(m[2])
	if errX != nil || errY != nil {
		return Event{}, false
	}
	r := joystick.Reading{X: x, Y: y}
	if m[3] != "" {
		if b, err := strconv.Atoi(m[3]); err == nil {
			r.B = b
		}
	}
	return Event{Kind: EventJoystick, Reading: r}, true
}

// lineSplitter reassembles newline-terminated lines from arbitrary reads.
// Lines longer than max are discarded.
type lineSplitter struct {
	buf []byte
	max int
	// overflow is set while skipping the rest of an oversized line
	overflow bool
}

func (s *lineSplitter) feed(p []byte, emit func(string)) {
	for _, c := range p {
		if c == '\n' {
			if !s.overflow {
				emit(strings.TrimRight(string(s.buf), "\r"))
			}
			s.buf = s.buf[:0]
			s.overflow = false
			continue
		}
		if s.overflow {
			continue
		}
		if len(s.buf) >= s.max {
			s.buf = s.buf[:0]
			s.overflow = true
			continue
		}
		s.buf = append(s.buf, c)
	}
}
