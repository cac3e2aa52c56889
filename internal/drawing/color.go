package drawing

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque 8-bit RGB color. It satisfies image/color.Color.
type Color struct {
	R, G, B uint8
}

// RGB builds a Color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Common colors.
var (
	Black = RGB(0, 0, 0)
	White = RGB(255, 255, 255)
)

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Hex formats the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) String() string {
	return c.Hex()
}

// ParseHex parses #RRGGBB (the leading # is optional, case-insensitive).
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
