package drawing

// Swatch is one selectable palette entry.
type Swatch struct {
	Name  string
	Color Color
}

// Palette is the ordered set of selectable colors. Index 0 is the default.
type Palette []Swatch

// DefaultPalette returns the built-in twelve-color palette.
func DefaultPalette() Palette {
	return Palette{
		{"black", RGB(0, 0, 0)},
		{"red", RGB(255, 0, 0)},
		{"green", RGB(0, 255, 0)},
		{"blue", RGB(0, 0, 255)},
		{"yellow", RGB(255, 255, 0)},
		{"cyan", RGB(0, 255, 255)},
		{"magenta", RGB(255, 0, 255)},
		{"orange", RGB(255, 165, 0)},
		{"purple", RGB(128, 0, 128)},
		{"brown", RGB(165, 42, 42)},
		{"pink", RGB(255, 192, 203)},
		{"white", RGB(255, 255, 255)},
	}
}

// Color returns the color at index, or false when out of range.
func (p Palette) Color(index int) (Color, bool) {
	if index < 0 || index >= len(p) {
		return Color{}, false
	}
	return p[index].Color, true
}

// Next returns the index after i, wrapping around.
func (p Palette) Next(i int) int {
	if len(p) == 0 {
		return 0
	}
	return (i + 1) % len(p)
}

// Prev returns the index before i, wrapping around.
func (p Palette) Prev(i int) int {
	if len(p) == 0 {
		return 0
	}
	return (i - 1 + len(p)) % len(p)
}

// IndexOf returns the first index holding c, or -1.
func (p Palette) IndexOf(c Color) int {
	for i, s := range p {
		if s.Color == c {
			return i
		}
	}
	return -1
}
