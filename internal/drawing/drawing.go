package drawing

import (
	"errors"
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
)

// Region is a named fillable area of a drawing.
type Region struct {
	Name  string
	Shape Shape

	// Reference is the intended color; a drawing is complete when every
	// region carries its reference color.
	Reference Color

	geometry geom.Geometry
}

// Drawing is an immutable line-art picture made of named regions.
type Drawing struct {
	key       string
	name      string
	base      Size
	regions   []Region
	ornaments []Shape
	index     map[string]int
}

// New validates and builds a Drawing. Region order is the hit-test order.
// Ornaments are solid outline-colored marks that are not fillable.
func New(key, name string, base Size, regions []Region, ornaments ...Shape) (*Drawing, error) {
	if key == "" {
		return nil, errors.New("drawing key is required")
	}
	if base.Width <= 0 || base.Height <= 0 {
		return nil, fmt.Errorf("drawing %q: base size must be positive", key)
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("drawing %q: at least one region is required", key)
	}

	d := &Drawing{
		key:       key,
		name:      name,
		base:      base,
		regions:   make([]Region, len(regions)),
		ornaments: append([]Shape(nil), ornaments...),
		index:     make(map[string]int, len(regions)),
	}
	for i, r := range regions {
		if r.Name == "" {
			return nil, fmt.Errorf("drawing %q: region %d has no name", key, i)
		}
		if _, dup := d.index[r.Name]; dup {
			return nil, fmt.Errorf("drawing %q: duplicate region %q", key, r.Name)
		}
		g, err := toGeometry(r.Shape)
		if err != nil {
			return nil, fmt.Errorf("drawing %q: region %q: %w", key, r.Name, err)
		}
		r.geometry = g
		d.regions[i] = r
		d.index[r.Name] = i
	}
	return d, nil
}

// MustNew is like New but panics on error.
func MustNew(key, name string, base Size, regions []Region, ornaments ...Shape) *Drawing {
	d, err := New(key, name, base, regions, ornaments...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Drawing) Key() string         { return d.key }
func (d *Drawing) DisplayName() string { return d.name }
func (d *Drawing) BaseSize() Size      { return d.base }

// Regions returns the regions in declaration order.
func (d *Drawing) Regions() []Region {
	return append([]Region(nil), d.regions...)
}

// Ornaments returns the non-fillable marks.
func (d *Drawing) Ornaments() []Shape {
	return append([]Shape(nil), d.ornaments...)
}

// RegionCount returns the number of fillable regions.
func (d *Drawing) RegionCount() int {
	return len(d.regions)
}

// Region looks up a region by name.
func (d *Drawing) Region(name string) (Region, bool) {
	i, ok := d.index[name]
	if !ok {
		return Region{}, false
	}
	return d.regions[i], true
}

// RegionIndex returns the declaration index of a region, or -1.
func (d *Drawing) RegionIndex(name string) int {
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// HasRegion reports whether name is one of the drawing's regions.
func (d *Drawing) HasRegion(name string) bool {
	_, ok := d.index[name]
	return ok
}

// ToReference maps a canvas point into reference coordinates.
func (d *Drawing) ToReference(p Point, canvas Size) Point {
	return Point{
		X: p.X * d.base.Width / canvas.Width,
		Y: p.Y * d.base.Height / canvas.Height,
	}
}

// ToCanvas maps a reference point onto the canvas.
func (d *Drawing) ToCanvas(p Point, canvas Size) Point {
	return Point{
		X: p.X * canvas.Width / d.base.Width,
		Y: p.Y * canvas.Height / d.base.Height,
	}
}

// HitTest returns the first region, in declaration order, containing the
// canvas point p. Edges count as inside.
func (d *Drawing) HitTest(p Point, canvas Size) (string, bool) {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return "", false
	}
	pt := pointGeometry(d.ToReference(p, canvas))
	for _, r := range d.regions {
		if geom.Intersects(r.geometry, pt) {
			return r.Name, true
		}
	}
	return "", false
}

// ReferenceColors maps each region to its intended color.
func (d *Drawing) ReferenceColors() map[string]Color {
	out := make(map[string]Color, len(d.regions))
	for _, r := range d.regions {
		out[r.Name] = r.Reference
	}
	return out
}
