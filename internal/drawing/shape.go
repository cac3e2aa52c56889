package drawing

import (
	"math"
	"strconv"
	"strings"

	"github.com/peterstace/simplefeatures/geom"
)

// circleSegments is the vertex count used to approximate circles.
const circleSegments = 72

// Point is a position in either reference or canvas space.
type Point struct {
	X, Y float64
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// Shape is a closed outline in reference coordinates.
type Shape interface {
	// Ring returns the closed outline scaled by (sx, sy) and offset outward
	// by grow target units (negative shrinks). The first vertex is not repeated.
	Ring(sx, sy, grow float64) []Point

	// Anchor is an interior point of the shape, in reference coordinates.
	Anchor() Point
}

// Circle is a circle centered at (CX, CY).
type Circle struct {
	CX, CY, R float64
}

// Ring implements Shape.
func (c Circle) Ring(sx, sy, grow float64) []Point {
	rx := c.R*sx + grow
	ry := c.R*sy + grow
	if rx < 0 {
		rx = 0
	}
	if ry < 0 {
		ry = 0
	}
	cx, cy := c.CX*sx, c.CY*sy
	pts := make([]Point, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)}
	}
	return pts
}

// Anchor implements Shape.
func (c Circle) Anchor() Point {
	return Point{X: c.CX, Y: c.CY}
}

// Rect is an axis-aligned rectangle with its top-left corner at (X, Y).
type Rect struct {
	X, Y, W, H float64
}

// Ring implements Shape.
func (r Rect) Ring(sx, sy, grow float64) []Point {
	x0, y0 := r.X*sx-grow, r.Y*sy-grow
	x1, y1 := (r.X+r.W)*sx+grow, (r.Y+r.H)*sy+grow
	if x1 < x0 {
		x0, x1 = (x0+x1)/2, (x0+x1)/2
	}
	if y1 < y0 {
		y0, y1 = (y0+y1)/2, (y0+y1)/2
	}
	return []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// Anchor implements Shape.
func (r Rect) Anchor() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// toGeometry converts a shape to a polygon in reference coordinates.
func toGeometry(s Shape) (geom.Geometry, error) {
	ring := s.Ring(1, 1, 0)
	var b strings.Builder
	b.WriteString("POLYGON((")
	for i, p := range append(ring, ring[0]) {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
		b.WriteString(" ")
		b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
	}
	b.WriteString("))")
	return geom.UnmarshalWKT(b.String())
}

func pointGeometry(p Point) geom.Geometry {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.X, Y: p.Y}}).AsGeometry()
}
