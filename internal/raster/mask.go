// Package raster renders drawing outlines into a pixel mask and flood-fills
// the enclosed areas.
package raster

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/joypaint/joypaint/internal/drawing"
	"golang.org/x/image/vector"
)

// OutlineThreshold is the minimum mask alpha treated as an outline pixel.
const OutlineThreshold = 128

// IsOutline reports whether a mask pixel color blocks fills.
func IsOutline(c color.Color) bool {
	_, _, _, a := c.RGBA()
	return a>>8 >= OutlineThreshold
}

// Mask is the rendered outline layer of a drawing at canvas resolution.
type Mask struct {
	img *image.Alpha
}

// RenderOutlines strokes every region outline of d with the given width and
// stamps its ornaments solid, at the canvas resolution.
func RenderOutlines(d *drawing.Drawing, canvas drawing.Size, stroke float64) *Mask {
	w, h := int(canvas.Width), int(canvas.Height)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	base := d.BaseSize()
	sx, sy := canvas.Width/base.Width, canvas.Height/base.Height

	z := vector.NewRasterizer(w, h)
	half := stroke / 2
	for _, r := range d.Regions() {
		addPath(z, r.Shape.Ring(sx, sy, half), false)
		addPath(z, r.Shape.Ring(sx, sy, -half), true)
	}
	for _, o := range d.Ornaments() {
		addPath(z, o.Ring(sx, sy, 0), false)
	}

	img := image.NewAlpha(image.Rect(0, 0, w, h))
	z.DrawOp = draw.Src
	z.Draw(img, img.Bounds(), image.Opaque, image.Point{})
	return &Mask{img: img}
}

// addPath appends a closed subpath. Reversed inner rings cancel the outer
// ring's coverage, leaving a stroke band.
func addPath(z *vector.Rasterizer, pts []drawing.Point, reverse bool) {
	if len(pts) < 3 {
		return
	}
	at := func(i int) drawing.Point {
		if reverse {
			return pts[len(pts)-1-i]
		}
		return pts[i]
	}
	p := at(0)
	z.MoveTo(float32(p.X), float32(p.Y))
	for i := 1; i < len(pts); i++ {
		p = at(i)
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
}

// Bounds returns the mask rectangle.
func (m *Mask) Bounds() image.Rectangle {
	return m.img.Bounds()
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.img.Bounds().Dx() }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.img.Bounds().Dy() }

// Outline reports whether (x, y) is an outline pixel. Out-of-bounds
// coordinates count as outline.
func (m *Mask) Outline(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(m.img.Bounds()) {
		return true
	}
	return IsOutline(m.img.AlphaAt(x, y))
}

// Image exposes the mask for compositing.
func (m *Mask) Image() *image.Alpha {
	return m.img
}
