// Package paint holds the mutable coloring state of the active drawing.
package paint

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/joypaint/joypaint/internal/drawing"
	"github.com/joypaint/joypaint/internal/raster"
)

const noOwner = -1

// Engine tracks which drawing is active and how its regions are colored.
// It keeps both the per-region fill map and a pixel layer produced by
// flood fill. Engine is not safe for concurrent use; callers serialize
// access on a single goroutine.
type Engine struct {
	catalog *drawing.Catalog
	canvas  drawing.Size
	stroke  float64

	active *drawing.Drawing
	fills  map[string]drawing.Color
	masks  map[string]*raster.Mask
	mask   *raster.Mask
	owner  []int
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutlineWidth sets the outline stroke width in canvas pixels.
func WithOutlineWidth(w float64) Option {
	return func(e *Engine) {
		if w > 0 {
			e.stroke = w
		}
	}
}

// New creates an Engine showing the catalog's first drawing.
func New(catalog *drawing.Catalog, canvas drawing.Size, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		canvas:  canvas,
		stroke:  2,
		fills:   make(map[string]drawing.Color),
		masks:   make(map[string]*raster.Mask),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.activate(catalog.First())
	return e
}

func (e *Engine) activate(d *drawing.Drawing) {
	e.active = d
	e.fills = make(map[string]drawing.Color)
	if d == nil {
		e.mask = nil
		e.owner = nil
		return
	}
	m, ok := e.masks[d.Key()]
	if !ok {
		m = raster.RenderOutlines(d, e.canvas, e.stroke)
		e.masks[d.Key()] = m
	}
	e.mask = m
	e.owner = make([]int, m.Width()*m.Height())
	for i := range e.owner {
		e.owner[i] = noOwner
	}
}

// Drawing returns the active drawing.
func (e *Engine) Drawing() *drawing.Drawing {
	return e.active
}

// Canvas returns the canvas size.
func (e *Engine) Canvas() drawing.Size {
	return e.canvas
}

// SetActiveDrawing switches drawings and clears all fills. Unknown keys are
// ignored and reported as false.
func (e *Engine) SetActiveDrawing(key string) bool {
	d, ok := e.catalog.Get(key)
	if !ok {
		return false
	}
	e.activate(d)
	return true
}

// NextDrawing advances to the next drawing in the catalog, cycling, and
// clears all fills.
func (e *Engine) NextDrawing() *drawing.Drawing {
	if e.active == nil {
		e.activate(e.catalog.First())
	} else {
		e.activate(e.catalog.Next(e.active.Key()))
	}
	return e.active
}

// HitTest returns the region under the canvas point.
func (e *Engine) HitTest(x, y float64) (string, bool) {
	if e.active == nil {
		return "", false
	}
	return e.active.HitTest(drawing.Point{X: x, Y: y}, e.canvas)
}

// FloodFillAt fills the enclosed area under (x, y) and records the fill for
// the region hit there. It reports the region, or false when the point
// hits no region.
func (e *Engine) FloodFillAt(x, y float64, c drawing.Color) (string, bool) {
	name, ok := e.HitTest(x, y)
	if !ok {
		return "", false
	}
	e.fillPixels(name, image.Point{X: int(math.Floor(x)), Y: int(math.Floor(y))})
	e.fills[name] = c
	return name, true
}

// FillRegion sets a region's color. Names outside the active drawing are
// stored but affect nothing else.
func (e *Engine) FillRegion(name string, c drawing.Color) {
	e.fills[name] = c
	if e.active == nil {
		return
	}
	r, ok := e.active.Region(name)
	if !ok {
		return
	}
	anchor := e.active.ToCanvas(r.Shape.Anchor(), e.canvas)
	e.fillPixels(name, image.Point{X: int(math.Floor(anchor.X)), Y: int(math.Floor(anchor.Y))})
}

// fillPixels replaces the pixels owned by name with the area flooded from
// seed. The flood only crosses pixels of the seed's current color.
func (e *Engine) fillPixels(name string, seed image.Point) {
	idx := e.active.RegionIndex(name)
	if idx < 0 || e.mask == nil {
		return
	}
	e.releasePixels(idx)
	if e.mask.Outline(seed.X, seed.Y) {
		return
	}
	w := e.mask.Width()
	origin := e.owner[seed.Y*w+seed.X]
	for _, i := range raster.FloodFill(e.mask, seed, func(x, y int) bool {
		return e.owner[y*w+x] == origin
	}) {
		e.owner[i] = idx
	}
}

func (e *Engine) releasePixels(idx int) {
	for i, o := range e.owner {
		if o == idx {
			e.owner[i] = noOwner
		}
	}
}

// ClearRegion removes a region's fill. It reports whether a fill existed.
func (e *Engine) ClearRegion(name string) bool {
	if _, ok := e.fills[name]; !ok {
		return false
	}
	delete(e.fills, name)
	if e.active != nil {
		if idx := e.active.RegionIndex(name); idx >= 0 {
			e.releasePixels(idx)
		}
	}
	return true
}

// ClearAll removes every fill.
func (e *Engine) ClearAll() {
	e.fills = make(map[string]drawing.Color)
	for i := range e.owner {
		e.owner[i] = noOwner
	}
}

// FillColor returns a region's current color.
func (e *Engine) FillColor(name string) (drawing.Color, bool) {
	c, ok := e.fills[name]
	return c, ok
}

// Fills returns a copy of the fill map.
func (e *Engine) Fills() map[string]drawing.Color {
	out := make(map[string]drawing.Color, len(e.fills))
	for k, v := range e.fills {
		out[k] = v
	}
	return out
}

// FilledPixels counts the pixels currently owned by a region.
func (e *Engine) FilledPixels(name string) int {
	if e.active == nil {
		return 0
	}
	idx := e.active.RegionIndex(name)
	if idx < 0 {
		return 0
	}
	n := 0
	for _, o := range e.owner {
		if o == idx {
			n++
		}
	}
	return n
}

// FilledCount returns how many of the active drawing's regions are filled.
func (e *Engine) FilledCount() int {
	if e.active == nil {
		return 0
	}
	n := 0
	for _, r := range e.active.Regions() {
		if _, ok := e.fills[r.Name]; ok {
			n++
		}
	}
	return n
}

// IsComplete reports whether the fills are exactly the active drawing's
// reference colors: one fill per region, each matching by RGB, and nothing
// else.
func (e *Engine) IsComplete() bool {
	if e.active == nil || len(e.fills) != e.active.RegionCount() {
		return false
	}
	for _, r := range e.active.Regions() {
		c, ok := e.fills[r.Name]
		if !ok || c != r.Reference {
			return false
		}
	}
	return true
}

// Render composes the canvas: white background, filled pixels, then black
// outlines on top.
func (e *Engine) Render() *image.RGBA {
	w, h := int(e.canvas.Width), int(e.canvas.Height)
	if e.mask != nil {
		w, h = e.mask.Width(), e.mask.Height()
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(drawing.White), image.Point{}, draw.Src)
	if e.active == nil {
		return img
	}

	regions := e.active.Regions()
	for i, o := range e.owner {
		if o == noOwner {
			continue
		}
		c, ok := e.fills[regions[o].Name]
		if !ok {
			continue
		}
		img.SetRGBA(i%w, i/w, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
	}
	draw.DrawMask(img, img.Bounds(), image.NewUniform(drawing.Black), image.Point{}, e.mask.Image(), image.Point{}, draw.Over)
	return img
}
