package paint

import (
	"image/color"
	"testing"

	"github.com/joypaint/joypaint/internal/drawing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	canvas = drawing.Size{Width: 600, Height: 600}
	red    = drawing.RGB(255, 0, 0)
	blue   = drawing.RGB(0, 0, 255)
)

func threeBoxes() *drawing.Catalog {
	d := drawing.MustNew("boxes", "Boxes", drawing.Size{Width: 60, Height: 60}, []drawing.Region{
		{Name: "a", Shape: drawing.Rect{X: 5, Y: 5, W: 10, H: 10}, Reference: red},
		{Name: "b", Shape: drawing.Rect{X: 25, Y: 5, W: 10, H: 10}, Reference: red},
		{Name: "c", Shape: drawing.Rect{X: 45, Y: 5, W: 10, H: 10}, Reference: blue},
	})
	return drawing.NewCatalog(d)
}

func TestNew_StartsOnFirstDrawing(t *testing.T) {
	e := New(drawing.Builtin(), canvas)

	require.NotNil(t, e.Drawing())
	assert.Equal(t, "human", e.Drawing().Key())
	assert.Empty(t, e.Fills())
	assert.Equal(t, canvas, e.Canvas())
	assert.False(t, e.IsComplete())
}

func TestFloodFillAt_ThenHitTest(t *testing.T) {
	e := New(drawing.Builtin(), canvas)

	name, ok := e.FloodFillAt(300, 240, red)
	require.True(t, ok)
	assert.Equal(t, "head", name)

	hit, ok := e.HitTest(300, 240)
	require.True(t, ok)
	c, ok := e.FillColor(hit)
	require.True(t, ok)
	assert.Equal(t, red, c)
	assert.Greater(t, e.FilledPixels("head"), 10000)
}

func TestFloodFillAt_Miss(t *testing.T) {
	e := New(drawing.Builtin(), canvas)

	_, ok := e.FloodFillAt(5, 5, red)
	assert.False(t, ok)
	assert.Empty(t, e.Fills())
}

func TestFloodFillAt_RefillReplaces(t *testing.T) {
	e := New(drawing.Builtin(), canvas)

	_, ok := e.FloodFillAt(300, 390, red)
	require.True(t, ok)
	before := e.FilledPixels("body")

	_, ok = e.FloodFillAt(310, 400, blue)
	require.True(t, ok)

	c, _ := e.FillColor("body")
	assert.Equal(t, blue, c)
	assert.Equal(t, before, e.FilledPixels("body"))
}

func TestClearRegion(t *testing.T) {
	e := New(drawing.Builtin(), canvas)
	e.FloodFillAt(300, 240, red)

	assert.True(t, e.ClearRegion("head"))
	_, ok := e.FillColor("head")
	assert.False(t, ok)
	assert.Zero(t, e.FilledPixels("head"))

	assert.False(t, e.ClearRegion("head"), "already empty")
	assert.False(t, e.ClearRegion("tail"), "unknown region")
}

func TestFillRegion_ByName(t *testing.T) {
	e := New(drawing.Builtin(), canvas)

	e.FillRegion("left_leg", blue)
	c, ok := e.FillColor("left_leg")
	require.True(t, ok)
	assert.Equal(t, blue, c)
	assert.Positive(t, e.FilledPixels("left_leg"))

	e.FillRegion("tail", red)
	_, ok = e.FillColor("tail")
	assert.True(t, ok, "unknown names are stored")
	assert.Zero(t, e.FilledPixels("tail"))
	assert.Equal(t, 1, e.FilledCount())
}

func TestIsComplete_ThreeRegions(t *testing.T) {
	e := New(threeBoxes(), canvas)

	assert.False(t, e.IsComplete())
	e.FillRegion("a", red)
	e.FillRegion("b", red)
	assert.False(t, e.IsComplete())
	e.FillRegion("c", blue)
	assert.True(t, e.IsComplete())

	e.ClearRegion("b")
	assert.False(t, e.IsComplete())
	e.FillRegion("b", blue)
	assert.False(t, e.IsComplete(), "wrong color")
	e.FillRegion("b", red)
	assert.True(t, e.IsComplete())

	e.ClearAll()
	assert.False(t, e.IsComplete())
	assert.Empty(t, e.Fills())
}

func TestIsComplete_StrayNameDoesNotCount(t *testing.T) {
	e := New(threeBoxes(), canvas)
	e.FillRegion("a", red)
	e.FillRegion("b", red)
	e.FillRegion("zzz", red)

	assert.False(t, e.IsComplete())
}

func TestSetActiveDrawing(t *testing.T) {
	e := New(drawing.Builtin(), canvas)
	e.FillRegion("head", red)

	assert.False(t, e.SetActiveDrawing("dragon"))
	assert.Equal(t, "human", e.Drawing().Key())
	assert.Len(t, e.Fills(), 1, "unknown key leaves state untouched")

	assert.True(t, e.SetActiveDrawing("flower"))
	assert.Equal(t, "flower", e.Drawing().Key())
	assert.Empty(t, e.Fills())

	name, ok := e.HitTest(300, 210)
	require.True(t, ok)
	assert.Equal(t, "petal_top", name)
}

func TestNextDrawing_Cycles(t *testing.T) {
	e := New(drawing.Builtin(), canvas)
	e.FillRegion("head", red)

	assert.Equal(t, "flower", e.NextDrawing().Key())
	assert.Empty(t, e.Fills())
	assert.Equal(t, "human", e.NextDrawing().Key())
}

func TestRender(t *testing.T) {
	e := New(drawing.Builtin(), canvas)
	e.FloodFillAt(300, 240, red)

	img := e.Render()
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(300, 240))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(10, 10))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(285, 225), "eye stays black")
}

func TestEmptyCatalog(t *testing.T) {
	e := New(drawing.NewCatalog(), canvas)

	assert.Nil(t, e.Drawing())
	_, ok := e.FloodFillAt(1, 1, red)
	assert.False(t, ok)
	assert.False(t, e.IsComplete())
	assert.Zero(t, e.FilledCount())
	assert.Zero(t, e.FilledPixels("a"))
	assert.Equal(t, 600, e.Render().Bounds().Dx())
}
