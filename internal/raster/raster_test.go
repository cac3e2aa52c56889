package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/joypaint/joypaint/internal/drawing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var canvas = drawing.Size{Width: 600, Height: 600}

func always(int, int) bool { return true }

func TestIsOutline(t *testing.T) {
	assert.True(t, IsOutline(color.Alpha{A: 255}))
	assert.True(t, IsOutline(color.Alpha{A: OutlineThreshold}))
	assert.False(t, IsOutline(color.Alpha{A: OutlineThreshold - 1}))
	assert.False(t, IsOutline(color.Alpha{A: 0}))
}

func TestRenderOutlines_Human(t *testing.T) {
	m := RenderOutlines(drawing.Human(), canvas, 2)

	assert.Equal(t, 600, m.Width())
	assert.Equal(t, 600, m.Height())
	assert.Equal(t, image.Rect(0, 0, 600, 600), m.Bounds())

	// head ring passes through (360, 240)
	assert.True(t, m.Outline(359, 240))
	assert.False(t, m.Outline(300, 240), "head interior")
	assert.False(t, m.Outline(10, 10), "background")
	// eyes are stamped solid
	assert.True(t, m.Outline(285, 225))
	assert.True(t, m.Outline(315, 225))
	// out of bounds counts as outline
	assert.True(t, m.Outline(-1, 0))
	assert.True(t, m.Outline(600, 0))
	assert.NotNil(t, m.Image())
}

func TestFloodFill_BoundedByOutline(t *testing.T) {
	m := RenderOutlines(drawing.Human(), canvas, 2)

	head := FloodFill(m, image.Point{X: 300, Y: 240}, always)
	require.NotEmpty(t, head)

	// radius 60 disk minus the stroke and the two eyes
	assert.Greater(t, len(head), 10000)
	assert.Less(t, len(head), 11400)

	set := make(map[int]bool, len(head))
	for _, i := range head {
		set[i] = true
		x, y := i%600, i/600
		assert.True(t, x > 238 && x < 362 && y > 178 && y < 302, "pixel (%d,%d) escaped the head", x, y)
	}
	assert.False(t, set[225*600+285], "eye pixel must not be filled")
	assert.False(t, set[10*600+10])
}

func TestFloodFill_Body(t *testing.T) {
	m := RenderOutlines(drawing.Human(), canvas, 2)

	body := FloodFill(m, image.Point{X: 300, Y: 390}, always)
	require.NotEmpty(t, body)
	for _, i := range body {
		x, y := i%600, i/600
		require.True(t, x >= 240 && x <= 360 && y >= 300 && y <= 480, "pixel (%d,%d) escaped the body", x, y)
	}
}

func TestFloodFill_Background(t *testing.T) {
	m := RenderOutlines(drawing.Human(), canvas, 2)

	bg := FloodFill(m, image.Point{X: 10, Y: 10}, always)
	set := make(map[int]bool, len(bg))
	for _, i := range bg {
		set[i] = true
	}
	assert.True(t, set[599*600+599])
	assert.False(t, set[240*600+300], "background fill leaked into the head")
}

func TestFloodFill_RespectsPredicate(t *testing.T) {
	m := RenderOutlines(drawing.Human(), canvas, 2)

	// only the upper half of the head matches
	upper := func(_, y int) bool { return y < 240 }
	got := FloodFill(m, image.Point{X: 300, Y: 230}, upper)
	require.NotEmpty(t, got)
	for _, i := range got {
		assert.Less(t, i/600, 240)
	}

	assert.Nil(t, FloodFill(m, image.Point{X: 300, Y: 250}, upper), "seed failing predicate")
}

func TestFloodFill_SeedOnOutline(t *testing.T) {
	m := RenderOutlines(drawing.Human(), canvas, 2)

	assert.Nil(t, FloodFill(m, image.Point{X: 359, Y: 240}, always))
	assert.Nil(t, FloodFill(m, image.Point{X: -5, Y: 240}, always))
}
