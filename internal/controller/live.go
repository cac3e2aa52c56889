package controller

import (
	"context"
	"fmt"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/device"
	"github.com/joypaint/joypaint/internal/joystick"
	"github.com/joypaint/joypaint/pkg/streaming"
)

// applyPendingCursor runs on every coalescing tick. Only the latest reading
// since the previous tick is used.
func (c *Controller) applyPendingCursor() {
	c.pendingMu.Lock()
	r, ok := c.pending, c.hasNew
	c.hasNew = false
	c.pendingMu.Unlock()

	if !ok || c.replaying.Load() {
		return
	}
	x, y := c.norm.Normalize(r, c.cursor.X, c.cursor.Y)
	if x == c.cursor.X && y == c.cursor.Y {
		return
	}
	c.moveCursor(x, y)
	c.rec.RecordCursor(x, y, r.X, r.Y)
}

func (c *Controller) moveCursor(x, y float64) {
	c.cursor = actionlog.Cursor{X: x, Y: y}
	c.pub.Publish(update(streaming.TypeCursor, streaming.CursorPayload{X: x, Y: y}))
}

// handleButton dispatches one button press. A reading still waiting for the
// next tick is applied first so the press acts where the stick last
// pointed.
func (c *Controller) handleButton(b device.Button) {
	c.applyPendingCursor()

	switch b {
	case device.ButtonA:
		c.selectColor(c.palette.Next(c.colorIndex), b.String())
	case device.ButtonD:
		c.selectColor(c.palette.Prev(c.colorIndex), b.String())
	case device.ButtonB:
		c.fillAtCursor()
	case device.ButtonC:
		c.clearAtCursor()
	case device.ButtonE:
		c.nextPicture(b.String())
	case device.ButtonF:
		c.clearAll(b.String())
	default:
		c.log.Debug().Int("button", int(b)).Msg("unhandled button")
	}
}

func (c *Controller) selectColor(index int, button string) {
	col, ok := c.palette.Color(index)
	if !ok {
		c.setMessage(fmt.Sprintf("No color at index %d", index))
		return
	}
	c.colorIndex = index
	c.pub.Publish(update(streaming.TypeColor, streaming.ColorPayload{Index: index, Hex: col.Hex()}))
	c.rec.Record(actionlog.ColorSelect(index, col.Hex(), button).At(c.cursor.X, c.cursor.Y))
	c.setMessage("Color: " + c.palette[index].Name)
}

func (c *Controller) fillAtCursor() {
	col, _ := c.palette.Color(c.colorIndex)
	name, ok := c.engine.FloodFillAt(c.cursor.X, c.cursor.Y, col)
	if !ok {
		c.setMessage("Nothing to fill here")
		return
	}
	c.pub.Publish(update(streaming.TypeFill, streaming.FillPayload{Region: name, Hex: col.Hex()}))
	c.rec.Record(actionlog.Fill(name, c.cursor.X, c.cursor.Y, c.colorIndex, col.Hex()))
	c.setMessage(fmt.Sprintf("Filled %s", name))
	c.roundFill()
}

func (c *Controller) clearAtCursor() {
	name, ok := c.engine.HitTest(c.cursor.X, c.cursor.Y)
	if !ok {
		c.setMessage("Nothing to clear here")
		return
	}
	if !c.engine.ClearRegion(name) {
		c.setMessage(fmt.Sprintf("%s is already empty", name))
		return
	}
	c.pub.Publish(update(streaming.TypeClear, streaming.ClearPayload{Region: name}))
	c.rec.Record(actionlog.ClearFigure(name, c.cursor.X, c.cursor.Y))
	c.setMessage(fmt.Sprintf("Cleared %s", name))
	c.roundAction()
}

// nextPicture switches drawings; the cursor recenters and the color resets
// to the first palette entry. A running round ends unsuccessfully.
func (c *Controller) nextPicture(button string) {
	c.finishRound(false)
	d := c.engine.NextDrawing()
	c.resetPointer()
	c.publishDrawing()
	c.rec.Record(actionlog.NextPicture(button))
	if d != nil {
		c.setMessage("Drawing: " + d.DisplayName())
	}
}

func (c *Controller) clearAll(button string) {
	c.engine.ClearAll()
	c.pub.Publish(update(streaming.TypeClear, streaming.ClearPayload{}))
	c.rec.Record(actionlog.ClearAll(button))
	c.setMessage("Canvas cleared")
	c.roundAction()
}

func (c *Controller) resetPointer() {
	x, y := c.norm.Center()
	c.moveCursor(x, y)
	c.colorIndex = 0
	if col, ok := c.palette.Color(0); ok {
		c.pub.Publish(update(streaming.TypeColor, streaming.ColorPayload{Index: 0, Hex: col.Hex()}))
	}
}

// SelectColor selects a palette index directly.
func (c *Controller) SelectColor(ctx context.Context, index int) error {
	var err error
	if ierr := c.invoke(ctx, "select-color", func() {
		if c.replaying.Load() {
			err = ErrReplaying
			return
		}
		if _, ok := c.palette.Color(index); !ok {
			err = fmt.Errorf("palette index %d out of range", index)
			return
		}
		c.selectColor(index, "")
	}); ierr != nil {
		return ierr
	}
	return err
}

// Press runs a button as if it came from the device.
func (c *Controller) Press(ctx context.Context, b device.Button) error {
	var err error
	if ierr := c.invoke(ctx, "press", func() {
		if c.replaying.Load() {
			err = ErrReplaying
			return
		}
		c.handleButton(b)
	}); ierr != nil {
		return ierr
	}
	return err
}

// MoveCursor places the cursor at a canvas position, clamped to the canvas.
func (c *Controller) MoveCursor(ctx context.Context, x, y float64) error {
	var err error
	if ierr := c.invoke(ctx, "move-cursor", func() {
		if c.replaying.Load() {
			err = ErrReplaying
			return
		}
		x = clamp(x, 0, c.cfg.Canvas.Width-1)
		y = clamp(y, 0, c.cfg.Canvas.Height-1)
		c.moveCursor(x, y)
		c.rec.RecordCursor(x, y, 0, 0)
	}); ierr != nil {
		return ierr
	}
	return err
}

// ToggleJoystickMode flips between absolute and centered motion. Entering
// centered mode recenters the cursor.
func (c *Controller) ToggleJoystickMode(ctx context.Context) (joystick.Mode, error) {
	var mode joystick.Mode
	err := c.invoke(ctx, "toggle-mode", func() {
		if c.norm.Toggle() {
			x, y := c.norm.Center()
			c.moveCursor(x, y)
		}
		mode = c.norm.Mode()
		c.setMessage("Joystick mode: " + mode.String())
	})
	return mode, err
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
