package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/drawing"
	"github.com/joypaint/joypaint/internal/replay"
	"github.com/joypaint/joypaint/pkg/streaming"
)

// ErrCorruptRecord is returned when a replayed record lacks the payload its
// kind requires.
var ErrCorruptRecord = errors.New("corrupt action record")

// Play replays a stored session and blocks until it finishes, is stopped
// (replay.ErrStopped) or fails. Live device input is ignored meanwhile,
// except STOP.
func (c *Controller) Play(ctx context.Context, sessionID uint) error {
	var err error
	if ierr := c.invoke(ctx, "play", func() {
		switch {
		case c.rec.Active():
			err = ErrRecording
		case c.replaying.Load():
			err = replay.ErrAlreadyPlaying
		default:
			c.replaying.Store(true)
			c.playingID = sessionID
			c.progress = replay.Progress{}
			c.pendingMu.Lock()
			c.hasNew = false
			c.pendingMu.Unlock()
			c.setMessage(fmt.Sprintf("Playing session %d", sessionID))
		}
	}); ierr != nil {
		return ierr
	}
	if err != nil {
		return err
	}

	err = c.player.Play(ctx, sessionID, c.applyFromReplay, func(p replay.Progress) {
		c.tel.WriteProgress(sessionID, p)
		_ = c.loop.Send(context.WithoutCancel(ctx), "replay-progress", func() {
			c.progress = p
			c.pub.Publish(update(streaming.TypeProgress, streaming.ProgressPayload{
				Session: sessionID,
				Percent: p.Percent,
				Index:   p.Index,
				Total:   p.Total,
			}))
		})
	})

	msg := "Playback finished"
	switch {
	case errors.Is(err, replay.ErrStopped):
		msg = "Playback stopped"
	case err != nil:
		msg = "Playback failed"
		c.log.Error().Err(err).Uint("session", sessionID).Msg("playback failed")
	}
	_ = c.loop.Send(context.WithoutCancel(ctx), "play-done", func() {
		c.replaying.Store(false)
		c.playingID = 0
		c.setMessage(msg)
	})
	return err
}

// PausePlayback freezes the running playback.
func (c *Controller) PausePlayback() bool {
	if !c.player.Pause() {
		return false
	}
	c.post("pause", func() { c.setMessage("Playback paused") })
	return true
}

// ResumePlayback continues a paused playback.
func (c *Controller) ResumePlayback() bool {
	if !c.player.Resume() {
		return false
	}
	c.post("resume", func() { c.setMessage("Playback resumed") })
	return true
}

// StopPlayback ends the running playback.
func (c *Controller) StopPlayback() bool {
	return c.player.Stop()
}

func (c *Controller) applyFromReplay(ctx context.Context, rec actionlog.Record) error {
	var err error
	if ierr := c.invoke(ctx, "replay", func() { err = c.apply(rec) }); ierr != nil {
		return ierr
	}
	return err
}

// apply performs a recorded action through the same engine calls live input
// uses. It never records.
func (c *Controller) apply(rec actionlog.Record) error {
	switch rec.Kind {
	case actionlog.KindInitialState:
		s, err := actionlog.DecodeInitialState(rec)
		if err != nil {
			return err
		}
		return c.restore(s)

	case actionlog.KindCursorMove:
		if rec.CursorX == nil || rec.CursorY == nil {
			return fmt.Errorf("%w: cursor move without position", ErrCorruptRecord)
		}
		c.moveCursor(*rec.CursorX, *rec.CursorY)

	case actionlog.KindColorSelect:
		idx, _, err := c.recordColor(rec)
		if err != nil {
			return err
		}
		if idx < 0 {
			return fmt.Errorf("%w: color %s not in palette", ErrCorruptRecord, rec.ColorHex)
		}
		c.followCursor(rec)
		c.colorIndex = idx
		col, _ := c.palette.Color(idx)
		c.pub.Publish(update(streaming.TypeColor, streaming.ColorPayload{Index: idx, Hex: col.Hex()}))

	case actionlog.KindFill:
		if rec.RegionName == "" {
			return fmt.Errorf("%w: fill without region", ErrCorruptRecord)
		}
		idx, col, err := c.recordColor(rec)
		if err != nil {
			return err
		}
		c.followCursor(rec)
		if idx >= 0 {
			c.colorIndex = idx
		}
		if !c.fillAtRecordedPoint(rec, col) {
			c.engine.FillRegion(rec.RegionName, col)
		}
		c.pub.Publish(update(streaming.TypeFill, streaming.FillPayload{Region: rec.RegionName, Hex: col.Hex()}))

	case actionlog.KindClearFigure:
		c.followCursor(rec)
		if c.engine.ClearRegion(rec.RegionName) {
			c.pub.Publish(update(streaming.TypeClear, streaming.ClearPayload{Region: rec.RegionName}))
		}

	case actionlog.KindNextPicture:
		c.engine.NextDrawing()
		c.resetPointer()
		c.publishDrawing()

	case actionlog.KindClearAll:
		c.engine.ClearAll()
		c.pub.Publish(update(streaming.TypeClear, streaming.ClearPayload{}))

	default:
		return fmt.Errorf("%w: unsupported kind %s", ErrCorruptRecord, rec.Kind)
	}
	return nil
}

// followCursor moves the cursor to where a recorded action took place.
// Records written without a position leave it alone.
func (c *Controller) followCursor(rec actionlog.Record) {
	if rec.CursorX == nil || rec.CursorY == nil {
		return
	}
	if *rec.CursorX == c.cursor.X && *rec.CursorY == c.cursor.Y {
		return
	}
	c.moveCursor(*rec.CursorX, *rec.CursorY)
}

// fillAtRecordedPoint floods from the recorded canvas point, as live input
// did. It reports false when the record has no point or the point no longer
// hits the recorded region.
func (c *Controller) fillAtRecordedPoint(rec actionlog.Record, col drawing.Color) bool {
	if rec.CanvasX == nil || rec.CanvasY == nil {
		return false
	}
	x, y := *rec.CanvasX, *rec.CanvasY
	if name, ok := c.engine.HitTest(x, y); !ok || name != rec.RegionName {
		return false
	}
	_, ok := c.engine.FloodFillAt(x, y, col)
	return ok
}

// recordColor resolves a record's color, preferring the palette index. The
// returned index is -1 when only the hex value was usable.
func (c *Controller) recordColor(rec actionlog.Record) (int, drawing.Color, error) {
	if rec.ColorIndex != nil {
		if col, ok := c.palette.Color(*rec.ColorIndex); ok {
			return *rec.ColorIndex, col, nil
		}
	}
	if rec.ColorHex == "" {
		return -1, drawing.Color{}, fmt.Errorf("%w: %s without color", ErrCorruptRecord, rec.Kind)
	}
	col, err := drawing.ParseHex(rec.ColorHex)
	if err != nil {
		return -1, drawing.Color{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return c.palette.IndexOf(col), col, nil
}

// restore replaces the canvas with a recorded initial state.
func (c *Controller) restore(s actionlog.InitialState) error {
	if s.Drawing != "" && !c.engine.SetActiveDrawing(s.Drawing) {
		c.log.Warn().Str("drawing", s.Drawing).Msg("initial state names an unknown drawing")
	}
	c.engine.ClearAll()
	for name, hex := range s.Fills {
		col, err := drawing.ParseHex(hex)
		if err != nil {
			return fmt.Errorf("%w: fill %s: %v", ErrCorruptRecord, name, err)
		}
		c.engine.FillRegion(name, col)
	}
	if _, ok := c.palette.Color(s.ColorIndex); ok {
		c.colorIndex = s.ColorIndex
	}
	c.moveCursor(
		clamp(s.Cursor.X, 0, c.cfg.Canvas.Width-1),
		clamp(s.Cursor.Y, 0, c.cfg.Canvas.Height-1),
	)
	c.publishDrawing()
	return nil
}
