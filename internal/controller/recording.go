package controller

import (
	"context"

	"github.com/joypaint/joypaint/internal/actionlog"
)

// StartRecording opens a session on the active drawing. The current canvas
// is stored as the session's initial state.
func (c *Controller) StartRecording(ctx context.Context) error {
	var err error
	if ierr := c.invoke(ctx, "start-recording", func() {
		if c.replaying.Load() {
			err = ErrReplaying
			return
		}
		d := c.engine.Drawing()
		initial := actionlog.InitialState{
			Drawing:    d.Key(),
			Fills:      make(map[string]string),
			Cursor:     c.cursor,
			ColorIndex: c.colorIndex,
		}
		for name, col := range c.engine.Fills() {
			initial.Fills[name] = col.Hex()
		}
		if err = c.rec.Start(d.Key(), &initial); err != nil {
			return
		}
		c.setMessage("Recording")
	}); ierr != nil {
		return ierr
	}
	return err
}

// StopRecording closes the open session.
func (c *Controller) StopRecording(ctx context.Context) error {
	var err error
	if ierr := c.invoke(ctx, "stop-recording", func() {
		if err = c.rec.Stop(); err != nil {
			return
		}
		c.setMessage("Recording stopped")
	}); ierr != nil {
		return ierr
	}
	return err
}
