package controller

import (
	"context"
	"time"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/device"
	"github.com/joypaint/joypaint/internal/drawing"
	"github.com/joypaint/joypaint/internal/feed"
	"github.com/joypaint/joypaint/internal/joystick"
	"github.com/joypaint/joypaint/internal/replay"
	"github.com/joypaint/joypaint/internal/timedgame"
	"github.com/joypaint/joypaint/pkg/streaming"
)

// Status is a point-in-time copy of the controller state.
type Status struct {
	Link        device.State
	Port        string
	Mode        joystick.Mode
	Drawing     string
	Cursor      actionlog.Cursor
	ColorIndex  int
	Fills       map[string]drawing.Color
	Complete    bool
	Recording   bool
	Elapsed     time.Duration
	LastSession uint
	Replaying   bool
	Paused      bool
	PlayingID   uint
	Progress    replay.Progress
	Message     string

	RoundActive    bool
	RoundRemaining time.Duration
	LastRound      *timedgame.Result
}

// Snapshot returns the current state.
func (c *Controller) Snapshot(ctx context.Context) (Status, error) {
	var st Status
	err := c.invoke(ctx, "snapshot", func() { st = c.status() })
	return st, err
}

func (c *Controller) status() Status {
	st := Status{
		Link:        c.link.State,
		Port:        c.link.Port,
		Mode:        c.norm.Mode(),
		Cursor:      c.cursor,
		ColorIndex:  c.colorIndex,
		Fills:       c.engine.Fills(),
		Complete:    c.engine.IsComplete(),
		Recording:   c.rec.Active(),
		Elapsed:     c.rec.Elapsed(),
		LastSession: c.rec.LastSessionID(),
		Replaying:   c.replaying.Load(),
		Paused:      c.player.Paused(),
		PlayingID:   c.playingID,
		Progress:    c.progress,
		Message:     c.message,
		LastRound:   c.lastRound,
	}
	if d := c.engine.Drawing(); d != nil {
		st.Drawing = d.Key()
	}
	if c.round != nil {
		st.RoundActive = true
		st.RoundRemaining = c.round.Remaining(time.Now())
	}
	return st
}

func (c *Controller) setMessage(msg string) {
	if msg == "" {
		return
	}
	c.message = msg
	c.log.Debug().Str("status", msg).Msg("status")
	c.pub.Publish(update(streaming.TypeStatus, streaming.StatusPayload{
		Message:   msg,
		Link:      c.link.State.String(),
		Recording: c.rec.Active(),
		Replaying: c.replaying.Load(),
	}))
}

func (c *Controller) publishDrawing() {
	d := c.engine.Drawing()
	if d == nil {
		return
	}
	fills := make(map[string]string)
	for name, col := range c.engine.Fills() {
		fills[name] = col.Hex()
	}
	c.pub.Publish(update(streaming.TypeDrawing, streaming.DrawingPayload{
		Key:   d.Key(),
		Name:  d.DisplayName(),
		Fills: fills,
	}))
}

func update(msgType string, payload any) feed.Update {
	return feed.Update{Type: msgType, Payload: payload}
}
