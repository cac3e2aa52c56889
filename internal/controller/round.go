package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/joypaint/joypaint/internal/timedgame"
	"github.com/joypaint/joypaint/pkg/streaming"
)

// StartTimedGame clears the canvas and starts a round. A zero duration uses
// the configured default.
func (c *Controller) StartTimedGame(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		duration = c.cfg.RoundDuration
	}
	var err error
	if ierr := c.invoke(ctx, "start-round", func() {
		if c.replaying.Load() {
			err = ErrReplaying
			return
		}
		c.finishRound(false)
		c.engine.ClearAll()
		c.pub.Publish(update(streaming.TypeClear, streaming.ClearPayload{}))
		c.round = timedgame.Start(duration, c.cfg.IdleGap, time.Now())
		c.lastRound = nil
		c.setMessage(fmt.Sprintf("Round started: %s", duration))
	}); ierr != nil {
		return ierr
	}
	return err
}

// StopTimedGame ends the running round early and returns its result.
func (c *Controller) StopTimedGame(ctx context.Context) (timedgame.Result, error) {
	var res timedgame.Result
	var err error
	if ierr := c.invoke(ctx, "stop-round", func() {
		if c.round == nil {
			err = ErrNoRound
			return
		}
		c.finishRound(false)
		res = *c.lastRound
	}); ierr != nil {
		return res, ierr
	}
	return res, err
}

func (c *Controller) roundAction() {
	if c.round != nil {
		c.round.RecordAction(time.Now())
	}
}

// roundFill scores a fill and ends the round once the drawing is complete.
func (c *Controller) roundFill() {
	if c.round == nil {
		return
	}
	c.round.RecordFill(time.Now())
	if c.engine.IsComplete() {
		c.finishRound(true)
	}
}

// checkRound runs on the loop ticker and ends an expired round.
func (c *Controller) checkRound() {
	if c.round != nil && c.round.Expired(time.Now()) {
		c.finishRound(false)
	}
}

func (c *Controller) finishRound(success bool) {
	if c.round == nil {
		return
	}
	d := c.engine.Drawing()
	res := c.round.Finish(time.Now(), c.engine.FilledCount(), d.RegionCount(), success)
	c.round = nil
	c.lastRound = &res

	c.tel.WriteRound(d.Key(), res)
	c.pub.Publish(update(streaming.TypeRound, streaming.RoundPayload{
		Drawing:           d.Key(),
		Success:           res.Success,
		ElapsedMs:         res.Elapsed.Milliseconds(),
		FilledRegions:     res.FilledRegions,
		TotalRegions:      res.TotalRegions,
		FillActions:       res.FillActions,
		CompletionPercent: res.CompletionPercent(),
		ActionsPerMinute:  res.ActionsPerMinute(),
	}))
	if success {
		c.setMessage(fmt.Sprintf("Round complete in %s", res.Elapsed.Round(time.Second)))
	} else {
		c.setMessage(fmt.Sprintf("Round over: %.0f%% filled", res.CompletionPercent()))
	}
	c.log.Info().Bool("success", res.Success).Dur("elapsed", res.Elapsed).
		Int("filled", res.FilledRegions).Int("total", res.TotalRegions).Msg("round finished")
}
