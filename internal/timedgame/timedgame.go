// Package timedgame scores a timed coloring round.
package timedgame

import "time"

// DefaultIdleGap is the longest pause between actions still counted as
// active play.
const DefaultIdleGap = 2 * time.Second

// Result summarizes a finished round.
type Result struct {
	Success       bool
	RoundDuration time.Duration
	Elapsed       time.Duration
	FilledRegions int
	TotalRegions  int
	FillActions   int
	ActiveTime    time.Duration
	IdleTime      time.Duration
}

// CompletionPercent is the share of regions filled, 0 to 100.
func (r Result) CompletionPercent() float64 {
	if r.TotalRegions <= 0 {
		return 0
	}
	return float64(r.FilledRegions) / float64(r.TotalRegions) * 100
}

// ActionsPerMinute is the fill rate over the elapsed time.
func (r Result) ActionsPerMinute() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.FillActions) / r.Elapsed.Minutes()
}

// Round tracks one timed round. It is not safe for concurrent use.
type Round struct {
	duration time.Duration
	idleGap  time.Duration
	start    time.Time
	last     time.Time

	active      time.Duration
	fillActions int
	finished    bool
}

// Start begins a round of the given length at now.
func Start(duration, idleGap time.Duration, now time.Time) *Round {
	if idleGap <= 0 {
		idleGap = DefaultIdleGap
	}
	return &Round{
		duration: duration,
		idleGap:  idleGap,
		start:    now,
		last:     now,
	}
}

// Duration returns the configured round length.
func (r *Round) Duration() time.Duration {
	return r.duration
}

// Finished reports whether Finish was called.
func (r *Round) Finished() bool {
	return r.finished
}

// Remaining returns the time left at now, never negative.
func (r *Round) Remaining(now time.Time) time.Duration {
	left := r.duration - now.Sub(r.start)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the round time ran out at now.
func (r *Round) Expired(now time.Time) bool {
	return r.Remaining(now) == 0
}

// RecordAction notes any user action at now. The gap since the previous
// action counts as active unless it exceeds the idle gap.
func (r *Round) RecordAction(now time.Time) {
	if r.finished {
		return
	}
	now = r.clamp(now)
	if gap := now.Sub(r.last); gap > 0 && gap <= r.idleGap {
		r.active += gap
	}
	if now.After(r.last) {
		r.last = now
	}
}

// RecordFill notes a fill action at now.
func (r *Round) RecordFill(now time.Time) {
	if r.finished {
		return
	}
	r.RecordAction(now)
	r.fillActions++
}

// Finish closes the round at now. success is true when every region was
// filled before time ran out.
func (r *Round) Finish(now time.Time, filled, total int, success bool) Result {
	now = r.clamp(now)
	r.RecordAction(now)
	r.finished = true

	elapsed := now.Sub(r.start)
	idle := elapsed - r.active
	if idle < 0 {
		idle = 0
	}
	return Result{
		Success:       success,
		RoundDuration: r.duration,
		Elapsed:       elapsed,
		FilledRegions: filled,
		TotalRegions:  total,
		FillActions:   r.fillActions,
		ActiveTime:    r.active,
		IdleTime:      idle,
	}
}

func (r *Round) clamp(now time.Time) time.Time {
	if end := r.start.Add(r.duration); now.After(end) {
		return end
	}
	return now
}
