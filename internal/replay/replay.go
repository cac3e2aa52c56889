// Package replay plays recorded sessions back with their original pacing.
package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joypaint/joypaint/internal/actionlog"
)

const instrumentationName = "github.com/joypaint/joypaint/internal/replay"

var (
	// ErrAlreadyPlaying is returned by Play while another playback runs.
	ErrAlreadyPlaying = errors.New("a session is already playing")
	// ErrStopped is returned by Play when Stop ended the playback.
	ErrStopped = errors.New("playback stopped")
)

// Loader reads a session's actions in replay order.
type Loader interface {
	LoadActions(ctx context.Context, sessionID uint) ([]actionlog.Record, error)
}

// Apply performs one action. It is expected to hand the work to the event
// loop and return once it ran. An error aborts the playback.
type Apply func(ctx context.Context, rec actionlog.Record) error

// Progress is reported after every paced action.
type Progress struct {
	Percent float64
	Index   int
	Total   int
}

// ProgressFunc receives progress updates from the playback goroutine.
type ProgressFunc func(Progress)

// Player runs at most one playback at a time.
type Player struct {
	loader Loader
	log    zerolog.Logger

	mu          sync.Mutex
	playing     bool
	paused      bool
	pausedAt    time.Time
	pausedTotal time.Duration
	cancel      context.CancelFunc
	wake        chan struct{}

	applied metric.Int64Counter
	runs    metric.Int64Counter
}

// New creates a Player reading sessions from loader.
func New(loader Loader, log zerolog.Logger) (*Player, error) {
	p := &Player{
		loader: loader,
		log:    log.With().Str("component", "replay").Logger(),
		wake:   make(chan struct{}, 1),
	}

	m := otel.Meter(instrumentationName)
	var err error
	p.applied, err = m.Int64Counter("replay.actions.applied",
		metric.WithDescription("Actions applied during playback"))
	if err != nil {
		return nil, fmt.Errorf("creating applied counter: %w", err)
	}
	p.runs, err = m.Int64Counter("replay.sessions",
		metric.WithDescription("Playbacks by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}
	return p, nil
}

// Playing reports whether a playback is in progress.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Paused reports whether the running playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && p.paused
}

// Pause freezes the playback between actions.
func (p *Player) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || p.paused {
		return false
	}
	p.paused = true
	p.pausedAt = time.Now()
	p.signal()
	return true
}

// Resume continues a paused playback. Time spent paused is excluded from
// all later pacing.
func (p *Player) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || !p.paused {
		return false
	}
	p.pausedTotal += time.Since(p.pausedAt)
	p.paused = false
	p.signal()
	return true
}

// Stop ends the running playback. Play returns ErrStopped.
func (p *Player) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return false
	}
	p.cancel()
	return true
}

func (p *Player) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Player) begin(ctx context.Context) (context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return nil, ErrAlreadyPlaying
	}
	ctx, cancel := context.WithCancel(ctx)
	p.playing = true
	p.paused = false
	p.pausedTotal = 0
	p.cancel = cancel
	select {
	case <-p.wake:
	default:
	}
	return ctx, nil
}

func (p *Player) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancel()
	p.playing = false
	p.paused = false
}

// Play loads sessionID and applies its actions, sleeping so each one lands
// at its recorded offset from the first paced action. A leading
// InitialState record is applied at once and not counted in progress.
// progress may be nil.
func (p *Player) Play(parent context.Context, sessionID uint, apply Apply, progress ProgressFunc) (err error) {
	ctx, err := p.begin(parent)
	if err != nil {
		return err
	}
	defer p.end()
	defer func() {
		outcome := "completed"
		if err != nil {
			outcome = "failed"
			if errors.Is(err, ErrStopped) {
				outcome = "stopped"
			}
		}
		p.runs.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()
	if progress == nil {
		progress = func(Progress) {}
	}

	recs, err := p.loader.LoadActions(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %d: %w", sessionID, err)
	}
	log := p.log.With().Uint("session", sessionID).Int("actions", len(recs)).Logger()
	log.Info().Msg("playback started")

	if len(recs) > 0 && recs[0].Kind == actionlog.KindInitialState {
		if err := apply(ctx, recs[0]); err != nil {
			return p.abort(parent, ctx, fmt.Errorf("apply initial state: %w", err))
		}
		recs = recs[1:]
	}

	total := len(recs)
	progress(Progress{Percent: 0, Index: 0, Total: total})

	var firstTs int64
	if total > 0 {
		firstTs = recs[0].TimestampMs
	}
	start := time.Now()

	for i, rec := range recs {
		target := time.Duration(rec.TimestampMs-firstTs) * time.Millisecond
		if err := p.waitUntil(ctx, start, target); err != nil {
			return p.abort(parent, ctx, err)
		}
		if err := apply(ctx, rec); err != nil {
			return p.abort(parent, ctx, fmt.Errorf("apply action %d (%s): %w", rec.ID, rec.Kind, err))
		}
		p.applied.Add(ctx, 1)
		progress(Progress{Percent: float64(i+1) / float64(total) * 100, Index: i + 1, Total: total})
	}

	if total == 0 {
		progress(Progress{Percent: 100, Index: 0, Total: 0})
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("playback finished")
	return nil
}

// abort maps a cancellation caused by Stop to ErrStopped.
func (p *Player) abort(parent, ctx context.Context, err error) error {
	if ctx.Err() != nil && parent.Err() == nil {
		p.log.Info().Msg("playback stopped")
		return ErrStopped
	}
	return err
}

// waitUntil blocks until target of unpaused time has passed since start.
func (p *Player) waitUntil(ctx context.Context, start time.Time, target time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.mu.Lock()
		paused := p.paused
		elapsed := time.Since(start) - p.pausedTotal
		p.mu.Unlock()

		if paused {
			select {
			case <-p.wake:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if elapsed >= target {
			return nil
		}

		timer := time.NewTimer(target - elapsed)
		select {
		case <-timer.C:
		case <-p.wake:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
