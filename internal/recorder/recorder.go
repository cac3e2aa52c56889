// Package recorder captures actions into sessions. The capture side is called
// from the event loop and never blocks; a writer goroutine drains a queue
// into the store, logging and dropping anything the store rejects.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/queue"
	"github.com/joypaint/joypaint/internal/storage"
)

const instrumentationName = "github.com/joypaint/joypaint/internal/recorder"

var (
	// ErrAlreadyRecording is returned by Start while a session is open.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrNotRecording is returned by Stop when no session is open.
	ErrNotRecording = errors.New("not recording")
)

// drainTimeout bounds the final flush after the writer is cancelled.
const drainTimeout = 5 * time.Second

type opKind int

const (
	opBegin opKind = iota
	opAppend
	opEnd
	opBarrier
)

// op is one unit of work for the writer. token identifies the local
// recording; the store's session id is only known once opBegin ran.
type op struct {
	kind       opKind
	token      uint64
	drawingKey string
	at         time.Time
	recs       []actionlog.Record
	done       chan struct{}
}

// Observer is notified of every record the store accepted.
type Observer func(actionlog.Record)

// Option configures a Recorder.
type Option func(*Recorder)

// WithCursorThrottle sets the minimum interval between recorded cursor moves.
func WithCursorThrottle(d time.Duration) Option {
	return func(r *Recorder) {
		r.throttle = d
	}
}

// WithObserver registers fn to receive persisted records.
func WithObserver(fn Observer) Option {
	return func(r *Recorder) {
		r.observers = append(r.observers, fn)
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// Recorder is not safe for concurrent capture calls; Start, Stop, Record and
// RecordCursor belong to a single goroutine. Flush and LastSessionID may be
// called from anywhere.
type Recorder struct {
	store     storage.Store
	log       zerolog.Logger
	ops       *queue.Queue[op]
	throttle  time.Duration
	observers []Observer
	now       func() time.Time

	// capture side
	active     bool
	token      uint64
	startedAt  time.Time
	lastTs     int64
	lastCursor time.Time

	// writer side
	sessions map[uint64]uint
	lastID   atomic.Uint64

	written metric.Int64Counter
	failed  metric.Int64Counter
}

// New creates a Recorder writing to store.
func New(store storage.Store, log zerolog.Logger, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		store:    store,
		log:      log.With().Str("component", "recorder").Logger(),
		ops:      queue.New[op](),
		throttle: 100 * time.Millisecond,
		now:      time.Now,
		sessions: make(map[uint64]uint),
	}
	for _, opt := range opts {
		opt(r)
	}

	m := otel.Meter(instrumentationName)
	var err error
	r.written, err = m.Int64Counter("recorder.actions.written",
		metric.WithDescription("Actions accepted by the store"))
	if err != nil {
		return nil, fmt.Errorf("creating written counter: %w", err)
	}
	r.failed, err = m.Int64Counter("recorder.write.errors",
		metric.WithDescription("Store calls that failed"))
	if err != nil {
		return nil, fmt.Errorf("creating error counter: %w", err)
	}
	return r, nil
}

// Active reports whether a session is being captured.
func (r *Recorder) Active() bool {
	return r.active
}

// Elapsed returns the time since the current session started.
func (r *Recorder) Elapsed() time.Duration {
	if !r.active {
		return 0
	}
	return r.now().Sub(r.startedAt)
}

// Start opens a session for drawingKey. When initial is not nil it is
// recorded first, at timestamp zero.
func (r *Recorder) Start(drawingKey string, initial *actionlog.InitialState) error {
	if r.active {
		return ErrAlreadyRecording
	}

	var first *actionlog.Record
	if initial != nil {
		rec, err := initial.Record()
		if err != nil {
			return err
		}
		first = &rec
	}

	r.token++
	r.active = true
	r.startedAt = r.now()
	r.lastTs = 0
	r.lastCursor = time.Time{}
	r.ops.Push(op{kind: opBegin, token: r.token, drawingKey: drawingKey, at: r.startedAt})

	if first != nil {
		first.OccurredAt = r.startedAt
		r.push(*first)
	}
	r.log.Info().Str("drawing", drawingKey).Msg("recording started")
	return nil
}

// Stop closes the current session.
func (r *Recorder) Stop() error {
	if !r.active {
		return ErrNotRecording
	}
	r.active = false
	r.ops.Push(op{kind: opEnd, token: r.token, at: r.now()})
	r.log.Info().Dur("elapsed", r.now().Sub(r.startedAt)).Msg("recording stopped")
	return nil
}

// Record stamps rec with the time since Start and queues it. It is a no-op
// when not recording.
func (r *Recorder) Record(rec actionlog.Record) {
	if !r.active {
		return
	}
	now := r.now()
	ts := now.Sub(r.startedAt).Milliseconds()
	if ts < r.lastTs {
		ts = r.lastTs
	}
	r.lastTs = ts
	rec.TimestampMs = ts
	rec.OccurredAt = now
	r.push(rec)
}

func (r *Recorder) push(rec actionlog.Record) {
	r.ops.Push(op{kind: opAppend, token: r.token, recs: []actionlog.Record{rec}})
}

// RecordCursor records a cursor move unless one was recorded less than the
// throttle interval ago. It reports whether the move was recorded.
func (r *Recorder) RecordCursor(x, y float64, rawX, rawY int) bool {
	if !r.active {
		return false
	}
	now := r.now()
	if !r.lastCursor.IsZero() && now.Sub(r.lastCursor) < r.throttle {
		return false
	}
	r.lastCursor = now
	r.Record(actionlog.CursorMove(x, y, rawX, rawY))
	return true
}

// Flush waits until everything queued before the call has been handed to
// the store. Run must be running.
func (r *Recorder) Flush(ctx context.Context) error {
	done := make(chan struct{})
	r.ops.Push(op{kind: opBarrier, done: done})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastSessionID returns the store id of the most recently created session,
// or zero.
func (r *Recorder) LastSessionID() uint {
	return uint(r.lastID.Load())
}

// Run drains the queue into the store until ctx is cancelled, then writes
// whatever is left within a bounded time.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-r.ops.Ready():
			r.drain(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			r.drain(final)
			cancel()
			return ctx.Err()
		}
	}
}

func (r *Recorder) drain(ctx context.Context) {
	ops := r.ops.GetAndEmpty()
	for i := 0; i < len(ops); i++ {
		o := ops[i]
		switch o.kind {
		case opBegin:
			id, err := r.store.CreateSession(ctx, o.drawingKey, o.at)
			if err != nil {
				r.failed.Add(ctx, 1)
				r.log.Error().Err(err).Str("drawing", o.drawingKey).Msg("failed to create session, actions will not be saved")
				continue
			}
			r.sessions[o.token] = id
			r.lastID.Store(uint64(id))
			r.log.Debug().Uint("session", id).Msg("session created")

		case opAppend:
			// merge the run of appends for the same recording
			recs := append([]actionlog.Record(nil), o.recs...)
			for i+1 < len(ops) && ops[i+1].kind == opAppend && ops[i+1].token == o.token {
				i++
				recs = append(recs, ops[i].recs...)
			}
			r.write(ctx, o.token, recs)

		case opEnd:
			id, ok := r.sessions[o.token]
			if !ok {
				continue
			}
			delete(r.sessions, o.token)
			if err := r.store.CloseSession(ctx, id, o.at); err != nil {
				r.failed.Add(ctx, 1)
				r.log.Error().Err(err).Uint("session", id).Msg("failed to close session")
			}

		case opBarrier:
			close(o.done)
		}
	}
}

func (r *Recorder) write(ctx context.Context, token uint64, recs []actionlog.Record) {
	id, ok := r.sessions[token]
	if !ok {
		return
	}
	for i := range recs {
		recs[i].SessionID = id
	}

	if b, ok := r.store.(storage.BatchAppender); ok {
		if err := b.AppendActions(ctx, recs); err != nil {
			r.failed.Add(ctx, 1)
			r.log.Error().Err(err).Uint("session", id).Int("count", len(recs)).Msg("failed to save actions")
			return
		}
		r.accepted(ctx, recs)
		return
	}

	for _, rec := range recs {
		if err := r.store.AppendAction(ctx, rec); err != nil {
			r.failed.Add(ctx, 1)
			r.log.Error().Err(err).Uint("session", id).Str("kind", rec.Kind.String()).Msg("failed to save action")
			continue
		}
		r.accepted(ctx, []actionlog.Record{rec})
	}
}

func (r *Recorder) accepted(ctx context.Context, recs []actionlog.Record) {
	r.written.Add(ctx, int64(len(recs)))
	for _, rec := range recs {
		for _, fn := range r.observers {
			fn(rec)
		}
	}
}
