// Package eventloop runs closures one at a time on a single goroutine. All
// state owned by the loop is read and written only from inside those
// closures, so it needs no locking.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrFull is returned by Post when the inbox has no room.
	ErrFull = errors.New("event loop inbox full")
	// ErrStopped is returned once Run has exited.
	ErrStopped = errors.New("event loop stopped")
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures a Loop.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging with timings to every task.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type task struct {
	name string
	fn   func()
}

type ticker struct {
	name  string
	every time.Duration
	fn    func()
}

// Loop is a single-consumer task runner.
type Loop struct {
	inbox   chan task
	tickers []ticker
	logger  Logger
	cfg     config
	done    chan struct{}

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	panics    metric.Int64Counter
}

// New creates a Loop with an inbox of the given size.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(size int, logger Logger, opts ...Option) (*Loop, error) {
	if size < 1 {
		size = 1
	}
	l := &Loop{
		inbox:  make(chan task, size),
		logger: logger,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&l.cfg)
	}

	m := meter()

	var err error

	l.queueSize, err = m.Int64ObservableGauge(
		"eventloop.queue.size",
		metric.WithDescription("Current number of tasks waiting in the inbox"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(l.queueSize, int64(len(l.inbox)))
			return nil
		},
		l.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	l.processed, err = m.Int64Counter(
		"eventloop.tasks.processed",
		metric.WithDescription("Total tasks run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	l.dropped, err = m.Int64Counter(
		"eventloop.tasks.dropped",
		metric.WithDescription("Total tasks dropped due to a full inbox"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	l.panics, err = m.Int64Counter(
		"eventloop.tasks.panicked",
		metric.WithDescription("Total tasks that panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating panic counter: %w", err)
	}

	return l, nil
}

// Every schedules fn on the loop at a fixed interval. It must be called
// before Run.
func (l *Loop) Every(name string, d time.Duration, fn func()) {
	if d <= 0 {
		return
	}
	l.tickers = append(l.tickers, ticker{name: name, every: d, fn: fn})
}

// Post enqueues fn without blocking.
func (l *Loop) Post(name string, fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.inbox <- task{name: name, fn: fn}:
		return nil
	default:
		l.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("task", name)))
		return fmt.Errorf("%w: %s", ErrFull, name)
	}
}

// Send enqueues fn, waiting for room. Tasks sent from one goroutine run in
// the order they were sent.
func (l *Loop) Send(ctx context.Context, name string, fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.inbox <- task{name: name, fn: fn}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Invoke runs fn on the loop and waits for it to finish. It must not be
// called from a task, which would deadlock. If ctx ends first fn may still
// run later.
func (l *Loop) Invoke(ctx context.Context, name string, fn func()) error {
	finished := make(chan struct{})
	err := l.Send(ctx, name, func() {
		defer close(finished)
		fn()
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes tasks until ctx ends. Tasks still queued at that point are
// discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticks := make(chan int, len(l.tickers))
	for i, t := range l.tickers {
		go func(i int, every time.Duration) {
			tk := time.NewTicker(every)
			defer tk.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-tk.C:
					select {
					case ticks <- i:
					default:
					}
				}
			}
		}(i, t.every)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-l.inbox:
			l.run(t)
		case i := <-ticks:
			l.run(task{name: l.tickers[i].name, fn: l.tickers[i].fn})
		}
	}
}

func (l *Loop) run(t task) {
	start := time.Now()
	if l.cfg.logged {
		l.logger.Debug("running task", "task", t.name)
	}

	defer func() {
		attrs := metric.WithAttributes(attribute.String("task", t.name))
		if r := recover(); r != nil {
			l.panics.Add(context.Background(), 1, attrs)
			l.logger.Error("task panicked", "task", t.name, "duration", time.Since(start), "panic", r)
			return
		}
		l.processed.Add(context.Background(), 1, attrs)
		if l.cfg.logged {
			l.logger.Debug("task complete", "task", t.name, "duration", time.Since(start))
		}
	}()

	t.fn()
}
