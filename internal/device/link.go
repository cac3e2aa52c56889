package device

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
)

// ErrNoPort is returned by a connection attempt when no candidate port opened.
var ErrNoPort = errors.New("no serial port could be opened")

// maxLineLength bounds a single protocol line; longer input is dropped.
const maxLineLength = 256

// State is the connection state of a Link.
type State int32

const (
	Disconnected State = iota
	Opening
	Connected
)

func (s State) String() string {
	switch s {
	case Opening:
		return "opening"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Status is a connection status change, reported to the Sink.
type Status struct {
	State   State
	Port    string
	Baud    int
	Message string
	Err     error
}

// Sink receives decoded events and status changes. OnEvent is called from a
// single read goroutine per connection, in wire order.
type Sink interface {
	OnEvent(Event)
	OnStatus(Status)
}

// Config holds link timing and the preferred port list.
type Config struct {
	Baud          int
	ReadTimeout   time.Duration
	RetryInterval time.Duration
	CloseTimeout  time.Duration
	Preferred     []string
}

// DefaultConfig returns the stock serial settings.
func DefaultConfig() Config {
	return Config{
		Baud:          115200,
		ReadTimeout:   500 * time.Millisecond,
		RetryInterval: 2 * time.Second,
		CloseTimeout:  time.Second,
	}
}

// Link owns the serial connection lifecycle.
type Link struct {
	cfg    Config
	opener Opener
	sink   Sink
	log    zerolog.Logger

	state atomic.Int32

	decoded    metric.Int64Counter
	ignored    metric.Int64Counter
	reconnects metric.Int64Counter
}

// New creates a Link. Zero config fields fall back to DefaultConfig.
func New(cfg Config, opener Opener, sink Sink, log zerolog.Logger) (*Link, error) {
	def := DefaultConfig()
	if cfg.Baud <= 0 {
		cfg.Baud = def.Baud
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = def.CloseTimeout
	}

	l := &Link{
		cfg:    cfg,
		opener: opener,
		sink:   sink,
		log:    log.With().Str("component", "device").Logger(),
	}

	m := meter()
	var err error
	l.decoded, err = m.Int64Counter("device.lines.decoded",
		metric.WithDescription("Protocol lines decoded into events"))
	if err != nil {
		return nil, fmt.Errorf("create decoded counter: %w", err)
	}
	l.ignored, err = m.Int64Counter("device.lines.ignored",
		metric.WithDescription("Protocol lines that did not match"))
	if err != nil {
		return nil, fmt.Errorf("create ignored counter: %w", err)
	}
	l.reconnects, err = m.Int64Counter("device.reconnects",
		metric.WithDescription("Connection attempts after the first"))
	if err != nil {
		return nil, fmt.Errorf("create reconnects counter: %w", err)
	}
	return l, nil
}

// State returns the current connection state.
func (l *Link) State() State {
	return State(l.state.Load())
}

func (l *Link) setStatus(st Status) {
	l.state.Store(int32(st.State))
	l.sink.OnStatus(st)
}

// Candidates lists enumerated ports followed by preferred ports that were not
// enumerated.
func (l *Link) Candidates() []string {
	ports, err := l.opener.List()
	if err != nil {
		l.log.Debug().Err(err).Msg("port enumeration failed")
	}
	seen := make(map[string]bool, len(ports)+len(l.cfg.Preferred))
	out := make([]string, 0, len(ports)+len(l.cfg.Preferred))
	for _, p := range append(ports, l.cfg.Preferred...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func (l *Link) open() (Port, string, error) {
	for _, name := range l.Candidates() {
		p, err := l.opener.Open(name, l.cfg.Baud)
		if err != nil {
			l.log.Trace().Err(err).Str("port", name).Msg("open failed")
			continue
		}
		if err := p.SetReadTimeout(l.cfg.ReadTimeout); err != nil {
			l.log.Warn().Err(err).Str("port", name).Msg("set read timeout failed")
			_ = p.Close()
			continue
		}
		return p, name, nil
	}
	return nil, "", ErrNoPort
}

// Run connects and reads until ctx is cancelled, reconnecting after a fixed
// interval on any failure. It returns ctx.Err().
func (l *Link) Run(ctx context.Context) error {
	defer l.setStatus(Status{State: Disconnected, Message: "stopped"})

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt > 0 {
			l.reconnects.Add(ctx, 1)
		}

		l.setStatus(Status{State: Opening, Message: "searching for device"})
		port, name, err := l.open()
		if err != nil {
			l.setStatus(Status{State: Disconnected, Message: "device not found", Err: err})
		} else {
			l.log.Info().Str("port", name).Int("baud", l.cfg.Baud).Msg("connected")
			l.setStatus(Status{
				State:   Connected,
				Port:    name,
				Baud:    l.cfg.Baud,
				Message: fmt.Sprintf("connected to %s @ %d", name, l.cfg.Baud),
			})
			err = l.serve(ctx, port)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Warn().Err(err).Str("port", name).Msg("connection lost")
			l.setStatus(Status{State: Disconnected, Port: name, Message: "connection lost", Err: err})
		}

		select {
		case <-time.After(l.cfg.RetryInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// serve reads from port until an I/O fault or cancellation. The read runs on
// its own goroutine so a blocked Read cannot hold up shutdown past
// CloseTimeout.
func (l *Link) serve(ctx context.Context, port Port) error {
	done := make(chan error, 1)
	go func() {
		done <- l.readLoop(ctx, port)
	}()

	select {
	case err := <-done:
		_ = port.Close()
		return err
	case <-ctx.Done():
		_ = port.Close()
		select {
		case <-done:
		case <-time.After(l.cfg.CloseTimeout):
			l.log.Warn().Dur("timeout", l.cfg.CloseTimeout).Msg("read loop did not exit, abandoning")
		}
		return ctx.Err()
	}
}

func (l *Link) readLoop(ctx context.Context, port Port) error {
	split := lineSplitter{max: maxLineLength}
	buf := make([]byte, 128)
	emit := func(line string) {
		ev, ok := ParseLine(line)
		if !ok {
			l.ignored.Add(ctx, 1)
			return
		}
		l.decoded.Add(ctx, 1)
		l.sink.OnEvent(ev)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := port.Read(buf)
		if n > 0 && ctx.Err() == nil {
			split.feed(buf[:n], emit)
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
	}
}
