// Package controller owns the live coloring state. Every mutation of the
// cursor, the selected color, the paint engine and the recording/replay
// state happens on one event loop; the device link, replay goroutine and
// external callers hand work to it.
package controller

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/device"
	"github.com/joypaint/joypaint/internal/drawing"
	"github.com/joypaint/joypaint/internal/eventloop"
	"github.com/joypaint/joypaint/internal/feed"
	"github.com/joypaint/joypaint/internal/joystick"
	"github.com/joypaint/joypaint/internal/logging"
	"github.com/joypaint/joypaint/internal/paint"
	"github.com/joypaint/joypaint/internal/recorder"
	"github.com/joypaint/joypaint/internal/replay"
	"github.com/joypaint/joypaint/internal/storage"
	"github.com/joypaint/joypaint/internal/timedgame"
)

var (
	// ErrRecording is returned when playback is requested while recording.
	ErrRecording = errors.New("recording in progress")
	// ErrReplaying is returned when live-only actions are requested during
	// playback.
	ErrReplaying = errors.New("playback in progress")
	// ErrNoRound is returned when no timed round is running.
	ErrNoRound = errors.New("no timed round in progress")
)

const (
	inboxSize     = 256
	roundInterval = 250 * time.Millisecond

	// sendTimeout bounds how long the device goroutine waits for inbox room.
	sendTimeout = time.Second
)

// Publisher receives state changes for rendering.
type Publisher interface {
	Publish(feed.Update)
}

// Telemetry receives playback progress and round results.
type Telemetry interface {
	WriteProgress(sessionID uint, p replay.Progress)
	WriteRound(drawingKey string, r timedgame.Result)
}

// Config holds the controller's tunables.
type Config struct {
	Canvas         drawing.Size
	OutlineWidth   float64
	Coalesce       time.Duration
	CursorThrottle time.Duration
	Joystick       joystick.Config
	Mode           joystick.Mode
	RoundDuration  time.Duration
	IdleGap        time.Duration
	// LogTasks adds per-task debug logging on the event loop.
	LogTasks bool
}

// Deps are the controller's collaborators. Catalog and Store are required.
type Deps struct {
	Catalog   *drawing.Catalog
	Palette   drawing.Palette
	Store     storage.Store
	Publisher Publisher
	Telemetry Telemetry
	Observers []recorder.Observer
	Logger    zerolog.Logger
}

// Controller implements device.Sink.
type Controller struct {
	cfg     Config
	log     zerolog.Logger
	loop    *eventloop.Loop
	engine  *paint.Engine
	palette drawing.Palette
	norm    *joystick.Normalizer
	rec     *recorder.Recorder
	player  *replay.Player
	store   storage.Store
	pub     Publisher
	tel     Telemetry

	// loop-owned
	cursor     actionlog.Cursor
	colorIndex int
	message    string
	link       device.Status
	progress   replay.Progress
	playingID  uint
	round      *timedgame.Round
	lastRound  *timedgame.Result

	// read from the device goroutine
	replaying atomic.Bool

	// latest joystick reading, applied on the next coalescing tick
	pendingMu sync.Mutex
	pending   joystick.Reading
	hasNew    bool
}

var _ device.Sink = (*Controller)(nil)

type nopPublisher struct{}

func (nopPublisher) Publish(feed.Update) {}

type nopTelemetry struct{}

func (nopTelemetry) WriteProgress(uint, replay.Progress) {}
func (nopTelemetry) WriteRound(string, timedgame.Result) {}

// New builds a Controller showing the catalog's first drawing with the
// cursor centered.
func New(cfg Config, deps Deps) (*Controller, error) {
	if deps.Catalog == nil || deps.Catalog.Len() == 0 {
		return nil, errors.New("controller needs at least one drawing")
	}
	if deps.Store == nil {
		return nil, errors.New("controller needs a store")
	}
	if cfg.Canvas.Width <= 0 || cfg.Canvas.Height <= 0 {
		cfg.Canvas = drawing.Size{Width: 600, Height: 600}
	}
	if cfg.Coalesce <= 0 {
		cfg.Coalesce = 16 * time.Millisecond
	}
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = 60 * time.Second
	}
	if len(deps.Palette) == 0 {
		deps.Palette = drawing.DefaultPalette()
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if deps.Telemetry == nil {
		deps.Telemetry = nopTelemetry{}
	}
	jcfg := cfg.Joystick
	jcfg.Width, jcfg.Height = cfg.Canvas.Width, cfg.Canvas.Height

	log := deps.Logger.With().Str("component", "controller").Logger()

	var loopOpts []eventloop.Option
	if cfg.LogTasks {
		loopOpts = append(loopOpts, eventloop.Logged())
	}
	loop, err := eventloop.New(inboxSize, logging.NewKV(log), loopOpts...)
	if err != nil {
		return nil, err
	}

	recOpts := []recorder.Option{}
	if cfg.CursorThrottle > 0 {
		recOpts = append(recOpts, recorder.WithCursorThrottle(cfg.CursorThrottle))
	}
	for _, o := range deps.Observers {
		recOpts = append(recOpts, recorder.WithObserver(o))
	}
	rec, err := recorder.New(deps.Store, deps.Logger, recOpts...)
	if err != nil {
		return nil, err
	}
	player, err := replay.New(deps.Store, deps.Logger)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:     cfg,
		log:     log,
		loop:    loop,
		engine:  paint.New(deps.Catalog, cfg.Canvas, paint.WithOutlineWidth(cfg.OutlineWidth)),
		palette: deps.Palette,
		norm:    joystick.NewNormalizer(jcfg),
		rec:     rec,
		player:  player,
		store:   deps.Store,
		pub:     deps.Publisher,
		tel:     deps.Telemetry,
		message: "Ready",
	}
	c.norm.SetMode(cfg.Mode)
	c.cursor.X, c.cursor.Y = c.norm.Center()

	loop.Every("cursor", cfg.Coalesce, c.applyPendingCursor)
	loop.Every("round", roundInterval, c.checkRound)
	return c, nil
}

// Run processes events until ctx ends, then stops any playback and lets the
// recorder flush.
func (c *Controller) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.rec.Run(ctx)
	}()

	err := c.loop.Run(ctx)
	c.player.Stop()
	wg.Wait()
	return err
}

// OnEvent receives decoded device events. While a playback runs only STOP
// is honored. Stick readings are coalesced; presses and STOP wait for inbox
// room so none is lost or reordered.
func (c *Controller) OnEvent(ev device.Event) {
	switch ev.Kind {
	case device.EventStop:
		c.send("stop", func() {
			if c.player.Stop() {
				c.setMessage("Playback stopped from device")
			}
		})
	case device.EventJoystick:
		if c.replaying.Load() {
			return
		}
		c.pendingMu.Lock()
		c.pending = ev.Reading
		c.hasNew = true
		c.pendingMu.Unlock()
	case device.EventButton:
		if c.replaying.Load() {
			return
		}
		b := ev.Button
		c.send("button", func() { c.handleButton(b) })
	}
}

// OnStatus receives link status changes.
func (c *Controller) OnStatus(st device.Status) {
	c.post("link-status", func() {
		c.link = st
		c.setMessage(st.Message)
	})
}

func (c *Controller) post(name string, fn func()) {
	if err := c.loop.Post(name, fn); err != nil {
		c.log.Warn().Err(err).Str("task", name).Msg("event dropped")
	}
}

func (c *Controller) send(name string, fn func()) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := c.loop.Send(ctx, name, fn); err != nil {
		c.log.Warn().Err(err).Str("task", name).Msg("event dropped")
	}
}

func (c *Controller) invoke(ctx context.Context, name string, fn func()) error {
	return c.loop.Invoke(ctx, name, fn)
}

// Render draws the current canvas.
func (c *Controller) Render(ctx context.Context) (*image.RGBA, error) {
	var img *image.RGBA
	err := c.invoke(ctx, "render", func() { img = c.engine.Render() })
	return img, err
}

// ListSessions returns stored sessions, newest first.
func (c *Controller) ListSessions(ctx context.Context) ([]actionlog.SessionInfo, error) {
	return c.store.ListSessions(ctx)
}

// DeleteSession removes a stored session and its actions.
func (c *Controller) DeleteSession(ctx context.Context, id uint) (bool, error) {
	ok, err := c.store.DeleteSession(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete session %d: %w", id, err)
	}
	return ok, nil
}

// FlushRecording waits until queued actions reached the store.
func (c *Controller) FlushRecording(ctx context.Context) error {
	return c.rec.Flush(ctx)
}

// LastSessionID returns the id of the most recently stored recording.
func (c *Controller) LastSessionID() uint {
	return c.rec.LastSessionID()
}
