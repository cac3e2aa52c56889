package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/joypaint/joypaint/internal/config"
	"github.com/joypaint/joypaint/internal/controller"
	"github.com/joypaint/joypaint/internal/device"
	"github.com/joypaint/joypaint/internal/drawing"
	"github.com/joypaint/joypaint/internal/feed"
	"github.com/joypaint/joypaint/internal/joystick"
	"github.com/joypaint/joypaint/internal/monitor"
	"github.com/joypaint/joypaint/internal/recorder"
	"github.com/joypaint/joypaint/internal/replay"
	"github.com/joypaint/joypaint/internal/storage"
	"github.com/joypaint/joypaint/internal/storage/factory"
	"github.com/joypaint/joypaint/internal/telemetry"
	"github.com/joypaint/joypaint/pkg/streaming"
)

func openStore(ctx context.Context, logger zerolog.Logger) (storage.Store, error) {
	store, err := factory.NewStore(config.GetStorageConfig(), logger)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	return store, nil
}

func controllerConfig(logger zerolog.Logger) (controller.Config, error) {
	canvas := config.GetCanvasConfig()
	jc := config.GetJoystickConfig()
	game := config.GetGameConfig()

	mode, err := joystick.ParseMode(jc.Mode)
	if err != nil {
		return controller.Config{}, err
	}
	return controller.Config{
		Canvas:         drawing.Size{Width: canvas.Width, Height: canvas.Height},
		OutlineWidth:   canvas.OutlineWidth,
		Coalesce:       canvas.CoalesceInterval,
		CursorThrottle: config.GetRecorderConfig().CursorThrottle,
		Joystick: joystick.Config{
			RawMax:       jc.RawMax,
			CenterX:      jc.CenterX,
			CenterY:      jc.CenterY,
			DeadZone:     jc.DeadZone,
			SpeedDivider: jc.SpeedDivider,
			MaxSpeed:     jc.MaxSpeed,
		},
		Mode:          mode,
		RoundDuration: game.RoundDuration,
		IdleGap:       game.IdleGap,
		LogTasks:      logger.GetLevel() <= zerolog.TraceLevel,
	}, nil
}

// run starts the activity and blocks until ctx ends or the console quits.
// A non-zero replayID is played once everything is up.
func run(ctx context.Context, logger zerolog.Logger, replayID uint) error {
	logger.Info().Str("version", Version).Str("build", BuildDate).Msg("Starting up...")

	store, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	tel, err := telemetry.New(config.GetInfluxConfig(), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry unavailable, continuing without it")
		tel = telemetry.Disabled()
	}
	defer tel.Close()

	cfg, err := controllerConfig(logger)
	if err != nil {
		return err
	}
	catalog := drawing.Builtin()

	pub := feed.New(config.GetFeedConfig(), logger)
	if pub.Enabled() {
		if err := pub.Start(); err != nil {
			logger.Warn().Err(err).Msg("Feed unreachable, retrying in background")
		}
		err := pub.Hello(streaming.HelloPayload{
			App:     AppName + " " + Version,
			Drawing: catalog.First().Key(),
			Width:   int(cfg.Canvas.Width),
			Height:  int(cfg.Canvas.Height),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Feed hello not acknowledged")
		}
	}
	defer func() {
		if err := pub.Goodbye(); err != nil {
			logger.Debug().Err(err).Msg("Feed goodbye not acknowledged")
		}
		_ = pub.Close()
	}()

	ctrl, err := controller.New(cfg, controller.Deps{
		Catalog:   catalog,
		Store:     store,
		Publisher: pub,
		Telemetry: tel,
		Observers: []recorder.Observer{tel.WriteAction},
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	sc := config.GetSerialConfig()
	link, err := device.New(device.Config{
		Baud:          sc.BaudRate,
		ReadTimeout:   sc.ReadTimeout,
		RetryInterval: sc.RetryInterval,
		CloseTimeout:  sc.CloseTimeout,
		Preferred:     sc.PreferredPorts,
	}, device.SerialOpener{}, ctrl, logger)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := ctrl.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Controller stopped")
		}
	}()
	go func() {
		defer wg.Done()
		link.Run(runCtx)
	}()

	mon := monitor.NewService(monitor.Dependencies{
		Status: func(ctx context.Context) (monitor.Report, error) {
			st, err := ctrl.Snapshot(ctx)
			return report(st), err
		},
		StatusDir: config.GetString("statusDir"),
		Logger:    logger,
	})
	if err := mon.Start(); err != nil {
		logger.Warn().Err(err).Msg("Status monitor not started")
	}
	defer mon.Stop()

	if replayID != 0 {
		go func() {
			err := ctrl.Play(runCtx, replayID)
			if err != nil && !errors.Is(err, replay.ErrStopped) && runCtx.Err() == nil {
				logger.Error().Err(err).Uint("session", replayID).Msg("Replay failed")
			}
		}()
	}

	con := newConsole(ctrl, os.Stdout)
	go con.run(runCtx, os.Stdin, cancel)

	logger.Info().Msg("Ready")
	<-runCtx.Done()
	cancel()
	wg.Wait()
	logger.Info().Msg("Shut down")
	return nil
}

func report(st controller.Status) monitor.Report {
	return monitor.Report{
		Link:          st.Link.String(),
		Port:          st.Port,
		Mode:          st.Mode.String(),
		Drawing:       st.Drawing,
		FilledRegions: len(st.Fills),
		Complete:      st.Complete,
		Recording:     st.Recording,
		RecordingMs:   st.Elapsed.Milliseconds(),
		LastSession:   st.LastSession,
		Replaying:     st.Replaying,
		Paused:        st.Paused,
		ReplayPercent: st.Progress.Percent,
		RoundActive:   st.RoundActive,
		RoundLeftMs:   st.RoundRemaining.Milliseconds(),
		Message:       st.Message,
	}
}
