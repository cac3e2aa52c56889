package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/joypaint/joypaint/internal/api"
	"github.com/joypaint/joypaint/internal/config"
	"github.com/joypaint/joypaint/internal/logging"
)

// BuildDate can be set at build time via ldflags
var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"

	AppName string = "joypaint"
)

const usage = `usage: joypaint [command]

commands:
  run                 start the activity (default)
  replay <id>         start the activity and play a stored session
  sessions            list stored sessions
  export <id> <file>  write a session as gzipped JSON
  upload <id>         send a session to the gallery
  delete <id>...      delete stored sessions
  version             print the version`

func main() {
	configDir := os.Getenv("JOYPAINT_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	cfgErr := config.Load(configDir)

	graylog := ""
	if gc := config.GetGraylogConfig(); gc.Enabled {
		graylog = gc.Address
	}
	logger, closeLog, err := logging.Setup(logging.Options{
		Level:          config.GetString("logLevel"),
		LogsDir:        config.GetString("logsDir"),
		Name:           AppName,
		Start:          time.Now(),
		GraylogAddress: graylog,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	if cfgErr != nil {
		logger.Warn().Err(cfgErr).Msg("Failed to load config, using defaults!")
	} else {
		logger.Info().Str("dir", configDir).Msg("Loaded config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = dispatch(ctx, logger, os.Args[1:])
	stop()
	if err != nil {
		logger.Error().Err(err).Msg("Command failed")
	}
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, logger zerolog.Logger, args []string) error {
	cmd := "run"
	if len(args) > 0 {
		cmd = strings.ToLower(args[0])
		args = args[1:]
	}

	switch cmd {
	case "run":
		return run(ctx, logger, 0)
	case "replay":
		if len(args) != 1 {
			return fmt.Errorf("replay needs one session id")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return run(ctx, logger, id)
	case "sessions":
		return withStore(ctx, logger, func(s *sessionTool) error {
			return s.list(ctx, os.Stdout)
		})
	case "export":
		if len(args) != 2 {
			return fmt.Errorf("export needs a session id and a file")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withStore(ctx, logger, func(s *sessionTool) error {
			return s.export(ctx, id, args[1])
		})
	case "upload":
		if len(args) != 1 {
			return fmt.Errorf("upload needs one session id")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		uc := config.GetUploadConfig()
		return withStore(ctx, logger, func(s *sessionTool) error {
			return s.upload(ctx, api.New(uc.URL, uc.APIKey), id)
		})
	case "delete":
		if len(args) == 0 {
			return fmt.Errorf("no session ids provided")
		}
		return withStore(ctx, logger, func(s *sessionTool) error {
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				if err := s.delete(ctx, id, os.Stdout); err != nil {
					return err
				}
			}
			return nil
		})
	case "version":
		fmt.Printf("%s %s (built %s)\n", AppName, Version, BuildDate)
		return nil
	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid session id %q", s)
	}
	return uint(id), nil
}
