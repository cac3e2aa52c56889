package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// Options controls where log output goes.
type Options struct {
	Level   string
	LogsDir string
	Name    string
	Start   time.Time

	// Console receives colorized output. Defaults to os.Stdout.
	Console io.Writer

	// GraylogAddress enables GELF shipping when non-empty.
	GraylogAddress string
}

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, sessionStart.Format("20060102_150405")),
	)
}

// ParseLevel converts a config log level to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup builds the process logger: console, a timestamped file under
// LogsDir, and optionally Graylog. The returned func closes the file.
func Setup(opts Options) (zerolog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
		},
	}

	closeFn := func() error { return nil }

	if opts.LogsDir != "" {
		if err := os.MkdirAll(opts.LogsDir, 0755); err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("failed to create logs dir: %w", err)
		}
		path := LogFilePath(opts.LogsDir, opts.Name, opts.Start)
		if _, err := os.Stat(path); err == nil {
			_ = os.Rename(path, path+".old")
		}
		file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
		closeFn = file.Close
	}

	var gelfErr error
	if opts.GraylogAddress != "" {
		gw, err := gelf.NewWriter(opts.GraylogAddress)
		if err != nil {
			gelfErr = err
		} else {
			writers = append(writers, gw)
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Logger()

	if gelfErr != nil {
		logger.Warn().Err(gelfErr).Str("address", opts.GraylogAddress).Msg("Graylog unavailable, continuing without it")
	}

	return logger, closeFn, nil
}
