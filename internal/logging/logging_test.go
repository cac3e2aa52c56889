package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		logName string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "logs",
			logName: "joypaint",
			want:    filepath.Join("logs", "joypaint.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./logs",
			logName: "joypaint",
			want:    filepath.Join(".", "logs", "joypaint.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "joypaint"),
			logName: "joypaint",
			want:    filepath.Join("/var", "log", "joypaint", "joypaint.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, tt.logName, sessionStart))
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestSetup_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var console bytes.Buffer

	logger, closeFn, err := Setup(Options{
		Level:   "info",
		LogsDir: dir,
		Name:    "joypaint",
		Start:   start,
		Console: &console,
	})
	require.NoError(t, err)

	logger.Info().Str("port", "COM3").Msg("Connected")
	logger.Debug().Msg("filtered out")
	require.NoError(t, closeFn())

	assert.Contains(t, console.String(), "Connected")
	assert.NotContains(t, console.String(), "filtered out")

	data, err := os.ReadFile(LogFilePath(dir, "joypaint", start))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Connected")
	assert.Contains(t, string(data), "port=COM3")
}

func TestSetup_RotatesExistingFile(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	path := LogFilePath(dir, "joypaint", start)
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0644))

	_, closeFn, err := Setup(Options{LogsDir: dir, Name: "joypaint", Start: start, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	require.NoError(t, closeFn())

	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "previous run\n", string(old))
}

func TestSetup_NoLogsDir(t *testing.T) {
	var console bytes.Buffer
	logger, closeFn, err := Setup(Options{Console: &console})
	require.NoError(t, err)
	require.NoError(t, closeFn())

	logger.Warn().Msg("console only")
	assert.Contains(t, console.String(), "console only")
}
