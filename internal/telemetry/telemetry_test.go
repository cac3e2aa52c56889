package telemetry

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/config"
	"github.com/joypaint/joypaint/internal/replay"
	"github.com/joypaint/joypaint/internal/timedgame"
)

func lineOf(p *influxdb2_write.Point) string {
	return influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
}

func TestActionPoint(t *testing.T) {
	rec := actionlog.Fill("head", 100, 120, 2, "#00FF00")
	rec.SessionID = 7
	rec.TimestampMs = 250
	rec.OccurredAt = time.Unix(0, 42)

	line := lineOf(ActionPoint(rec))
	assert.True(t, strings.HasPrefix(line, "action,"))
	assert.Contains(t, line, "kind=fill")
	assert.Contains(t, line, "region=head")
	assert.Contains(t, line, "session=7")
	assert.Contains(t, line, "timestamp_ms=250i")
	assert.Contains(t, line, "color_index=2i")
	assert.Contains(t, line, `color_hex="#00FF00"`)
	assert.Contains(t, line, "canvas_x=100")
	assert.NotContains(t, line, "cursor_x")
	assert.Contains(t, line, " 42")
}

func TestProgressAndRoundPoints(t *testing.T) {
	line := lineOf(ProgressPoint(3, replay.Progress{Percent: 50, Index: 1, Total: 2}, time.Unix(1, 0)))
	assert.True(t, strings.HasPrefix(line, "replay_progress,session=3 "))
	assert.Contains(t, line, "total=2i")

	res := timedgame.Result{Success: true, Elapsed: 30 * time.Second, FilledRegions: 6, TotalRegions: 6, FillActions: 9}
	line = lineOf(RoundPoint("human", res, time.Unix(1, 0)))
	assert.Contains(t, line, "drawing=human")
	assert.Contains(t, line, "success=true")
	assert.Contains(t, line, "completion_percent=100")
	assert.Contains(t, line, "actions_per_minute=18")
}

func TestDisabledSinkIsNoop(t *testing.T) {
	s, err := New(config.InfluxConfig{Enabled: false}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, s.Enabled())
	s.WriteAction(actionlog.ClearAll("BTN:F"))
	s.WriteProgress(1, replay.Progress{})
	assert.NoError(t, s.Close())

	assert.False(t, Disabled().Enabled())
}

func TestBackupWhenUnreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	s, err := New(config.InfluxConfig{
		Enabled:    true,
		URL:        "http://127.0.0.1:1",
		Org:        "joypaint",
		Bucket:     "actions",
		BackupPath: path,
	}, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, s.Enabled())

	rec := actionlog.ClearAll("BTN:F")
	rec.SessionID = 1
	rec.OccurredAt = time.Unix(5, 0)
	s.WriteAction(rec)
	s.WriteRound("flower", timedgame.Result{TotalRegions: 7})
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "action,"))
	assert.True(t, strings.HasPrefix(lines[1], "round,"))
}
