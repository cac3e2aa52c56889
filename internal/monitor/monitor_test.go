package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgramStatus(t *testing.T) {
	s := NewService(Dependencies{
		Status: func(context.Context) (Report, error) {
			return Report{Link: "connected", Drawing: "human", FilledRegions: 2}, nil
		},
	})

	lines, report, err := s.GetProgramStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.False(t, report.Time.IsZero())

	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, "human", decoded.Drawing)
	assert.Equal(t, 2, decoded.FilledRegions)
}

func TestGetProgramStatus_Error(t *testing.T) {
	s := NewService(Dependencies{
		Status: func(context.Context) (Report, error) {
			return Report{}, errors.New("loop stopped")
		},
	})
	_, _, err := s.GetProgramStatus(context.Background())
	assert.Error(t, err)
}

func TestStartWritesStatusFile(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	s := NewService(Dependencies{
		Status: func(context.Context) (Report, error) {
			n := calls.Add(1)
			return Report{Link: "connected", FilledRegions: int(n)}, nil
		},
		StatusDir: dir,
		Interval:  10 * time.Millisecond,
		Logger:    zerolog.Nop(),
	})

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(), "second start is a no-op")

	path := filepath.Join(dir, "status.txt")
	require.Eventually(t, func() bool {
		raw, err := os.ReadFile(path)
		if err != nil || len(raw) == 0 {
			return false
		}
		var r Report
		return json.Unmarshal(raw, &r) == nil && r.FilledRegions >= 2
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStartFailsOnMissingDir(t *testing.T) {
	s := NewService(Dependencies{
		Status:    func(context.Context) (Report, error) { return Report{}, nil },
		StatusDir: filepath.Join(t.TempDir(), "missing"),
	})
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}
