package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/storage/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func startWriter(t *testing.T, r *Recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func flush(t *testing.T, r *Recorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Flush(ctx))
}

func TestRecordSession(t *testing.T) {
	store := memory.New()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	r, err := New(store, zerolog.Nop(), WithClock(clock.Now))
	require.NoError(t, err)
	startWriter(t, r)

	initial := &actionlog.InitialState{Drawing: "human", Fills: map[string]string{}, ColorIndex: 0}
	require.NoError(t, r.Start("human", initial))
	assert.True(t, r.Active())
	assert.ErrorIs(t, r.Start("human", nil), ErrAlreadyRecording)

	r.RecordCursor(100, 100, 2048, 2048)
	clock.Advance(50 * time.Millisecond)
	r.Record(actionlog.ColorSelect(2, "#00FF00", "BTN:A"))
	clock.Advance(150 * time.Millisecond)
	r.Record(actionlog.Fill("head", 100, 100, 2, "#00FF00"))
	clock.Advance(200 * time.Millisecond)
	r.Record(actionlog.ClearAll("BTN:F"))
	require.NoError(t, r.Stop())
	assert.ErrorIs(t, r.Stop(), ErrNotRecording)

	flush(t, r)

	id := r.LastSessionID()
	require.NotZero(t, id)
	recs, err := store.LoadActions(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, recs, 5)

	kinds := make([]actionlog.Kind, len(recs))
	stamps := make([]int64, len(recs))
	for i, rec := range recs {
		kinds[i] = rec.Kind
		stamps[i] = rec.TimestampMs
		assert.Equal(t, id, rec.SessionID)
	}
	assert.Equal(t, []actionlog.Kind{
		actionlog.KindInitialState, actionlog.KindCursorMove, actionlog.KindColorSelect,
		actionlog.KindFill, actionlog.KindClearAll,
	}, kinds)
	assert.Equal(t, []int64{0, 0, 50, 200, 400}, stamps)

	sessions, err := store.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].EndedAt)
	assert.Equal(t, 400*time.Millisecond, sessions[0].Duration())
}

func TestRecordIgnoredWhenInactive(t *testing.T) {
	store := memory.New()
	r, err := New(store, zerolog.Nop())
	require.NoError(t, err)
	startWriter(t, r)

	r.Record(actionlog.ClearAll("BTN:F"))
	assert.False(t, r.RecordCursor(1, 2, 3, 4))
	flush(t, r)

	sessions, err := store.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRecordCursorThrottle(t *testing.T) {
	store := memory.New()
	clock := &fakeClock{now: time.Unix(0, 0)}
	r, err := New(store, zerolog.Nop(), WithClock(clock.Now), WithCursorThrottle(100*time.Millisecond))
	require.NoError(t, err)
	startWriter(t, r)

	require.NoError(t, r.Start("flower", nil))
	assert.True(t, r.RecordCursor(1, 1, 0, 0))
	clock.Advance(40 * time.Millisecond)
	assert.False(t, r.RecordCursor(2, 2, 0, 0))
	clock.Advance(60 * time.Millisecond)
	assert.True(t, r.RecordCursor(3, 3, 0, 0))
	require.NoError(t, r.Stop())
	flush(t, r)

	recs, err := store.LoadActions(context.Background(), r.LastSessionID())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 3.0, *recs[1].CursorX)
	assert.Equal(t, int64(100), recs[1].TimestampMs)
}

func TestObserverSeesSessionID(t *testing.T) {
	var mu sync.Mutex
	var seen []actionlog.Record
	store := memory.New()
	r, err := New(store, zerolog.Nop(), WithObserver(func(rec actionlog.Record) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, rec)
	}))
	require.NoError(t, err)
	startWriter(t, r)

	require.NoError(t, r.Start("human", nil))
	r.Record(actionlog.NextPicture("BTN:E"))
	require.NoError(t, r.Stop())
	flush(t, r)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, r.LastSessionID(), seen[0].SessionID)
}

type failingStore struct {
	*memory.Store
}

func (failingStore) CreateSession(context.Context, string, time.Time) (uint, error) {
	return 0, errors.New("database is gone")
}

func TestFailingStoreDoesNotBlock(t *testing.T) {
	r, err := New(failingStore{memory.New()}, zerolog.Nop())
	require.NoError(t, err)
	startWriter(t, r)

	require.NoError(t, r.Start("human", nil))
	for i := 0; i < 100; i++ {
		r.Record(actionlog.ClearAll("BTN:F"))
	}
	require.NoError(t, r.Stop())
	flush(t, r)
	assert.Zero(t, r.LastSessionID())
	assert.False(t, r.Active())
}

func TestRunDrainsOnCancel(t *testing.T) {
	store := memory.New()
	r, err := New(store, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, r.Start("human", nil))
	r.Record(actionlog.ClearAll("BTN:F"))
	require.NoError(t, r.Stop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)

	sessions, err := store.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(1), sessions[0].ActionCount)
}
