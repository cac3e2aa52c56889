// Package storetest holds the behavior every storage.Store must show.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a Store built by newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("CreateAndList", func(t *testing.T) { testCreateAndList(t, newStore(t)) })
	t.Run("LoadOrdersByTimestampThenInsertion", func(t *testing.T) { testLoadOrdering(t, newStore(t)) })
	t.Run("PayloadSurvives", func(t *testing.T) { testPayload(t, newStore(t)) })
	t.Run("CloseSession", func(t *testing.T) { testCloseSession(t, newStore(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("UnknownSession", func(t *testing.T) { testUnknownSession(t, newStore(t)) })
	t.Run("BatchAppend", func(t *testing.T) { testBatch(t, newStore(t)) })
}

var base = time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)

func append1(t *testing.T, s storage.Store, id uint, r actionlog.Record, ts int64) {
	t.Helper()
	r.SessionID = id
	r.TimestampMs = ts
	r.OccurredAt = base.Add(time.Duration(ts) * time.Millisecond)
	require.NoError(t, s.AppendAction(context.Background(), r))
}

func testCreateAndList(t *testing.T, s storage.Store) {
	ctx := context.Background()
	older, err := s.CreateSession(ctx, "human", base)
	require.NoError(t, err)
	newer, err := s.CreateSession(ctx, "flower", base.Add(time.Minute))
	require.NoError(t, err)
	assert.NotEqual(t, older, newer)

	append1(t, s, older, actionlog.ClearAll("F"), 10)
	append1(t, s, older, actionlog.NextPicture("E"), 20)

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, newer, list[0].ID)
	assert.Equal(t, "flower", list[0].DrawingKey)
	assert.Equal(t, int64(0), list[0].ActionCount)
	assert.Nil(t, list[0].EndedAt)

	assert.Equal(t, older, list[1].ID)
	assert.Equal(t, "human", list[1].DrawingKey)
	assert.Equal(t, int64(2), list[1].ActionCount)
	assert.True(t, base.Equal(list[1].StartedAt))
}

func testLoadOrdering(t *testing.T, s storage.Store) {
	ctx := context.Background()
	id, err := s.CreateSession(ctx, "human", base)
	require.NoError(t, err)

	append1(t, s, id, actionlog.ClearFigure("c", 0, 0), 300)
	append1(t, s, id, actionlog.ClearFigure("a", 0, 0), 100)
	append1(t, s, id, actionlog.ClearFigure("b1", 0, 0), 200)
	append1(t, s, id, actionlog.ClearFigure("b2", 0, 0), 200)
	append1(t, s, id, actionlog.ClearFigure("b3", 0, 0), 200)

	recs, err := s.LoadActions(ctx, id)
	require.NoError(t, err)

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.RegionName
		assert.Equal(t, id, r.SessionID)
		assert.NotZero(t, r.ID)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "b3", "c"}, names)
}

func testPayload(t *testing.T, s storage.Store) {
	ctx := context.Background()
	id, err := s.CreateSession(ctx, "human", base)
	require.NoError(t, err)

	initial, err := actionlog.InitialState{
		Drawing: "human", Fills: map[string]string{"head": "#FF0000"},
		Cursor: actionlog.Cursor{X: 1, Y: 2}, ColorIndex: 3,
	}.Record()
	require.NoError(t, err)
	append1(t, s, id, initial, 0)
	append1(t, s, id, actionlog.CursorMove(12.5, 40, 3000, 1000), 5)
	append1(t, s, id, actionlog.Fill("head", 300, 240, 2, "#00FF00"), 7)

	recs, err := s.LoadActions(ctx, id)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	st, err := actionlog.DecodeInitialState(recs[0])
	require.NoError(t, err)
	assert.Equal(t, "#FF0000", st.Fills["head"])
	assert.Equal(t, 3, st.ColorIndex)

	mv := recs[1]
	assert.Equal(t, actionlog.KindCursorMove, mv.Kind)
	require.NotNil(t, mv.CursorX)
	assert.Equal(t, 12.5, *mv.CursorX)
	assert.Equal(t, 3000, *mv.RawX)
	assert.Nil(t, mv.ColorIndex)

	fill := recs[2]
	assert.Equal(t, actionlog.KindFill, fill.Kind)
	assert.Equal(t, "head", fill.RegionName)
	assert.Equal(t, 2, *fill.ColorIndex)
	assert.Equal(t, "#00FF00", fill.ColorHex)
	assert.Equal(t, int64(7), fill.TimestampMs)
}

func testCloseSession(t *testing.T, s storage.Store) {
	ctx := context.Background()
	id, err := s.CreateSession(ctx, "human", base)
	require.NoError(t, err)

	end := base.Add(42 * time.Second)
	require.NoError(t, s.CloseSession(ctx, id, end))

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].EndedAt)
	assert.Equal(t, 42*time.Second, list[0].Duration())

	err = s.CloseSession(ctx, id+100, end)
	assert.True(t, errors.Is(err, storage.ErrSessionNotFound))
}

func testDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	keep, err := s.CreateSession(ctx, "human", base)
	require.NoError(t, err)
	drop, err := s.CreateSession(ctx, "flower", base.Add(time.Second))
	require.NoError(t, err)
	append1(t, s, drop, actionlog.ClearAll("F"), 1)
	append1(t, s, keep, actionlog.ClearAll("F"), 1)

	ok, err := s.DeleteSession(ctx, drop)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.LoadActions(ctx, drop)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep, list[0].ID)

	ok, err = s.DeleteSession(ctx, drop)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testUnknownSession(t *testing.T, s storage.Store) {
	ctx := context.Background()

	recs, err := s.LoadActions(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	assert.Empty(t, recs)

	err = s.AppendAction(ctx, actionlog.Record{SessionID: 999, Kind: actionlog.KindClearAll})
	assert.Error(t, err)

	empty, err := s.CreateSession(ctx, "human", base)
	require.NoError(t, err)
	recs, err = s.LoadActions(ctx, empty)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func testBatch(t *testing.T, s storage.Store) {
	ba, ok := s.(storage.BatchAppender)
	if !ok {
		t.Skip("store does not batch")
	}
	ctx := context.Background()
	id, err := s.CreateSession(ctx, "human", base)
	require.NoError(t, err)

	batch := []actionlog.Record{
		{SessionID: id, Kind: actionlog.KindClearAll, TimestampMs: 50},
		{SessionID: id, Kind: actionlog.KindNextPicture, TimestampMs: 50},
		{SessionID: id, Kind: actionlog.KindClearAll, TimestampMs: 10},
	}
	require.NoError(t, ba.AppendActions(ctx, batch))

	recs, err := s.LoadActions(ctx, id)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, int64(10), recs[0].TimestampMs)
	assert.Equal(t, actionlog.KindClearAll, recs[1].Kind)
	assert.Equal(t, actionlog.KindNextPicture, recs[2].Kind)
}
