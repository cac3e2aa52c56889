package memory

import (
	"context"
	"testing"
	"time"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/storage"
	"github.com/joypaint/joypaint/internal/storage/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify Store implements storage.Store interface
var _ storage.Store = (*Store)(nil)

// Verify Store implements storage.BatchAppender interface
var _ storage.BatchAppender = (*Store)(nil)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		s := New()
		require.NoError(t, s.Init(context.Background()))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestLoadActions_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.CreateSession(ctx, "human", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.AppendAction(ctx, actionlog.Record{SessionID: id, Kind: actionlog.KindClearAll}))

	recs, err := s.LoadActions(ctx, id)
	require.NoError(t, err)
	recs[0].Kind = actionlog.KindFill

	again, err := s.LoadActions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, actionlog.KindClearAll, again[0].Kind)
}

func TestListSessions_TieOnStartTime(t *testing.T) {
	ctx := context.Background()
	s := New()
	at := time.Now()
	first, _ := s.CreateSession(ctx, "human", at)
	second, _ := s.CreateSession(ctx, "human", at)

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
}
