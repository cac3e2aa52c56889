package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/api"
	"github.com/joypaint/joypaint/internal/storage"
	"github.com/joypaint/joypaint/internal/storage/memory"
)

func seededTool(t *testing.T) (*sessionTool, uint) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	id, err := store.CreateSession(ctx, "human", time.Now())
	require.NoError(t, err)

	recs := []actionlog.Record{
		actionlog.CursorMove(100, 100, 2048, 2048),
		actionlog.Fill("head", 100, 100, 2, "#00FF00"),
	}
	for i, r := range recs {
		r.SessionID = id
		r.TimestampMs = int64(i * 100)
		require.NoError(t, store.AppendAction(ctx, r))
	}
	require.NoError(t, store.CloseSession(ctx, id, time.Now()))
	return &sessionTool{store: store, log: zerolog.Nop()}, id
}

func TestSessionList(t *testing.T) {
	s, _ := seededTool(t)
	var out bytes.Buffer
	require.NoError(t, s.list(context.Background(), &out))
	assert.Contains(t, out.String(), "DRAWING")
	assert.Contains(t, out.String(), "human")

	out.Reset()
	writeSessions(&out, nil)
	assert.Equal(t, "no sessions\n", out.String())
}

func TestSessionExport(t *testing.T) {
	s, id := seededTool(t)
	path := filepath.Join(t.TempDir(), "session.json.gz")
	require.NoError(t, s.export(context.Background(), id, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var got exportedSession
	require.NoError(t, json.NewDecoder(gz).Decode(&got))
	assert.Equal(t, "human", got.Drawing)
	require.Len(t, got.Actions, 2)
	assert.Equal(t, actionlog.KindCursorMove.String(), got.Actions[0].Kind)
	assert.Equal(t, "head", got.Actions[1].Region)
	assert.Equal(t, int64(100), got.Actions[1].TimestampMs)

	err = s.export(context.Background(), 99, path)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestSessionDelete(t *testing.T) {
	s, id := seededTool(t)
	var out bytes.Buffer
	require.NoError(t, s.delete(context.Background(), id, &out))
	require.NoError(t, s.delete(context.Background(), id, &out))
	assert.Equal(t, "deleted session 1\nsession 1 not found\n", out.String())
}

func TestParseID(t *testing.T) {
	id, err := parseID("7")
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	for _, bad := range []string{"0", "-1", "x", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestSessionUpload(t *testing.T) {
	s, id := seededTool(t)

	var gotSession, gotDrawing string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthcheck" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotSession = r.FormValue("sessionId")
		gotDrawing = r.FormValue("drawing")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, s.upload(context.Background(), api.New(server.URL, "k"), id))
	assert.Equal(t, "1", gotSession)
	assert.Equal(t, "human", gotDrawing)

	err := s.upload(context.Background(), api.New(server.URL, "k"), 42)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}
