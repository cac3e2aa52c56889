package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:5000/", "secret")
	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, "secret", c.apiKey)
	assert.NotNil(t, c.httpClient)
}

func TestHealthcheck(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthcheck", r.URL.Path)
		w.WriteHeader(status)
	}))
	defer server.Close()

	c := New(server.URL, "")
	assert.NoError(t, c.Healthcheck(context.Background()))

	status = http.StatusInternalServerError
	assert.Error(t, c.Healthcheck(context.Background()))
}

func TestHealthcheck_ServerDown(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	assert.Error(t, c.Healthcheck(context.Background()))
}

func TestUpload_Success(t *testing.T) {
	fields := map[string]string{}
	var content []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sessions/add", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseMultipartForm(10<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, k := range []string{"secret", "filename", "sessionId", "drawing", "duration", "actions"} {
			fields[k] = r.FormValue(k)
		}
		file, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ = io.ReadAll(file)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "session_7.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("test content"), 0644))

	c := New(server.URL, "mysecret")
	err := c.Upload(context.Background(), path, UploadMetadata{
		SessionID:       7,
		Drawing:         "human",
		DurationSeconds: 12.5,
		ActionCount:     42,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"secret":    "mysecret",
		"filename":  "session_7.json.gz",
		"sessionId": "7",
		"drawing":   "human",
		"duration":  "12.500000",
		"actions":   "42",
	}, fields)
	assert.Equal(t, "test content", string(content))
}

func TestUpload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "s.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	err := New(server.URL, "").Upload(context.Background(), path, UploadMetadata{})
	assert.ErrorContains(t, err, "403")
}

func TestUpload_MissingFile(t *testing.T) {
	err := New("http://127.0.0.1:1", "").Upload(context.Background(), "/nonexistent/file.json.gz", UploadMetadata{})
	assert.ErrorContains(t, err, "failed to open file")
}
