package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/api"
	"github.com/joypaint/joypaint/internal/storage"
)

// sessionTool runs the offline session commands.
type sessionTool struct {
	store storage.Store
	log   zerolog.Logger
}

func withStore(ctx context.Context, logger zerolog.Logger, fn func(*sessionTool) error) error {
	store, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(&sessionTool{store: store, log: logger})
}

func (s *sessionTool) list(ctx context.Context, w io.Writer) error {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return err
	}
	writeSessions(w, sessions)
	return nil
}

func writeSessions(w io.Writer, sessions []actionlog.SessionInfo) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "no sessions")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDRAWING\tSTARTED\tDURATION\tACTIONS")
	for _, si := range sessions {
		dur := "open"
		if si.EndedAt != nil {
			dur = si.Duration().Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n",
			si.ID, si.DrawingKey, si.StartedAt.Local().Format("2006-01-02 15:04:05"), dur, si.ActionCount)
	}
	tw.Flush()
}

func (s *sessionTool) delete(ctx context.Context, id uint, w io.Writer) error {
	ok, err := s.store.DeleteSession(ctx, id)
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	if !ok {
		fmt.Fprintf(w, "session %d not found\n", id)
		return nil
	}
	fmt.Fprintf(w, "deleted session %d\n", id)
	return nil
}

type exportedAction struct {
	Kind        string          `json:"kind"`
	TimestampMs int64           `json:"timestampMs"`
	OccurredAt  time.Time       `json:"occurredAt"`
	CursorX     *float64        `json:"cursorX,omitempty"`
	CursorY     *float64        `json:"cursorY,omitempty"`
	CanvasX     *float64        `json:"canvasX,omitempty"`
	CanvasY     *float64        `json:"canvasY,omitempty"`
	RawX        *int            `json:"rawX,omitempty"`
	RawY        *int            `json:"rawY,omitempty"`
	ColorIndex  *int            `json:"colorIndex,omitempty"`
	ColorHex    string          `json:"colorHex,omitempty"`
	Region      string          `json:"region,omitempty"`
	Button      string          `json:"button,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

type exportedSession struct {
	ID        uint             `json:"id"`
	Drawing   string           `json:"drawing"`
	StartedAt time.Time        `json:"startedAt"`
	EndedAt   *time.Time       `json:"endedAt,omitempty"`
	Actions   []exportedAction `json:"actions"`
}

func (s *sessionTool) find(ctx context.Context, id uint) (actionlog.SessionInfo, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return actionlog.SessionInfo{}, err
	}
	for _, si := range sessions {
		if si.ID == id {
			return si, nil
		}
	}
	return actionlog.SessionInfo{}, fmt.Errorf("session %d: %w", id, storage.ErrSessionNotFound)
}

// export writes one session and its actions to path as gzipped JSON.
func (s *sessionTool) export(ctx context.Context, id uint, path string) error {
	txStart := time.Now()

	si, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	out := &exportedSession{ID: si.ID, Drawing: si.DrawingKey, StartedAt: si.StartedAt, EndedAt: si.EndedAt}

	recs, err := s.store.LoadActions(ctx, id)
	if err != nil {
		return err
	}
	out.Actions = make([]exportedAction, 0, len(recs))
	for _, r := range recs {
		out.Actions = append(out.Actions, exportedAction{
			Kind:        r.Kind.String(),
			TimestampMs: r.TimestampMs,
			OccurredAt:  r.OccurredAt,
			CursorX:     r.CursorX,
			CursorY:     r.CursorY,
			CanvasX:     r.CanvasX,
			CanvasY:     r.CanvasY,
			RawX:        r.RawX,
			RawY:        r.RawY,
			ColorIndex:  r.ColorIndex,
			ColorHex:    r.ColorHex,
			Region:      r.RegionName,
			Button:      r.ButtonPressed,
			Data:        r.AdditionalData,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(out); err != nil {
		gz.Close()
		f.Close()
		return fmt.Errorf("encode session %d: %w", id, err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	s.log.Info().Uint("session", id).Int("actions", len(recs)).Str("path", path).
		Dur("took", time.Since(txStart)).Msg("Exported session")
	return nil
}

// upload exports a session to a temporary file and sends it to the gallery.
func (s *sessionTool) upload(ctx context.Context, client *api.Client, id uint) error {
	si, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := client.Healthcheck(ctx); err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "joypaint-upload")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, fmt.Sprintf("session_%d.json.gz", id))
	if err := s.export(ctx, id, path); err != nil {
		return err
	}
	err = client.Upload(ctx, path, api.UploadMetadata{
		SessionID:       si.ID,
		Drawing:         si.DrawingKey,
		DurationSeconds: si.Duration().Seconds(),
		ActionCount:     si.ActionCount,
	})
	if err != nil {
		return fmt.Errorf("upload session %d: %w", id, err)
	}
	s.log.Info().Uint("session", id).Msg("Uploaded session")
	return nil
}
