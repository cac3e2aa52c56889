// Package memory implements storage.Store in process memory. Nothing
// survives a restart; it backs tests and the "memory" storage type.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/storage"
)

// SessionRecord groups a session with its actions
type SessionRecord struct {
	Info    actionlog.SessionInfo
	Actions []actionlog.Record
}

// Store keeps sessions in memory
type Store struct {
	sessions map[uint]*SessionRecord

	sessionCounter uint
	actionCounter  uint
	mu             sync.RWMutex
}

// New creates a new memory store
func New() *Store {
	return &Store{
		sessions: make(map[uint]*SessionRecord),
	}
}

// Init initializes the store
func (s *Store) Init(ctx context.Context) error {
	return nil
}

// Close cleans up resources
func (s *Store) Close() error {
	return nil
}

// CreateSession registers a new session and returns its id.
func (s *Store) CreateSession(ctx context.Context, drawingKey string, startedAt time.Time) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionCounter++
	id := s.sessionCounter
	s.sessions[id] = &SessionRecord{
		Info: actionlog.SessionInfo{ID: id, DrawingKey: drawingKey, StartedAt: startedAt},
	}
	return id, nil
}

// CloseSession stamps the end time.
func (s *Store) CloseSession(ctx context.Context, id uint, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("close session %d: %w", id, storage.ErrSessionNotFound)
	}
	end := endedAt
	rec.Info.EndedAt = &end
	return nil
}

// AppendAction stores one action, assigning its id.
func (s *Store) AppendAction(ctx context.Context, r actionlog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(r)
}

// AppendActions stores actions in order.
func (s *Store) AppendActions(ctx context.Context, recs []actionlog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		if err := s.appendLocked(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) appendLocked(r actionlog.Record) error {
	rec, ok := s.sessions[r.SessionID]
	if !ok {
		return fmt.Errorf("append action: %w", storage.ErrSessionNotFound)
	}
	s.actionCounter++
	r.ID = s.actionCounter
	rec.Actions = append(rec.Actions, r)
	return nil
}

// ListSessions returns sessions newest first with their action counts.
func (s *Store) ListSessions(ctx context.Context) ([]actionlog.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]actionlog.SessionInfo, 0, len(s.sessions))
	for _, rec := range s.sessions {
		info := rec.Info
		info.ActionCount = int64(len(rec.Actions))
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// LoadActions returns a session's actions ordered by timestamp then id.
func (s *Store) LoadActions(ctx context.Context, sessionID uint) ([]actionlog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("load actions for session %d: %w", sessionID, storage.ErrSessionNotFound)
	}
	out := append([]actionlog.Record(nil), rec.Actions...)
	actionlog.SortRecords(out)
	return out, nil
}

// DeleteSession removes a session and its actions.
func (s *Store) DeleteSession(ctx context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	delete(s.sessions, id)
	return true, nil
}
