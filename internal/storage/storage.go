// Package storage defines the persistence contract for recorded sessions.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/joypaint/joypaint/internal/actionlog"
)

// ErrSessionNotFound is returned for operations on a session id that does
// not exist.
var ErrSessionNotFound = errors.New("session not found")

// Store is the interface all action log stores must satisfy.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error

	// Session management
	CreateSession(ctx context.Context, drawingKey string, startedAt time.Time) (uint, error)
	CloseSession(ctx context.Context, id uint, endedAt time.Time) error
	ListSessions(ctx context.Context) ([]actionlog.SessionInfo, error)
	DeleteSession(ctx context.Context, id uint) (bool, error)

	// Actions
	AppendAction(ctx context.Context, rec actionlog.Record) error
	LoadActions(ctx context.Context, sessionID uint) ([]actionlog.Record, error)
}

// BatchAppender is an optional interface for stores that can insert many
// actions in one round trip. Records keep their slice order.
type BatchAppender interface {
	AppendActions(ctx context.Context, recs []actionlog.Record) error
}
