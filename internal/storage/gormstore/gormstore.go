// Package gormstore implements storage.Store on GORM, over SQLite or
// Postgres as chosen by the database manager.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/database"
	"github.com/joypaint/joypaint/internal/model"
	"github.com/joypaint/joypaint/internal/model/convert"
	"github.com/joypaint/joypaint/internal/storage"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Store implements storage.Store using GORM.
type Store struct {
	mgr *database.Manager
	log zerolog.Logger
}

// New wraps a connected database manager.
func New(mgr *database.Manager, log zerolog.Logger) *Store {
	return &Store{mgr: mgr, log: log}
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.mgr.DB.WithContext(ctx)
}

// Init runs schema migration.
func (s *Store) Init(ctx context.Context) error {
	if s.mgr == nil || s.mgr.DB == nil {
		return errors.New("database not connected")
	}
	if err := s.mgr.Setup(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.mgr.Close()
}

// CreateSession inserts a session row and returns its id.
func (s *Store) CreateSession(ctx context.Context, drawingKey string, startedAt time.Time) (uint, error) {
	row := model.Session{DrawingKey: drawingKey, StartedAt: startedAt}
	if err := s.db(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	return row.ID, nil
}

// CloseSession stamps the end time.
func (s *Store) CloseSession(ctx context.Context, id uint, endedAt time.Time) error {
	res := s.db(ctx).Model(&model.Session{}).Where("id = ?", id).Update("ended_at", endedAt)
	if res.Error != nil {
		return fmt.Errorf("failed to close session %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("close session %d: %w", id, storage.ErrSessionNotFound)
	}
	return nil
}

func (s *Store) sessionExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := s.db(ctx).Model(&model.Session{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// AppendAction inserts one action.
func (s *Store) AppendAction(ctx context.Context, rec actionlog.Record) error {
	return s.AppendActions(ctx, []actionlog.Record{rec})
}

// AppendActions inserts actions in slice order, so ids follow that order.
func (s *Store) AppendActions(ctx context.Context, recs []actionlog.Record) error {
	if len(recs) == 0 {
		return nil
	}
	checked := make(map[uint]bool)
	rows := make([]model.Action, len(recs))
	for i, r := range recs {
		if !checked[r.SessionID] {
			ok, err := s.sessionExists(ctx, r.SessionID)
			if err != nil {
				return fmt.Errorf("failed to look up session %d: %w", r.SessionID, err)
			}
			if !ok {
				return fmt.Errorf("append action to session %d: %w", r.SessionID, storage.ErrSessionNotFound)
			}
			checked[r.SessionID] = true
		}
		rows[i] = convert.RecordToAction(r)
		rows[i].ID = 0
	}
	if err := s.db(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert %d actions: %w", len(rows), err)
	}
	return nil
}

// ListSessions returns sessions newest first with their action counts.
func (s *Store) ListSessions(ctx context.Context) ([]actionlog.SessionInfo, error) {
	var sessions []model.Session
	if err := s.db(ctx).Order("started_at DESC, id DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var counts []struct {
		SessionID uint
		N         int64
	}
	if err := s.db(ctx).Model(&model.Action{}).
		Select("session_id, COUNT(*) AS n").
		Group("session_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}
	byID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byID[c.SessionID] = c.N
	}

	out := make([]actionlog.SessionInfo, len(sessions))
	for i, row := range sessions {
		out[i] = convert.SummaryToInfo(model.SessionSummary{
			ID:          row.ID,
			DrawingKey:  row.DrawingKey,
			StartedAt:   row.StartedAt,
			EndedAt:     row.EndedAt,
			ActionCount: byID[row.ID],
		})
	}
	return out, nil
}

// LoadActions returns a session's actions ordered by timestamp then id.
// A stored action of unknown type fails the whole load.
func (s *Store) LoadActions(ctx context.Context, sessionID uint) ([]actionlog.Record, error) {
	ok, err := s.sessionExists(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session %d: %w", sessionID, err)
	}
	if !ok {
		return nil, fmt.Errorf("load actions for session %d: %w", sessionID, storage.ErrSessionNotFound)
	}

	var rows []model.Action
	if err := s.db(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp_ms ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load actions for session %d: %w", sessionID, err)
	}

	out := make([]actionlog.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := convert.ActionToRecord(row)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", sessionID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteSession removes a session and its actions in one transaction.
func (s *Store) DeleteSession(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.Action{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Session{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete session %d: %w", id, err)
	}
	if deleted {
		s.log.Info().Uint("session", id).Msg("Deleted session")
	}
	return deleted, nil
}
