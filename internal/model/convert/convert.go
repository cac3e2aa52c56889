// Package convert maps between GORM models and action log records.
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/model"
	"gorm.io/datatypes"
)

// RecordToAction converts a record for insertion.
func RecordToAction(r actionlog.Record) model.Action {
	a := model.Action{
		ID:            r.ID,
		SessionID:     r.SessionID,
		ActionType:    r.Kind.String(),
		TimestampMs:   r.TimestampMs,
		OccurredAt:    r.OccurredAt,
		CursorX:       r.CursorX,
		CursorY:       r.CursorY,
		CanvasX:       r.CanvasX,
		CanvasY:       r.CanvasY,
		RawX:          r.RawX,
		RawY:          r.RawY,
		ColorIndex:    r.ColorIndex,
		ColorHex:      r.ColorHex,
		FigureName:    r.RegionName,
		ButtonPressed: r.ButtonPressed,
	}
	if len(r.AdditionalData) > 0 {
		a.AdditionalData = datatypes.JSON(r.AdditionalData)
	}
	return a
}

// ActionToRecord converts a stored row. Unknown action types are an error.
func ActionToRecord(a model.Action) (actionlog.Record, error) {
	kind, err := actionlog.ParseKind(a.ActionType)
	if err != nil {
		return actionlog.Record{}, fmt.Errorf("action %d: %w", a.ID, err)
	}
	r := actionlog.Record{
		ID:            a.ID,
		SessionID:     a.SessionID,
		Kind:          kind,
		TimestampMs:   a.TimestampMs,
		OccurredAt:    a.OccurredAt,
		CursorX:       a.CursorX,
		CursorY:       a.CursorY,
		CanvasX:       a.CanvasX,
		CanvasY:       a.CanvasY,
		RawX:          a.RawX,
		RawY:          a.RawY,
		ColorIndex:    a.ColorIndex,
		ColorHex:      a.ColorHex,
		RegionName:    a.FigureName,
		ButtonPressed: a.ButtonPressed,
	}
	if len(a.AdditionalData) > 0 {
		r.AdditionalData = json.RawMessage(a.AdditionalData)
	}
	return r, nil
}

// SummaryToInfo converts a listing row.
func SummaryToInfo(s model.SessionSummary) actionlog.SessionInfo {
	return actionlog.SessionInfo{
		ID:          s.ID,
		DrawingKey:  s.DrawingKey,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		ActionCount: s.ActionCount,
	}
}
