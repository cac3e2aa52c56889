// Package actionlog defines the recorded user actions that make up a
// session and the types shared by recording, storage and playback.
package actionlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrUnknownKind is returned when a persisted kind string is not recognized.
var ErrUnknownKind = errors.New("unknown action kind")

// Kind is the closed set of recordable actions.
type Kind int

const (
	KindCursorMove Kind = iota + 1
	KindColorSelect
	KindFill
	KindClearFigure
	KindNextPicture
	KindClearAll
	KindInitialState
)

var kindNames = map[Kind]string{
	KindCursorMove:   "cursormove",
	KindColorSelect:  "colorselect",
	KindFill:         "fill",
	KindClearFigure:  "clearfigure",
	KindNextPicture:  "nextpicture",
	KindClearAll:     "clearall",
	KindInitialState: "initialstate",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindCursorMove, KindColorSelect, KindFill, KindClearFigure,
		KindNextPicture, KindClearAll, KindInitialState,
	}
}

// String returns the persisted lowercase name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a persisted kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, v := range kindNames {
		if v == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Record is one recorded action. Optional payload fields are nil when not
// relevant to the kind.
type Record struct {
	ID        uint
	SessionID uint
	Kind      Kind

	// TimestampMs is milliseconds since the session started.
	TimestampMs int64
	OccurredAt  time.Time

	CursorX, CursorY *float64
	CanvasX, CanvasY *float64
	RawX, RawY       *int

	ColorIndex *int
	ColorHex   string

	RegionName    string
	ButtonPressed string

	// AdditionalData carries kind-specific JSON, such as the InitialState body.
	AdditionalData json.RawMessage
}

// SessionInfo summarizes a stored session.
type SessionInfo struct {
	ID          uint
	DrawingKey  string
	StartedAt   time.Time
	EndedAt     *time.Time
	ActionCount int64
}

// Duration returns the session length, or zero if it never closed.
func (s SessionInfo) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// SortRecords orders records by timestamp, breaking ties by insertion ID.
func SortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].TimestampMs != recs[j].TimestampMs {
			return recs[i].TimestampMs < recs[j].TimestampMs
		}
		return recs[i].ID < recs[j].ID
	})
}

func f64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int { return &v }

// CursorMove builds a cursor movement record.
func CursorMove(x, y float64, rawX, rawY int) Record {
	return Record{Kind: KindCursorMove, CursorX: f64Ptr(x), CursorY: f64Ptr(y), RawX: intPtr(rawX), RawY: intPtr(rawY)}
}

// ColorSelect builds a palette selection record.
func ColorSelect(index int, hex string, button string) Record {
	return Record{Kind: KindColorSelect, ColorIndex: intPtr(index), ColorHex: hex, ButtonPressed: button}
}

// Fill builds a region fill record at canvas point (x, y). The cursor
// sits on the same point.
func Fill(region string, x, y float64, index int, hex string) Record {
	return Record{
		Kind: KindFill, RegionName: region,
		CanvasX: f64Ptr(x), CanvasY: f64Ptr(y),
		CursorX: f64Ptr(x), CursorY: f64Ptr(y),
		ColorIndex: intPtr(index), ColorHex: hex,
	}
}

// ClearFigure builds a single-region clear record.
func ClearFigure(region string, x, y float64) Record {
	return Record{
		Kind: KindClearFigure, RegionName: region,
		CanvasX: f64Ptr(x), CanvasY: f64Ptr(y),
		CursorX: f64Ptr(x), CursorY: f64Ptr(y),
	}
}

// At returns a copy of r stamped with cursor position (x, y).
func (r Record) At(x, y float64) Record {
	r.CursorX, r.CursorY = f64Ptr(x), f64Ptr(y)
	return r
}

// NextPicture builds a drawing change record.
func NextPicture(button string) Record {
	return Record{Kind: KindNextPicture, ButtonPressed: button}
}

// ClearAll builds a clear-everything record.
func ClearAll(button string) Record {
	return Record{Kind: KindClearAll, ButtonPressed: button}
}
