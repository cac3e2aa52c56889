package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&AppInfo{},
	&Session{},
	&Action{},
}

// AppInfo records which schema version created the database.
type AppInfo struct {
	gorm.Model
	AppName       string `json:"appName" gorm:"size:64"`
	SchemaVersion int    `json:"schemaVersion"`
}

func (*AppInfo) TableName() string {
	return "app_infos"
}

// Session is one recording of a child coloring a drawing.
type Session struct {
	ID         uint       `json:"id" gorm:"primarykey;autoIncrement"`
	DrawingKey string     `json:"drawingKey" gorm:"size:64;not null"`
	StartedAt  time.Time  `json:"startedAt" gorm:"index:idx_session_started_at;not null"`
	EndedAt    *time.Time `json:"endedAt"`

	Actions []Action `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
}

func (*Session) TableName() string {
	return "sessions"
}

// Action is one recorded user action. Replay orders by (TimestampMs, ID).
type Action struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement"`
	SessionID   uint      `json:"sessionId" gorm:"index:idx_action_session_ts,priority:1;not null"`
	ActionType  string    `json:"actionType" gorm:"size:32;not null"`
	TimestampMs int64     `json:"timestampMs" gorm:"index:idx_action_session_ts,priority:2;not null"`
	OccurredAt  time.Time `json:"occurredAt"`

	CursorX *float64 `json:"cursorX"`
	CursorY *float64 `json:"cursorY"`
	CanvasX *float64 `json:"canvasX"`
	CanvasY *float64 `json:"canvasY"`
	RawX    *int     `json:"rawX"`
	RawY    *int     `json:"rawY"`

	ColorIndex    *int   `json:"colorIndex"`
	ColorHex      string `json:"colorHex" gorm:"size:9"`
	FigureName    string `json:"figureName" gorm:"size:64"`
	ButtonPressed string `json:"buttonPressed" gorm:"size:16"`

	AdditionalData datatypes.JSON `json:"additionalData"`
}

func (*Action) TableName() string {
	return "actions"
}

// SessionSummary is the row shape of the session listing query.
type SessionSummary struct {
	ID          uint
	DrawingKey  string
	StartedAt   time.Time
	EndedAt     *time.Time
	ActionCount int64
}
