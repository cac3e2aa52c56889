// Package streaming defines the live feed wire protocol: every message is a
// JSON Envelope carrying a typed payload.
package streaming

import (
	"encoding/json"
)

// Message type constants matching the streaming protocol.
const (
	TypeHello    = "hello"
	TypeGoodbye  = "goodbye"
	TypeCursor   = "cursor"
	TypeColor    = "color"
	TypeFill     = "fill"
	TypeClear    = "clear"
	TypeDrawing  = "drawing"
	TypeProgress = "replay_progress"
	TypeStatus   = "status"
	TypeRound    = "round_result"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// HelloPayload introduces the client and its canvas.
type HelloPayload struct {
	App     string `json:"app"`
	Drawing string `json:"drawing"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// CursorPayload is a cursor position in canvas coordinates.
type CursorPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ColorPayload is the selected palette entry.
type ColorPayload struct {
	Index int    `json:"index"`
	Hex   string `json:"hex"`
}

// FillPayload reports a region fill.
type FillPayload struct {
	Region string `json:"region"`
	Hex    string `json:"hex"`
}

// ClearPayload reports a cleared region, or all regions when Region is empty.
type ClearPayload struct {
	Region string `json:"region,omitempty"`
}

// DrawingPayload is the full fill state of the active drawing.
type DrawingPayload struct {
	Key   string            `json:"key"`
	Name  string            `json:"name"`
	Fills map[string]string `json:"fills"`
}

// ProgressPayload reports replay progress.
type ProgressPayload struct {
	Session uint    `json:"session"`
	Percent float64 `json:"percent"`
	Index   int     `json:"index"`
	Total   int     `json:"total"`
}

// StatusPayload is the user-visible status line.
type StatusPayload struct {
	Message   string `json:"message"`
	Link      string `json:"link"`
	Recording bool   `json:"recording"`
	Replaying bool   `json:"replaying"`
}

// RoundPayload reports a finished timed round.
type RoundPayload struct {
	Drawing           string  `json:"drawing"`
	Success           bool    `json:"success"`
	ElapsedMs         int64   `json:"elapsedMs"`
	FilledRegions     int     `json:"filledRegions"`
	TotalRegions      int     `json:"totalRegions"`
	FillActions       int     `json:"fillActions"`
	CompletionPercent float64 `json:"completionPercent"`
	ActionsPerMinute  float64 `json:"actionsPerMinute"`
}
