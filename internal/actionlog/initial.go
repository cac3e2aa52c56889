package actionlog

import (
	"encoding/json"
	"fmt"
)

// Cursor is a canvas position.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InitialState is the canvas state captured when a recording starts.
type InitialState struct {
	Drawing    string            `json:"drawing"`
	Fills      map[string]string `json:"fills"`
	Cursor     Cursor            `json:"cursor"`
	ColorIndex int               `json:"colorIndex"`
}

// Record wraps the state in an InitialState record at timestamp zero.
func (s InitialState) Record() (Record, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode initial state: %w", err)
	}
	return Record{Kind: KindInitialState, AdditionalData: data}, nil
}

// DecodeInitialState reads the state carried by an InitialState record.
func DecodeInitialState(rec Record) (InitialState, error) {
	var s InitialState
	if rec.Kind != KindInitialState {
		return s, fmt.Errorf("record kind %s is not %s", rec.Kind, KindInitialState)
	}
	if len(rec.AdditionalData) == 0 {
		return s, fmt.Errorf("initial state record has no data")
	}
	if err := json.Unmarshal(rec.AdditionalData, &s); err != nil {
		return s, fmt.Errorf("failed to decode initial state: %w", err)
	}
	return s, nil
}
