// Package joystick maps raw analog stick readings to canvas cursor positions.
package joystick

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects the control law applied to stick readings.
type Mode int

const (
	// Absolute treats deflection as velocity: the cursor keeps moving while
	// the stick is held off-center.
	Absolute Mode = iota
	// Centered treats deflection as position: the cursor sits at the canvas
	// center plus the scaled deflection.
	Centered
)

func (m Mode) String() string {
	switch m {
	case Absolute:
		return "absolute"
	case Centered:
		return "centered"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "absolute" or "centered", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "absolute", "":
		return Absolute, nil
	case "centered", "centred":
		return Centered, nil
	default:
		return Absolute, fmt.Errorf("unknown joystick mode %q", s)
	}
}

// Reading is one raw sample from the device. B is the stick button state.
type Reading struct {
	X, Y, B int
}

// Config holds calibration and canvas bounds.
type Config struct {
	RawMax       int
	CenterX      int
	CenterY      int
	DeadZone     int
	SpeedDivider float64
	MaxSpeed     float64
	Width        float64
	Height       float64
}

// DefaultConfig returns the calibration for a 12-bit stick on a 600x600 canvas.
func DefaultConfig() Config {
	return Config{
		RawMax:       4095,
		CenterX:      2048,
		CenterY:      2048,
		DeadZone:     100,
		SpeedDivider: 100.0,
		MaxSpeed:     10.0,
		Width:        600,
		Height:       600,
	}
}

// Normalizer converts readings to cursor positions. It is not safe for
// concurrent use.
type Normalizer struct {
	cfg  Config
	mode Mode
}

// NewNormalizer creates a Normalizer in Absolute mode.
func NewNormalizer(cfg Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Mode returns the active mode.
func (n *Normalizer) Mode() Mode {
	return n.mode
}

// SetMode switches modes. It reports true when the switch enters Centered
// mode, in which case the caller must move the cursor to Center.
func (n *Normalizer) SetMode(m Mode) bool {
	changed := n.mode != m
	n.mode = m
	return changed && m == Centered
}

// Toggle flips between the two modes and returns the SetMode result.
func (n *Normalizer) Toggle() bool {
	if n.mode == Absolute {
		return n.SetMode(Centered)
	}
	return n.SetMode(Absolute)
}

// Center returns the canvas center.
func (n *Normalizer) Center() (float64, float64) {
	return n.cfg.Width / 2, n.cfg.Height / 2
}

// InDeadZone reports whether both axes are within the dead zone.
func (n *Normalizer) InDeadZone(r Reading) bool {
	return abs(r.X-n.cfg.CenterX) < n.cfg.DeadZone && abs(r.Y-n.cfg.CenterY) < n.cfg.DeadZone
}

// Normalize returns the new cursor position for r given the current one.
// Each axis is handled independently and the result is always within
// [0, Width-1] x [0, Height-1].
func (n *Normalizer) Normalize(r Reading, curX, curY float64) (float64, float64) {
	switch n.mode {
	case Centered:
		return n.centeredX(r.X), n.centeredY(r.Y)
	default:
		return n.absoluteX(r.X, curX), n.absoluteY(r.Y, curY)
	}
}

// speed is the per-sample step for a deflection, capped at MaxSpeed.
func (n *Normalizer) speed(delta int) float64 {
	return math.Min(float64(delta)/n.cfg.SpeedDivider, n.cfg.MaxSpeed)
}

func (n *Normalizer) absoluteX(raw int, cur float64) float64 {
	delta := abs(raw - n.cfg.CenterX)
	if delta < n.cfg.DeadZone {
		return cur
	}
	if raw < n.cfg.CenterX {
		return math.Max(0, cur-n.speed(delta))
	}
	return math.Min(n.cfg.Width-1, cur+n.speed(delta))
}

// absoluteY moves the cursor up (decreasing Y) when raw is above center.
func (n *Normalizer) absoluteY(raw int, cur float64) float64 {
	delta := abs(raw - n.cfg.CenterY)
	if delta < n.cfg.DeadZone {
		return cur
	}
	if raw < n.cfg.CenterY {
		return math.Min(n.cfg.Height-1, cur+n.speed(delta))
	}
	return math.Max(0, cur-n.speed(delta))
}

func (n *Normalizer) centeredX(raw int) float64 {
	offset := raw - n.cfg.CenterX
	center := n.cfg.Width / 2
	if abs(offset) < n.cfg.DeadZone {
		return center
	}
	v := center + n.deflection(offset, n.cfg.CenterX)*(n.cfg.Width/2)
	return clamp(v, 0, n.cfg.Width-1)
}

// centeredY inverts the deflection so raw values above center sit above
// the canvas center.
func (n *Normalizer) centeredY(raw int) float64 {
	offset := raw - n.cfg.CenterY
	center := n.cfg.Height / 2
	if abs(offset) < n.cfg.DeadZone {
		return center
	}
	v := center - n.deflection(offset, n.cfg.CenterY)*(n.cfg.Height/2)
	return clamp(v, 0, n.cfg.Height-1)
}

// deflection scales an offset to [-1, 1] against the span above center.
func (n *Normalizer) deflection(offset, center int) float64 {
	span := float64(n.cfg.RawMax - center)
	if span <= 0 {
		return 0
	}
	return clamp(float64(offset)/span, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
