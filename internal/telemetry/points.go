package telemetry

import (
	"strconv"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/replay"
	"github.com/joypaint/joypaint/internal/timedgame"
)

// ActionPoint converts a record into an "action" point tagged by kind and
// session.
func ActionPoint(rec actionlog.Record) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement("action").
		AddTag("kind", rec.Kind.String()).
		AddTag("session", strconv.FormatUint(uint64(rec.SessionID), 10)).
		AddField("timestamp_ms", rec.TimestampMs).
		SetTime(rec.OccurredAt)

	if rec.RegionName != "" {
		p.AddTag("region", rec.RegionName)
	}
	if rec.ButtonPressed != "" {
		p.AddTag("button", rec.ButtonPressed)
	}
	if rec.ColorHex != "" {
		p.AddField("color_hex", rec.ColorHex)
	}
	if rec.ColorIndex != nil {
		p.AddField("color_index", *rec.ColorIndex)
	}
	if rec.CursorX != nil && rec.CursorY != nil {
		p.AddField("cursor_x", *rec.CursorX)
		p.AddField("cursor_y", *rec.CursorY)
	}
	if rec.CanvasX != nil && rec.CanvasY != nil {
		p.AddField("canvas_x", *rec.CanvasX)
		p.AddField("canvas_y", *rec.CanvasY)
	}
	return p
}

// ProgressPoint converts a playback progress step.
func ProgressPoint(sessionID uint, pr replay.Progress, at time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement("replay_progress").
		AddTag("session", strconv.FormatUint(uint64(sessionID), 10)).
		AddField("percent", pr.Percent).
		AddField("index", pr.Index).
		AddField("total", pr.Total).
		SetTime(at)
}

// RoundPoint converts a timed round result.
func RoundPoint(drawingKey string, r timedgame.Result, at time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement("round").
		AddTag("drawing", drawingKey).
		AddTag("success", strconv.FormatBool(r.Success)).
		AddField("elapsed_ms", r.Elapsed.Milliseconds()).
		AddField("filled_regions", r.FilledRegions).
		AddField("total_regions", r.TotalRegions).
		AddField("fill_actions", r.FillActions).
		AddField("active_ms", r.ActiveTime.Milliseconds()).
		AddField("idle_ms", r.IdleTime.Milliseconds()).
		AddField("completion_percent", r.CompletionPercent()).
		AddField("actions_per_minute", r.ActionsPerMinute()).
		SetTime(at)
}
