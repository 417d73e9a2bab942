// Package tracker holds the time arithmetic shared by the API server and the
// tracker client: effective durations with pause bookkeeping, goal overlays,
// date filters and the client/task aggregation used for analytics.
//
// Timestamps are epoch milliseconds and durations are whole seconds, which is
// the shape the records have on the wire.
package tracker

import "time"

// DateLayout is the calendar date format stored on every entry.
const DateLayout = "2006-01-02"

// TimeEntry is a single measurement of work against a task and client.
type TimeEntry struct {
	ID                 string `json:"id"`
	TaskName           string `json:"task_name"`
	ClientID           string `json:"client_id"`
	StartTime          int64  `json:"start_time"`
	EndTime            *int64 `json:"end_time"`
	Duration           int64  `json:"duration"`
	TargetDuration     *int64 `json:"target_duration"`
	Comment            string `json:"comment,omitempty"`
	IsPaused           bool   `json:"is_paused"`
	PausedAt           *int64 `json:"paused_at"`
	TotalPauseDuration int64  `json:"total_pause_duration"`
	Date               string `json:"date"`
}

// Client is the owner a time entry is billed against.
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// IsActive reports whether the entry is still being measured.
func (e *TimeEntry) IsActive() bool {
	return e.EndTime == nil
}

// Clone returns a deep copy, so pointer fields can be mutated independently.
func (e TimeEntry) Clone() TimeEntry {
	e.EndTime = cloneInt64(e.EndTime)
	e.PausedAt = cloneInt64(e.PausedAt)
	e.TargetDuration = cloneInt64(e.TargetDuration)
	return e
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a time in loc.
func FromMillis(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc)
}

// DateOf returns the calendar date of ms in loc.
func DateOf(ms int64, loc *time.Location) string {
	return FromMillis(ms, loc).Format(DateLayout)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// elapsedSeconds is floor((to - from) / 1000).
func elapsedSeconds(from, to int64) int64 {
	return floorDiv(to-from, 1000)
}
