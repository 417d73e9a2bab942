package tracker

import "errors"

// State is the lifecycle position of an entry.
type State int

const (
	Running State = iota
	Paused
	Completed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	ErrEntryCompleted = errors.New("entry already completed")
	ErrAlreadyPaused  = errors.New("entry already paused")
	ErrNotPaused      = errors.New("entry is not paused")
)

// State derives the lifecycle state from the stored fields.
func (e *TimeEntry) State() State {
	switch {
	case e.EndTime != nil:
		return Completed
	case e.IsPaused:
		return Paused
	default:
		return Running
	}
}

// EffectiveDuration returns the seconds attributable to work at now.
// Completed entries return their frozen duration. While paused, time stops at
// the pause instant.
func EffectiveDuration(e TimeEntry, now int64) int64 {
	if e.EndTime != nil {
		return e.Duration
	}
	ref := now
	if e.IsPaused && e.PausedAt != nil {
		ref = *e.PausedAt
	}
	return clampZero(elapsedSeconds(e.StartTime, ref) - e.TotalPauseDuration)
}

// CompletedDuration is the stored duration of an entry that ran from start to
// end with totalPause seconds of pauses.
func CompletedDuration(start, end, totalPause int64) int64 {
	return clampZero(elapsedSeconds(start, end) - totalPause)
}

// Pause freezes a running entry at now.
func (e *TimeEntry) Pause(now int64) error {
	switch e.State() {
	case Completed:
		return ErrEntryCompleted
	case Paused:
		return ErrAlreadyPaused
	}
	e.IsPaused = true
	e.PausedAt = Int64(now)
	return nil
}

// Resume folds the pause interval into TotalPauseDuration and continues.
func (e *TimeEntry) Resume(now int64) error {
	switch e.State() {
	case Completed:
		return ErrEntryCompleted
	case Running:
		return ErrNotPaused
	}
	if e.PausedAt != nil {
		e.TotalPauseDuration += clampZero(elapsedSeconds(*e.PausedAt, now))
	}
	e.IsPaused = false
	e.PausedAt = nil
	return nil
}

// Stop completes the entry at now. An open pause is counted once before the
// final duration is computed.
func (e *TimeEntry) Stop(now int64) error {
	if e.State() == Completed {
		return ErrEntryCompleted
	}
	if e.IsPaused && e.PausedAt != nil {
		e.TotalPauseDuration += clampZero(elapsedSeconds(*e.PausedAt, now))
	}
	e.IsPaused = false
	e.PausedAt = nil
	e.EndTime = Int64(now)
	e.Duration = CompletedDuration(e.StartTime, now, e.TotalPauseDuration)
	return nil
}

func clampZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
