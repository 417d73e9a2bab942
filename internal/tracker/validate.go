package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxCommentLength is the comment limit in characters.
const MaxCommentLength = 500

var (
	ErrEndBeforeStart = errors.New("end time must be after start time")
	ErrEmptyTaskName  = errors.New("task name is empty")
	ErrMissingClient  = errors.New("client is required")
	ErrZeroDuration   = errors.New("duration must be positive")
	ErrInvalidClock   = errors.New("invalid time of day, want HH:MM")
)

// ValidateNew checks the fields required before an entry can be created.
func ValidateNew(taskName, clientID string) error {
	if strings.TrimSpace(taskName) == "" {
		return ErrEmptyTaskName
	}
	if strings.TrimSpace(clientID) == "" {
		return ErrMissingClient
	}
	return nil
}

// ValidateTimes rejects an end that precedes the start. A nil end is an
// entry still in progress.
func ValidateTimes(start int64, end *int64) error {
	if end != nil && *end < start {
		return ErrEndBeforeStart
	}
	return nil
}

// TruncateComment trims surrounding space and cuts to MaxCommentLength runes.
func TruncateComment(comment string) string {
	comment = strings.TrimSpace(comment)
	r := []rune(comment)
	if len(r) > MaxCommentLength {
		return string(r[:MaxCommentLength])
	}
	return comment
}

// ManualRange resolves a manual entry typed as a date plus HH:MM start and end
// into timestamps in loc. An end earlier than the start means the entry ran
// past midnight, so the end moves to the next day.
func ManualRange(date, from, to string, loc *time.Location) (start, end int64, err error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	fh, fm, err := parseClock(from)
	if err != nil {
		return 0, 0, err
	}
	th, tm, err := parseClock(to)
	if err != nil {
		return 0, 0, err
	}

	startAt := time.Date(day.Year(), day.Month(), day.Day(), fh, fm, 0, 0, loc)
	endAt := time.Date(day.Year(), day.Month(), day.Day(), th, tm, 0, 0, loc)
	if endAt.Before(startAt) {
		endAt = endAt.AddDate(0, 0, 1)
	}
	if !endAt.After(startAt) {
		return 0, 0, ErrZeroDuration
	}
	return Millis(startAt), Millis(endAt), nil
}

// ClockOn resolves HH:MM on date in loc, with no rollover.
func ClockOn(date, clock string, loc *time.Location) (int64, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	h, m, err := parseClock(clock)
	if err != nil {
		return 0, err
	}
	return Millis(time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)), nil
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour(), t.Minute(), nil
}
