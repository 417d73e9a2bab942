package store

import (
	"context"
	"fmt"
	"strings"

	"time-ledger/internal/tracker"
)

// StartTimer creates a running entry now. Only one entry should be active at
// a time; callers stop the previous one first.
func (s *Store) StartTimer(ctx context.Context, taskName, clientID string, target *int64) (tracker.TimeEntry, error) {
	taskName = strings.TrimSpace(taskName)
	if err := tracker.ValidateNew(taskName, clientID); err != nil {
		return tracker.TimeEntry{}, err
	}
	if target != nil && *target <= 0 {
		target = nil
	}

	now := tracker.Millis(s.now())
	e := tracker.TimeEntry{
		ID:             tempID(),
		TaskName:       taskName,
		ClientID:       clientID,
		StartTime:      now,
		TargetDuration: target,
		Date:           tracker.DateOf(now, s.loc),
	}
	return s.create(ctx, "start timer", e)
}

// ManualEntry is a completed entry typed as a date and a clock range.
type ManualEntry struct {
	TaskName string
	ClientID string
	Date     string // YYYY-MM-DD
	From     string // HH:MM
	To       string // HH:MM, earlier than From means the next day
	Comment  string
}

func (s *Store) manual(m ManualEntry) (tracker.TimeEntry, error) {
	task := strings.TrimSpace(m.TaskName)
	if err := tracker.ValidateNew(task, m.ClientID); err != nil {
		return tracker.TimeEntry{}, err
	}
	start, end, err := tracker.ManualRange(m.Date, m.From, m.To, s.loc)
	if err != nil {
		return tracker.TimeEntry{}, err
	}
	return tracker.TimeEntry{
		ID:        tempID(),
		TaskName:  task,
		ClientID:  m.ClientID,
		StartTime: start,
		EndTime:   tracker.Int64(end),
		Duration:  tracker.CompletedDuration(start, end, 0),
		Comment:   tracker.TruncateComment(m.Comment),
		Date:      tracker.DateOf(start, s.loc),
	}, nil
}

// AddManualEntry records a completed entry.
func (s *Store) AddManualEntry(ctx context.Context, m ManualEntry) (tracker.TimeEntry, error) {
	e, err := s.manual(m)
	if err != nil {
		return tracker.TimeEntry{}, err
	}
	return s.create(ctx, "add entry", e)
}

// AddManualEntries records several completed entries in one backend call.
// Nothing is applied when any of them is invalid.
func (s *Store) AddManualEntries(ctx context.Context, ms []ManualEntry) ([]tracker.TimeEntry, error) {
	if len(ms) == 0 {
		return nil, nil
	}
	batch := make([]tracker.TimeEntry, 0, len(ms))
	for i, m := range ms {
		e, err := s.manual(m)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		batch = append(batch, e)
	}

	s.mu.Lock()
	for _, e := range batch {
		s.pending[e.ID] = true
		s.putEntry(e)
	}
	s.mu.Unlock()

	saved, err := s.backend.CreateEntries(ctx, batch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && len(saved) != len(batch) {
		err = fmt.Errorf("backend saved %d of %d entries", len(saved), len(batch))
	}
	if err != nil {
		for _, e := range batch {
			delete(s.pending, e.ID)
			s.removeEntry(e.ID)
		}
		return nil, s.rolledBack("add entries", err)
	}
	out := make([]tracker.TimeEntry, len(saved))
	for i := range saved {
		out[i] = s.settle(batch[i].ID, saved[i])
	}
	return out, nil
}

func (s *Store) create(ctx context.Context, op string, e tracker.TimeEntry) (tracker.TimeEntry, error) {
	s.mu.Lock()
	s.pending[e.ID] = true
	s.putEntry(e.Clone())
	s.mu.Unlock()

	saved, err := s.backend.CreateEntry(ctx, e)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		delete(s.pending, e.ID)
		s.removeEntry(e.ID)
		return tracker.TimeEntry{}, s.rolledBack(op, err)
	}
	return s.settle(e.ID, saved), nil
}

// PauseTimer freezes the active entry.
func (s *Store) PauseTimer(ctx context.Context) (tracker.TimeEntry, error) {
	return s.mutateActive(ctx, "pause timer", (*tracker.TimeEntry).Pause)
}

// ResumeTimer continues the paused entry.
func (s *Store) ResumeTimer(ctx context.Context) (tracker.TimeEntry, error) {
	return s.mutateActive(ctx, "resume timer", (*tracker.TimeEntry).Resume)
}

// StopTimer completes the active entry.
func (s *Store) StopTimer(ctx context.Context) (tracker.TimeEntry, error) {
	return s.mutateActive(ctx, "stop timer", (*tracker.TimeEntry).Stop)
}

func (s *Store) mutateActive(ctx context.Context, op string, fn func(*tracker.TimeEntry, int64) error) (tracker.TimeEntry, error) {
	s.mu.Lock()
	i := s.activeIndex()
	if i < 0 {
		s.mu.Unlock()
		return tracker.TimeEntry{}, ErrNoActiveEntry
	}
	id := s.entries[i].ID
	s.mu.Unlock()

	return s.update(ctx, op, id, func(e *tracker.TimeEntry) error {
		return fn(e, tracker.Millis(s.now()))
	})
}

// EntryEdit lists the fields to change; nil fields are kept.
type EntryEdit struct {
	TaskName       *string
	ClientID       *string
	StartTime      *int64
	EndTime        *int64
	TargetDuration *int64
	Comment        *string
}

// UpdateEntry edits an entry. Completed durations are recomputed from the
// new times and the existing pause total; the date follows the start.
func (s *Store) UpdateEntry(ctx context.Context, id string, edit EntryEdit) (tracker.TimeEntry, error) {
	return s.update(ctx, "update entry", id, func(e *tracker.TimeEntry) error {
		if edit.TaskName != nil {
			e.TaskName = strings.TrimSpace(*edit.TaskName)
		}
		if edit.ClientID != nil {
			e.ClientID = *edit.ClientID
		}
		if err := tracker.ValidateNew(e.TaskName, e.ClientID); err != nil {
			return err
		}
		if edit.StartTime != nil {
			e.StartTime = *edit.StartTime
		}
		if edit.EndTime != nil {
			if e.IsActive() {
				return fmt.Errorf("stop the timer instead of setting an end time")
			}
			e.EndTime = tracker.Int64(*edit.EndTime)
		}
		if err := tracker.ValidateTimes(e.StartTime, e.EndTime); err != nil {
			return err
		}
		if edit.TargetDuration != nil {
			e.TargetDuration = nil
			if *edit.TargetDuration > 0 {
				e.TargetDuration = tracker.Int64(*edit.TargetDuration)
			}
		}
		if edit.Comment != nil {
			e.Comment = tracker.TruncateComment(*edit.Comment)
		}
		if e.EndTime != nil {
			e.Duration = tracker.CompletedDuration(e.StartTime, *e.EndTime, e.TotalPauseDuration)
		}
		e.Date = tracker.DateOf(e.StartTime, s.loc)
		return nil
	})
}

// UpdateComment changes only the comment.
func (s *Store) UpdateComment(ctx context.Context, id, comment string) (tracker.TimeEntry, error) {
	return s.UpdateEntry(ctx, id, EntryEdit{Comment: &comment})
}

// update applies fn to a copy of the entry, publishes it, and restores the
// previous value when the backend rejects the change.
func (s *Store) update(ctx context.Context, op, id string, fn func(*tracker.TimeEntry) error) (tracker.TimeEntry, error) {
	s.mu.Lock()
	i := s.entryIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return tracker.TimeEntry{}, ErrNotFound
	}
	if s.pending[id] {
		s.mu.Unlock()
		return tracker.TimeEntry{}, ErrPending
	}
	prev := s.entries[i].Clone()
	next := prev.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return tracker.TimeEntry{}, err
	}
	s.putEntry(next.Clone())
	s.mu.Unlock()

	saved, err := s.backend.UpdateEntry(ctx, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	// a delete that landed meanwhile wins over this update
	deleted := s.entryIndex(id) < 0
	if err != nil {
		if !deleted {
			s.putEntry(prev)
		}
		return tracker.TimeEntry{}, s.rolledBack(op, err)
	}
	if deleted {
		saved.Date = tracker.DateOf(saved.StartTime, s.loc)
		return saved, nil
	}
	return s.settle(id, saved), nil
}

// DeleteEntry removes an entry.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.entryIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if s.pending[id] {
		s.mu.Unlock()
		return ErrPending
	}
	prev := s.entries[i]
	s.removeEntry(id)
	s.mu.Unlock()

	if err := s.backend.DeleteEntry(ctx, id); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.putEntry(prev)
		return s.rolledBack("delete entry", err)
	}
	return nil
}
