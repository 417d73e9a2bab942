package tracker

import (
	"fmt"
	"time"
)

// DateFilter selects the analytics period.
type DateFilter string

const (
	FilterAll       DateFilter = "all"
	FilterToday     DateFilter = "today"
	FilterThisWeek  DateFilter = "thisWeek"
	FilterLastWeek  DateFilter = "lastWeek"
	FilterThisMonth DateFilter = "thisMonth"
)

// Filters lists every filter in display order.
var Filters = []DateFilter{FilterAll, FilterToday, FilterThisWeek, FilterLastWeek, FilterThisMonth}

// ParseDateFilter accepts the wire names of the filters. Empty means thisMonth.
func ParseDateFilter(s string) (DateFilter, error) {
	if s == "" {
		return FilterThisMonth, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown date filter %q", s)
}

// Label is the short human name of the filter.
func (f DateFilter) Label() string {
	switch f {
	case FilterAll:
		return "All"
	case FilterToday:
		return "Today"
	case FilterThisWeek:
		return "Week"
	case FilterLastWeek:
		return "Last Week"
	case FilterThisMonth:
		return "Month"
	default:
		return string(f)
	}
}

// Next cycles through Filters.
func (f DateFilter) Next() DateFilter {
	for i, x := range Filters {
		if x == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Range is a half-open [Start, End) interval.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ms falls inside the range.
func (r Range) Contains(ms int64) bool {
	return ms >= Millis(r.Start) && ms < Millis(r.End)
}

// Range resolves the filter against now, in now's location. Weeks start on
// Sunday. ok is false for FilterAll.
func (f DateFilter) Range(now time.Time) (Range, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch f {
	case FilterToday:
		return Range{Start: today, End: today.AddDate(0, 0, 1)}, true
	case FilterThisWeek:
		sunday := today.AddDate(0, 0, -int(today.Weekday()))
		return Range{Start: sunday, End: sunday.AddDate(0, 0, 7)}, true
	case FilterLastWeek:
		sunday := today.AddDate(0, 0, -int(today.Weekday())-7)
		return Range{Start: sunday, End: sunday.AddDate(0, 0, 7)}, true
	case FilterThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Range{Start: first, End: first.AddDate(0, 1, 0)}, true
	default:
		return Range{}, false
	}
}

// HasDailyBuckets reports whether the filter spans several bounded days.
func (f DateFilter) HasDailyBuckets() bool {
	return f == FilterThisWeek || f == FilterLastWeek || f == FilterThisMonth
}

// Days lists the calendar dates of the range.
func (r Range) Days() []string {
	var days []string
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// Includes reports whether e belongs to the period. Under today an active
// entry is always included, even when it started before midnight.
func (f DateFilter) Includes(e TimeEntry, now time.Time) bool {
	r, ok := f.Range(now)
	if !ok {
		return true
	}
	if f == FilterToday && e.IsActive() {
		return true
	}
	return r.Contains(e.StartTime)
}
