package ui

import "time-ledger/internal/tracker"

// View is the active screen
type View int

const (
	ViewTimer View = iota
	ViewAnalytics
)

func (v View) String() string {
	switch v {
	case ViewTimer:
		return "Timer"
	case ViewAnalytics:
		return "Analytics"
	default:
		return "Unknown"
	}
}

// tickMsg redraws the running timer once a second
type tickMsg struct{}

// loadedMsg reports the result of a store reload
type loadedMsg struct{ err error }

// mutatedMsg reports the result of a store mutation
type mutatedMsg struct {
	op    string
	entry tracker.TimeEntry
	err   error
}
