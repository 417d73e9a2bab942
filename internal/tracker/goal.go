package tracker

// Severity classifies how much of a goal is left.
type Severity string

const (
	SeverityNormal  Severity = "normal"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// GoalStatus is the countdown view of an entry with a target duration.
type GoalStatus struct {
	Target     int64    `json:"target"`
	Remaining  int64    `json:"remaining"`
	IsOvertime bool     `json:"is_overtime"`
	Severity   Severity `json:"severity"`
}

// Goal computes the countdown for e at now. ok is false when e has no
// positive target.
func Goal(e TimeEntry, now int64) (GoalStatus, bool) {
	if e.TargetDuration == nil || *e.TargetDuration <= 0 {
		return GoalStatus{}, false
	}
	target := *e.TargetDuration
	remaining := target - EffectiveDuration(e, now)
	return GoalStatus{
		Target:     target,
		Remaining:  remaining,
		IsOvertime: remaining < 0,
		Severity:   ClassifyRemaining(remaining, target),
	}, true
}

// ClassifyRemaining maps remaining/target onto the three presentation bands:
// above 70% normal, 30% to 70% warning, below 30% or overtime danger.
func ClassifyRemaining(remaining, target int64) Severity {
	if target <= 0 || remaining < 0 {
		return SeverityDanger
	}
	ratio := float64(remaining) / float64(target)
	switch {
	case ratio > 0.7:
		return SeverityNormal
	case ratio >= 0.3:
		return SeverityWarning
	default:
		return SeverityDanger
	}
}
