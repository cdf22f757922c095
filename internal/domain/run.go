package domain

import "time"

// Phase is the lifecycle position of a timer run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
	PhaseCompleted
)

// String returns a human-readable phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// RunState is the position of the timer within a loaded sequence.
// The engine owns it; everyone else gets copies.
type RunState struct {
	Phase            Phase
	ActivityIndex    int // [0, n-1]
	CycleIndex       int // [1, repeatCount]
	RemainingSeconds int

	// RunStartedAt is the wall-clock instant the current activity began
	// counting, shifted back on resume by the time already elapsed. It is
	// the zero time whenever Phase is not PhaseRunning.
	RunStartedAt time.Time
}

// Anchored reports whether the state carries a running start timestamp.
func (s RunState) Anchored() bool {
	return !s.RunStartedAt.IsZero()
}

// BoundaryKind says what happened when an activity ran out.
type BoundaryKind int

const (
	// BoundaryActivity moved on to the next activity in the same cycle.
	BoundaryActivity BoundaryKind = iota
	// BoundaryCycle wrapped back to the first activity of the next cycle.
	BoundaryCycle
	// BoundaryComplete finished the last activity of the last cycle.
	BoundaryComplete
)

// String returns a human-readable boundary kind.
func (k BoundaryKind) String() string {
	switch k {
	case BoundaryActivity:
		return "activity"
	case BoundaryCycle:
		return "cycle"
	case BoundaryComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// CueEvent describes one boundary crossing. Exactly one is produced per
// crossing, and the audio/haptic cue fires exactly once with it.
type CueEvent struct {
	Kind         BoundaryKind
	FromActivity int
	FromCycle    int
	ToActivity   int
	ToCycle      int
	At           time.Time
}

// ActivityProgress returns how far the current activity has run, in [0,1].
// Zero-length activities report 0.
func ActivityProgress(state RunState, activities []Activity) float64 {
	if state.ActivityIndex < 0 || state.ActivityIndex >= len(activities) {
		return 0
	}
	d := activities[state.ActivityIndex].DurationSeconds
	if d <= 0 {
		return 0
	}
	p := float64(d-state.RemainingSeconds) / float64(d)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// OverallProgress returns progress through the current cycle, in [0,1].
func OverallProgress(state RunState, activities []Activity) float64 {
	n := len(activities)
	if n == 0 {
		return 0
	}
	return (float64(state.ActivityIndex) + ActivityProgress(state, activities)) / float64(n)
}
