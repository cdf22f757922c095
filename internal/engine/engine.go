// Package engine implements the interval timer state machine.
//
// The engine derives remaining time from a stored wall-clock anchor rather
// than counting ticks, so late or skipped ticks never accumulate drift. It
// is not safe for concurrent use: one goroutine must own it (see the timer
// package for the loop that does).
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// DefaultHapticPattern is pulsed on every boundary crossing.
var DefaultHapticPattern = []int{100, 50, 100}

// Option configures the engine.
type Option func(*Engine)

// WithClock replaces time.Now for the command operations. Tick always uses
// the time it is given.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithCuePlayer sets the port that plays the boundary sound.
func WithCuePlayer(p domain.CuePlayer) Option {
	return func(e *Engine) {
		e.cue = p
	}
}

// WithVibrator sets the port that pulses the boundary haptic.
func WithVibrator(v domain.Vibrator) Option {
	return func(e *Engine) {
		e.vibrator = v
	}
}

// WithWakeLock sets the port held while the engine is running.
func WithWakeLock(w domain.WakeLock) Option {
	return func(e *Engine) {
		e.wake = w
	}
}

// WithHapticPattern overrides DefaultHapticPattern.
func WithHapticPattern(pattern ...int) Option {
	return func(e *Engine) {
		e.pattern = append([]int(nil), pattern...)
	}
}

// Engine drives a multi-activity, multi-cycle countdown.
type Engine struct {
	log      *logger.Logger
	now      func() time.Time
	cue      domain.CuePlayer
	vibrator domain.Vibrator
	wake     domain.WakeLock
	pattern  []int

	activities []domain.Activity
	repeat     int
	state      domain.RunState
	runID      string
	lockHeld   bool
}

// New creates an engine with nothing loaded. Every command is a no-op
// until Load succeeds.
func New(log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		log:     log,
		now:     time.Now,
		pattern: DefaultHapticPattern,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load binds a new sequence and resets to Idle. The sequence is copied, so
// later edits by the caller never reach an in-flight run. On error the
// previous sequence and state are left untouched.
func (e *Engine) Load(activities []domain.Activity, repeatCount int) error {
	if len(activities) == 0 || repeatCount < 1 {
		return fmt.Errorf("%w (activities=%d, repeat=%d)", domain.ErrInvalidSequence, len(activities), repeatCount)
	}
	for i, a := range activities {
		if a.DurationSeconds < 0 {
			return fmt.Errorf("%w: activity %d has negative duration %d", domain.ErrInvalidSequence, i, a.DurationSeconds)
		}
	}

	e.releaseWakeLock()
	e.activities = domain.CloneActivities(activities)
	e.repeat = repeatCount
	e.state = e.baseline(domain.PhaseIdle)
	e.runID = ""

	e.log.Info("loaded %d activities x %d cycles", len(activities), repeatCount)
	return nil
}

// Play starts, restarts or resumes the run.
func (e *Engine) Play() {
	if !e.Loaded() {
		return
	}
	now := e.now()

	switch e.state.Phase {
	case domain.PhaseRunning:
		return
	case domain.PhasePaused:
		elapsed := e.current().DurationSeconds - e.state.RemainingSeconds
		e.state.RunStartedAt = now.Add(-time.Duration(elapsed) * time.Second)
		e.log.Debug("run %s resumed at activity %d (remaining=%ds)", e.runID, e.state.ActivityIndex, e.state.RemainingSeconds)
	default:
		e.state = e.baseline(domain.PhaseRunning)
		e.state.RunStartedAt = now
		e.runID = uuid.NewString()[:8] // short tag for the logs
		e.log.Info("run %s started", e.runID)
	}

	e.state.Phase = domain.PhaseRunning
	e.acquireWakeLock()
}

// Pause freezes the countdown. Remaining time is refreshed from the clock
// first so a pause between ticks doesn't lose the partial second count.
func (e *Engine) Pause() {
	if e.state.Phase != domain.PhaseRunning {
		return
	}

	if r := e.current().DurationSeconds - elapsedSeconds(e.state.RunStartedAt, e.now()); r > 0 {
		e.state.RemainingSeconds = r
	}
	e.state.Phase = domain.PhasePaused
	e.state.RunStartedAt = time.Time{}
	e.releaseWakeLock()

	e.log.Debug("run %s paused at activity %d (remaining=%ds)", e.runID, e.state.ActivityIndex, e.state.RemainingSeconds)
}

// Stop abandons the run and returns to the Idle baseline.
func (e *Engine) Stop() {
	if !e.Loaded() {
		return
	}
	e.releaseWakeLock()
	e.state = e.baseline(domain.PhaseIdle)
	e.log.Debug("run %s stopped", e.runID)
}

// Next skips to the following activity, wrapping to the first without
// counting a cycle.
func (e *Engine) Next() {
	if !e.active() {
		return
	}
	n := len(e.activities)
	e.jumpTo((e.state.ActivityIndex+1)%n, e.state.CycleIndex)
}

// Prev goes back one activity, wrapping to the last.
func (e *Engine) Prev() {
	if !e.active() {
		return
	}
	n := len(e.activities)
	e.jumpTo((e.state.ActivityIndex-1+n)%n, e.state.CycleIndex)
}

// SkipCycle jumps to the first activity of the next cycle. No-op on the
// last cycle.
func (e *Engine) SkipCycle() {
	if !e.active() || e.state.CycleIndex >= e.repeat {
		return
	}
	e.jumpTo(0, e.state.CycleIndex+1)
}

// Tick advances the countdown to now. It returns the boundary crossed, if
// any. At most one boundary is crossed per tick, and the next activity is
// anchored at now, so time spent suspended is not replayed.
func (e *Engine) Tick(now time.Time) []domain.CueEvent {
	if e.state.Phase != domain.PhaseRunning || !e.state.Anchored() {
		return nil
	}

	remaining := e.current().DurationSeconds - elapsedSeconds(e.state.RunStartedAt, now)
	if remaining > 0 {
		e.state.RemainingSeconds = remaining
		return nil
	}

	return []domain.CueEvent{e.crossBoundary(now)}
}

// Close releases the wake lock. Call on teardown.
func (e *Engine) Close() {
	e.releaseWakeLock()
}

// Snapshot returns a copy of the run state.
func (e *Engine) Snapshot() domain.RunState {
	return e.state
}

// Activities returns a copy of the loaded sequence.
func (e *Engine) Activities() []domain.Activity {
	return domain.CloneActivities(e.activities)
}

// RepeatCount returns the loaded repeat count, 0 before Load.
func (e *Engine) RepeatCount() int {
	return e.repeat
}

// Current returns the activity at the current index.
func (e *Engine) Current() (domain.Activity, bool) {
	if !e.Loaded() {
		return domain.Activity{}, false
	}
	return e.current(), true
}

// Loaded reports whether a sequence is bound.
func (e *Engine) Loaded() bool {
	return len(e.activities) > 0
}

// crossBoundary fires the cue and moves past the finished activity.
func (e *Engine) crossBoundary(now time.Time) domain.CueEvent {
	ev := domain.CueEvent{
		FromActivity: e.state.ActivityIndex,
		FromCycle:    e.state.CycleIndex,
		At:           now,
	}

	e.dispatch("cue", func() error {
		if e.cue == nil {
			return nil
		}
		return e.cue.PlayCue()
	})
	e.dispatch("haptic", func() error {
		if e.vibrator == nil {
			return nil
		}
		return e.vibrator.Vibrate(e.pattern)
	})

	next := e.state.ActivityIndex + 1
	switch {
	case next < len(e.activities):
		ev.Kind = domain.BoundaryActivity
		e.state.ActivityIndex = next
		e.state.RemainingSeconds = e.activities[next].DurationSeconds
		e.state.RunStartedAt = now
	case e.state.CycleIndex < e.repeat:
		ev.Kind = domain.BoundaryCycle
		e.state.ActivityIndex = 0
		e.state.CycleIndex++
		e.state.RemainingSeconds = e.activities[0].DurationSeconds
		e.state.RunStartedAt = now
	default:
		ev.Kind = domain.BoundaryComplete
		e.state = e.baseline(domain.PhaseCompleted)
		e.releaseWakeLock()
		e.log.Info("run %s completed", e.runID)
	}

	ev.ToActivity = e.state.ActivityIndex
	ev.ToCycle = e.state.CycleIndex
	e.log.Debug("boundary %s: activity %d/cycle %d -> activity %d/cycle %d",
		ev.Kind, ev.FromActivity, ev.FromCycle, ev.ToActivity, ev.ToCycle)
	return ev
}

// jumpTo moves to a position, keeping the phase. A running engine starts
// counting the new activity immediately.
func (e *Engine) jumpTo(index, cycle int) {
	e.state.ActivityIndex = index
	e.state.CycleIndex = cycle
	e.state.RemainingSeconds = e.activities[index].DurationSeconds
	if e.state.Phase == domain.PhaseRunning {
		e.state.RunStartedAt = e.now()
	} else {
		e.state.RunStartedAt = time.Time{}
	}
}

func (e *Engine) baseline(phase domain.Phase) domain.RunState {
	return domain.RunState{
		Phase:            phase,
		ActivityIndex:    0,
		CycleIndex:       1,
		RemainingSeconds: e.activities[0].DurationSeconds,
	}
}

func (e *Engine) current() domain.Activity {
	return e.activities[e.state.ActivityIndex]
}

func (e *Engine) active() bool {
	return e.state.Phase == domain.PhaseRunning || e.state.Phase == domain.PhasePaused
}

func (e *Engine) acquireWakeLock() {
	if e.lockHeld || e.wake == nil {
		return
	}
	e.lockHeld = true
	e.dispatch("wake lock acquire", e.wake.Acquire)
}

func (e *Engine) releaseWakeLock() {
	if !e.lockHeld || e.wake == nil {
		return
	}
	e.lockHeld = false
	e.dispatch("wake lock release", e.wake.Release)
}

// dispatch calls a best-effort port. Errors and panics are logged and
// never reach the state machine.
func (e *Engine) dispatch(what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("%s panicked: %v", what, r)
		}
	}()
	if err := fn(); err != nil {
		e.log.Warn("%s failed: %v", what, err)
	}
}

// elapsedSeconds returns whole seconds from start to now, never negative.
func elapsedSeconds(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
