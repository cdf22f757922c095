package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/engine"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

var epoch = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

// manualClock is a concurrency-safe fake clock.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock { return &manualClock{t: epoch} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// mockRecorder collects telemetry calls.
type mockRecorder struct {
	mu         sync.Mutex
	commands   []string
	boundaries []domain.BoundaryKind
	phases     []domain.Phase
}

func (m *mockRecorder) CommandApplied(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, name)
}

func (m *mockRecorder) BoundaryCrossed(ev domain.CueEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boundaries = append(m.boundaries, ev.Kind)
}

func (m *mockRecorder) PhaseChanged(p domain.Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phases = append(m.phases, p)
}

func (m *mockRecorder) boundaryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.boundaries)
}

func activities(durations ...int) []domain.Activity {
	out := make([]domain.Activity, len(durations))
	for i, d := range durations {
		out[i] = domain.Activity{ID: string(rune('a' + i)), Name: string(rune('A' + i)), DurationSeconds: d, Order: i}
	}
	return out
}

func setupRunner(t *testing.T) (*Runner, *manualClock, *mockRecorder) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	clock := newManualClock()
	rec := &mockRecorder{}
	eng := engine.New(log, engine.WithClock(clock.Now))
	r := New(eng, log, WithTickInterval(5*time.Millisecond), WithClock(clock.Now), WithRecorder(rec))
	r.Start(context.Background())
	t.Cleanup(r.Stop)
	return r, clock, rec
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRunnerCommandsBeforeStart(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	r := New(engine.New(log), log)
	if err := r.Play(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestRunnerLoadAndPlay(t *testing.T) {
	r, _, rec := setupRunner(t)
	ctx := context.Background()

	if err := r.Load(ctx, activities(10, 5), 2); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Play(ctx); err != nil {
		t.Fatalf("play: %v", err)
	}

	upd, err := r.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if upd.State.Phase != domain.PhaseRunning {
		t.Fatalf("expected running, got %s", upd.State.Phase)
	}
	if upd.Activity.Name != "A" || upd.ActivityCount != 2 || upd.RepeatCount != 2 {
		t.Fatalf("unexpected update: %+v", upd)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.commands) != 2 || rec.commands[0] != "load" || rec.commands[1] != "play" {
		t.Fatalf("expected load and play recorded, got %v", rec.commands)
	}
}

func TestRunnerLoadRejectsInvalidSequence(t *testing.T) {
	r, _, rec := setupRunner(t)
	err := r.Load(context.Background(), nil, 1)
	if !errors.Is(err, domain.ErrInvalidSequence) {
		t.Fatalf("expected ErrInvalidSequence, got %v", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.commands) != 0 {
		t.Fatalf("rejected command should not be recorded, got %v", rec.commands)
	}
}

func TestRunnerTicksPublishBoundaries(t *testing.T) {
	r, clock, rec := setupRunner(t)
	ctx := context.Background()
	updates := r.Subscribe(64)

	if err := r.Load(ctx, activities(10, 5), 1); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Play(ctx); err != nil {
		t.Fatalf("play: %v", err)
	}

	clock.Advance(10 * time.Second)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case upd := <-updates:
			if len(upd.Events) == 0 {
				continue
			}
			if upd.Events[0].Kind != domain.BoundaryActivity {
				t.Fatalf("expected activity boundary, got %s", upd.Events[0].Kind)
			}
			if upd.State.ActivityIndex != 1 || upd.Activity.Name != "B" {
				t.Fatalf("expected second activity, got %+v", upd.State)
			}
			if rec.boundaryCount() != 1 {
				t.Fatalf("expected one boundary recorded, got %d", rec.boundaryCount())
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for boundary update")
		}
	}
}

func TestRunnerCompletesAndStopsTicking(t *testing.T) {
	r, clock, rec := setupRunner(t)
	ctx := context.Background()

	if err := r.Load(ctx, activities(1), 1); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Play(ctx); err != nil {
		t.Fatalf("play: %v", err)
	}
	clock.Advance(time.Second)

	waitFor(t, "completion", func() bool {
		upd, err := r.Snapshot(ctx)
		return err == nil && upd.State.Phase == domain.PhaseCompleted
	})

	// More time passing must not produce more boundaries.
	clock.Advance(5 * time.Second)
	time.Sleep(30 * time.Millisecond)
	if n := rec.boundaryCount(); n != 1 {
		t.Fatalf("expected exactly one boundary, got %d", n)
	}
}

func TestRunnerToggle(t *testing.T) {
	r, clock, _ := setupRunner(t)
	ctx := context.Background()

	if err := r.Load(ctx, activities(10), 1); err != nil {
		t.Fatalf("load: %v", err)
	}

	phases := []domain.Phase{domain.PhaseRunning, domain.PhasePaused, domain.PhaseRunning}
	for i, want := range phases {
		if err := r.Toggle(ctx); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		upd, _ := r.Snapshot(ctx)
		if upd.State.Phase != want {
			t.Fatalf("toggle %d: expected %s, got %s", i, want, upd.State.Phase)
		}
		clock.Advance(2 * time.Second)
	}
}

func TestRunnerNavigation(t *testing.T) {
	r, _, _ := setupRunner(t)
	ctx := context.Background()

	if err := r.Load(ctx, activities(10, 20, 30), 3); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = r.Play(ctx)
	_ = r.Next(ctx)
	_ = r.Next(ctx)
	_ = r.Prev(ctx)
	_ = r.SkipCycle(ctx)

	upd, _ := r.Snapshot(ctx)
	if upd.State.ActivityIndex != 0 || upd.State.CycleIndex != 2 {
		t.Fatalf("expected activity 0 cycle 2, got %+v", upd.State)
	}

	if err := r.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	upd, _ = r.Snapshot(ctx)
	if upd.State.Phase != domain.PhaseIdle || upd.State.CycleIndex != 1 || upd.State.RemainingSeconds != 10 {
		t.Fatalf("expected idle baseline, got %+v", upd.State)
	}
}

func TestRunnerPhaseSinceTracksTransitions(t *testing.T) {
	r, clock, rec := setupRunner(t)
	ctx := context.Background()

	_ = r.Load(ctx, activities(30), 1)
	_ = r.Play(ctx)
	clock.Advance(4 * time.Second)
	_ = r.Pause(ctx)

	upd, _ := r.Snapshot(ctx)
	if !upd.PhaseSince.Equal(epoch.Add(4 * time.Second)) {
		t.Fatalf("expected phase since %v, got %v", epoch.Add(4*time.Second), upd.PhaseSince)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.phases) != 2 || rec.phases[0] != domain.PhaseRunning || rec.phases[1] != domain.PhasePaused {
		t.Fatalf("expected running then paused, got %v", rec.phases)
	}
}

func TestRunnerStopReleasesWakeLock(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	lock := &countingLock{}
	eng := engine.New(log, engine.WithWakeLock(lock))
	r := New(eng, log, WithTickInterval(5*time.Millisecond))
	r.Start(context.Background())

	ctx := context.Background()
	_ = r.Load(ctx, activities(60), 1)
	_ = r.Play(ctx)
	r.Stop()

	lock.mu.Lock()
	defer lock.mu.Unlock()
	if lock.acquired != 1 || lock.released != 1 {
		t.Fatalf("expected one acquire and one release, got %d/%d", lock.acquired, lock.released)
	}

	if err := r.Play(ctx); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning after stop, got %v", err)
	}
}

type countingLock struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (l *countingLock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquired++
	return nil
}

func (l *countingLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
	return nil
}
