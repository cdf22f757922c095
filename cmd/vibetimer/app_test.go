package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/vibetimer/internal/conversation"
	"github.com/hammamikhairi/vibetimer/internal/counter"
	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/engine"
	"github.com/hammamikhairi/vibetimer/internal/logger"
	"github.com/hammamikhairi/vibetimer/internal/preferences"
	"github.com/hammamikhairi/vibetimer/internal/preset"
	"github.com/hammamikhairi/vibetimer/internal/profile"
	"github.com/hammamikhairi/vibetimer/internal/storage"
	"github.com/hammamikhairi/vibetimer/internal/timer"
)

var epoch = time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC)

// recordingConsole captures everything the app prints.
type recordingConsole struct {
	mu    sync.Mutex
	lines []string
}

func (c *recordingConsole) add(kind, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, kind+": "+text)
}

func (c *recordingConsole) PrintInfo(text string)   { c.add("info", text) }
func (c *recordingConsole) PrintHint(text string)   { c.add("hint", text) }
func (c *recordingConsole) PrintUrgent(text string) { c.add("urgent", text) }
func (c *recordingConsole) PrintVoice(text string)  { c.add("voice", text) }

func (c *recordingConsole) Printf(format string, a ...interface{}) {
	c.add("notify", fmt.Sprintf(format, a...))
}

func (c *recordingConsole) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.lines, "\n")
}

func (c *recordingConsole) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return ""
	}
	return c.lines[len(c.lines)-1]
}

type fixture struct {
	app      *cliApp
	out      *recordingConsole
	store    *storage.MemoryStore
	runner   *timer.Runner
	profiles *profile.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := storage.NewMemoryStore(log)
	prefs := preferences.NewManager(store, log)
	tally := counter.New(store, log)

	// A frozen clock keeps runs from advancing on their own.
	eng := engine.New(log, engine.WithClock(func() time.Time { return epoch }))
	runner := timer.New(eng, log, timer.WithTickInterval(5*time.Millisecond))
	runner.Start(ctx)
	t.Cleanup(runner.Stop)

	board := newStatusBoard(tally, prefs)
	updates := runner.Subscribe(16)
	go board.follow(ctx, updates)

	out := &recordingConsole{}
	profiles := profile.NewService(store, store, log, profile.WithClock(func() time.Time { return epoch }))
	app := &cliApp{
		runner:    runner,
		profiles:  profiles,
		presets:   preset.NewCatalog(log),
		counter:   tally,
		prefs:     prefs,
		parser:    conversation.NewKeywordParser(log),
		notifier:  conversation.NewCLINotifier(log, out.Printf),
		board:     board,
		out:       out,
		log:       log,
		accel:     counter.Accelerator{HoldDelay: time.Millisecond, Start: time.Millisecond, Step: 0, Floor: time.Millisecond},
		exportDir: t.TempDir(),
		now:       func() time.Time { return epoch },
		ws:        emptyWorkspace(),
	}
	return &fixture{app: app, out: out, store: store, runner: runner, profiles: profiles}
}

func (f *fixture) do(t *testing.T, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if !f.app.handleLine(context.Background(), line) {
			t.Fatalf("%q quit the app", line)
		}
	}
}

func (f *fixture) phase(t *testing.T) domain.Phase {
	t.Helper()
	upd, err := f.runner.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return upd.State.Phase
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

func TestPlayWithNothingLoaded(t *testing.T) {
	f := newFixture(t)
	f.do(t, "play")

	if !strings.Contains(f.out.last(), conversation.LineNothingLoaded()) {
		t.Fatalf("expected nothing-loaded hint, got %q", f.out.last())
	}
	if got := f.phase(t); got != domain.PhaseIdle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestBuildAndRunSequence(t *testing.T) {
	f := newFixture(t)
	f.do(t, "add Squats 0:45", "add Breathe 15 rest", "repeat 3")

	if n := len(f.app.ws.activities); n != 2 {
		t.Fatalf("expected 2 activities, got %d", n)
	}
	if a := f.app.ws.activities[1]; a.Name != "Breathe" || a.DurationSeconds != 15 || a.Category != domain.CategoryRest {
		t.Fatalf("unexpected second activity: %+v", a)
	}

	f.do(t, "play")
	if got := f.phase(t); got != domain.PhaseRunning {
		t.Fatalf("expected running, got %s", got)
	}
	if !strings.Contains(f.out.text(), "Go! Untitled, 3 rounds.") {
		t.Fatalf("missing start line:\n%s", f.out.text())
	}

	f.do(t, "pause")
	if got := f.phase(t); got != domain.PhasePaused {
		t.Fatalf("expected paused, got %s", got)
	}
	if !strings.Contains(f.out.last(), "Paused with 0:45 left") {
		t.Fatalf("unexpected pause line %q", f.out.last())
	}

	f.do(t, "play")
	if !strings.Contains(f.out.last(), conversation.LineResumed()) {
		t.Fatalf("expected resume line, got %q", f.out.last())
	}

	f.do(t, "next")
	upd, _ := f.runner.Snapshot(context.Background())
	if upd.State.ActivityIndex != 1 {
		t.Fatalf("expected activity 2 after next, got index %d", upd.State.ActivityIndex)
	}

	f.do(t, "stop")
	if got := f.phase(t); got != domain.PhaseIdle {
		t.Fatalf("expected idle after stop, got %s", got)
	}
}

func TestEditResetsActiveRun(t *testing.T) {
	f := newFixture(t)
	f.do(t, "add Plank 1:00", "play", "add Rest 0:20 rest")

	if got := f.phase(t); got != domain.PhaseIdle {
		t.Fatalf("edit should reset the run, got %s", got)
	}
	if !strings.Contains(f.out.text(), "Timer reset.") {
		t.Fatalf("expected reset notice:\n%s", f.out.text())
	}
}

func TestEditErrors(t *testing.T) {
	f := newFixture(t)
	f.do(t, "add Plank 1:00", "rm 5", "dur 1 soon", "repeat 0")

	text := f.out.text()
	for _, want := range []string{"urgent: edit:", "Repeat count must be"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q:\n%s", want, text)
		}
	}
	if a := f.app.ws.activities; len(a) != 1 || a[0].DurationSeconds != 60 {
		t.Fatalf("failed edits changed the sequence: %+v", a)
	}
}

func TestLoadPreset(t *testing.T) {
	f := newFixture(t)
	f.do(t, "preset tabata")

	if f.app.ws.title != "Tabata" || f.app.ws.repeat != 8 || len(f.app.ws.activities) != 2 {
		t.Fatalf("unexpected workspace: %+v", f.app.ws)
	}
	waitFor(t, "board shows the preset", func() bool {
		s := f.app.board.Status()
		return s.Title == "Tabata" && len(s.Activities) == 2 && s.RepeatCount == 8
	})

	f.do(t, "presets", "preset 2")
	if f.app.ws.title != f.app.shown[1].Name {
		t.Fatalf("numeric pick loaded %q", f.app.ws.title)
	}

	f.do(t, "preset nope")
	if !strings.Contains(f.out.last(), "not found") {
		t.Fatalf("expected not found, got %q", f.out.last())
	}
}

func TestSaveListLoadProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.do(t, "add Run 5:00", "save Morning")

	list, err := f.profiles.List(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "Morning" {
		t.Fatalf("expected one saved profile, got %v (%v)", list, err)
	}
	if f.app.ws.profileID != list[0].ID {
		t.Fatal("workspace should track the saved profile")
	}

	// Saving under the same name overwrites.
	f.do(t, "add Walk 2:00", "save Morning")
	list, _ = f.profiles.List(ctx)
	if len(list) != 1 || len(list[0].Activities) != 2 {
		t.Fatalf("expected the profile to be updated, got %+v", list)
	}

	f.ws(t, emptyWorkspace())
	f.do(t, "list", "1")
	if f.app.ws.title != "Morning" || len(f.app.ws.activities) != 2 {
		t.Fatalf("load by number failed: %+v", f.app.ws)
	}

	f.do(t, "dup 1", "list")
	list, _ = f.profiles.List(ctx)
	if len(list) != 2 {
		t.Fatalf("expected a duplicate, got %d profiles", len(list))
	}

	f.do(t, "load Morning", "delete Morning")
	if f.app.ws.profileID != "" {
		t.Fatal("deleting the loaded profile should detach the workspace")
	}
}

func (f *fixture) ws(t *testing.T, ws workspace) {
	t.Helper()
	f.app.ws = ws
	f.app.listed = nil
}

func TestExportImport(t *testing.T) {
	f := newFixture(t)
	f.do(t, "add Row 10:00", "save Erg", "export")

	path := filepath.Join(f.app.exportDir, storage.ExportFileName(epoch))
	if !strings.Contains(f.out.last(), "Exported 1 profiles to "+path) {
		t.Fatalf("unexpected export line %q", f.out.last())
	}

	other := newFixture(t)
	other.do(t, "import "+path)
	list, err := other.profiles.List(context.Background())
	if err != nil || len(list) != 1 || list[0].Name != "Erg" {
		t.Fatalf("import failed: %v (%v)", list, err)
	}

	other.do(t, "import "+filepath.Join(t.TempDir(), "missing.json"))
	if !strings.Contains(other.out.last(), "urgent: import:") {
		t.Fatalf("expected import error, got %q", other.out.last())
	}
}

func TestCounterCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.app.prefs.Update(ctx, func(s *domain.Settings) { s.LongPressAcceleration = false }); err != nil {
		t.Fatal(err)
	}

	f.do(t, "+", "+5", "-2", "count label Laps")
	if s := f.app.counter.State(); s.Value != 4 || s.Label != "Laps" {
		t.Fatalf("unexpected counter %+v", s)
	}
	if f.out.last() != "hint: Laps: 4" {
		t.Fatalf("unexpected counter line %q", f.out.last())
	}

	f.do(t, "-10")
	if v := f.app.counter.State().Value; v != 0 {
		t.Fatalf("counter should floor at 0, got %d", v)
	}

	f.do(t, "count reset")
	if s := f.app.counter.State(); s.Value != 0 || s.Label != "Laps" {
		t.Fatalf("reset should keep the label: %+v", s)
	}
}

func TestCounterBurst(t *testing.T) {
	f := newFixture(t)
	// Long-press acceleration is on by default.
	f.do(t, "+3")

	waitFor(t, "burst to finish", func() bool {
		return f.app.counter.State().Value == 3
	})
	waitFor(t, "burst summary", func() bool {
		return f.out.last() == "hint: Reps: 3"
	})
}

func TestSettingsCommands(t *testing.T) {
	f := newFixture(t)
	f.do(t, "mute", "haptics", "theme dark")

	s := f.app.prefs.Get()
	if s.SoundEnabled || !s.HapticsEnabled || s.Theme != domain.ThemeDark {
		t.Fatalf("unexpected settings %+v", s)
	}
	if !strings.Contains(f.out.text(), "Sound off.") || !strings.Contains(f.out.text(), "Haptics on.") {
		t.Fatalf("missing toggle lines:\n%s", f.out.text())
	}
	if got := f.app.board.Status().Theme; got != domain.ThemeDark {
		t.Fatalf("board theme = %s", got)
	}

	f.do(t, "theme neon")
	if !strings.HasPrefix(f.out.last(), "urgent: theme:") {
		t.Fatalf("expected theme error, got %q", f.out.last())
	}
}

func TestClearAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.do(t, "add Row 1:00", "save Erg", "+", "mute", "clear")

	list, _ := f.profiles.List(ctx)
	if len(list) != 0 {
		t.Fatalf("expected no profiles, got %d", len(list))
	}
	if v := f.app.counter.State().Value; v != 0 {
		t.Fatalf("counter not cleared: %d", v)
	}
	if !f.app.prefs.Get().SoundEnabled {
		t.Fatal("settings not reset")
	}
	if len(f.app.ws.activities) != 1 || f.app.ws.profileID != "" {
		t.Fatalf("workspace should survive detached: %+v", f.app.ws)
	}
}

func TestBoundaryLinesPrinted(t *testing.T) {
	f := newFixture(t)
	acts := []domain.Activity{
		{Name: "Work", DurationSeconds: 20, Category: domain.CategoryActive},
		{Name: "Rest", DurationSeconds: 10, Category: domain.CategoryRest},
	}
	f.app.onUpdate(context.Background(), timer.Update{
		Activities:  acts,
		RepeatCount: 2,
		Events: []domain.CueEvent{
			{Kind: domain.BoundaryActivity, FromActivity: 0, FromCycle: 1, ToActivity: 1, ToCycle: 1, At: epoch},
		},
	})
	if !strings.Contains(f.out.text(), "Rest") {
		t.Fatalf("boundary line not printed:\n%s", f.out.text())
	}
}

func TestUnknownAndQuit(t *testing.T) {
	f := newFixture(t)
	f.do(t, "dance wildly")
	if !strings.Contains(f.out.last(), "Didn't catch that") {
		t.Fatalf("unexpected reply %q", f.out.last())
	}

	if f.app.handleLine(context.Background(), "quit") {
		t.Fatal("quit should stop the loop")
	}
}

func TestRunLoopReadsInput(t *testing.T) {
	f := newFixture(t)
	input := make(chan string, 2)
	f.app.input = input
	input <- "add Jog 3:00"
	input <- "quit"

	done := make(chan struct{})
	go func() {
		f.app.run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after quit")
	}
	if len(f.app.ws.activities) != 1 {
		t.Fatalf("input not handled: %+v", f.app.ws)
	}
}
