package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/vibetimer/internal/conversation"
	"github.com/hammamikhairi/vibetimer/internal/counter"
	"github.com/hammamikhairi/vibetimer/internal/display"
	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
	"github.com/hammamikhairi/vibetimer/internal/preferences"
	"github.com/hammamikhairi/vibetimer/internal/preset"
	"github.com/hammamikhairi/vibetimer/internal/profile"
	"github.com/hammamikhairi/vibetimer/internal/storage"
	"github.com/hammamikhairi/vibetimer/internal/timer"
)

// console is the part of the display the app writes to.
type console interface {
	PrintInfo(text string)
	PrintHint(text string)
	PrintUrgent(text string)
	PrintVoice(text string)
}

// workspace is the sequence being edited and run. It may or may not be a
// saved profile.
type workspace struct {
	title      string
	profileID  string // empty when unsaved
	activities []domain.Activity
	repeat     int
}

func emptyWorkspace() workspace {
	return workspace{title: "Untitled", repeat: 1}
}

type cliApp struct {
	runner    *timer.Runner
	profiles  *profile.Service
	presets   *preset.Catalog
	counter   *counter.Counter
	prefs     *preferences.Manager
	parser    domain.IntentParser
	notifier  *conversation.CLINotifier
	board     *statusBoard
	out       console
	input     <-chan string
	voice     <-chan string // nil when voice input is disabled
	log       *logger.Logger
	accel     counter.Accelerator
	exportDir string
	now       func() time.Time

	ws     workspace
	listed []*domain.Profile // last "list" output, for numeric picks
	shown  []*preset.Preset  // last "presets" output

	burstMu sync.Mutex
	burst   context.CancelFunc
}

func (a *cliApp) run(ctx context.Context) {
	updates := a.runner.Subscribe(32)
	a.out.PrintInfo(conversation.LineWelcome())

	for {
		var input string
		select {
		case <-ctx.Done():
			a.stopBurst()
			return
		case upd := <-updates:
			a.onUpdate(ctx, upd)
			continue
		case line, ok := <-a.input:
			if !ok {
				return
			}
			input = line
		case line := <-a.voice:
			a.out.PrintVoice(line)
			input = line
		}

		if !a.handleLine(ctx, input) {
			a.stopBurst()
			return
		}
	}
}

// handleLine parses and dispatches one line. It returns false on quit.
func (a *cliApp) handleLine(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}

	intent, err := a.parser.Parse(ctx, input)
	if err != nil {
		a.log.Error("parsing input: %v", err)
		return true
	}

	a.log.Debug("intent: %s (args=%q)", intent.Type, intent.Args)
	return a.handleIntent(ctx, intent)
}

func (a *cliApp) handleIntent(ctx context.Context, intent *domain.Intent) bool {
	switch intent.Type {
	case domain.IntentPlay:
		a.play(ctx)
	case domain.IntentPause:
		a.pause(ctx)
	case domain.IntentToggle:
		a.toggle(ctx)
	case domain.IntentStop:
		a.stop(ctx)
	case domain.IntentNext:
		a.step(ctx, a.runner.Next)
	case domain.IntentPrev:
		a.step(ctx, a.runner.Prev)
	case domain.IntentSkipCycle:
		a.step(ctx, a.runner.SkipCycle)
	case domain.IntentStatus:
		a.status(ctx)

	case domain.IntentListProfiles:
		a.listProfiles(ctx)
	case domain.IntentLoadProfile:
		a.loadProfile(ctx, intent.Payload)
	case domain.IntentSaveProfile:
		a.saveProfile(ctx, intent.Payload)
	case domain.IntentDeleteProfile:
		a.deleteProfile(ctx, intent.Payload)
	case domain.IntentDuplicateProfile:
		a.duplicateProfile(ctx, intent.Payload)
	case domain.IntentListPresets:
		a.listPresets(ctx)
	case domain.IntentLoadPreset:
		a.loadPreset(ctx, intent.Payload)
	case domain.IntentExport:
		a.exportProfiles(ctx, intent.Payload)
	case domain.IntentImport:
		a.importProfiles(ctx, intent.Payload)

	case domain.IntentAddActivity:
		a.addActivity(ctx, intent.Args)
	case domain.IntentRemoveActivity:
		a.editAt(ctx, intent.Args, 1, func(seq []domain.Activity, i int) ([]domain.Activity, error) {
			return profile.Remove(seq, i)
		})
	case domain.IntentMoveActivity:
		a.moveActivity(ctx, intent.Args)
	case domain.IntentRenameActivity:
		a.editAt(ctx, intent.Args, 2, func(seq []domain.Activity, i int) ([]domain.Activity, error) {
			return profile.Rename(seq, i, intent.Args[1])
		})
	case domain.IntentSetDuration:
		a.editAt(ctx, intent.Args, 2, func(seq []domain.Activity, i int) ([]domain.Activity, error) {
			secs, err := profile.ParseDuration(intent.Args[1])
			if err != nil {
				return nil, err
			}
			return profile.SetDuration(seq, i, secs)
		})
	case domain.IntentSetCategory:
		a.editAt(ctx, intent.Args, 2, func(seq []domain.Activity, i int) ([]domain.Activity, error) {
			c, err := domain.ParseCategory(intent.Args[1])
			if err != nil {
				return nil, err
			}
			return profile.SetCategory(seq, i, c)
		})
	case domain.IntentSetRepeat:
		a.setRepeat(ctx, intent.Payload)
	case domain.IntentShowActivities:
		a.out.PrintHint(conversation.LineActivities(a.ws.activities, a.ws.repeat))

	case domain.IntentCounterInc:
		a.count(ctx, 1, intent.Payload)
	case domain.IntentCounterDec:
		a.count(ctx, -1, intent.Payload)
	case domain.IntentCounterReset:
		a.counterResult(a.counter.Reset(ctx))
	case domain.IntentCounterLabel:
		a.counterResult(a.counter.SetLabel(ctx, intent.Payload))

	case domain.IntentToggleSound:
		a.toggleSetting(ctx, preferences.Sound)
	case domain.IntentToggleHaptics:
		a.toggleSetting(ctx, preferences.Haptics)
	case domain.IntentToggleAwake:
		a.toggleSetting(ctx, preferences.Awake)
	case domain.IntentToggleLongPress:
		a.toggleSetting(ctx, preferences.LongPress)
	case domain.IntentSetTheme:
		a.setTheme(ctx, intent.Payload)
	case domain.IntentClearAll:
		a.clearAll(ctx)

	case domain.IntentHelp:
		a.out.PrintHint(conversation.LineHelp())
	case domain.IntentQuit:
		a.out.PrintInfo(conversation.LineBye())
		return false
	default:
		a.out.PrintHint(conversation.LineUnknown(intent.Payload))
	}
	return true
}

// onUpdate prints the boundary lines carried by a runner update.
func (a *cliApp) onUpdate(ctx context.Context, upd timer.Update) {
	for _, ev := range upd.Events {
		if err := a.notifier.Boundary(ctx, ev, upd.Activities, upd.RepeatCount); err != nil {
			a.log.Error("boundary notify: %v", err)
		}
	}
}

// fail reports an error to the user and the log.
func (a *cliApp) fail(what string, err error) {
	a.log.Error("%s: %v", what, err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.out.PrintUrgent(fmt.Sprintf("%s: not found.", what))
	case errors.Is(err, timer.ErrNotRunning), errors.Is(err, context.Canceled):
		a.out.PrintUrgent("Timer is shutting down.")
	default:
		a.out.PrintUrgent(fmt.Sprintf("%s: %v", what, err))
	}
}

// ── Run control ──────────────────────────────────────────────────

func (a *cliApp) play(ctx context.Context) {
	if len(a.ws.activities) == 0 {
		a.out.PrintHint(conversation.LineNothingLoaded())
		return
	}
	before, err := a.runner.Snapshot(ctx)
	if err != nil {
		a.fail("play", err)
		return
	}
	if err := a.runner.Play(ctx); err != nil {
		a.fail("play", err)
		return
	}
	switch before.State.Phase {
	case domain.PhaseRunning:
	case domain.PhasePaused:
		a.out.PrintInfo(conversation.LineResumed())
	default:
		a.out.PrintInfo(conversation.LineStarted(a.ws.title, a.ws.repeat))
	}
}

func (a *cliApp) pause(ctx context.Context) {
	if err := a.runner.Pause(ctx); err != nil {
		a.fail("pause", err)
		return
	}
	upd, err := a.runner.Snapshot(ctx)
	if err != nil {
		a.fail("pause", err)
		return
	}
	if upd.State.Phase != domain.PhasePaused {
		a.out.PrintHint(conversation.LineNotRunning())
		return
	}
	a.out.PrintInfo(conversation.LinePaused(upd.State.RemainingSeconds))
}

func (a *cliApp) toggle(ctx context.Context) {
	if len(a.ws.activities) == 0 {
		a.out.PrintHint(conversation.LineNothingLoaded())
		return
	}
	if err := a.runner.Toggle(ctx); err != nil {
		a.fail("toggle", err)
		return
	}
	a.status(ctx)
}

func (a *cliApp) stop(ctx context.Context) {
	if err := a.runner.Reset(ctx); err != nil {
		a.fail("stop", err)
		return
	}
	a.out.PrintInfo(conversation.LineStopped())
}

// step applies a navigation command and shows where it landed.
func (a *cliApp) step(ctx context.Context, cmd func(context.Context) error) {
	if len(a.ws.activities) == 0 {
		a.out.PrintHint(conversation.LineNothingLoaded())
		return
	}
	if err := cmd(ctx); err != nil {
		a.fail("navigate", err)
		return
	}
	a.status(ctx)
}

func (a *cliApp) status(ctx context.Context) {
	upd, err := a.runner.Snapshot(ctx)
	if err != nil {
		a.fail("status", err)
		return
	}
	if !upd.Loaded() || len(a.ws.activities) == 0 {
		a.out.PrintHint(conversation.LineNothingLoaded())
		return
	}
	a.out.PrintInfo(conversation.LineStatus(upd.State, upd.Activities, upd.RepeatCount))
}

// reload hands the workspace to the runner. Any run in progress is reset.
func (a *cliApp) reload(ctx context.Context) {
	if len(a.ws.activities) == 0 {
		a.board.setTitle(a.ws.title, false)
		if err := a.runner.Reset(ctx); err != nil {
			a.fail("reset", err)
		}
		return
	}

	before, err := a.runner.Snapshot(ctx)
	if err != nil {
		a.fail("load", err)
		return
	}
	if err := a.runner.Load(ctx, a.ws.activities, a.ws.repeat); err != nil {
		a.fail("load", err)
		return
	}
	a.board.setTitle(a.ws.title, true)

	if p := before.State.Phase; p == domain.PhaseRunning || p == domain.PhasePaused {
		a.out.PrintHint("Timer reset.")
	}
}

// ── Sequence editing ─────────────────────────────────────────────

func (a *cliApp) addActivity(ctx context.Context, args []string) {
	if len(args) == 0 {
		a.out.PrintHint("Usage: add <name> <m:ss> [active|rest|warmup]")
		return
	}

	secs := profile.DefaultActivitySeconds
	if len(args) > 1 {
		d, err := profile.ParseDuration(args[1])
		if err != nil {
			a.fail("add", err)
			return
		}
		secs = d
	}
	category := domain.CategoryActive
	if len(args) > 2 {
		c, err := domain.ParseCategory(args[2])
		if err != nil {
			a.fail("add", err)
			return
		}
		category = c
	}

	a.edit(ctx, func(seq []domain.Activity) ([]domain.Activity, error) {
		return profile.Add(seq, profile.NewActivity(args[0], secs, category)), nil
	})
}

func (a *cliApp) moveActivity(ctx context.Context, args []string) {
	if len(args) < 2 {
		a.out.PrintHint("Usage: mv <from> <to>")
		return
	}
	from, err := a.position(args[0])
	if err != nil {
		a.fail("move", err)
		return
	}
	to, err := a.position(args[1])
	if err != nil {
		a.fail("move", err)
		return
	}
	a.edit(ctx, func(seq []domain.Activity) ([]domain.Activity, error) {
		return profile.Move(seq, from, to)
	})
}

// editAt runs fn against the activity named by the first argument.
func (a *cliApp) editAt(ctx context.Context, args []string, want int, fn func([]domain.Activity, int) ([]domain.Activity, error)) {
	if len(args) < want {
		a.out.PrintHint(conversation.LineHelp())
		return
	}
	i, err := a.position(args[0])
	if err != nil {
		a.fail("edit", err)
		return
	}
	a.edit(ctx, func(seq []domain.Activity) ([]domain.Activity, error) {
		return fn(seq, i)
	})
}

func (a *cliApp) edit(ctx context.Context, fn func([]domain.Activity) ([]domain.Activity, error)) {
	seq, err := fn(a.ws.activities)
	if err != nil {
		a.fail("edit", err)
		return
	}
	a.ws.activities = seq
	a.reload(ctx)
	a.out.PrintHint(conversation.LineActivities(a.ws.activities, a.ws.repeat))
}

func (a *cliApp) setRepeat(ctx context.Context, arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		a.out.PrintUrgent("Repeat count must be a whole number of at least 1.")
		return
	}
	a.ws.repeat = n
	a.reload(ctx)
	a.out.PrintHint(conversation.LineActivities(a.ws.activities, a.ws.repeat))
}

// position turns a 1-based list number into an index.
func (a *cliApp) position(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%q is not a list number", arg)
	}
	return n - 1, nil
}

// ── Profiles & presets ───────────────────────────────────────────

func (a *cliApp) listProfiles(ctx context.Context) {
	list, err := a.profiles.List(ctx)
	if err != nil {
		a.fail("list", err)
		return
	}
	a.listed = list
	a.out.PrintHint(conversation.LineProfiles(list))
}

// resolveProfile finds a profile by list number or by name.
func (a *cliApp) resolveProfile(ctx context.Context, arg string) (*domain.Profile, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if a.listed == nil {
			list, err := a.profiles.List(ctx)
			if err != nil {
				return nil, err
			}
			a.listed = list
		}
		if n < 1 || n > len(a.listed) {
			return nil, fmt.Errorf("profile %d: %w", n, domain.ErrNotFound)
		}
		return a.listed[n-1], nil
	}
	return a.profiles.FindByName(ctx, arg)
}

func (a *cliApp) loadProfile(ctx context.Context, arg string) {
	p, err := a.resolveProfile(ctx, arg)
	if err != nil {
		a.fail("load", err)
		return
	}
	a.ws = workspace{
		title:      p.Name,
		profileID:  p.ID,
		activities: domain.CloneActivities(p.Activities),
		repeat:     p.RepeatCount,
	}
	a.reload(ctx)
	a.out.PrintInfo(fmt.Sprintf("Loaded %s.", p.Name))
	a.out.PrintHint(conversation.LineActivities(a.ws.activities, a.ws.repeat))
}

// saveProfile stores the workspace, overwriting a profile of the same name.
func (a *cliApp) saveProfile(ctx context.Context, name string) {
	name = strings.TrimSpace(name)
	var (
		p   *domain.Profile
		err error
	)
	existing, findErr := a.profiles.FindByName(ctx, name)
	switch {
	case findErr == nil:
		p, err = a.profiles.Update(ctx, existing.ID, name, a.ws.activities, a.ws.repeat)
	case errors.Is(findErr, domain.ErrNotFound):
		p, err = a.profiles.Save(ctx, name, a.ws.activities, a.ws.repeat)
	default:
		err = findErr
	}
	if err != nil {
		a.fail("save", err)
		return
	}

	a.ws.title = p.Name
	a.ws.profileID = p.ID
	a.listed = nil
	a.board.setTitle(p.Name, len(a.ws.activities) > 0)
	a.out.PrintInfo(fmt.Sprintf("Saved %s.", p.Name))
}

func (a *cliApp) deleteProfile(ctx context.Context, arg string) {
	p, err := a.resolveProfile(ctx, arg)
	if err != nil {
		a.fail("delete", err)
		return
	}
	if err := a.profiles.Delete(ctx, p.ID); err != nil {
		a.fail("delete", err)
		return
	}
	if a.ws.profileID == p.ID {
		a.ws.profileID = ""
	}
	a.listed = nil
	a.out.PrintInfo(fmt.Sprintf("Deleted %s.", p.Name))
}

func (a *cliApp) duplicateProfile(ctx context.Context, arg string) {
	p, err := a.resolveProfile(ctx, arg)
	if err != nil {
		a.fail("duplicate", err)
		return
	}
	dup, err := a.profiles.Duplicate(ctx, p.ID)
	if err != nil {
		a.fail("duplicate", err)
		return
	}
	a.listed = nil
	a.out.PrintInfo(fmt.Sprintf("Saved a copy as %s.", dup.Name))
}

func (a *cliApp) listPresets(ctx context.Context) {
	list, err := a.presets.List(ctx)
	if err != nil {
		a.fail("presets", err)
		return
	}
	a.shown = list

	var b strings.Builder
	for i, p := range list {
		fmt.Fprintf(&b, "  %d. %s [%s] %s\n     %s\n", i+1, p.Name, p.ID,
			profile.FormatTotal(p.TotalSeconds()), p.Description)
	}
	b.WriteString("  Load one with: preset <n|id>")
	a.out.PrintHint(b.String())
}

func (a *cliApp) loadPreset(ctx context.Context, arg string) {
	var (
		p   *preset.Preset
		err error
	)
	if n, convErr := strconv.Atoi(arg); convErr == nil {
		if a.shown == nil {
			a.shown, err = a.presets.List(ctx)
		}
		if err == nil && (n < 1 || n > len(a.shown)) {
			err = fmt.Errorf("preset %d: %w", n, domain.ErrNotFound)
		}
		if err == nil {
			p = a.shown[n-1]
		}
	} else {
		p, err = a.presets.Get(ctx, strings.ToLower(arg))
	}
	if err != nil {
		a.fail("preset", err)
		return
	}

	a.ws = workspace{
		title:      p.Name,
		activities: domain.CloneActivities(p.Activities),
		repeat:     p.RepeatCount,
	}
	a.reload(ctx)
	a.out.PrintInfo(fmt.Sprintf("Loaded preset %s. Save it to keep your changes.", p.Name))
	a.out.PrintHint(conversation.LineActivities(a.ws.activities, a.ws.repeat))
}

func (a *cliApp) exportProfiles(ctx context.Context, path string) {
	if path == "" {
		path = filepath.Join(a.exportDir, storage.ExportFileName(a.now()))
	}
	f, err := os.Create(path)
	if err != nil {
		a.fail("export", err)
		return
	}
	n, err := a.profiles.Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		a.fail("export", err)
		return
	}
	a.out.PrintInfo(fmt.Sprintf("Exported %d profiles to %s.", n, path))
}

func (a *cliApp) importProfiles(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		a.fail("import", err)
		return
	}
	defer f.Close()

	n, err := a.profiles.Import(ctx, f)
	if err != nil {
		a.fail("import", err)
		return
	}
	a.listed = nil
	a.out.PrintInfo(fmt.Sprintf("Imported %d profiles.", n))
}

// ── Counter ──────────────────────────────────────────────────────

// count moves the counter by step. Multi-step changes run as an
// accelerating burst when long-press acceleration is on.
func (a *cliApp) count(ctx context.Context, sign int, arg string) {
	step := 1
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			a.out.PrintUrgent("Counter step must be a positive number.")
			return
		}
		step = n
	}

	if step == 1 || !a.prefs.Get().LongPressAcceleration {
		a.counterResult(a.counter.Add(ctx, sign*step))
		return
	}
	a.startBurst(ctx, sign, step)
}

func (a *cliApp) startBurst(ctx context.Context, sign, steps int) {
	a.stopBurst()
	burstCtx, cancel := context.WithCancel(ctx)

	a.burstMu.Lock()
	a.burst = cancel
	a.burstMu.Unlock()

	go func() {
		defer cancel()
		done := 0
		a.accel.Repeat(burstCtx, func() bool {
			if _, err := a.counter.Add(burstCtx, sign); err != nil {
				a.log.Warn("counter burst: %v", err)
			}
			done++
			return done < steps
		})
		s := a.counter.State()
		a.out.PrintHint(fmt.Sprintf("%s: %d", s.Label, s.Value))
	}()
}

func (a *cliApp) stopBurst() {
	a.burstMu.Lock()
	defer a.burstMu.Unlock()
	if a.burst != nil {
		a.burst()
		a.burst = nil
	}
}

func (a *cliApp) counterResult(s domain.CounterState, err error) {
	if err != nil {
		// The in-memory value changed even though it was not saved.
		a.log.Warn("counter not saved: %v", err)
	}
	a.out.PrintHint(fmt.Sprintf("%s: %d", s.Label, s.Value))
}

// ── Settings ─────────────────────────────────────────────────────

func (a *cliApp) toggleSetting(ctx context.Context, name string) {
	s, err := a.prefs.Toggle(ctx, name)
	if err != nil {
		a.fail(name, err)
		return
	}

	var on bool
	var label string
	switch name {
	case preferences.Sound:
		on, label = s.SoundEnabled, "Sound"
	case preferences.Haptics:
		on, label = s.HapticsEnabled, "Haptics"
	case preferences.Awake:
		on, label = s.KeepScreenAwake, "Keep awake"
	case preferences.LongPress:
		on, label = s.LongPressAcceleration, "Counter acceleration"
	}
	state := "off"
	if on {
		state = "on"
	}
	a.out.PrintInfo(fmt.Sprintf("%s %s.", label, state))
}

func (a *cliApp) setTheme(ctx context.Context, arg string) {
	s, err := a.prefs.SetTheme(ctx, domain.Theme(strings.ToLower(strings.TrimSpace(arg))))
	if err != nil {
		a.fail("theme", err)
		return
	}
	a.out.PrintInfo(fmt.Sprintf("Theme: %s.", s.Theme))
}

// clearAll wipes every saved profile, the settings and the counter. The
// working sequence stays loaded.
func (a *cliApp) clearAll(ctx context.Context) {
	a.stopBurst()
	if err := a.profiles.ClearAll(ctx); err != nil {
		a.fail("clear", err)
		return
	}
	a.prefs.Reset()
	a.counter.Discard()
	a.listed = nil
	a.ws.profileID = ""
	a.reload(ctx)
	a.out.PrintInfo("All saved data cleared.")
}

// ── Status board ─────────────────────────────────────────────────

// statusBoard feeds the display panel from runner updates.
type statusBoard struct {
	counter *counter.Counter
	prefs   *preferences.Manager

	mu     sync.Mutex
	last   timer.Update
	title  string
	loaded bool
}

var _ display.StatusSource = (*statusBoard)(nil)

func newStatusBoard(c *counter.Counter, prefs *preferences.Manager) *statusBoard {
	return &statusBoard{counter: c, prefs: prefs}
}

// follow records updates until ctx is cancelled.
func (b *statusBoard) follow(ctx context.Context, updates <-chan timer.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd := <-updates:
			b.mu.Lock()
			b.last = upd
			b.mu.Unlock()
		}
	}
}

func (b *statusBoard) setTitle(title string, loaded bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.title = title
	b.loaded = loaded
}

// Status implements display.StatusSource.
func (b *statusBoard) Status() display.Status {
	b.mu.Lock()
	last, title, loaded := b.last, b.title, b.loaded
	b.mu.Unlock()

	s := display.Status{
		Title:   title,
		Counter: b.counter.State(),
		Theme:   b.prefs.Get().Theme,
	}
	if loaded && last.Loaded() {
		s.State = last.State
		s.Activities = last.Activities
		s.RepeatCount = last.RepeatCount
	}
	return s
}
