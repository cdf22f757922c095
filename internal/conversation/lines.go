package conversation

// lines.go centralises every user-facing string. Keep lines short; they
// are read mid-workout.

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/hammamikhairi/vibetimer/internal/domain"
)

// ── Global ───────────────────────────────────────────────────────

func LineWelcome() string {
	return "Ready. Type presets or list to pick a workout, add to build one."
}

func LineBye() string {
	return "Bye."
}

func LineUnknown(input string) string {
	return fmt.Sprintf("Didn't catch that: %s. Type help for commands.", input)
}

func LineNothingLoaded() string {
	return "Nothing loaded. Add an activity or load a profile first."
}

// ── Run control ──────────────────────────────────────────────────

func LineStarted(name string, cycles int) string {
	if cycles > 1 {
		return fmt.Sprintf("Go! %s, %d rounds.", name, cycles)
	}
	return fmt.Sprintf("Go! %s.", name)
}

func LineResumed() string {
	return "Resumed."
}

func LinePaused(remaining int) string {
	return fmt.Sprintf("Paused with %s left. Say play when ready.", formatClock(remaining))
}

func LineStopped() string {
	return "Stopped. Back to the start."
}

func LineNotRunning() string {
	return "Timer isn't running."
}

// ── Boundaries ───────────────────────────────────────────────────

var activityCues = []string{
	"Next up: %s.",
	"Switch! %s.",
	"Now: %s.",
	"On to %s.",
}

var cycleCues = []string{
	"Round %d of %d. %s.",
	"Round %d of %d, here we go. %s.",
	"Round %d of %d. Back to %s.",
}

var completeCues = []string{
	"Done! Great work.",
	"Workout complete. Nice job.",
	"That's it. All rounds done.",
	"Finished. Well earned.",
}

// LineBoundary describes a boundary crossing for the notification log.
func LineBoundary(ev domain.CueEvent, activities []domain.Activity, repeatCount int) string {
	switch ev.Kind {
	case domain.BoundaryComplete:
		return completeCues[rand.Intn(len(completeCues))]
	case domain.BoundaryCycle:
		f := cycleCues[rand.Intn(len(cycleCues))]
		return fmt.Sprintf(f, ev.ToCycle, repeatCount, activityName(activities, ev.ToActivity))
	default:
		f := activityCues[rand.Intn(len(activityCues))]
		return fmt.Sprintf(f, activityName(activities, ev.ToActivity))
	}
}

// BoundaryLines returns every boundary template, for tests.
func BoundaryLines() []string {
	out := make([]string, 0, len(activityCues)+len(cycleCues)+len(completeCues))
	out = append(out, activityCues...)
	out = append(out, cycleCues...)
	out = append(out, completeCues...)
	return out
}

// ── Status ───────────────────────────────────────────────────────

// LineStatus summarises the run: phase, activity, time left and position.
func LineStatus(state domain.RunState, activities []domain.Activity, repeatCount int) string {
	if len(activities) == 0 {
		return LineNothingLoaded()
	}
	name := activityName(activities, state.ActivityIndex)
	return fmt.Sprintf("%s: %s, %s left. Activity %d of %d, round %d of %d.",
		strings.ToUpper(state.Phase.String()[:1])+state.Phase.String()[1:],
		name, formatClock(state.RemainingSeconds),
		state.ActivityIndex+1, len(activities), state.CycleIndex, repeatCount)
}

// LineActivities lists the working sequence, one activity per line.
func LineActivities(activities []domain.Activity, repeatCount int) string {
	if len(activities) == 0 {
		return "No activities yet. Try: add Squats 0:45"
	}
	var b strings.Builder
	total := 0
	for i, a := range activities {
		total += a.DurationSeconds
		fmt.Fprintf(&b, "  %d. %-20s %6s  %s\n", i+1, a.Name, formatClock(a.DurationSeconds), a.Category)
	}
	fmt.Fprintf(&b, "  × %d rounds, %s total", repeatCount, formatClock(total*repeatCount))
	return b.String()
}

// LineProfiles lists saved profiles, numbered for load/delete.
func LineProfiles(profiles []*domain.Profile) string {
	if len(profiles) == 0 {
		return "No saved profiles. Use save <name> to keep the current sequence."
	}
	var b strings.Builder
	for i, p := range profiles {
		fmt.Fprintf(&b, "  %d. %s (%d activities × %d)\n", i+1, p.Name, len(p.Activities), p.RepeatCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ── Help ─────────────────────────────────────────────────────────

// LineHelp is the command reference.
func LineHelp() string {
	return strings.Join([]string{
		"Timer:    play | pause | toggle | stop | next | prev | skip cycle | status",
		"Sequence: add <name> <m:ss> [active|rest|warmup] | rm <n> | mv <from> <to>",
		"          rename <n> <name> | dur <n> <m:ss> | cat <n> <category> | repeat <count> | show",
		"Profiles: list | load <n|name> | save <name> | dup <n> | delete <n>",
		"          presets | preset <id> | export [file] | import <file>",
		"Counter:  + | - | +N | -N | count reset | count label <text>",
		"Settings: sound | haptics | awake | longpress | theme <light|dark|auto>",
		"Other:    clear | help | quit",
	}, "\n")
}

// ── Helpers ──────────────────────────────────────────────────────

func activityName(activities []domain.Activity, i int) string {
	if i < 0 || i >= len(activities) {
		return "?"
	}
	return activities[i].Name
}

// formatClock renders seconds as m:ss.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
