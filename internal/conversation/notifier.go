package conversation

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

// ANSI escape codes for terminal formatting.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

// PrintFunc prints one formatted line. display.UI.Printf satisfies it.
type PrintFunc func(format string, a ...interface{})

// CLINotifier prints notifications and boundary lines in colour.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewCLINotifier creates a notifier. A nil printFn writes to stdout.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints a reminder in cyan.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.emit("notify", cyan, message)
	return nil
}

// NotifyUrgent prints a reminder in red.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.emit("notify-urgent", red, message)
	return nil
}

func (n *CLINotifier) emit(kind, color, message string) {
	n.log.Debug("%s: %s", kind, message)
	n.printFn("%s%s%s%s", color, bold, message, reset)
}

// Boundary prints a boundary line coloured by what the run moved into.
func (n *CLINotifier) Boundary(ctx context.Context, ev domain.CueEvent, activities []domain.Activity, repeatCount int) error {
	color := green
	switch {
	case ev.Kind == domain.BoundaryComplete:
		color = yellow
	case ev.ToActivity >= 0 && ev.ToActivity < len(activities) && activities[ev.ToActivity].Category == domain.CategoryRest:
		color = cyan
	}
	n.emit("boundary "+ev.Kind.String(), color, LineBoundary(ev, activities, repeatCount))
	return nil
}
