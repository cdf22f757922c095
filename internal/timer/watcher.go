package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets how often the watcher checks the runner.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = d
	}
}

// WithIdleThreshold sets how long a run may sit paused before the first
// nudge. Later nudges follow at the same spacing.
func WithIdleThreshold(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.threshold = d
	}
}

// WithWatcherClock replaces time.Now.
func WithWatcherClock(now func() time.Time) WatcherOption {
	return func(w *Watcher) {
		w.now = now
	}
}

// Watcher periodically looks at the runner and nudges the user when a run
// has been left paused. Runs on a slower cycle than the runner (default:
// 30 seconds).
type Watcher struct {
	runner    *Runner
	notifier  domain.Notifier
	log       *logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time

	pausedSince time.Time // PhaseSince of the pause already nudged about
	nudges      int
}

// NewWatcher creates a watcher over runner.
func NewWatcher(runner *Runner, notifier domain.Notifier, log *logger.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		runner:    runner,
		notifier:  notifier,
		log:       log,
		interval:  30 * time.Second,
		threshold: 2 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the watcher loop. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("watcher started (interval=%s, threshold=%s)", w.interval, w.threshold)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return nil
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check runs one watcher cycle.
func (w *Watcher) check(ctx context.Context) {
	upd, err := w.runner.Snapshot(ctx)
	if err != nil {
		w.log.Debug("watcher: snapshot: %v", err)
		return
	}

	w.log.Debug("watcher: phase=%s activity=%d/%d cycle=%d/%d remaining=%ds",
		upd.State.Phase, upd.State.ActivityIndex+1, upd.ActivityCount,
		upd.State.CycleIndex, upd.RepeatCount, upd.State.RemainingSeconds)

	msg := w.buildMessage(upd)
	if msg == "" {
		return
	}
	if err := w.notifier.Notify(ctx, msg); err != nil {
		w.log.Error("watcher: notify: %v", err)
	}
}

// buildMessage decides whether a paused run deserves a nudge.
func (w *Watcher) buildMessage(upd Update) string {
	if upd.State.Phase != domain.PhasePaused {
		w.pausedSince = time.Time{}
		w.nudges = 0
		return ""
	}

	if !upd.PhaseSince.Equal(w.pausedSince) {
		w.pausedSince = upd.PhaseSince
		w.nudges = 0
	}

	paused := w.now().Sub(upd.PhaseSince)
	due := w.threshold * time.Duration(w.nudges+1)
	if paused < due {
		return ""
	}
	w.nudges++

	return fmt.Sprintf("[Watcher] %s paused for %s with %s left. Say play to carry on.",
		upd.Activity.Name, formatRemaining(paused), formatRemaining(time.Duration(upd.State.RemainingSeconds)*time.Second))
}

// formatRemaining returns a human-friendly spoken duration.
// Rounds to the nearest minute once there's at least 1 minute.
func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	totalSec := int(d.Seconds())
	if totalSec < 60 {
		if totalSec == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", totalSec)
	}
	m := (totalSec + 30) / 60
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
