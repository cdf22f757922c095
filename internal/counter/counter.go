// Package counter implements the manual rep counter shown beside the timer.
package counter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Haptic patterns, in milliseconds.
var (
	StepPattern  = []int{30}
	ResetPattern = []int{50, 30, 50}
)

// SettingsSource provides the live preferences.
type SettingsSource interface {
	Get() domain.Settings
}

// Option configures the counter.
type Option func(*Counter)

// WithHaptics pulses v on every change when haptics are enabled in settings.
func WithHaptics(v domain.Vibrator, settings SettingsSource) Option {
	return func(c *Counter) {
		c.vibrator = v
		c.settings = settings
	}
}

// Counter is a persisted, non-negative tally with a label. Safe for
// concurrent use.
type Counter struct {
	kv       domain.KVStore
	log      *logger.Logger
	vibrator domain.Vibrator
	settings SettingsSource

	mu    sync.Mutex
	state domain.CounterState
}

// New creates a counter at the default state. Call Load to restore the
// saved one.
func New(kv domain.KVStore, log *logger.Logger, opts ...Option) *Counter {
	c := &Counter{
		kv:    kv,
		log:   log,
		state: domain.DefaultCounter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load restores the saved counter. A missing record keeps the default.
func (c *Counter) Load(ctx context.Context) error {
	var st domain.CounterState
	if err := c.kv.Load(ctx, domain.KeyCounter, &st); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading counter: %w", err)
	}
	if st.Value < 0 {
		st.Value = 0
	}

	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
	c.log.Debug("counter loaded: %d %s", st.Value, st.Label)
	return nil
}

// State returns the current value and label.
func (c *Counter) State() domain.CounterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Increment adds one.
func (c *Counter) Increment(ctx context.Context) (domain.CounterState, error) {
	return c.Add(ctx, 1)
}

// Decrement subtracts one, stopping at zero.
func (c *Counter) Decrement(ctx context.Context) (domain.CounterState, error) {
	return c.Add(ctx, -1)
}

// Add changes the value by delta, clamped at zero.
func (c *Counter) Add(ctx context.Context, delta int) (domain.CounterState, error) {
	st, err := c.update(ctx, func(s *domain.CounterState) {
		s.Value += delta
		if s.Value < 0 {
			s.Value = 0
		}
	})
	c.pulse(StepPattern)
	return st, err
}

// Reset sets the value back to zero and keeps the label.
func (c *Counter) Reset(ctx context.Context) (domain.CounterState, error) {
	st, err := c.update(ctx, func(s *domain.CounterState) { s.Value = 0 })
	c.pulse(ResetPattern)
	return st, err
}

// SetLabel renames the counter.
func (c *Counter) SetLabel(ctx context.Context, label string) (domain.CounterState, error) {
	label = strings.TrimSpace(label)
	return c.update(ctx, func(s *domain.CounterState) { s.Label = label })
}

// Discard drops back to the default in memory without saving, for when the
// stored record was wiped.
func (c *Counter) Discard() {
	c.mu.Lock()
	c.state = domain.DefaultCounter()
	c.mu.Unlock()
}

// update applies fn and saves. The in-memory change stands even if saving
// fails.
func (c *Counter) update(ctx context.Context, fn func(*domain.CounterState)) (domain.CounterState, error) {
	c.mu.Lock()
	fn(&c.state)
	st := c.state
	c.mu.Unlock()

	if err := c.kv.Save(ctx, domain.KeyCounter, st); err != nil {
		return st, fmt.Errorf("saving counter: %w", err)
	}
	return st, nil
}

func (c *Counter) pulse(pattern []int) {
	if c.vibrator == nil || c.settings == nil || !c.settings.Get().HapticsEnabled {
		return
	}
	if err := c.vibrator.Vibrate(pattern); err != nil {
		c.log.Debug("counter haptic: %v", err)
	}
}
