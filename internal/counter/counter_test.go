package counter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
	"github.com/hammamikhairi/vibetimer/internal/storage"
)

type stubSettings struct{ s domain.Settings }

func (s *stubSettings) Get() domain.Settings { return s.s }

type recordingVibrator struct{ patterns [][]int }

func (v *recordingVibrator) Vibrate(p []int) error {
	v.patterns = append(v.patterns, p)
	return nil
}

// failingKV fails every write.
type failingKV struct{ *storage.MemoryStore }

func (failingKV) Save(context.Context, string, any) error { return errors.New("read-only") }

func newCounter(t *testing.T) (*Counter, *storage.MemoryStore) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	kv := storage.NewMemoryStore(log)
	return New(kv, log), kv
}

func TestCounterDefaults(t *testing.T) {
	c, _ := newCounter(t)
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, domain.CounterState{Value: 0, Label: "Reps"}, c.State())
}

func TestCounterIncrementDecrement(t *testing.T) {
	c, _ := newCounter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Increment(ctx)
		require.NoError(t, err)
	}
	st, err := c.Decrement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Value)

	st, err = c.Add(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, st.Value)
}

func TestCounterFloorsAtZero(t *testing.T) {
	c, _ := newCounter(t)
	ctx := context.Background()

	st, err := c.Decrement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Value)

	_, _ = c.Add(ctx, 3)
	st, _ = c.Add(ctx, -10)
	assert.Equal(t, 0, st.Value)
}

func TestCounterResetKeepsLabel(t *testing.T) {
	c, _ := newCounter(t)
	ctx := context.Background()

	_, _ = c.SetLabel(ctx, "  Laps ")
	_, _ = c.Add(ctx, 7)
	st, err := c.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CounterState{Value: 0, Label: "Laps"}, st)
}

func TestCounterPersists(t *testing.T) {
	c, kv := newCounter(t)
	ctx := context.Background()

	_, _ = c.Add(ctx, 4)
	_, _ = c.SetLabel(ctx, "Burpees")

	restored := New(kv, logger.New(logger.LevelOff, nil))
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, domain.CounterState{Value: 4, Label: "Burpees"}, restored.State())
}

func TestCounterLoadClampsNegative(t *testing.T) {
	c, kv := newCounter(t)
	ctx := context.Background()
	require.NoError(t, kv.Save(ctx, domain.KeyCounter, domain.CounterState{Value: -5, Label: "x"}))

	require.NoError(t, c.Load(ctx))
	assert.Equal(t, 0, c.State().Value)
}

func TestCounterSaveFailureKeepsValue(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := New(failingKV{storage.NewMemoryStore(log)}, log)

	st, err := c.Increment(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, st.Value)
	assert.Equal(t, 1, c.State().Value)
}

func TestCounterDiscard(t *testing.T) {
	c, kv := newCounter(t)
	ctx := context.Background()
	_, _ = c.SetLabel(ctx, "Laps")
	_, _ = c.Add(ctx, 9)

	require.NoError(t, kv.Remove(ctx, domain.KeyCounter))
	c.Discard()
	assert.Equal(t, domain.DefaultCounter(), c.State())
}

func TestCounterHaptics(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	settings := &stubSettings{s: domain.DefaultSettings()}
	vib := &recordingVibrator{}
	c := New(storage.NewMemoryStore(log), log, WithHaptics(vib, settings))
	ctx := context.Background()

	_, _ = c.Increment(ctx)
	assert.Empty(t, vib.patterns, "haptics are off by default")

	settings.s.HapticsEnabled = true
	_, _ = c.Increment(ctx)
	_, _ = c.Decrement(ctx)
	_, _ = c.Reset(ctx)
	_, _ = c.SetLabel(ctx, "Sets")

	assert.Equal(t, [][]int{{30}, {30}, {50, 30, 50}}, vib.patterns)
}

func TestAcceleratorIntervals(t *testing.T) {
	a := DefaultAccelerator
	assert.Equal(t, 100*time.Millisecond, a.Interval(0))
	assert.Equal(t, 90*time.Millisecond, a.Interval(1))
	assert.Equal(t, 40*time.Millisecond, a.Interval(6))
	assert.Equal(t, 30*time.Millisecond, a.Interval(7))
	assert.Equal(t, 30*time.Millisecond, a.Interval(50))

	assert.Equal(t, []time.Duration{
		600 * time.Millisecond,
		690 * time.Millisecond,
		770 * time.Millisecond,
	}, a.Schedule(3))
}

func TestAcceleratorRepeat(t *testing.T) {
	a := Accelerator{HoldDelay: time.Millisecond, Start: 2 * time.Millisecond, Step: time.Millisecond, Floor: time.Millisecond}

	n := 0
	calls := a.Repeat(context.Background(), func() bool {
		n++
		return n < 5
	})
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, n)
}

func TestAcceleratorRepeatCancelledDuringHold(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := DefaultAccelerator.Repeat(ctx, func() bool {
		t.Fatal("fn should not run after cancel")
		return false
	})
	assert.Equal(t, 0, calls)
}
