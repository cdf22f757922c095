// Package timer runs the interval engine in the background. The Runner owns
// the engine on a single goroutine: commands are sent to it over a channel
// and a ticker drives the countdown while a run is in progress.
package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/engine"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// ErrNotRunning is returned by commands sent to a runner that isn't started.
var ErrNotRunning = errors.New("timer runner not running")

// Update is published after every command and every tick that changed
// something.
type Update struct {
	State         domain.RunState
	Activity      domain.Activity // zero when nothing is loaded
	Activities    []domain.Activity
	RepeatCount   int
	ActivityCount int
	Events        []domain.CueEvent
	PhaseSince    time.Time // when State.Phase was entered
}

// Loaded reports whether the update describes a bound sequence.
func (u Update) Loaded() bool {
	return u.ActivityCount > 0
}

// Recorder receives run telemetry. Implementations must not block.
type Recorder interface {
	CommandApplied(name string)
	BoundaryCrossed(ev domain.CueEvent)
	PhaseChanged(phase domain.Phase)
}

// Option configures the runner.
type Option func(*Runner)

// WithTickInterval sets how often a running engine is ticked.
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) {
		r.tickInterval = d
	}
}

// WithRecorder attaches a telemetry recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithClock replaces time.Now for ticks. Pair it with engine.WithClock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

type command struct {
	name  string
	apply func(*engine.Engine) error
	reply chan result
}

type result struct {
	update Update
	err    error
}

// Runner serialises access to an engine.
type Runner struct {
	eng          *engine.Engine
	log          *logger.Logger
	tickInterval time.Duration
	recorder     Recorder
	now          func() time.Time

	cmds chan command

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	subMu sync.Mutex
	subs  []chan Update

	// loop-owned
	phaseSince time.Time
	last       domain.RunState
}

// New creates a runner around eng. The runner takes ownership: eng must not
// be used directly once Start has been called.
func New(eng *engine.Engine, log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		eng:          eng,
		log:          log,
		tickInterval: 100 * time.Millisecond,
		now:          time.Now,
		cmds:         make(chan command),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins the background loop. Non-blocking.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		r.log.Warn("runner already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.done = make(chan struct{})
	r.phaseSince = r.now()
	r.last = r.eng.Snapshot()

	go r.loop(childCtx, r.done)

	r.log.Info("runner started (tick=%s)", r.tickInterval)
}

// Stop shuts the loop down and waits for it to release the engine.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.running = false
	done := r.done
	r.mu.Unlock()

	<-done
	r.log.Info("runner stopped")
}

// Subscribe returns a channel receiving every published update. Slow
// subscribers miss updates rather than stall the loop.
func (r *Runner) Subscribe(buffer int) <-chan Update {
	ch := make(chan Update, buffer)
	r.subMu.Lock()
	r.subs = append(r.subs, ch)
	r.subMu.Unlock()
	return ch
}

// Load binds a new sequence and resets to Idle.
func (r *Runner) Load(ctx context.Context, activities []domain.Activity, repeatCount int) error {
	_, err := r.do(ctx, "load", func(e *engine.Engine) error {
		return e.Load(activities, repeatCount)
	})
	return err
}

// Play starts, restarts or resumes the run.
func (r *Runner) Play(ctx context.Context) error {
	return r.simple(ctx, "play", (*engine.Engine).Play)
}

// Pause freezes a running countdown.
func (r *Runner) Pause(ctx context.Context) error {
	return r.simple(ctx, "pause", (*engine.Engine).Pause)
}

// Toggle pauses a running engine and plays otherwise.
func (r *Runner) Toggle(ctx context.Context) error {
	return r.simple(ctx, "toggle", func(e *engine.Engine) {
		if e.Snapshot().Phase == domain.PhaseRunning {
			e.Pause()
			return
		}
		e.Play()
	})
}

// Reset abandons the run and returns to the Idle baseline.
func (r *Runner) Reset(ctx context.Context) error {
	return r.simple(ctx, "stop", (*engine.Engine).Stop)
}

// Next skips to the following activity.
func (r *Runner) Next(ctx context.Context) error {
	return r.simple(ctx, "next", (*engine.Engine).Next)
}

// Prev goes back one activity.
func (r *Runner) Prev(ctx context.Context) error {
	return r.simple(ctx, "prev", (*engine.Engine).Prev)
}

// SkipCycle jumps to the start of the next cycle.
func (r *Runner) SkipCycle(ctx context.Context) error {
	return r.simple(ctx, "skip_cycle", (*engine.Engine).SkipCycle)
}

// Snapshot returns the current state without changing it.
func (r *Runner) Snapshot(ctx context.Context) (Update, error) {
	return r.do(ctx, "", func(*engine.Engine) error { return nil })
}

func (r *Runner) simple(ctx context.Context, name string, fn func(*engine.Engine)) error {
	_, err := r.do(ctx, name, func(e *engine.Engine) error {
		fn(e)
		return nil
	})
	return err
}

// do hands a command to the loop and waits for its result. An empty name
// marks a read-only command that is neither recorded nor published.
func (r *Runner) do(ctx context.Context, name string, apply func(*engine.Engine) error) (Update, error) {
	r.mu.Lock()
	running, done := r.running, r.done
	r.mu.Unlock()
	if !running {
		return Update{}, ErrNotRunning
	}

	cmd := command{name: name, apply: apply, reply: make(chan result, 1)}
	select {
	case r.cmds <- cmd:
	case <-done:
		return Update{}, ErrNotRunning
	case <-ctx.Done():
		return Update{}, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res.update, res.err
	case <-done:
		return Update{}, ErrNotRunning
	case <-ctx.Done():
		return Update{}, ctx.Err()
	}
}

// loop owns the engine. The ticker only exists while the engine is running.
func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	var ticker *time.Ticker
	var tickC <-chan time.Time
	syncTicker := func() {
		running := r.eng.Snapshot().Phase == domain.PhaseRunning
		switch {
		case running && ticker == nil:
			ticker = time.NewTicker(r.tickInterval)
			tickC = ticker.C
		case !running && ticker != nil:
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		r.eng.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case cmd := <-r.cmds:
			err := cmd.apply(r.eng)
			upd := r.snapshot(nil)
			if cmd.name != "" {
				if err != nil {
					r.log.Debug("command %s rejected: %v", cmd.name, err)
				} else if r.recorder != nil {
					r.recorder.CommandApplied(cmd.name)
				}
				r.publish(upd)
			}
			cmd.reply <- result{update: upd, err: err}
			syncTicker()

		case <-tickC:
			events := r.eng.Tick(r.now())
			if r.recorder != nil {
				for _, ev := range events {
					r.recorder.BoundaryCrossed(ev)
				}
			}
			if len(events) > 0 || r.eng.Snapshot() != r.last {
				r.publish(r.snapshot(events))
			}
			syncTicker()
		}
	}
}

// snapshot builds an update and tracks phase changes.
func (r *Runner) snapshot(events []domain.CueEvent) Update {
	state := r.eng.Snapshot()
	if state.Phase != r.last.Phase {
		r.phaseSince = r.now()
		if r.recorder != nil {
			r.recorder.PhaseChanged(state.Phase)
		}
	}
	r.last = state

	upd := Update{
		State:       state,
		Activities:  r.eng.Activities(),
		RepeatCount: r.eng.RepeatCount(),
		Events:      events,
		PhaseSince:  r.phaseSince,
	}
	upd.ActivityCount = len(upd.Activities)
	if a, ok := r.eng.Current(); ok {
		upd.Activity = a
	}
	return upd
}

func (r *Runner) publish(upd Update) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- upd:
		default:
		}
	}
}
