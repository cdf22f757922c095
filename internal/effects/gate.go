package effects

import (
	"sync"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.CuePlayer = (*Gate)(nil)
	_ domain.Vibrator  = (*Gate)(nil)
	_ domain.WakeLock  = (*Gate)(nil)
)

// SettingsSource provides the live preferences.
type SettingsSource interface {
	Get() domain.Settings
}

// Gate sits between the engine and the real devices and drops effects the
// user has switched off. Settings are read on every call, so toggles apply
// mid-run.
type Gate struct {
	settings SettingsSource
	cue      domain.CuePlayer
	vibrator domain.Vibrator
	wake     domain.WakeLock
	log      *logger.Logger

	mu      sync.Mutex
	wanted  bool // engine holds the lock
	holding bool // device lock actually taken
}

// NewGate wraps the given devices.
func NewGate(settings SettingsSource, cue domain.CuePlayer, vibrator domain.Vibrator, wake domain.WakeLock, log *logger.Logger) *Gate {
	return &Gate{
		settings: settings,
		cue:      cue,
		vibrator: vibrator,
		wake:     wake,
		log:      log,
	}
}

// PlayCue plays the cue when sound is enabled.
func (g *Gate) PlayCue() error {
	if !g.settings.Get().SoundEnabled {
		return nil
	}
	return g.cue.PlayCue()
}

// Vibrate pulses when haptics are enabled.
func (g *Gate) Vibrate(pattern []int) error {
	if !g.settings.Get().HapticsEnabled {
		return nil
	}
	return g.vibrator.Vibrate(pattern)
}

// Acquire takes the device lock when keep-awake is enabled. The request is
// remembered either way so Apply can honour a later change.
func (g *Gate) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wanted = true
	if !g.settings.Get().KeepScreenAwake {
		return nil
	}
	return g.take()
}

// Release drops the device lock if it was taken.
func (g *Gate) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wanted = false
	return g.drop()
}

// Apply reconciles the device lock with new settings.
func (g *Gate) Apply(s domain.Settings) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var err error
	switch {
	case g.wanted && s.KeepScreenAwake:
		err = g.take()
	case !s.KeepScreenAwake:
		err = g.drop()
	}
	if err != nil {
		g.log.Warn("gate: applying keep-awake=%t: %v", s.KeepScreenAwake, err)
	}
}

func (g *Gate) take() error {
	if g.holding {
		return nil
	}
	if err := g.wake.Acquire(); err != nil {
		return err
	}
	g.holding = true
	return nil
}

func (g *Gate) drop() error {
	if !g.holding {
		return nil
	}
	g.holding = false
	return g.wake.Release()
}
