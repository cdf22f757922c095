package effects

import (
	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.CuePlayer = (*NoOp)(nil)
	_ domain.Vibrator  = (*NoOp)(nil)
	_ domain.WakeLock  = (*NoOp)(nil)
)

// NoOp satisfies every effect port and does nothing. Used when a device is
// unavailable or disabled by flag.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a no-op effect provider.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

// PlayCue does nothing.
func (n *NoOp) PlayCue() error {
	n.log.Debug("effects no-op: cue")
	return nil
}

// Vibrate does nothing.
func (n *NoOp) Vibrate(pattern []int) error {
	n.log.Debug("effects no-op: vibrate %v", pattern)
	return nil
}

// Acquire does nothing.
func (n *NoOp) Acquire() error { return nil }

// Release does nothing.
func (n *NoOp) Release() error { return nil }
