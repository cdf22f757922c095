package effects

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Compile-time interface check.
var _ domain.Vibrator = (*TerminalVibrator)(nil)

// TerminalVibrator stands in for a vibration motor: it rings the terminal
// bell once per "on" segment of the pattern, honouring the spacing.
type TerminalVibrator struct {
	out   io.Writer
	log   *logger.Logger
	sleep func(time.Duration)
	mu    sync.Mutex // serialises patterns on out
}

// NewTerminalVibrator rings the bell on out, or stdout when out is nil.
func NewTerminalVibrator(out io.Writer, log *logger.Logger) *TerminalVibrator {
	if out == nil {
		out = os.Stdout
	}
	return &TerminalVibrator{out: out, log: log, sleep: time.Sleep}
}

// Vibrate plays pattern in the background: alternating on/off durations in
// milliseconds, starting with on.
func (v *TerminalVibrator) Vibrate(pattern []int) error {
	if len(pattern) == 0 {
		return nil
	}
	p := append([]int(nil), pattern...)
	go v.play(p)
	return nil
}

func (v *TerminalVibrator) play(pattern []int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, ms := range pattern {
		if i%2 == 0 {
			if _, err := io.WriteString(v.out, "\a"); err != nil {
				v.log.Debug("vibrator: bell: %v", err)
				return
			}
		}
		if i < len(pattern)-1 {
			v.sleep(time.Duration(ms) * time.Millisecond)
		}
	}
}
