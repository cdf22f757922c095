package effects

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Compile-time interface check.
var _ domain.WakeLock = (*InhibitLock)(nil)

// InhibitLock keeps the display awake by holding an OS inhibitor process
// for as long as the lock is held.
type InhibitLock struct {
	argv []string // nil on unsupported platforms
	log  *logger.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewInhibitLock picks the inhibitor for the running OS.
func NewInhibitLock(log *logger.Logger) *InhibitLock {
	var argv []string
	switch runtime.GOOS {
	case "linux":
		argv = []string{"systemd-inhibit", "--what=idle:sleep", "--who=vibetimer", "--why=workout in progress", "sleep", "infinity"}
	case "darwin":
		argv = []string{"caffeinate", "-d", "-i"}
	}
	return newInhibitLock(argv, log)
}

func newInhibitLock(argv []string, log *logger.Logger) *InhibitLock {
	return &InhibitLock{argv: argv, log: log}
}

// Acquire starts the inhibitor. No-op when already held.
func (l *InhibitLock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cmd != nil {
		return nil
	}
	if len(l.argv) == 0 {
		return fmt.Errorf("wake lock on %s: %w", runtime.GOOS, domain.ErrNotImplemented)
	}

	cmd := exec.Command(l.argv[0], l.argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", l.argv[0], err)
	}
	l.cmd = cmd
	l.log.Debug("wake lock acquired (pid=%d)", cmd.Process.Pid)
	return nil
}

// Release stops the inhibitor. No-op when not held.
func (l *InhibitLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cmd == nil {
		return nil
	}
	cmd := l.cmd
	l.cmd = nil

	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("stopping %s: %w", l.argv[0], err)
	}
	_ = cmd.Wait() // always "signal: killed"
	l.log.Debug("wake lock released")
	return nil
}

// Held reports whether the inhibitor is running.
func (l *InhibitLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cmd != nil
}
