// Package preferences keeps the user's live settings and persists them.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Toggle names accepted by Manager.Toggle.
const (
	Sound     = "sound"
	Haptics   = "haptics"
	LongPress = "longpress"
	Awake     = "awake"
)

// Manager holds the current settings. Safe for concurrent use.
type Manager struct {
	kv  domain.KVStore
	log *logger.Logger

	mu        sync.RWMutex
	settings  domain.Settings
	listeners []func(domain.Settings)
}

// NewManager starts from the defaults. Call Load to restore saved settings.
func NewManager(kv domain.KVStore, log *logger.Logger) *Manager {
	return &Manager{
		kv:       kv,
		log:      log,
		settings: domain.DefaultSettings(),
	}
}

// Get returns the current settings.
func (m *Manager) Get() domain.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// OnChange registers fn to run after every change with the new settings.
func (m *Manager) OnChange(fn func(domain.Settings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Load restores saved settings. Missing settings keep the defaults.
func (m *Manager) Load(ctx context.Context) error {
	s, err := m.read(ctx)
	if err != nil {
		return err
	}
	m.set(s)
	return nil
}

// Reload re-reads the store, e.g. after the file was edited by hand, and
// notifies listeners if anything changed.
func (m *Manager) Reload(ctx context.Context) error {
	s, err := m.read(ctx)
	if err != nil {
		return err
	}
	if s == m.Get() {
		return nil
	}
	m.log.Info("settings reloaded")
	m.set(s)
	return nil
}

// Update applies fn to a copy of the settings, saves and publishes it.
func (m *Manager) Update(ctx context.Context, fn func(*domain.Settings)) (domain.Settings, error) {
	s := m.Get()
	fn(&s)
	if !s.Theme.Valid() {
		return m.Get(), fmt.Errorf("unknown theme %q", s.Theme)
	}
	m.set(s)
	if err := m.kv.Save(ctx, domain.KeySettings, s); err != nil {
		return s, fmt.Errorf("saving settings: %w", err)
	}
	return s, nil
}

// Toggle flips one boolean setting by name.
func (m *Manager) Toggle(ctx context.Context, name string) (domain.Settings, error) {
	var flip func(*domain.Settings)
	switch strings.ToLower(name) {
	case Sound:
		flip = func(s *domain.Settings) { s.SoundEnabled = !s.SoundEnabled }
	case Haptics:
		flip = func(s *domain.Settings) { s.HapticsEnabled = !s.HapticsEnabled }
	case LongPress:
		flip = func(s *domain.Settings) { s.LongPressAcceleration = !s.LongPressAcceleration }
	case Awake:
		flip = func(s *domain.Settings) { s.KeepScreenAwake = !s.KeepScreenAwake }
	default:
		return m.Get(), fmt.Errorf("unknown setting %q", name)
	}
	return m.Update(ctx, flip)
}

// SetTheme changes the theme.
func (m *Manager) SetTheme(ctx context.Context, theme domain.Theme) (domain.Settings, error) {
	return m.Update(ctx, func(s *domain.Settings) { s.Theme = theme })
}

// Reset drops back to the defaults in memory. The store is left alone.
func (m *Manager) Reset() {
	m.set(domain.DefaultSettings())
}

// read loads the stored settings, filling in defaults for gaps.
func (m *Manager) read(ctx context.Context) (domain.Settings, error) {
	s := domain.DefaultSettings()
	if err := m.kv.Load(ctx, domain.KeySettings, &s); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	if !s.Theme.Valid() {
		m.log.Warn("unknown theme %q in settings, using %s", s.Theme, domain.ThemeAuto)
		s.Theme = domain.ThemeAuto
	}
	return s, nil
}

func (m *Manager) set(s domain.Settings) {
	m.mu.Lock()
	m.settings = s
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
