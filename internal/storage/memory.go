// Package storage provides profile and preference persistence: an in-memory
// store, a YAML file store, and a tier that falls back from one to the other.
package storage

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Store is a profile store that also keeps small keyed documents.
type Store interface {
	domain.ProfileStore
	domain.KVStore
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory store. Safe for concurrent access. Values
// are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*domain.Profile
	kv       map[string][]byte
	log      *logger.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*domain.Profile),
		kv:       make(map[string][]byte),
		log:      log,
	}
}

// List returns every profile, in no particular order.
func (s *MemoryStore) List(ctx context.Context) ([]*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	s.log.Debug("listing profiles, count=%d", len(out))
	return out, nil
}

// Get retrieves a profile by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		s.log.Debug("profile not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

// Put inserts or overwrites a profile.
func (s *MemoryStore) Put(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.ID == "" {
		return fmt.Errorf("%w: missing id", domain.ErrInvalidProfile)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving profile %s (%s, %d activities)", profile.ID, profile.Name, len(profile.Activities))
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

// Delete removes a profile by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.profiles, id)
	s.log.Debug("deleted profile %s", id)
	return nil
}

// Clear removes every profile.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles = make(map[string]*domain.Profile)
	s.log.Debug("cleared profiles")
	return nil
}

// Load decodes the value stored under key into out.
func (s *MemoryStore) Load(ctx context.Context, key string, out any) error {
	s.mu.RLock()
	raw, ok := s.kv[key]
	s.mu.RUnlock()

	if !ok {
		return domain.ErrNotFound
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// Save stores value under key.
func (s *MemoryStore) Save(ctx context.Context, key string, value any) error {
	raw, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = raw
	return nil
}

// Remove deletes key.
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	return nil
}
