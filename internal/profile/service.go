// Package profile manages saved workout profiles: validation, timestamps,
// ordering, import/export, and the pure helpers used to edit a sequence.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
	"github.com/hammamikhairi/vibetimer/internal/storage"
)

// Option configures the service.
type Option func(*Service)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces uuid.NewString for profile IDs.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// Service is the entry point for profile operations.
type Service struct {
	store domain.ProfileStore
	kv    domain.KVStore
	log   *logger.Logger
	now   func() time.Time
	newID func() string
}

// NewService creates a profile service.
func NewService(store domain.ProfileStore, kv domain.KVStore, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		kv:    kv,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks that a profile could be saved and run.
func Validate(name string, activities []domain.Activity, repeatCount int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidProfile)
	}
	if len(activities) == 0 {
		return fmt.Errorf("%w: at least one activity is required", domain.ErrInvalidProfile)
	}
	if repeatCount < 1 {
		return fmt.Errorf("%w: repeat count must be at least 1", domain.ErrInvalidProfile)
	}
	for i, a := range activities {
		if a.DurationSeconds < 0 {
			return fmt.Errorf("%w: activity %d has a negative duration", domain.ErrInvalidProfile, i+1)
		}
	}
	return nil
}

// List returns every profile, most recently updated first.
func (s *Service) List(ctx context.Context) ([]*domain.Profile, error) {
	profiles, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		if !profiles[i].UpdatedAt.Equal(profiles[j].UpdatedAt) {
			return profiles[i].UpdatedAt.After(profiles[j].UpdatedAt)
		}
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting profile %s: %w", id, err)
	}
	return p, nil
}

// FindByName returns the most recently updated profile whose name matches,
// ignoring case.
func (s *Service) FindByName(ctx context.Context, name string) (*domain.Profile, error) {
	profiles, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("profile %q: %w", name, domain.ErrNotFound)
}

// Save stores a new profile. Names are unique, ignoring case.
func (s *Service) Save(ctx context.Context, name string, activities []domain.Activity, repeatCount int) (*domain.Profile, error) {
	if err := Validate(name, activities, repeatCount); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, name, ""); err != nil {
		return nil, err
	}

	now := s.now()
	p := &domain.Profile{
		ID:          s.newID(),
		Name:        strings.TrimSpace(name),
		Activities:  Normalize(activities),
		RepeatCount: repeatCount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	s.log.Info("profile saved: %s (%s)", p.Name, p.ID)
	return p, nil
}

// Update overwrites an existing profile, keeping its ID and creation time.
func (s *Service) Update(ctx context.Context, id, name string, activities []domain.Activity, repeatCount int) (*domain.Profile, error) {
	if err := Validate(name, activities, repeatCount); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, name, id); err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(name)
	p.Activities = Normalize(activities)
	p.RepeatCount = repeatCount
	p.UpdatedAt = s.now()
	if err := s.store.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile %s: %w", id, err)
	}
	s.log.Info("profile updated: %s (%s)", p.Name, p.ID)
	return p, nil
}

// Duplicate stores a copy of a profile under a new ID as "<name> (Copy)",
// or "<name> (Copy N)" when that name is taken.
func (s *Service) Duplicate(ctx context.Context, id string) (*domain.Profile, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := src.Name + " (Copy)"
	for n := 2; ; n++ {
		p, err := s.Save(ctx, name, src.Activities, src.RepeatCount)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return p, err
		}
		name = fmt.Sprintf("%s (Copy %d)", src.Name, n)
	}
}

// checkName fails with ErrAlreadyExists when another profile than exceptID
// uses name.
func (s *Service) checkName(ctx context.Context, name, exceptID string) error {
	p, err := s.FindByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case p.ID == exceptID:
		return nil
	}
	return fmt.Errorf("profile %q: %w", strings.TrimSpace(name), domain.ErrAlreadyExists)
}

// Delete removes a profile.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}
	s.log.Info("profile deleted: %s", id)
	return nil
}

// Export writes every profile to w.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	profiles, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := storage.ExportProfiles(w, profiles); err != nil {
		return 0, err
	}
	return len(profiles), nil
}

// Import reads an export and stores its profiles, overwriting any with the
// same ID. Missing fields are filled in; profiles without activities are
// skipped. Returns how many were stored.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	profiles, err := storage.ImportProfiles(r)
	if err != nil {
		return 0, err
	}

	now := s.now()
	stored := 0
	for i, p := range profiles {
		if len(p.Activities) == 0 {
			s.log.Warn("import: skipping profile %d (%q): no activities", i+1, p.Name)
			continue
		}
		s.repair(p, now)
		if err := s.store.Put(ctx, p); err != nil {
			return stored, fmt.Errorf("importing profile %q: %w", p.Name, err)
		}
		stored++
	}
	s.log.Info("imported %d of %d profiles", stored, len(profiles))
	return stored, nil
}

// ClearAll deletes every profile and resets settings and the counter.
func (s *Service) ClearAll(ctx context.Context) error {
	var errs []error
	if err := s.store.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clearing profiles: %w", err))
	}
	for _, key := range []string{domain.KeySettings, domain.KeyCounter} {
		if err := s.kv.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.log.Info("all data cleared")
	return nil
}

// repair fills the gaps an imported profile may have.
func (s *Service) repair(p *domain.Profile, now time.Time) {
	if p.ID == "" {
		p.ID = s.newID()
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "Imported profile"
	}
	if p.RepeatCount < 1 {
		p.RepeatCount = 1
	}
	for i := range p.Activities {
		if p.Activities[i].DurationSeconds < 0 {
			p.Activities[i].DurationSeconds = 0
		}
	}
	sort.SliceStable(p.Activities, func(i, j int) bool {
		return p.Activities[i].Order < p.Activities[j].Order
	})
	p.Activities = Normalize(p.Activities)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
}
