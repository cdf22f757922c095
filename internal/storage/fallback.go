package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Compile-time interface check.
var _ Store = (*Fallback)(nil)

// Fallback layers two stores. The primary is authoritative; the secondary
// mirrors every successful write and takes over when the primary fails.
// ErrNotFound from the primary is an answer, not a failure.
type Fallback struct {
	primary   Store
	secondary Store
	log       *logger.Logger
}

// NewFallback creates a two-tier store.
func NewFallback(primary, secondary Store, log *logger.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, log: log}
}

// List reads from the primary, else the secondary.
func (f *Fallback) List(ctx context.Context) ([]*domain.Profile, error) {
	out, err := f.primary.List(ctx)
	if err == nil {
		return out, nil
	}
	f.log.Warn("listing profiles from primary, falling back: %v", err)
	return f.secondary.List(ctx)
}

// Get reads from the primary, else the secondary.
func (f *Fallback) Get(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := f.primary.Get(ctx, id)
	if f.answered(err) {
		return p, err
	}
	f.log.Warn("getting profile %s from primary, falling back: %v", id, err)
	return f.secondary.Get(ctx, id)
}

// Put writes to the primary and mirrors into the secondary. If the primary
// fails the write lands in the secondary only.
func (f *Fallback) Put(ctx context.Context, profile *domain.Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: nil profile", domain.ErrInvalidProfile)
	}
	return f.write("saving profile "+profile.ID,
		func(s Store) error { return s.Put(ctx, profile) })
}

// Delete removes from both tiers.
func (f *Fallback) Delete(ctx context.Context, id string) error {
	err := f.primary.Delete(ctx, id)
	if f.answered(err) {
		if serr := f.secondary.Delete(ctx, id); serr != nil && !errors.Is(serr, domain.ErrNotFound) {
			f.log.Warn("mirroring delete of %s: %v", id, serr)
		}
		return err
	}
	f.log.Warn("deleting profile %s from primary, falling back: %v", id, err)
	return f.secondary.Delete(ctx, id)
}

// Clear empties both tiers.
func (f *Fallback) Clear(ctx context.Context) error {
	return f.write("clearing profiles", func(s Store) error { return s.Clear(ctx) })
}

// Load reads from the primary, else the secondary.
func (f *Fallback) Load(ctx context.Context, key string, out any) error {
	err := f.primary.Load(ctx, key, out)
	if f.answered(err) {
		return err
	}
	f.log.Warn("loading %s from primary, falling back: %v", key, err)
	return f.secondary.Load(ctx, key, out)
}

// Save writes to the primary and mirrors into the secondary.
func (f *Fallback) Save(ctx context.Context, key string, value any) error {
	return f.write("saving "+key, func(s Store) error { return s.Save(ctx, key, value) })
}

// Remove deletes from both tiers.
func (f *Fallback) Remove(ctx context.Context, key string) error {
	return f.write("removing "+key, func(s Store) error { return s.Remove(ctx, key) })
}

func (f *Fallback) write(what string, op func(Store) error) error {
	if err := op(f.primary); err != nil {
		f.log.Warn("%s in primary, falling back: %v", what, err)
		return op(f.secondary)
	}
	if err := op(f.secondary); err != nil {
		f.log.Warn("%s: mirroring to secondary: %v", what, err)
	}
	return nil
}

func (f *Fallback) answered(err error) bool {
	return err == nil || errors.Is(err, domain.ErrNotFound)
}
