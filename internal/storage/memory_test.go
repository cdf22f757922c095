package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

func sampleProfile(id string) *domain.Profile {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Profile{
		ID:   id,
		Name: "Tabata " + id,
		Activities: []domain.Activity{
			{ID: id + "-a", Name: "Work", DurationSeconds: 20, Category: domain.CategoryActive, Order: 0},
			{ID: id + "-b", Name: "Rest", DurationSeconds: 10, Category: domain.CategoryRest, Order: 1},
		},
		RepeatCount: 8,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// storeContract exercises behaviour every Store must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("profiles", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, sampleProfile("p1")))
		require.NoError(t, store.Put(ctx, sampleProfile("p2")))

		got, err := store.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, sampleProfile("p1"), got)

		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		_, err = store.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, store.Delete(ctx, "p1"))
		assert.ErrorIs(t, store.Delete(ctx, "p1"), domain.ErrNotFound)

		require.NoError(t, store.Clear(ctx))
		all, err = store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("profiles are copies", func(t *testing.T) {
		p := sampleProfile("copy")
		require.NoError(t, store.Put(ctx, p))
		p.Activities[0].Name = "mutated"

		got, err := store.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, "Work", got.Activities[0].Name)

		got.Activities[1].Name = "mutated again"
		again, err := store.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, "Rest", again.Activities[1].Name)
	})

	t.Run("kv", func(t *testing.T) {
		var s domain.Settings
		assert.ErrorIs(t, store.Load(ctx, domain.KeySettings, &s), domain.ErrNotFound)

		want := domain.DefaultSettings()
		want.Theme = domain.ThemeDark
		require.NoError(t, store.Save(ctx, domain.KeySettings, want))
		require.NoError(t, store.Load(ctx, domain.KeySettings, &s))
		assert.Equal(t, want, s)

		require.NoError(t, store.Remove(ctx, domain.KeySettings))
		require.NoError(t, store.Remove(ctx, domain.KeySettings))
		assert.ErrorIs(t, store.Load(ctx, domain.KeySettings, &s), domain.ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(logger.New(logger.LevelOff, nil)))
}

func TestMemoryStoreRejectsMissingID(t *testing.T) {
	store := NewMemoryStore(logger.New(logger.LevelOff, nil))
	p := sampleProfile("")
	assert.ErrorIs(t, store.Put(context.Background(), p), domain.ErrInvalidProfile)
}
