package profile

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
	"github.com/hammamikhairi/vibetimer/internal/storage"
)

type fixture struct {
	svc   *Service
	store *storage.MemoryStore
	clock time.Time
	ids   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	f := &fixture{
		store: storage.NewMemoryStore(log),
		clock: time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.store, f.store, log,
		WithClock(func() time.Time { return f.clock }),
		WithIDGenerator(func() string {
			f.ids++
			return fmt.Sprintf("id-%d", f.ids)
		}),
	)
	return f
}

func (f *fixture) tick() { f.clock = f.clock.Add(time.Minute) }

func TestSaveValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		pname      string
		activities []domain.Activity
		repeat     int
	}{
		{"empty name", " ", threeActivities(), 1},
		{"no activities", "Legs", nil, 1},
		{"zero repeat", "Legs", threeActivities(), 0},
		{"negative duration", "Legs", []domain.Activity{{Name: "x", DurationSeconds: -1}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Save(ctx, tt.pname, tt.activities, tt.repeat)
			assert.ErrorIs(t, err, domain.ErrInvalidProfile)
		})
	}
}

func TestSaveAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Save(ctx, "  Legs ", threeActivities(), 3)
	require.NoError(t, err)
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "Legs", p.Name)
	assert.Equal(t, f.clock, p.CreatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assertOrdered(t, p.Activities)

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = f.svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.svc.Save(ctx, "A", threeActivities(), 1)
	f.tick()
	_, _ = f.svc.Save(ctx, "B", threeActivities(), 1)
	f.tick()
	_, err := f.svc.Update(ctx, a.ID, "A2", threeActivities(), 2)
	require.NoError(t, err)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A2", list[0].Name)
	assert.Equal(t, "B", list[1].Name)
}

func TestUpdateKeepsIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _ := f.svc.Save(ctx, "Core", threeActivities(), 1)
	created := p.CreatedAt
	f.tick()

	seq, err := Remove(p.Activities, 0)
	require.NoError(t, err)
	up, err := f.svc.Update(ctx, p.ID, "Core v2", seq, 4)
	require.NoError(t, err)
	assert.Equal(t, p.ID, up.ID)
	assert.Equal(t, created, up.CreatedAt)
	assert.True(t, up.UpdatedAt.After(created))
	assert.Equal(t, 4, up.RepeatCount)
	assert.Len(t, up.Activities, 2)

	_, err = f.svc.Update(ctx, "missing", "x", seq, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _ := f.svc.Save(ctx, "Arms", threeActivities(), 2)
	dup, err := f.svc.Duplicate(ctx, p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, dup.ID)
	assert.Equal(t, "Arms (Copy)", dup.Name)
	assert.Equal(t, names(p.Activities), names(dup.Activities))
	assert.Equal(t, 2, dup.RepeatCount)

	again, err := f.svc.Duplicate(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arms (Copy 2)", again.Name)
}

func TestSaveRejectsTakenName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Save(ctx, "Legs", threeActivities(), 1)
	require.NoError(t, err)

	for _, name := range []string{"Legs", " legs ", "LEGS"} {
		_, err = f.svc.Save(ctx, name, threeActivities(), 2)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists, name)
	}

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateRejectsTakenName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.svc.Save(ctx, "Push", threeActivities(), 1)
	b, _ := f.svc.Save(ctx, "Pull", threeActivities(), 1)

	_, err := f.svc.Update(ctx, b.ID, "push", b.Activities, 1)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pull", got.Name)

	// Renaming a profile onto its own name only changes case.
	up, err := f.svc.Update(ctx, a.ID, "PUSH", a.Activities, 2)
	require.NoError(t, err)
	assert.Equal(t, "PUSH", up.Name)
}

func TestFindByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.svc.Save(ctx, "Morning Mobility", threeActivities(), 1)
	p, err := f.svc.FindByName(ctx, "morning mobility")
	require.NoError(t, err)
	assert.Equal(t, "Morning Mobility", p.Name)

	_, err = f.svc.FindByName(ctx, "evening")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _ := f.svc.Save(ctx, "Tmp", threeActivities(), 1)
	require.NoError(t, f.svc.Delete(ctx, p.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, p.ID), domain.ErrNotFound)
}

func TestExportImport(t *testing.T) {
	src := newFixture(t)
	ctx := context.Background()
	_, _ = src.svc.Save(ctx, "One", threeActivities(), 1)
	_, _ = src.svc.Save(ctx, "Two", threeActivities(), 2)

	var buf bytes.Buffer
	n, err := src.svc.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dst := newFixture(t)
	n, err = dst.svc.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := dst.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestImportRepairsAndSkips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := `[
  {"name": "", "repeatCount": 0, "activities": [
    {"name": "B", "duration": -4, "color": "orange", "order": 1},
    {"name": "A", "duration": 20, "color": "green", "order": 0}
  ]},
  {"id": "empty", "name": "Nothing", "repeatCount": 1, "activities": []}
]`
	n, err := f.svc.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	p := list[0]
	assert.Equal(t, "Imported profile", p.Name)
	assert.Equal(t, 1, p.RepeatCount)
	assert.Equal(t, []string{"A", "B"}, names(p.Activities))
	assert.Equal(t, 0, p.Activities[1].DurationSeconds)
	assert.Equal(t, domain.CategoryRest, p.Activities[1].Category)
	assertOrdered(t, p.Activities)
	assert.Equal(t, f.clock, p.CreatedAt)
}

func TestImportInvalidJSON(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Import(context.Background(), strings.NewReader("{{{"))
	assert.ErrorIs(t, err, domain.ErrInvalidImport)
	assert.EqualError(t, domain.ErrInvalidImport, "invalid JSON file")
}

func TestClearAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.svc.Save(ctx, "Gone", threeActivities(), 1)
	require.NoError(t, f.store.Save(ctx, domain.KeySettings, domain.DefaultSettings()))
	require.NoError(t, f.store.Save(ctx, domain.KeyCounter, domain.CounterState{Value: 9, Label: "Reps"}))

	require.NoError(t, f.svc.ClearAll(ctx))

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	var c domain.CounterState
	assert.ErrorIs(t, f.store.Load(ctx, domain.KeyCounter, &c), domain.ErrNotFound)
	var s domain.Settings
	assert.ErrorIs(t, f.store.Load(ctx, domain.KeySettings, &s), domain.ErrNotFound)
}
