package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hammamikhairi/vibetimer/internal/domain"
)

// Defaults for a freshly added activity.
const (
	DefaultActivityName    = "New Activity"
	DefaultActivitySeconds = 30
)

// NewActivity builds an activity with a fresh ID. An empty name and a
// negative duration take the defaults.
func NewActivity(name string, seconds int, category domain.Category) domain.Activity {
	if strings.TrimSpace(name) == "" {
		name = DefaultActivityName
	}
	if seconds < 0 {
		seconds = DefaultActivitySeconds
	}
	return domain.Activity{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(name),
		DurationSeconds: seconds,
		Category:        category,
	}
}

// The editing helpers below never modify their input: each returns a new
// slice with Order renumbered to match the index.

// Add appends a to seq.
func Add(seq []domain.Activity, a domain.Activity) []domain.Activity {
	out := append(domain.CloneActivities(seq), a)
	return Normalize(out)
}

// Remove drops the activity at index.
func Remove(seq []domain.Activity, index int) ([]domain.Activity, error) {
	if err := checkIndex(seq, index); err != nil {
		return nil, err
	}
	out := make([]domain.Activity, 0, len(seq)-1)
	out = append(out, seq[:index]...)
	out = append(out, seq[index+1:]...)
	return Normalize(out), nil
}

// Move moves the activity at from so that it ends up at to.
func Move(seq []domain.Activity, from, to int) ([]domain.Activity, error) {
	if err := checkIndex(seq, from); err != nil {
		return nil, err
	}
	if err := checkIndex(seq, to); err != nil {
		return nil, err
	}
	out := domain.CloneActivities(seq)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]domain.Activity{moved}, out[to:]...)...)
	return Normalize(out), nil
}

// Rename changes the name of the activity at index.
func Rename(seq []domain.Activity, index int, name string) ([]domain.Activity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty activity name", domain.ErrInvalidProfile)
	}
	return edit(seq, index, func(a *domain.Activity) { a.Name = name })
}

// SetDuration changes the length of the activity at index.
func SetDuration(seq []domain.Activity, index, seconds int) ([]domain.Activity, error) {
	if seconds < 0 {
		return nil, fmt.Errorf("%w: negative duration %d", domain.ErrInvalidProfile, seconds)
	}
	return edit(seq, index, func(a *domain.Activity) { a.DurationSeconds = seconds })
}

// SetCategory changes the category of the activity at index.
func SetCategory(seq []domain.Activity, index int, c domain.Category) ([]domain.Activity, error) {
	return edit(seq, index, func(a *domain.Activity) { a.Category = c })
}

// Normalize returns a copy with Order equal to the index and a fresh ID on
// any activity that lacks one.
func Normalize(seq []domain.Activity) []domain.Activity {
	out := domain.CloneActivities(seq)
	for i := range out {
		out[i].Order = i
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
	}
	return out
}

func edit(seq []domain.Activity, index int, fn func(*domain.Activity)) ([]domain.Activity, error) {
	if err := checkIndex(seq, index); err != nil {
		return nil, err
	}
	out := domain.CloneActivities(seq)
	fn(&out[index])
	return Normalize(out), nil
}

func checkIndex(seq []domain.Activity, index int) error {
	if index < 0 || index >= len(seq) {
		return fmt.Errorf("activity %d: %w", index+1, domain.ErrNotFound)
	}
	return nil
}

// ParseDuration reads "m:ss" or a bare number of seconds.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	mins, secs, hasColon := strings.Cut(s, ":")
	if !hasColon {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad duration %q, want m:ss", s)
		}
		return n, nil
	}

	m, err := strconv.Atoi(mins)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("bad minutes in %q", s)
	}
	sec, err := strconv.Atoi(secs)
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("bad seconds in %q", s)
	}
	return m*60 + sec, nil
}

// FormatDuration renders seconds as "m:ss".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatTotal renders a profile length as "Xm Ys".
func FormatTotal(seconds int) string {
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
