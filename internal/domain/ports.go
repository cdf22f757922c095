package domain

import "context"

// ProfileStore persists saved profiles. Implementations can be in-memory,
// file-backed, or a tiered combination of both.
type ProfileStore interface {
	List(ctx context.Context) ([]*Profile, error)
	Get(ctx context.Context, id string) (*Profile, error)
	Put(ctx context.Context, profile *Profile) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// KVStore persists small documents (settings, counter) by key. Load decodes
// the stored value into out and returns ErrNotFound for unknown keys.
// Remove is a no-op for unknown keys.
type KVStore interface {
	Load(ctx context.Context, key string, out any) error
	Save(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// IntentParser converts raw user input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}

// Notifier delivers messages to the user. Implementations can write to
// stdout or the terminal UI scrollback.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// CuePlayer plays the boundary sound. Calls must return promptly; playback
// continues in the background.
type CuePlayer interface {
	PlayCue() error
}

// Vibrator pulses a haptic pattern: alternating on/off durations in ms.
type Vibrator interface {
	Vibrate(pattern []int) error
}

// WakeLock keeps the display awake while a run is in progress.
// Acquire and Release must both be safe to call repeatedly.
type WakeLock interface {
	Acquire() error
	Release() error
}
