package domain

// Theme selects the terminal palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeAuto
}

// Settings are the user's sound, haptic and display preferences.
type Settings struct {
	SoundEnabled          bool  `yaml:"sound_enabled" json:"soundEnabled"`
	HapticsEnabled        bool  `yaml:"haptics_enabled" json:"hapticsEnabled"`
	LongPressAcceleration bool  `yaml:"long_press_acceleration" json:"longPressAcceleration"`
	KeepScreenAwake       bool  `yaml:"keep_screen_awake" json:"keepScreenAwake"`
	Theme                 Theme `yaml:"theme" json:"theme"`
}

// DefaultSettings returns the preferences used before anything is saved.
func DefaultSettings() Settings {
	return Settings{
		SoundEnabled:          true,
		HapticsEnabled:        false,
		LongPressAcceleration: true,
		KeepScreenAwake:       false,
		Theme:                 ThemeAuto,
	}
}

// CounterState is the manual rep counter.
type CounterState struct {
	Value int    `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// DefaultCounter returns a zeroed counter.
func DefaultCounter() CounterState {
	return CounterState{Value: 0, Label: "Reps"}
}

// Keys used in the key-value store.
const (
	KeySettings = "settings"
	KeyCounter  = "counter"
)
