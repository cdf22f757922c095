package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentPlay
	IntentPause
	IntentToggle
	IntentStop
	IntentNext
	IntentPrev
	IntentSkipCycle
	IntentStatus
	IntentListProfiles
	IntentLoadProfile      // payload: list number or profile name
	IntentSaveProfile      // payload: name
	IntentDeleteProfile    // payload: list number
	IntentDuplicateProfile // payload: list number
	IntentListPresets
	IntentLoadPreset  // payload: preset id or list number
	IntentExport      // payload: optional file path
	IntentImport      // payload: file path
	IntentAddActivity // args: name, m:ss, [category]
	IntentRemoveActivity
	IntentMoveActivity
	IntentRenameActivity
	IntentSetDuration
	IntentSetCategory
	IntentSetRepeat
	IntentShowActivities
	IntentCounterInc // payload: optional step
	IntentCounterDec // payload: optional step
	IntentCounterReset
	IntentCounterLabel
	IntentToggleSound
	IntentToggleHaptics
	IntentToggleAwake
	IntentToggleLongPress
	IntentSetTheme
	IntentClearAll
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	if name, ok := intentLabels[i]; ok {
		return name
	}
	return "unknown"
}

var intentLabels = map[IntentType]string{
	IntentPlay:             "play",
	IntentPause:            "pause",
	IntentToggle:           "toggle",
	IntentStop:             "stop",
	IntentNext:             "next",
	IntentPrev:             "prev",
	IntentSkipCycle:        "skip_cycle",
	IntentStatus:           "status",
	IntentListProfiles:     "list_profiles",
	IntentLoadProfile:      "load_profile",
	IntentSaveProfile:      "save_profile",
	IntentDeleteProfile:    "delete_profile",
	IntentDuplicateProfile: "duplicate_profile",
	IntentListPresets:      "list_presets",
	IntentLoadPreset:       "load_preset",
	IntentExport:           "export",
	IntentImport:           "import",
	IntentAddActivity:      "add_activity",
	IntentRemoveActivity:   "remove_activity",
	IntentMoveActivity:     "move_activity",
	IntentRenameActivity:   "rename_activity",
	IntentSetDuration:      "set_duration",
	IntentSetCategory:      "set_category",
	IntentSetRepeat:        "set_repeat",
	IntentShowActivities:   "show_activities",
	IntentCounterInc:       "counter_inc",
	IntentCounterDec:       "counter_dec",
	IntentCounterReset:     "counter_reset",
	IntentCounterLabel:     "counter_label",
	IntentToggleSound:      "toggle_sound",
	IntentToggleHaptics:    "toggle_haptics",
	IntentToggleAwake:      "toggle_awake",
	IntentToggleLongPress:  "toggle_long_press",
	IntentSetTheme:         "set_theme",
	IntentClearAll:         "clear_all",
	IntentHelp:             "help",
	IntentQuit:             "quit",
}

// Intent represents a parsed user action.
type Intent struct {
	Type    IntentType
	Payload string   // raw remainder after the keyword
	Args    []string // whitespace-split payload, for positional commands
}
