package display

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/vibetimer/internal/domain"
)

// Category colours, matching the profile export colour names.
const (
	activeColor = lipgloss.Color("#22c55e") // green
	restColor   = lipgloss.Color("#f97316") // orange
	warmupColor = lipgloss.Color("#a1a1aa") // neutral
)

// ── Output styles (soft palette) ──

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle: muted slate for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

// palette holds the panel styles for one background.
type palette struct {
	panel lipgloss.Style
	label lipgloss.Style
	clock lipgloss.Style
	dim   lipgloss.Style
}

var (
	darkPalette = palette{
		panel: lipgloss.NewStyle().Background(lipgloss.Color("#18181b")),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("#a1a1aa")),
		clock: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fde68a")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a")),
	}
	lightPalette = palette{
		panel: lipgloss.NewStyle().Background(lipgloss.Color("#f4f4f5")),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("#52525b")),
		clock: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#b45309")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("#a1a1aa")),
	}
)

func paletteFor(dark bool) palette {
	if dark {
		return darkPalette
	}
	return lightPalette
}

// isDark resolves the theme setting. Auto follows the terminal.
func isDark(t domain.Theme, terminalDark bool) bool {
	switch t {
	case domain.ThemeLight:
		return false
	case domain.ThemeDark:
		return true
	default:
		return terminalDark
	}
}

func categoryColor(c domain.Category) lipgloss.Color {
	switch c {
	case domain.CategoryRest:
		return restColor
	case domain.CategoryWarmup:
		return warmupColor
	default:
		return activeColor
	}
}

func phaseStyle(p domain.Phase) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch p {
	case domain.PhaseRunning:
		return s.Foreground(activeColor)
	case domain.PhasePaused:
		return s.Foreground(lipgloss.Color("#fde68a"))
	case domain.PhaseCompleted:
		return s.Foreground(lipgloss.Color("#bae6fd"))
	default:
		return s.Foreground(warmupColor)
	}
}
