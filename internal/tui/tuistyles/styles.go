// Package tuistyles holds the colors and styles shared by the survey TUI
// and its components.
package tuistyles

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary   = lipgloss.Color("#000091")
	ColorSecondary = lipgloss.Color("#6A6AF4")
	ColorSuccess   = lipgloss.Color("#18753C")
	ColorDanger    = lipgloss.Color("#CE0500")
	ColorWarning   = lipgloss.Color("#B34000")

	ColorForeground = lipgloss.AdaptiveColor{Light: "#161616", Dark: "#EEEEEE"}
	ColorMuted      = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#929292"}
	ColorBorder     = lipgloss.AdaptiveColor{Light: "#DDDDDD", Dark: "#3A3A3A"}
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder)

	StatusKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	QuestionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorForeground)

	SelectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorSecondary)

	UnselectedItemStyle = lipgloss.NewStyle().
				Foreground(ColorForeground)

	MetricLabelStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	MetricValueStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorForeground)

	HelpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary).
			Width(12)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorForeground)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// EligibilityStyle colors a yes/no outcome
func EligibilityStyle(eligible bool) lipgloss.Style {
	if eligible {
		return lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// EligibilityIndicator returns a check or a cross
func EligibilityIndicator(eligible bool) string {
	if eligible {
		return "✓"
	}
	return "✗"
}

