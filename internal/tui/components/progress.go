package components

import (
	"fmt"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/tui/tuistyles"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar shows how far the user is in the survey
type ProgressBar struct {
	Current   int
	Total     int
	Width     int
	Label     string
	ShowCount bool
}

// NewProgressBar creates a new progress bar
func NewProgressBar(current, total int) *ProgressBar {
	return &ProgressBar{
		Current:   current,
		Total:     total,
		Width:     30,
		ShowCount: true,
	}
}

// WithLabel sets the progress label
func (p *ProgressBar) WithLabel(label string) *ProgressBar {
	p.Label = label
	return p
}

// WithWidth sets the bar width
func (p *ProgressBar) WithWidth(width int) *ProgressBar {
	p.Width = width
	return p
}

// Percentage returns the completion percentage
func (p *ProgressBar) Percentage() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total) * 100
}

// IsComplete returns true if progress is at 100%
func (p *ProgressBar) IsComplete() bool {
	return p.Current >= p.Total
}

// Render returns the styled progress bar
func (p *ProgressBar) Render() string {
	var content strings.Builder

	if p.Label != "" {
		content.WriteString(tuistyles.SubtitleStyle.Render(p.Label))
		content.WriteString(" ")
	}

	filled := int(float64(p.Width) * p.Percentage() / 100)
	filled = min(max(filled, 0), p.Width)
	empty := p.Width - filled

	barStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorSecondary)
	emptyStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorBorder)

	if filled > 0 {
		content.WriteString(barStyle.Render(strings.Repeat("█", filled)))
	}
	if empty > 0 {
		content.WriteString(emptyStyle.Render(strings.Repeat("░", empty)))
	}

	if p.ShowCount {
		countStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorMuted)
		content.WriteString(" ")
		content.WriteString(countStyle.Render(fmt.Sprintf("%d/%d", p.Current, p.Total)))
	}

	return content.String()
}
