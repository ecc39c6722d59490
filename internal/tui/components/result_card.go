package components

import (
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/tui/tuistyles"
	"github.com/charmbracelet/lipgloss"
)

// ResultCard displays one dispositif: its name, its amount if any, and
// whether the user is eligible
type ResultCard struct {
	Label    string
	Value    string
	Eligible *bool
	Width    int
}

// NewResultCard creates a new result card
func NewResultCard(label string) *ResultCard {
	return &ResultCard{Label: label, Width: 34}
}

// WithValue sets the displayed amount
func (c *ResultCard) WithValue(value string) *ResultCard {
	c.Value = value
	return c
}

// WithEligibility sets the eligibility indicator
func (c *ResultCard) WithEligibility(eligible bool) *ResultCard {
	c.Eligible = &eligible
	return c
}

// WithWidth sets the card width
func (c *ResultCard) WithWidth(width int) *ResultCard {
	c.Width = width
	return c
}

// Render returns the styled result card
func (c *ResultCard) Render() string {
	lines := []string{tuistyles.MetricLabelStyle.Render(c.Label)}
	if c.Value != "" {
		lines = append(lines, tuistyles.MetricValueStyle.Render(c.Value))
	}
	if c.Eligible != nil {
		text := "non éligible"
		if *c.Eligible {
			text = "éligible"
		}
		style := tuistyles.EligibilityStyle(*c.Eligible)
		lines = append(lines, style.Render(tuistyles.EligibilityIndicator(*c.Eligible)+" "+text))
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tuistyles.ColorBorder).
		Padding(0, 1).
		Width(c.Width)

	return cardStyle.Render(strings.Join(lines, "\n"))
}

// CardGrid renders cards in rows of the given number of columns
func CardGrid(cards []*ResultCard, columns int) string {
	if len(cards) == 0 {
		return ""
	}
	if columns < 1 {
		columns = 1
	}

	var rows []string
	for i := 0; i < len(cards); i += columns {
		end := min(i+columns, len(cards))
		rendered := make([]string, 0, end-i)
		for _, card := range cards[i:end] {
			rendered = append(rendered, card.Render())
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
