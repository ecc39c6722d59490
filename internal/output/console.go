package output

import (
	"fmt"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0A0"))
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
)

// ConsoleFormatter renders a human-readable summary. Colors are dropped
// automatically when the output is not a terminal.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(r *Report) ([]byte, error) {
	var sb strings.Builder

	title := "SIMULATION"
	if r.SchemaID != "" {
		title += " " + strings.ToUpper(r.SchemaID)
	}
	sb.WriteString(titleStyle.Render(title) + "\n")
	sb.WriteString(keyStyle.Render(fmt.Sprintf("id %s · %s", r.ID, r.GeneratedAt.Format("2006-01-02 15:04:05"))) + "\n\n")

	if len(r.Request) > 0 {
		sb.WriteString(headerStyle.Render("Requête de calcul") + "\n")
		for _, kind := range entityKinds(r) {
			sb.WriteString(fmt.Sprintf("  %-16s %d entité(s)\n", kind, len(r.Request[kind])))
		}
		sb.WriteString("\n")
	}

	if len(r.Results) > 0 {
		sb.WriteString(headerStyle.Render("Résultats") + "\n")
		width := 0
		for _, key := range r.Results.Keys() {
			width = max(width, len(key))
		}
		for _, key := range r.Results.Keys() {
			v := r.Results[key]
			sb.WriteString(fmt.Sprintf("  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-*s", width, key)), styleResult(v)))
		}
		sb.WriteString("\n")
	}

	if len(r.Dropped) > 0 {
		sb.WriteString(headerStyle.Render("Réponses ignorées (questions masquées)") + "\n")
		for _, key := range r.Dropped {
			sb.WriteString("  " + keyStyle.Render(key) + "\n")
		}
		sb.WriteString("\n")
	}

	for _, w := range r.Warnings {
		sb.WriteString(warningStyle.Render("⚠ "+w) + "\n")
	}
	for _, e := range r.Errors {
		sb.WriteString(errorStyle.Render("✗ "+e) + "\n")
	}
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		sb.WriteString(positiveStyle.Render("✓ aucune erreur") + "\n")
	}

	return []byte(sb.String()), nil
}

func styleResult(v domain.ResultValue) string {
	text := FormatResult(v)
	switch v.Kind {
	case domain.ResultBoolean:
		if v.Boolean {
			return positiveStyle.Render(text)
		}
		return negativeStyle.Render(text)
	case domain.ResultAmount:
		if v.Amount.IsPositive() {
			return positiveStyle.Render(text)
		}
		return negativeStyle.Render(text)
	default:
		return text
	}
}

func entityKinds(r *Report) []openfisca.EntityKind {
	var out []openfisca.EntityKind
	for _, kind := range openfisca.EntityKinds {
		if _, ok := r.Request[kind]; ok {
			out = append(out, kind)
		}
	}
	return out
}
