package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing scenarios
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	// Header
	sb.WriteString("COMPARAISON DE SITUATIONS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Questionnaire : %s\n", compSet.SchemaID))
	sb.WriteString(fmt.Sprintf("Situation de base : %s\n", compSet.BaseScenarioName))
	if compSet.AnswersPath != "" {
		sb.WriteString(fmt.Sprintf("Réponses : %s\n", compSet.AnswersPath))
	}
	sb.WriteString("\n")

	nameWidth := 30
	numWidth := 15

	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s\n",
		nameWidth, "Situation",
		numWidth, "Montant total",
		numWidth, "Dispositifs",
		numWidth, "Écart"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if base := compSet.BaseResult; base != nil {
		sb.WriteString(tf.formatRow(base, nameWidth, numWidth, true))
	}

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&alt, nameWidth, numWidth, false))
		}
	}

	sb.WriteString(strings.Repeat("=", 80) + "\n")

	// Deltas from base
	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nÉCARTS AVEC LA SITUATION DE BASE\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.ScenarioName))
			if alt.Description != "" {
				sb.WriteString(fmt.Sprintf("  %s\n", alt.Description))
			}
			sb.WriteString(fmt.Sprintf("  Montant total :  %s%s € (%s%%)\n",
				tf.deltaSymbol(alt.AmountDiffFromBase),
				alt.AmountDiffFromBase.StringFixed(2),
				alt.AmountPctFromBase.StringFixed(1)))
			if len(alt.Gained) > 0 {
				sb.WriteString(fmt.Sprintf("  Nouveaux droits : %s\n", strings.Join(alt.Gained, ", ")))
			}
			if len(alt.Lost) > 0 {
				sb.WriteString(fmt.Sprintf("  Droits perdus :   %s\n", strings.Join(alt.Lost, ", ")))
			}
			for _, c := range alt.Changes {
				sb.WriteString(fmt.Sprintf("    %-40s %s → %s\n", tf.truncate(c.Key, 40), orDash(c.Base.String()), orDash(c.Value.String())))
			}
		}
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nRECOMMANDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single scenario row
func (tf *TableFormatter) formatRow(result *ComparisonResult, nameWidth, numWidth int, isBase bool) string {
	name := result.ScenarioName
	delta := tf.deltaSymbol(result.AmountDiffFromBase) + result.AmountDiffFromBase.StringFixed(2)
	if isBase {
		name += " (base)"
		delta = "-"
	}

	return fmt.Sprintf("%-*s %*s %*d %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		numWidth, result.TotalAmount.StringFixed(2)+" €",
		numWidth, result.EligibleCount(),
		numWidth, delta)
}

// deltaSymbol returns a + for positive deltas; negative ones carry their sign
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	}
	return ""
}

// truncate truncates a string to maxLen runes
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatCompact creates a compact single-line summary for each scenario
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s | ", compSet.BaseScenarioName))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		change := "="
		if !alt.AmountDiffFromBase.IsZero() {
			change = fmt.Sprintf("%s%s €", tf.deltaSymbol(alt.AmountDiffFromBase), alt.AmountDiffFromBase.StringFixed(2))
		}
		sb.WriteString(fmt.Sprintf("%s: %s", alt.ScenarioName, change))
	}

	return sb.String()
}
