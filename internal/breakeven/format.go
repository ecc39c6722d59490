package breakeven

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats solver results as console tables
type TableFormatter struct{}

// Format generates a formatted report for a threshold search
func (tf *TableFormatter) Format(result *ThresholdResult) string {
	var sb strings.Builder

	sb.WriteString("SEUIL D'ÉLIGIBILITÉ\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Dispositif :  %s\n", result.Dispositif))
	sb.WriteString(fmt.Sprintf("Question :    %s\n", result.Question))
	sb.WriteString(fmt.Sprintf("Statut :      %s\n", tf.formatStatus(result.Found)))
	sb.WriteString(fmt.Sprintf("Itérations :  %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Convergence : %s\n", result.ConvergenceInfo))
	}
	sb.WriteString("\n")

	if !result.Found {
		sb.WriteString(fmt.Sprintf("Éligible sur tout l'intervalle [%s, %s] : %s\n",
			result.Lower, result.Upper, tf.yesNo(result.EligibleAtMin)))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%-12s %15s %12s %15s\n", "", result.Question, "Éligible", "Montant"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("%-12s %15s %12s %15s\n",
		"Avant seuil", result.Lower.String(), tf.yesNo(result.EligibleAtMin), result.AmountAtLower.StringFixed(2)+" €"))
	sb.WriteString(fmt.Sprintf("%-12s %15s %12s %15s\n",
		"Après seuil", result.Upper.String(), tf.yesNo(result.EligibleAtMax), result.AmountAtUpper.StringFixed(2)+" €"))
	sb.WriteString("\n")

	return sb.String()
}

// FormatSweep formats every point of a sweep, marking eligibility changes
func (tf *TableFormatter) FormatSweep(result *SweepResult) string {
	var sb strings.Builder

	sb.WriteString("BALAYAGE\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Questionnaire : %s\n", result.SchemaID))
	sb.WriteString(fmt.Sprintf("Question :      %s\n\n", result.Question))

	sb.WriteString(fmt.Sprintf("%12s %15s  %s\n", "Valeur", "Montant total", "Dispositifs"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	changed := map[int]bool{}
	for _, i := range result.Transitions() {
		changed[i] = true
	}
	for i, p := range result.Points {
		marker := " "
		if changed[i] {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%12s %15s %s%s\n",
			p.Value.String(),
			p.TotalAmount.StringFixed(2)+" €",
			marker,
			tf.truncate(strings.Join(p.Eligible, ", "), 50)))
	}
	sb.WriteString("\n")

	if best, ok := result.MaxAmount(); ok && best.TotalAmount.IsPositive() {
		sb.WriteString(fmt.Sprintf("Montant maximal : %s € à %s = %s\n",
			best.TotalAmount.StringFixed(2), result.Question, best.Value))
	}

	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output for any solver result
func (jf *JSONFormatter) Format(result any) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}

	if err != nil {
		return "", err
	}

	return string(data) + "\n", nil
}

// Helper methods

func (tf *TableFormatter) formatStatus(found bool) string {
	if found {
		return "✓ Seuil trouvé"
	}
	return "⚠ Pas de seuil"
}

func (tf *TableFormatter) yesNo(b bool) string {
	if b {
		return "oui"
	}
	return "non"
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// Format renders a threshold or sweep result as table or json
func Format(result any, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table", "console":
		tf := &TableFormatter{}
		switch r := result.(type) {
		case *ThresholdResult:
			return tf.Format(r), nil
		case *SweepResult:
			return tf.FormatSweep(r), nil
		default:
			return "", fmt.Errorf("cannot format %T as a table", result)
		}
	case "json":
		return (&JSONFormatter{Pretty: true}).Format(result)
	case "json-compact":
		return (&JSONFormatter{}).Format(result)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// ParseDecimal reads a bound given on the command line. A decimal comma
// is accepted.
func ParseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", 1))
}
