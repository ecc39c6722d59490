package compare

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Total Amount",
		"Eligible Count",
		"Eligible",
		"Amount Diff from Base",
		"Amount % Change",
		"Gained",
		"Lost",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}

	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row. Lists are joined
// with '|'.
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	return []string{
		result.ScenarioName,
		scenarioType,
		result.TotalAmount.StringFixed(2),
		strconv.Itoa(result.EligibleCount()),
		strings.Join(result.Eligible, "|"),
		result.AmountDiffFromBase.StringFixed(2),
		result.AmountPctFromBase.StringFixed(2),
		strings.Join(result.Gained, "|"),
		strings.Join(result.Lost, "|"),
	}
}
