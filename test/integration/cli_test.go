package integration

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aides-simplifiees/simulateur/internal/config"
	"github.com/aides-simplifiees/simulateur/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractedReport(t *testing.T) *output.Report {
	t.Helper()
	resp, err := config.NewInputParser().LoadResponse(fixture("response-logement.json"))
	require.NoError(t, err)

	n := loadSurvey(t, "demenagement-logement.yaml")
	report := output.NewReport(n.ID, n.Engine)
	report.AddSimulation(newEngine(t, "").Extract(n, resp))
	return report
}

func TestOutputGeneration(t *testing.T) {
	report := extractedReport(t)

	for _, format := range []string{"console", "json", "json-compact", "csv"} {
		t.Run(format, func(t *testing.T) {
			f, err := output.NewFormatter(format)
			require.NoError(t, err)
			data, err := f.Format(report)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}

	_, err := output.NewFormatter("html")
	assert.Error(t, err)
}

func TestOutputFormatsAgree(t *testing.T) {
	report := extractedReport(t)

	f, err := output.NewFormatter("json")
	require.NoError(t, err)
	data, err := f.Format(report)
	require.NoError(t, err)
	var decoded struct {
		Results map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	f, err = output.NewFormatter("csv")
	require.NoError(t, err)
	data, err = f.Format(report)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)

	found := false
	for _, row := range rows {
		if len(row) >= 2 && row[0] == "aide-personnalisee-logement" {
			found = true
			assert.Contains(t, row, "212.35")
		}
	}
	assert.True(t, found, "csv should list aide-personnalisee-logement: %v", rows)
	assert.Equal(t, 212.35, decoded.Results["aide-personnalisee-logement"])
}
