package compare

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/shopspring/decimal"
)

func sampleSet() *ComparisonSet {
	return &ComparisonSet{
		SchemaID:         "aides-locales",
		BaseScenarioName: "base",
		AnswersPath:      "/path/to/answers.yaml",
		BaseResult: &ComparisonResult{
			ScenarioName: "base",
			TotalAmount:  decimal.NewFromInt(200),
			Eligible:     []string{"pass-mobilite"},
			Results: domain.SimulationResults{
				"pass-mobilite": domain.AmountResult(decimal.NewFromInt(200)),
			},
		},
		AlternativeResults: []ComparisonResult{
			{
				ScenarioName:       "base_boursier",
				Description:        "Obtain a level 5 higher-education grant",
				TotalAmount:        decimal.NewFromInt(700),
				Eligible:           []string{"pass-mobilite", "aide-permis"},
				AmountDiffFromBase: decimal.NewFromInt(500),
				AmountPctFromBase:  decimal.NewFromInt(250),
				Gained:             []string{"aide-permis"},
				Changes: []ResultChange{{
					Key:   "aide-permis",
					Base:  domain.AmountResult(decimal.Zero),
					Value: domain.AmountResult(decimal.NewFromInt(500)),
				}},
			},
		},
		Recommendations: []string{
			"Meilleur montant : base_boursier apporte 500.00 € de plus par mois que la situation de base",
		},
	}
}

func TestTableFormatter_Format(t *testing.T) {
	result := (&TableFormatter{}).Format(sampleSet())

	if result == "" {
		t.Fatal("Expected formatted output, got empty string")
	}

	for _, want := range []string{
		"COMPARAISON DE SITUATIONS",
		"Questionnaire : aides-locales",
		"Situation de base : base",
		"Réponses : /path/to/answers.yaml",
		"base (base)",
		"base_boursier",
		"+500.00 € (250.0%)",
		"Nouveaux droits : aide-permis",
		"0.00 → 500.00",
		"RECOMMANDATIONS",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in output:\n%s", want, result)
		}
	}
}

func TestTableFormatter_Format_EmptyAlternatives(t *testing.T) {
	compSet := sampleSet()
	compSet.AlternativeResults = nil
	compSet.Recommendations = nil

	result := (&TableFormatter{}).Format(compSet)

	if !strings.Contains(result, "base (base)") {
		t.Error("Expected base scenario in table")
	}

	if strings.Contains(result, "ÉCARTS") || strings.Contains(result, "RECOMMANDATIONS") {
		t.Error("Should not have comparison sections without alternatives")
	}
}

func TestTableFormatter_formatRow(t *testing.T) {
	formatter := &TableFormatter{}
	result := &sampleSet().AlternativeResults[0]

	baseRow := formatter.formatRow(result, 30, 15, true)
	if !strings.Contains(baseRow, "(base)") || !strings.Contains(baseRow, "700.00 €") {
		t.Errorf("Unexpected base row %q", baseRow)
	}

	altRow := formatter.formatRow(result, 30, 15, false)
	if !strings.Contains(altRow, "+500.00") {
		t.Errorf("Expected delta in alternative row %q", altRow)
	}
}

func TestTableFormatter_FormatCompact(t *testing.T) {
	result := (&TableFormatter{}).FormatCompact(sampleSet())
	if result != "Base: base | base_boursier: +500.00 €" {
		t.Errorf("Unexpected compact output %q", result)
	}
}

func TestCSVFormatter_Format(t *testing.T) {
	result, err := (&CSVFormatter{}).Format(sampleSet())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(result)).ReadAll()
	if err != nil {
		t.Fatalf("Invalid CSV: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(rows))
	}

	if rows[1][1] != "base" || rows[2][1] != "alternative" {
		t.Errorf("Expected base then alternative rows, got %v", rows)
	}

	if rows[2][4] != "pass-mobilite|aide-permis" || rows[2][7] != "aide-permis" {
		t.Errorf("Unexpected alternative row %v", rows[2])
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	for _, pretty := range []bool{true, false} {
		result, err := (&JSONFormatter{Pretty: pretty}).Format(sampleSet())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal([]byte(result), &decoded); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}

		if decoded["baseScenarioName"] != "base" {
			t.Errorf("Expected base scenario name, got %v", decoded["baseScenarioName"])
		}

		if pretty != strings.Contains(result, "\n  ") {
			t.Errorf("Pretty=%v does not match indentation", pretty)
		}
	}
}

func TestFormat_UnknownFormat(t *testing.T) {
	if _, err := Format(sampleSet(), "html"); err == nil {
		t.Error("Expected an error for an unknown format")
	}

	for _, format := range []string{"table", "csv", "json", "json-compact"} {
		if out, err := Format(sampleSet(), format); err != nil || out == "" {
			t.Errorf("format %s: %v", format, err)
		}
	}
}
