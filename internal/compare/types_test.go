package compare

import (
	"errors"
	"strings"
	"testing"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/shopspring/decimal"
)

func TestMetricsCalculator_CalculateMetrics(t *testing.T) {
	calc := NewMetricsCalculator()

	sim := &calculation.Simulation{
		Results: domain.SimulationResults{
			"aide-personnalisee-logement":             domain.AmountResult(decimal.RequireFromString("212.35")),
			"aide-personnalisee-logement-eligibilite": domain.BoolResult(true),
			"mobili-jeune":                            domain.AmountResult(decimal.NewFromInt(100)),
			"mobili-jeune-eligibilite":                domain.BoolResult(true),
			"locapass-eligibilite":                    domain.BoolResult(false),
			"code-postal-nouvelle-ville":              domain.TextResult("69123"),
		},
		Dropped: []string{"loyer-montant-mensuel"},
		Errors:  []error{errors.New("boom")},
	}

	result := calc.CalculateMetrics("Test Scenario", sim)

	if result.ScenarioName != "Test Scenario" {
		t.Errorf("Expected scenario name 'Test Scenario', got %s", result.ScenarioName)
	}

	if !result.TotalAmount.Equal(decimal.RequireFromString("312.35")) {
		t.Errorf("Expected total amount 312.35, got %s", result.TotalAmount.String())
	}

	if result.EligibleCount() != 2 {
		t.Errorf("Expected 2 eligible dispositifs, got %v", result.Eligible)
	}

	if result.Eligible[0] != "aide-personnalisee-logement" || result.Eligible[1] != "mobili-jeune" {
		t.Errorf("Expected eligible dispositifs in key order, got %v", result.Eligible)
	}

	if len(result.Dropped) != 1 || len(result.Errors) != 1 || result.Errors[0] != "boom" {
		t.Errorf("Expected dropped answers and errors to be copied, got %v / %v", result.Dropped, result.Errors)
	}
}

func TestMetricsCalculator_CalculateMetrics_NilSimulation(t *testing.T) {
	result := NewMetricsCalculator().CalculateMetrics("empty", nil)

	if !result.TotalAmount.IsZero() || result.EligibleCount() != 0 {
		t.Errorf("Expected empty metrics, got %+v", result)
	}
}

func TestMetricsCalculator_CalculateComparison(t *testing.T) {
	calc := NewMetricsCalculator()

	base := ComparisonResult{
		ScenarioName: "Base",
		TotalAmount:  decimal.NewFromInt(200),
		Eligible:     []string{"pass-mobilite", "locapass"},
		Results: domain.SimulationResults{
			"pass-mobilite":             domain.AmountResult(decimal.NewFromInt(200)),
			"pass-mobilite-eligibilite": domain.BoolResult(true),
			"locapass-eligibilite":      domain.BoolResult(true),
		},
	}

	scenario := ComparisonResult{
		ScenarioName: "Alternative",
		TotalAmount:  decimal.NewFromInt(700),
		Eligible:     []string{"pass-mobilite", "aide-permis"},
		Results: domain.SimulationResults{
			"pass-mobilite":             domain.AmountResult(decimal.NewFromInt(200)),
			"pass-mobilite-eligibilite": domain.BoolResult(true),
			"aide-permis":               domain.AmountResult(decimal.NewFromInt(500)),
			"aide-permis-eligibilite":   domain.BoolResult(true),
		},
	}

	result := calc.CalculateComparison(scenario, base)

	if !result.AmountDiffFromBase.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected amount diff 500, got %s", result.AmountDiffFromBase.String())
	}

	if !result.AmountPctFromBase.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected amount change 250%%, got %s", result.AmountPctFromBase.String())
	}

	if len(result.Gained) != 1 || result.Gained[0] != "aide-permis" {
		t.Errorf("Expected aide-permis gained, got %v", result.Gained)
	}

	if len(result.Lost) != 1 || result.Lost[0] != "locapass" {
		t.Errorf("Expected locapass lost, got %v", result.Lost)
	}

	keys := make([]string, len(result.Changes))
	for i, c := range result.Changes {
		keys[i] = c.Key
	}
	want := "aide-permis,aide-permis-eligibilite,locapass-eligibilite"
	if strings.Join(keys, ",") != want {
		t.Errorf("Expected changes %s, got %v", want, keys)
	}
}

func TestMetricsCalculator_CalculateComparison_ZeroBase(t *testing.T) {
	calc := NewMetricsCalculator()

	result := calc.CalculateComparison(
		ComparisonResult{TotalAmount: decimal.NewFromInt(100)},
		ComparisonResult{TotalAmount: decimal.Zero},
	)

	if !result.AmountPctFromBase.IsZero() {
		t.Errorf("Expected no percentage against a zero base, got %s", result.AmountPctFromBase)
	}
}

func TestGenerateRecommendations(t *testing.T) {
	compSet := &ComparisonSet{
		BaseScenarioName: "base",
		BaseResult: &ComparisonResult{
			ScenarioName: "base",
			TotalAmount:  decimal.NewFromInt(200),
			Eligible:     []string{"pass-mobilite"},
		},
		AlternativeResults: []ComparisonResult{
			{
				ScenarioName: "base_boursier",
				TotalAmount:  decimal.NewFromInt(700),
				Eligible:     []string{"pass-mobilite", "aide-permis"},
			},
			{
				ScenarioName: "base_alternance",
				TotalAmount:  decimal.NewFromInt(150),
				Eligible:     []string{},
				Lost:         []string{"pass-mobilite"},
			},
		},
	}

	recommendations := GenerateRecommendations(compSet)

	if len(recommendations) != 3 {
		t.Fatalf("Expected 3 recommendations, got %d: %v", len(recommendations), recommendations)
	}

	if !strings.Contains(recommendations[0], "base_boursier") || !strings.Contains(recommendations[0], "500.00") {
		t.Errorf("Expected best amount recommendation, got %s", recommendations[0])
	}

	if !strings.Contains(recommendations[1], "1 dispositif") {
		t.Errorf("Expected eligibility recommendation, got %s", recommendations[1])
	}

	if !strings.Contains(recommendations[2], "base_alternance") || !strings.Contains(recommendations[2], "pass-mobilite") {
		t.Errorf("Expected lost eligibility warning, got %s", recommendations[2])
	}
}

func TestGenerateRecommendations_EmptyAlternatives(t *testing.T) {
	compSet := &ComparisonSet{
		BaseResult:         &ComparisonResult{ScenarioName: "base"},
		AlternativeResults: []ComparisonResult{},
	}

	if recommendations := GenerateRecommendations(compSet); len(recommendations) != 0 {
		t.Errorf("Expected no recommendations, got %v", recommendations)
	}
}

func TestGenerateRecommendations_NoBetterThanBase(t *testing.T) {
	compSet := &ComparisonSet{
		BaseResult: &ComparisonResult{
			ScenarioName: "base",
			TotalAmount:  decimal.NewFromInt(500),
			Eligible:     []string{"aide-permis"},
		},
		AlternativeResults: []ComparisonResult{
			{
				ScenarioName: "worse",
				TotalAmount:  decimal.NewFromInt(100),
				Eligible:     []string{"aide-permis"},
			},
		},
	}

	if recommendations := GenerateRecommendations(compSet); len(recommendations) != 0 {
		t.Errorf("Expected no recommendations when base is best, got %v", recommendations)
	}
}
