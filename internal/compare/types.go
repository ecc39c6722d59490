package compare

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/rules"
	"github.com/shopspring/decimal"
)

// ResultChange is one result whose value differs from the base scenario.
// A missing side has the zero ResultValue.
type ResultChange struct {
	Key   string             `json:"key"`
	Base  domain.ResultValue `json:"base"`
	Value domain.ResultValue `json:"value"`
}

// ComparisonResult represents a single scenario with its calculated metrics
type ComparisonResult struct {
	ScenarioName string                   `json:"scenarioName"`
	Description  string                   `json:"description,omitempty"`
	Results      domain.SimulationResults `json:"results"`
	Dropped      []string                 `json:"droppedAnswers,omitempty"`
	Errors       []string                 `json:"errors,omitempty"`

	// Key Metrics
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Eligible    []string        `json:"eligible"`

	// Comparison to Base
	AmountDiffFromBase decimal.Decimal `json:"amountDiffFromBase"`
	AmountPctFromBase  decimal.Decimal `json:"amountPctFromBase"`
	Gained             []string        `json:"gained,omitempty"`
	Lost               []string        `json:"lost,omitempty"`
	Changes            []ResultChange  `json:"changes,omitempty"`
}

// EligibleCount is the number of dispositifs the scenario is eligible to
func (r *ComparisonResult) EligibleCount() int {
	return len(r.Eligible)
}

// ComparisonSet represents a collection of scenario comparisons
type ComparisonSet struct {
	SchemaID           string             `json:"schemaId"`
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
	AnswersPath        string             `json:"answersPath,omitempty"`
}

// MetricsCalculator extracts key metrics from simulations
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes the metrics of one simulation. Amounts are
// summed over every amount result; eligibility comes from the
// "<id>-eligibilite" booleans.
func (mc *MetricsCalculator) CalculateMetrics(name string, sim *calculation.Simulation) ComparisonResult {
	result := ComparisonResult{
		ScenarioName: name,
		Results:      domain.SimulationResults{},
		TotalAmount:  decimal.Zero,
		Eligible:     []string{},
	}
	if sim == nil {
		return result
	}

	result.Dropped = slices.Clone(sim.Dropped)
	result.Errors = sim.ErrorMessages()
	for _, key := range sim.Results.Keys() {
		v := sim.Results[key]
		result.Results[key] = v
		switch v.Kind {
		case domain.ResultAmount:
			result.TotalAmount = result.TotalAmount.Add(v.Amount)
		case domain.ResultBoolean:
			if id, ok := strings.CutSuffix(key, rules.EligibilitySuffix); ok && v.Boolean {
				result.Eligible = append(result.Eligible, id)
			}
		}
	}
	return result
}

// CalculateComparison computes comparison metrics between a scenario and a base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.AmountDiffFromBase = scenario.TotalAmount.Sub(base.TotalAmount)

	if !base.TotalAmount.IsZero() {
		scenario.AmountPctFromBase = scenario.AmountDiffFromBase.
			Div(base.TotalAmount).
			Mul(decimal.NewFromInt(100))
	}

	scenario.Gained = difference(scenario.Eligible, base.Eligible)
	scenario.Lost = difference(base.Eligible, scenario.Eligible)
	scenario.Changes = changes(base.Results, scenario.Results)

	return scenario
}

// difference lists the entries of a missing from b, in a's order
func difference(a, b []string) []string {
	var out []string
	for _, id := range a {
		if !slices.Contains(b, id) {
			out = append(out, id)
		}
	}
	return out
}

func changes(base, alt domain.SimulationResults) []ResultChange {
	keys := base.Keys()
	for _, k := range alt.Keys() {
		if _, ok := base[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var out []ResultChange
	for _, k := range keys {
		b, a := base[k], alt[k]
		if sameResult(b, a) {
			continue
		}
		out = append(out, ResultChange{Key: k, Base: b, Value: a})
	}
	return out
}

func sameResult(a, b domain.ResultValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case domain.ResultAmount:
		return a.Amount.Equal(b.Amount)
	case domain.ResultBoolean:
		return a.Boolean == b.Boolean
	default:
		return a.Text == b.Text
	}
}

// GenerateRecommendations creates recommendations based on comparison results
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if len(compSet.AlternativeResults) == 0 || compSet.BaseResult == nil {
		return recommendations
	}

	// Find best scenario by total amount
	bestAmount := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.TotalAmount.GreaterThan(bestAmount.TotalAmount) {
			bestAmount = alt
		}
	}

	if bestAmount != compSet.BaseResult {
		diff := bestAmount.TotalAmount.Sub(compSet.BaseResult.TotalAmount)
		recommendations = append(recommendations,
			"Meilleur montant : "+bestAmount.ScenarioName+" apporte "+diff.StringFixed(2)+
				" € de plus par mois que la situation de base")
	}

	// Find the scenario opening the most dispositifs
	mostEligible := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.EligibleCount() > mostEligible.EligibleCount() {
			mostEligible = alt
		}
	}

	if mostEligible != compSet.BaseResult {
		recommendations = append(recommendations,
			fmt.Sprintf("Plus de droits : %s ouvre %d dispositif(s) supplémentaire(s)",
				mostEligible.ScenarioName, mostEligible.EligibleCount()-compSet.BaseResult.EligibleCount()))
	}

	// Warn about lost eligibility
	for _, alt := range compSet.AlternativeResults {
		if len(alt.Lost) > 0 {
			recommendations = append(recommendations,
				"Attention : "+alt.ScenarioName+" fait perdre "+strings.Join(alt.Lost, ", "))
		}
	}

	return recommendations
}
