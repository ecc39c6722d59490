package breakeven

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localSchema() *domain.NormalizedSchema {
	return &domain.NormalizedSchema{
		ID:          "aides-locales",
		Engine:      domain.EnginePublicodes,
		Dispositifs: []string{"pass-mobilite", "aide-logement-jeune"},
		Steps: []domain.NormalizedStep{{
			ID: "profil",
			Pages: []domain.Page{{
				ID: "profil_page_1",
				Questions: []domain.Question{
					{ID: "age", Title: "Age", Type: domain.QuestionNumber},
					{ID: "salaire", Title: "Salaire", Type: domain.QuestionNumber},
					{ID: "boursier", Title: "Boursier", Type: domain.QuestionBoolean},
				},
			}},
		}},
	}
}

func newTestEngine(t *testing.T) *calculation.CalculationEngine {
	t.Helper()
	calc, err := calculation.NewCalculationEngine(nil, rules.RuleSet{Rules: []rules.Rule{
		{Dispositif: "pass-mobilite", Eligible: `answers["age"] >= 16 && answers["age"] <= 25`, Amount: "200"},
		{Dispositif: "aide-logement-jeune", Eligible: `answers["salaire"] < 1234.5`, Amount: "300"},
	}})
	require.NoError(t, err)
	return calc
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, *domain.NormalizedSchema, domain.Answers) (*calculation.Simulation, error) {
	return nil, errors.New("engine down")
}

func TestNewDefaultSolver(t *testing.T) {
	calc := newTestEngine(t)
	solver := NewDefaultSolver(calc)

	if solver.Runner != calc {
		t.Error("Expected Runner to match input")
	}
	defaults := DefaultSolverOptions()
	if solver.Options.MaxIterations != defaults.MaxIterations || !solver.Options.Tolerance.Equal(defaults.Tolerance) {
		t.Error("Expected default options to be applied")
	}
}

func TestSolver_FindThreshold_Integer(t *testing.T) {
	solver := NewDefaultSolver(newTestEngine(t))

	result, err := solver.FindThreshold(context.Background(), ThresholdRequest{
		Schema:      localSchema(),
		Base:        domain.Answers{"salaire": domain.IntAnswer(900)},
		Constraints: validConstraints(),
	})
	require.NoError(t, err)

	assert.True(t, result.Found, result.ConvergenceInfo)
	assert.True(t, result.EligibleAtMin)
	assert.False(t, result.EligibleAtMax)
	assert.True(t, result.Lower.Equal(decimal.NewFromInt(25)), "lower %s", result.Lower)
	assert.True(t, result.Upper.Equal(decimal.NewFromInt(26)), "upper %s", result.Upper)
	assert.True(t, result.AmountAtLower.Equal(decimal.NewFromInt(200)))
	assert.True(t, result.AmountAtUpper.IsZero())
}

func TestSolver_FindThreshold_Continuous(t *testing.T) {
	solver := NewDefaultSolver(newTestEngine(t))
	limit := decimal.RequireFromString("1234.5")

	result, err := solver.FindThreshold(context.Background(), ThresholdRequest{
		Schema: localSchema(),
		Base:   domain.Answers{"age": domain.IntAnswer(20)},
		Constraints: Constraints{
			Question:   "salaire",
			Dispositif: "aide-logement-jeune",
			Min:        decimal.Zero,
			Max:        decimal.NewFromInt(3000),
		},
	})
	require.NoError(t, err)

	require.True(t, result.Found, result.ConvergenceInfo)
	assert.True(t, result.Lower.LessThan(limit), "lower %s", result.Lower)
	assert.True(t, result.Upper.GreaterThanOrEqual(limit), "upper %s", result.Upper)
	assert.True(t, result.Upper.Sub(result.Lower).LessThanOrEqual(decimal.NewFromInt(1)))
}

func TestSolver_FindThreshold_NoChange(t *testing.T) {
	solver := NewDefaultSolver(newTestEngine(t))
	c := validConstraints()
	c.Min, c.Max = decimal.NewFromInt(17), decimal.NewFromInt(24)

	result, err := solver.FindThreshold(context.Background(), ThresholdRequest{
		Schema:      localSchema(),
		Base:        domain.Answers{"salaire": domain.IntAnswer(900)},
		Constraints: c,
	})
	require.NoError(t, err)

	assert.False(t, result.Found)
	assert.True(t, result.EligibleAtMin)
	assert.True(t, result.EligibleAtMax)
	assert.Equal(t, 2, result.Iterations)
}

func TestSolver_FindThreshold_MaxIterations(t *testing.T) {
	solver := NewDefaultSolver(newTestEngine(t))

	result, err := solver.FindThreshold(context.Background(), ThresholdRequest{
		Schema: localSchema(),
		Base:   domain.Answers{},
		Constraints: Constraints{
			Question:   "salaire",
			Dispositif: "aide-logement-jeune",
			Min:        decimal.Zero,
			Max:        decimal.NewFromInt(3000),
		},
		MaxIterations: 4,
	})
	require.NoError(t, err)

	assert.False(t, result.Found)
	assert.Equal(t, 4, result.Iterations)
	assert.Contains(t, result.ConvergenceInfo, "Max iterations (4)")
	assert.True(t, result.Lower.LessThan(result.Upper))
}

func TestSolver_FindThreshold_Errors(t *testing.T) {
	tests := []struct {
		name    string
		runner  Runner
		req     ThresholdRequest
		wantErr string
	}{
		{
			name:    "unknown question",
			runner:  newTestEngine(t),
			req:     ThresholdRequest{Schema: localSchema(), Constraints: Constraints{Question: "taille", Dispositif: "pass-mobilite", Max: decimal.NewFromInt(1)}},
			wantErr: "question taille not found",
		},
		{
			name:    "not a number question",
			runner:  newTestEngine(t),
			req:     ThresholdRequest{Schema: localSchema(), Constraints: Constraints{Question: "boursier", Dispositif: "pass-mobilite", Max: decimal.NewFromInt(1)}},
			wantErr: "not a number",
		},
		{
			name:    "unknown dispositif",
			runner:  newTestEngine(t),
			req:     ThresholdRequest{Schema: localSchema(), Constraints: Constraints{Question: "age", Dispositif: "cheque-energie", Max: decimal.NewFromInt(30)}},
			wantErr: "no result for cheque-energie-eligibilite",
		},
		{
			name:    "engine failure",
			runner:  failingRunner{},
			req:     ThresholdRequest{Schema: localSchema(), Constraints: validConstraints()},
			wantErr: "engine down",
		},
		{
			name:    "nil schema",
			runner:  newTestEngine(t),
			req:     ThresholdRequest{Constraints: validConstraints()},
			wantErr: "schema is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefaultSolver(tt.runner).FindThreshold(context.Background(), tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSolver_FindThreshold_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDefaultSolver(newTestEngine(t)).FindThreshold(ctx, ThresholdRequest{
		Schema:      localSchema(),
		Constraints: validConstraints(),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolver_Sweep(t *testing.T) {
	solver := NewDefaultSolver(newTestEngine(t))

	result, err := solver.Sweep(context.Background(), SweepRequest{
		Schema:   localSchema(),
		Base:     domain.Answers{"salaire": domain.IntAnswer(900)},
		Question: "age",
		From:     decimal.NewFromInt(14),
		To:       decimal.NewFromInt(30),
		Step:     decimal.NewFromInt(4),
	})
	require.NoError(t, err)

	require.Len(t, result.Points, 5) // 14, 18, 22, 26, 30
	assert.Equal(t, []string{"aide-logement-jeune"}, result.Points[0].Eligible)
	assert.True(t, result.Points[1].TotalAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, []int{1, 3}, result.Transitions())

	best, ok := result.MaxAmount()
	require.True(t, ok)
	assert.True(t, best.Value.Equal(decimal.NewFromInt(18)))

	out := (&TableFormatter{}).FormatSweep(result)
	assert.True(t, strings.Contains(out, "Montant maximal : 500.00 €"), out)
}

func TestSolver_Sweep_Errors(t *testing.T) {
	req := SweepRequest{
		Schema:   localSchema(),
		Question: "age",
		From:     decimal.NewFromInt(16),
		To:       decimal.NewFromInt(20),
		Step:     decimal.NewFromInt(1),
	}

	_, err := NewDefaultSolver(failingRunner{}).Sweep(context.Background(), req)
	assert.ErrorContains(t, err, "engine down")

	req.Question = "nom"
	_, err = NewDefaultSolver(newTestEngine(t)).Sweep(context.Background(), req)
	assert.ErrorContains(t, err, "question nom not found")
}

func TestFormat(t *testing.T) {
	result := &ThresholdResult{
		Question:      "age",
		Dispositif:    "pass-mobilite",
		Found:         true,
		Iterations:    6,
		EligibleAtMin: true,
		Lower:         decimal.NewFromInt(25),
		Upper:         decimal.NewFromInt(26),
		AmountAtLower: decimal.NewFromInt(200),
	}

	out, err := Format(result, "table")
	require.NoError(t, err)
	assert.Contains(t, out, "SEUIL D'ÉLIGIBILITÉ")
	assert.Contains(t, out, "Avant seuil")
	assert.Contains(t, out, "200.00 €")

	out, err = Format(result, "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"dispositif": "pass-mobilite"`)

	_, err = Format(result, "csv")
	assert.Error(t, err)
	_, err = Format("texte", "table")
	assert.Error(t, err)
}
