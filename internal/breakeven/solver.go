package breakeven

import (
	"context"
	"fmt"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/rules"
	"github.com/aides-simplifiees/simulateur/internal/transform"
	"github.com/shopspring/decimal"
)

// Runner runs one simulation. *calculation.CalculationEngine implements it.
type Runner interface {
	Run(ctx context.Context, n *domain.NormalizedSchema, answers domain.Answers) (*calculation.Simulation, error)
}

// Solver finds the values of a numeric answer where a dispositif opens or
// closes
type Solver struct {
	Runner  Runner
	Options SolverOptions
}

// NewSolver creates a new break-even solver
func NewSolver(runner Runner, options SolverOptions) *Solver {
	return &Solver{
		Runner:  runner,
		Options: options,
	}
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(runner Runner) *Solver {
	return NewSolver(runner, DefaultSolverOptions())
}

// FindThreshold bisects [Min, Max] for the value where the eligibility to
// the dispositif changes. Eligibility is assumed to change once in the
// range; when it is the same at both bounds the result is not Found.
func (s *Solver) FindThreshold(ctx context.Context, req ThresholdRequest) (*ThresholdResult, error) {
	if err := req.Constraints.Validate(); err != nil {
		return nil, err
	}
	if err := checkQuestion(req.Schema, req.Constraints.Question); err != nil {
		return nil, &BreakEvenError{Operation: "find_threshold", Message: "invalid question", Cause: err}
	}

	// Apply defaults
	if req.MaxIterations == 0 {
		req.MaxIterations = s.Options.MaxIterations
	}
	if req.Tolerance.IsZero() {
		req.Tolerance = s.Options.Tolerance
	}
	if req.Constraints.Integer && req.Tolerance.LessThan(decimal.NewFromInt(1)) {
		req.Tolerance = decimal.NewFromInt(1)
	}

	c := req.Constraints
	lo, hi := c.Min, c.Max
	loEligible, loAmount, err := s.probe(ctx, req, lo)
	if err != nil {
		return nil, err
	}
	hiEligible, hiAmount, err := s.probe(ctx, req, hi)
	if err != nil {
		return nil, err
	}

	result := &ThresholdResult{
		Question:      c.Question,
		Dispositif:    c.Dispositif,
		Iterations:    2,
		EligibleAtMin: loEligible,
		EligibleAtMax: hiEligible,
	}
	if loEligible == hiEligible {
		result.Lower, result.Upper = lo, hi
		result.AmountAtLower, result.AmountAtUpper = loAmount, hiAmount
		result.ConvergenceInfo = "eligibility does not change between min and max"
		return result, nil
	}

	two := decimal.NewFromInt(2)
	for {
		if hi.Sub(lo).LessThanOrEqual(req.Tolerance) {
			result.Found = true
			result.ConvergenceInfo = "Binary search converged"
			break
		}
		if result.Iterations >= req.MaxIterations {
			result.ConvergenceInfo = fmt.Sprintf("Max iterations (%d) reached", req.MaxIterations)
			break
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mid := lo.Add(hi).Div(two)
		if c.Integer {
			mid = mid.Floor()
		}
		result.Iterations++

		eligible, amount, err := s.probe(ctx, req, mid)
		if err != nil {
			return nil, err
		}
		if eligible == loEligible {
			lo, loAmount = mid, amount
		} else {
			hi, hiAmount = mid, amount
		}
	}

	result.Lower, result.Upper = lo, hi
	result.AmountAtLower, result.AmountAtUpper = loAmount, hiAmount
	return result, nil
}

// probe simulates the base answers with the question set to v
func (s *Solver) probe(ctx context.Context, req ThresholdRequest, v decimal.Decimal) (bool, decimal.Decimal, error) {
	sim, err := s.simulate(ctx, req.Schema, req.Base, req.Constraints.Question, v)
	if err != nil {
		return false, decimal.Zero, &BreakEvenError{
			Operation: "find_threshold",
			Message:   "failed to calculate scenario at " + v.String(),
			Cause:     err,
		}
	}

	key := req.Constraints.Dispositif + rules.EligibilitySuffix
	eligible, ok := sim.Results.Bool(key)
	if !ok {
		msg := "no result for " + key
		if errs := sim.ErrorMessages(); len(errs) > 0 {
			msg += " (" + strings.Join(errs, "; ") + ")"
		}
		return false, decimal.Zero, &BreakEvenError{Operation: "find_threshold", Message: msg}
	}
	amount, _ := sim.Results.Amount(req.Constraints.Dispositif)
	return eligible, amount, nil
}

func (s *Solver) simulate(ctx context.Context, n *domain.NormalizedSchema, base domain.Answers, question string, v decimal.Decimal) (*calculation.Simulation, error) {
	if base == nil {
		base = domain.Answers{}
	}
	answers, err := transform.ApplyTransforms(base, []transform.AnswerTransform{
		&transform.SetAnswer{Key: question, Value: domain.NumberAnswer(v)},
	})
	if err != nil {
		return nil, err
	}
	return s.Runner.Run(ctx, n, answers)
}

func checkQuestion(n *domain.NormalizedSchema, id string) error {
	if n == nil {
		return fmt.Errorf("schema is nil")
	}
	q, ok := n.Question(id)
	if !ok {
		return fmt.Errorf("question %s not found in %s", id, n.ID)
	}
	if q.Type != domain.QuestionNumber {
		return fmt.Errorf("question %s is a %s question, not a number", id, q.Type)
	}
	return nil
}
