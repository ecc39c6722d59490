package breakeven

import (
	"context"

	"github.com/aides-simplifiees/simulateur/internal/compare"
	"github.com/shopspring/decimal"
)

// Sweep simulates every value of the range and records the total amount
// and the open dispositifs at each point
func (s *Solver) Sweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := checkQuestion(req.Schema, req.Question); err != nil {
		return nil, &BreakEvenError{Operation: "sweep", Message: "invalid question", Cause: err}
	}

	metrics := compare.NewMetricsCalculator()
	result := &SweepResult{SchemaID: req.Schema.ID, Question: req.Question}

	for v := req.From; v.LessThanOrEqual(req.To); v = v.Add(req.Step) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		sim, err := s.simulate(ctx, req.Schema, req.Base, req.Question, v)
		if err != nil {
			return nil, &BreakEvenError{
				Operation: "sweep",
				Message:   "failed to calculate scenario at " + v.String(),
				Cause:     err,
			}
		}

		m := metrics.CalculateMetrics(v.String(), sim)
		result.Points = append(result.Points, SweepPoint{
			Value:       v,
			TotalAmount: m.TotalAmount,
			Eligible:    m.Eligible,
			Errors:      m.Errors,
		})
	}

	return result, nil
}

// Transitions returns the indexes of the points whose eligible set differs
// from the previous point
func (r *SweepResult) Transitions() []int {
	var out []int
	for i := 1; i < len(r.Points); i++ {
		if !sameSet(r.Points[i-1].Eligible, r.Points[i].Eligible) {
			out = append(out, i)
		}
	}
	return out
}

// MaxAmount returns the first point with the highest total amount
func (r *SweepResult) MaxAmount() (SweepPoint, bool) {
	if len(r.Points) == 0 {
		return SweepPoint{}, false
	}
	best := r.Points[0]
	for _, p := range r.Points[1:] {
		if p.TotalAmount.GreaterThan(best.TotalAmount) {
			best = p
		}
	}
	return best, true
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			return false
		}
	}
	return true
}

// steps counts the points of a sweep range
func steps(from, to, step decimal.Decimal) int {
	if !step.IsPositive() || to.LessThan(from) {
		return 0
	}
	return int(to.Sub(from).Div(step).IntPart()) + 1
}
