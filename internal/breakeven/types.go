package breakeven

import (
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/shopspring/decimal"
)

// MaxSweepPoints bounds the number of simulations a sweep may run
const MaxSweepPoints = 500

// Constraints define the numeric answer to vary and its bounds
type Constraints struct {
	// Question is the id of a number question
	Question string `json:"question"`
	// Dispositif whose eligibility is searched
	Dispositif string `json:"dispositif"`

	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`

	// Integer restricts the search to whole values (ages, counts)
	Integer bool `json:"integer,omitempty"`
}

// ThresholdRequest defines the parameters of a threshold search
type ThresholdRequest struct {
	Schema        *domain.NormalizedSchema
	Base          domain.Answers
	Constraints   Constraints
	MaxIterations int             // Maximum solver iterations
	Tolerance     decimal.Decimal // Width at which the bisection stops
}

// ThresholdResult is the boundary between two values of the question
// where the eligibility to the dispositif changes. Lower keeps the
// eligibility found at Min, Upper the one found at Max.
type ThresholdResult struct {
	Question        string `json:"question"`
	Dispositif      string `json:"dispositif"`
	Found           bool   `json:"found"`
	Iterations      int    `json:"iterations"`
	ConvergenceInfo string `json:"convergenceInfo"`

	EligibleAtMin bool `json:"eligibleAtMin"`
	EligibleAtMax bool `json:"eligibleAtMax"`

	Lower         decimal.Decimal `json:"lower"`
	Upper         decimal.Decimal `json:"upper"`
	AmountAtLower decimal.Decimal `json:"amountAtLower"`
	AmountAtUpper decimal.Decimal `json:"amountAtUpper"`
}

// SweepRequest simulates the question from From to To by Step
type SweepRequest struct {
	Schema   *domain.NormalizedSchema
	Base     domain.Answers
	Question string
	From     decimal.Decimal
	To       decimal.Decimal
	Step     decimal.Decimal
}

// SweepPoint is the outcome of one simulation of a sweep
type SweepPoint struct {
	Value       decimal.Decimal `json:"value"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Eligible    []string        `json:"eligible"`
	Errors      []string        `json:"errors,omitempty"`
}

// SweepResult lists the sweep points in increasing value order
type SweepResult struct {
	SchemaID string       `json:"schemaId"`
	Question string       `json:"question"`
	Points   []SweepPoint `json:"points"`
}

// SolverOptions configures the solver algorithm
type SolverOptions struct {
	Tolerance     decimal.Decimal // Convergence tolerance
	MaxIterations int             // Maximum iterations
}

// DefaultSolverOptions returns default solver configuration
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Tolerance:     decimal.NewFromInt(1), // 1 € or one year
		MaxIterations: 50,
	}
}

// Validate checks if constraints are internally consistent
func (c *Constraints) Validate() error {
	if c.Question == "" {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "question is required",
		}
	}
	if c.Dispositif == "" {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "dispositif is required",
		}
	}
	if !c.Min.LessThan(c.Max) {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "min must be lower than max",
		}
	}
	if c.Integer && (!isWhole(c.Min) || !isWhole(c.Max)) {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "integer search needs whole bounds",
		}
	}
	return nil
}

// Validate checks the sweep range
func (r *SweepRequest) Validate() error {
	if r.Question == "" {
		return &BreakEvenError{Operation: "validate_sweep", Message: "question is required"}
	}
	if !r.Step.IsPositive() {
		return &BreakEvenError{Operation: "validate_sweep", Message: "step must be positive"}
	}
	if r.To.LessThan(r.From) {
		return &BreakEvenError{Operation: "validate_sweep", Message: "to cannot be lower than from"}
	}
	if steps(r.From, r.To, r.Step) > MaxSweepPoints {
		return &BreakEvenError{
			Operation: "validate_sweep",
			Message:   "too many points, raise the step",
		}
	}
	return nil
}

func isWhole(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}

// BreakEvenError represents errors from break-even solver
type BreakEvenError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *BreakEvenError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *BreakEvenError) Unwrap() error {
	return e.Cause
}
