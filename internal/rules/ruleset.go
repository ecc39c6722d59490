package rules

import (
	"fmt"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/shopspring/decimal"
)

// EligibilitySuffix is appended to a dispositif id to form its eligibility key
const EligibilitySuffix = "-eligibilite"

// Rule computes one locally evaluated dispositif. Eligible must yield a
// boolean; Amount, when set, must yield a number and is only evaluated for
// eligible households (ineligible ones get 0).
type Rule struct {
	Dispositif  string `yaml:"dispositif" json:"dispositif"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Eligible    string `yaml:"eligible" json:"eligible"`
	Amount      string `yaml:"amount,omitempty" json:"amount,omitempty"`
}

// RuleSet is the local rule base of publicodes schemas
type RuleSet struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Rule looks a rule up by dispositif id
func (rs *RuleSet) Rule(dispositif string) (*Rule, bool) {
	for i := range rs.Rules {
		if rs.Rules[i].Dispositif == dispositif {
			return &rs.Rules[i], true
		}
	}
	return nil, false
}

// Validate compiles every rule and rejects duplicates
func (rs *RuleSet) Validate(eval *Evaluator) error {
	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		if r.Dispositif == "" {
			return fmt.Errorf("rule %d: dispositif is required", i)
		}
		if seen[r.Dispositif] {
			return fmt.Errorf("rule %s: defined twice", r.Dispositif)
		}
		seen[r.Dispositif] = true
		if r.Eligible == "" {
			return fmt.Errorf("rule %s: eligible expression is required", r.Dispositif)
		}
		if err := eval.Check(r.Eligible); err != nil {
			return fmt.Errorf("rule %s: %w", r.Dispositif, err)
		}
		if r.Amount != "" {
			if err := eval.Check(r.Amount); err != nil {
				return fmt.Errorf("rule %s: %w", r.Dispositif, err)
			}
		}
	}
	return nil
}

// Evaluation holds the results of evaluating a rule set
type Evaluation struct {
	Results domain.SimulationResults
	Errors  []error
}

// Evaluate computes the requested dispositifs. Each one yields
// "<id>-eligibilite" and, for rules with an amount, "<id>". A dispositif
// without a rule or whose expression fails is reported in Errors and
// skipped; the others are still evaluated.
func (rs *RuleSet) Evaluate(eval *Evaluator, dispositifs []string, answers domain.Answers) *Evaluation {
	out := &Evaluation{Results: domain.SimulationResults{}}
	for _, id := range dispositifs {
		r, ok := rs.Rule(id)
		if !ok {
			out.Errors = append(out.Errors, fmt.Errorf("no rule for dispositif %s", id))
			continue
		}

		eligible, err := eval.Bool(r.Eligible, answers)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Errorf("dispositif %s: %w", id, err))
			continue
		}
		out.Results[id+EligibilitySuffix] = domain.BoolResult(eligible)

		if r.Amount == "" {
			continue
		}
		if !eligible {
			out.Results[id] = domain.AmountResult(decimal.Zero)
			continue
		}
		amount, err := eval.Amount(r.Amount, answers)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Errorf("dispositif %s: %w", id, err))
			continue
		}
		out.Results[id] = domain.AmountResult(amount)
	}
	return out
}
