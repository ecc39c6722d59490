package calculation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/shopspring/decimal"
)

// DerivedRule computes result keys from other result keys after
// extraction. Reads and Writes must list every key the rule touches.
type DerivedRule struct {
	Name   string
	Reads  []string
	Writes []string
	Apply  func(results domain.SimulationResults)
}

// DerivationCycleError is returned when derived rules depend on each
// other in a loop or in an order the pipeline would not honor.
type DerivationCycleError struct {
	Rules  []string
	Reason string
}

func (e *DerivationCycleError) Error() string {
	return fmt.Sprintf("derived rules %s: %s", strings.Join(e.Rules, " -> "), e.Reason)
}

// Pipeline runs derived rules once each, in declaration order
type Pipeline struct {
	rules    []DerivedRule
	producer map[string]int
}

// NewPipeline checks that the rules form an acyclic graph whose edges all
// point forward in declaration order, so that one pass computes everything.
func NewPipeline(rules ...DerivedRule) (*Pipeline, error) {
	p := &Pipeline{rules: rules, producer: make(map[string]int)}
	for i, r := range rules {
		if r.Apply == nil {
			return nil, fmt.Errorf("derived rule %s has no Apply function", r.Name)
		}
		for _, key := range r.Writes {
			if j, dup := p.producer[key]; dup {
				return nil, fmt.Errorf("derived rules %s and %s both write %s", rules[j].Name, r.Name, key)
			}
			p.producer[key] = i
		}
	}

	if cycle := p.findCycle(); cycle != nil {
		return nil, &DerivationCycleError{Rules: cycle, Reason: "cyclic dependency"}
	}

	for i, r := range rules {
		for _, key := range r.Reads {
			if j, ok := p.producer[key]; ok && j > i {
				return nil, &DerivationCycleError{
					Rules:  []string{rules[j].Name, r.Name},
					Reason: fmt.Sprintf("%s reads %s before it is derived", r.Name, key),
				}
			}
		}
	}
	return p, nil
}

// findCycle returns the rule names along a dependency loop, or nil
func (p *Pipeline) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(p.rules))
	var stack []int

	var visit func(i int) []string
	visit = func(i int) []string {
		state[i] = visiting
		stack = append(stack, i)
		for _, key := range p.rules[i].Reads {
			j, ok := p.producer[key]
			if !ok {
				continue
			}
			switch state[j] {
			case visiting:
				start := slices.Index(stack, j)
				var names []string
				for _, k := range stack[start:] {
					names = append(names, p.rules[k].Name)
				}
				return append(names, p.rules[j].Name)
			case unvisited:
				if cycle := visit(j); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[i] = done
		return nil
	}

	for i := range p.rules {
		if state[i] == unvisited {
			if cycle := visit(i); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Produces reports whether a rule writes key
func (p *Pipeline) Produces(key string) bool {
	_, ok := p.producer[key]
	return ok
}

// Inputs returns the non-derived keys a derived key ultimately depends on
func (p *Pipeline) Inputs(key string) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(k string)
	walk = func(k string) {
		i, ok := p.producer[k]
		if !ok {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
			return
		}
		for _, in := range p.rules[i].Reads {
			walk(in)
		}
	}
	walk(key)
	if len(out) == 1 && out[0] == key {
		return nil
	}
	return out
}

// Apply runs every rule once, in order
func (p *Pipeline) Apply(results domain.SimulationResults) {
	for _, r := range p.rules {
		r.Apply(results)
	}
}

// eligibleWhenPositive derives a boolean key from an amount. Zero and
// negative amounts are ineligible.
func eligibleWhenPositive(amountKey string) DerivedRule {
	target := amountKey + "-eligibilite"
	return DerivedRule{
		Name:   target,
		Reads:  []string{amountKey},
		Writes: []string{target},
		Apply: func(results domain.SimulationResults) {
			amount, ok := results.Amount(amountKey)
			if !ok {
				return
			}
			results[target] = domain.BoolResult(amount.IsPositive())
		},
	}
}

// flatAmountWhenEligible derives a fixed amount from an eligibility key
func flatAmountWhenEligible(eligibilityKey, amountKey string, amount int64) DerivedRule {
	return DerivedRule{
		Name:   amountKey,
		Reads:  []string{eligibilityKey},
		Writes: []string{amountKey},
		Apply: func(results domain.SimulationResults) {
			eligible, ok := results.Bool(eligibilityKey)
			if !ok {
				return
			}
			if eligible {
				results[amountKey] = domain.AmountResult(decimal.NewFromInt(amount))
			} else {
				results[amountKey] = domain.AmountResult(decimal.Zero)
			}
		},
	}
}

// DefaultRules returns the derived rules of the aides simulator, in order
func DefaultRules() []DerivedRule {
	return []DerivedRule{
		eligibleWhenPositive("aide-personnalisee-logement"),
		eligibleWhenPositive("mobili-jeune"),
		eligibleWhenPositive("aide-mobilite-parcoursup"),
		flatAmountWhenEligible("aide-mobilite-master-eligibilite", "aide-mobilite-master", 1000),
		flatAmountWhenEligible("locapass-eligibilite", "locapass", 1200),
	}
}
