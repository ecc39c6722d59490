// Package rules evaluates boolean and numeric CEL expressions over survey
// answers: question visibility conditions and the local dispositif rules of
// publicodes schemas.
package rules

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"
)

// AnswersVariable is the name answers are bound to inside expressions.
// Keys contain dashes, so expressions index it: answers["statut-professionnel"].
const AnswersVariable = "answers"

// ErrUnanswered is wrapped by evaluation errors caused by indexing answers
// with a question that has no answer.
var ErrUnanswered = errors.New("unanswered question")

// ExpressionError reports an expression that failed to compile or evaluate
type ExpressionError struct {
	Expression string
	Stage      string
	Err        error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("%s error in %q: %v", e.Stage, e.Expression, e.Err)
}

func (e *ExpressionError) Unwrap() error {
	return e.Err
}

// Evaluator compiles expressions once and caches the programs. It is safe
// for concurrent use.
type Evaluator struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewEvaluator creates an evaluator with answers declared as a map of
// dynamic values.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(AnswersVariable, cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, programs: make(map[string]cel.Program)}, nil
}

// Check compiles expr without evaluating it
func (e *Evaluator) Check(expr string) error {
	_, err := e.program(expr)
	return err
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.programs[expr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, hit = e.programs[expr]; hit {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, &ExpressionError{Expression: expr, Stage: "compile", Err: issues.Err()}
	}
	prg, err := e.env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
	if err != nil {
		return nil, &ExpressionError{Expression: expr, Stage: "program", Err: err}
	}
	e.programs[expr] = prg
	return prg, nil
}

func (e *Evaluator) eval(expr string, answers domain.Answers) (any, error) {
	prg, err := e.program(expr)
	if err != nil {
		return nil, err
	}
	out, _, err := prg.Eval(map[string]any{AnswersVariable: activation(answers)})
	if err != nil {
		if key, ok := strings.CutPrefix(err.Error(), "no such key: "); ok {
			err = fmt.Errorf("%w: %s", ErrUnanswered, key)
		}
		return nil, &ExpressionError{Expression: expr, Stage: "eval", Err: err}
	}
	return out.Value(), nil
}

// Bool evaluates expr and requires a boolean result
func (e *Evaluator) Bool(expr string, answers domain.Answers) (bool, error) {
	v, err := e.eval(expr, answers)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, &ExpressionError{Expression: expr, Stage: "eval", Err: fmt.Errorf("result %v is not a boolean", v)}
	}
	return b, nil
}

// Amount evaluates expr and requires a numeric result
func (e *Evaluator) Amount(expr string, answers domain.Answers) (decimal.Decimal, error) {
	v, err := e.eval(expr, answers)
	if err != nil {
		return decimal.Zero, err
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	default:
		return decimal.Zero, &ExpressionError{Expression: expr, Stage: "eval", Err: fmt.Errorf("result %v is not a number", v)}
	}
}

// activation binds present answers only, so `"key" in answers` tests
// whether a question was answered and indexing a missing one fails with
// ErrUnanswered.
func activation(answers domain.Answers) map[string]any {
	out := make(map[string]any, len(answers))
	for key, v := range answers {
		if v.IsAbsent() {
			continue
		}
		out[key] = v.Native()
	}
	return out
}
