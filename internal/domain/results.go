package domain

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// ResultKind discriminates result values
type ResultKind int

const (
	ResultBoolean ResultKind = iota + 1
	ResultAmount
	ResultText
)

// ResultValue is one extracted or derived simulation result
type ResultValue struct {
	Kind    ResultKind
	Boolean bool
	Amount  decimal.Decimal
	Text    string
}

func BoolResult(b bool) ResultValue { return ResultValue{Kind: ResultBoolean, Boolean: b} }

func AmountResult(d decimal.Decimal) ResultValue { return ResultValue{Kind: ResultAmount, Amount: d} }

func TextResult(s string) ResultValue { return ResultValue{Kind: ResultText, Text: s} }

// ResultFromEngine converts a value decoded from an engine response.
func ResultFromEngine(v any) (ResultValue, error) {
	switch t := v.(type) {
	case bool:
		return BoolResult(t), nil
	case float64:
		return AmountResult(decimal.NewFromFloat(t)), nil
	case int:
		return AmountResult(decimal.NewFromInt(int64(t))), nil
	case int64:
		return AmountResult(decimal.NewFromInt(t)), nil
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return ResultValue{}, fmt.Errorf("invalid number %s: %w", t, err)
		}
		return AmountResult(d), nil
	case decimal.Decimal:
		return AmountResult(t), nil
	case string:
		return TextResult(t), nil
	default:
		return ResultValue{}, fmt.Errorf("unsupported result value %v (%T)", v, v)
	}
}

func (r ResultValue) String() string {
	switch r.Kind {
	case ResultBoolean:
		if r.Boolean {
			return "oui"
		}
		return "non"
	case ResultAmount:
		return r.Amount.StringFixed(2)
	case ResultText:
		return r.Text
	default:
		return ""
	}
}

// MarshalJSON writes booleans and strings as-is and amounts as JSON numbers.
func (r ResultValue) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResultBoolean:
		return json.Marshal(r.Boolean)
	case ResultAmount:
		return []byte(r.Amount.String()), nil
	case ResultText:
		return json.Marshal(r.Text)
	default:
		return []byte("null"), nil
	}
}

// SimulationResults maps survey result keys to values
type SimulationResults map[string]ResultValue

// Keys returns result keys sorted
func (r SimulationResults) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Amount returns the amount stored under key; ok is false if the key is
// missing or not an amount.
func (r SimulationResults) Amount(key string) (decimal.Decimal, bool) {
	v, ok := r[key]
	if !ok || v.Kind != ResultAmount {
		return decimal.Zero, false
	}
	return v.Amount, true
}

// Bool returns the boolean stored under key
func (r SimulationResults) Bool(key string) (bool, bool) {
	v, ok := r[key]
	if !ok || v.Kind != ResultBoolean {
		return false, false
	}
	return v.Boolean, true
}
