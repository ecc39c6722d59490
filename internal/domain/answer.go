package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AnswerKind discriminates the shapes an answer can take
type AnswerKind int

const (
	AnswerAbsent AnswerKind = iota
	AnswerString
	AnswerNumber
	AnswerBoolean
	AnswerChoices
	AnswerCombobox
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerAbsent:
		return "absent"
	case AnswerString:
		return "string"
	case AnswerNumber:
		return "number"
	case AnswerBoolean:
		return "boolean"
	case AnswerChoices:
		return "choices"
	case AnswerCombobox:
		return "combobox"
	default:
		return "unknown"
	}
}

// ComboboxValue is the {text, value} pair picked from an autocomplete list.
// Text is what the user saw, Value is the code sent to the engine.
type ComboboxValue struct {
	Text  string `yaml:"text" json:"text"`
	Value string `yaml:"value" json:"value"`
}

// AnswerValue holds one survey answer. The zero value is an absent answer.
type AnswerValue struct {
	kind    AnswerKind
	str     string
	num     decimal.Decimal
	boolean bool
	choices []string
	combo   ComboboxValue
}

// Answers maps question ids to answers. Missing keys are unanswered questions.
type Answers map[string]AnswerValue

func StringAnswer(s string) AnswerValue { return AnswerValue{kind: AnswerString, str: s} }

func NumberAnswer(d decimal.Decimal) AnswerValue { return AnswerValue{kind: AnswerNumber, num: d} }

func IntAnswer(i int64) AnswerValue { return NumberAnswer(decimal.NewFromInt(i)) }

func BoolAnswer(b bool) AnswerValue { return AnswerValue{kind: AnswerBoolean, boolean: b} }

// ChoicesAnswer copies the selection so callers may reuse their slice.
func ChoicesAnswer(choices ...string) AnswerValue {
	return AnswerValue{kind: AnswerChoices, choices: append([]string{}, choices...)}
}

func ComboboxAnswer(text, value string) AnswerValue {
	return AnswerValue{kind: AnswerCombobox, combo: ComboboxValue{Text: text, Value: value}}
}

func (v AnswerValue) Kind() AnswerKind { return v.kind }

func (v AnswerValue) IsAbsent() bool { return v.kind == AnswerAbsent }

// AsString returns the string payload; ok is false for any other kind.
func (v AnswerValue) AsString() (string, bool) { return v.str, v.kind == AnswerString }

func (v AnswerValue) AsNumber() (decimal.Decimal, bool) { return v.num, v.kind == AnswerNumber }

func (v AnswerValue) AsBool() (bool, bool) { return v.boolean, v.kind == AnswerBoolean }

func (v AnswerValue) AsChoices() ([]string, bool) {
	return slices.Clone(v.choices), v.kind == AnswerChoices
}

func (v AnswerValue) AsCombobox() (ComboboxValue, bool) { return v.combo, v.kind == AnswerCombobox }

// String renders the answer for logs and error messages.
func (v AnswerValue) String() string {
	switch v.kind {
	case AnswerString:
		return fmt.Sprintf("%q", v.str)
	case AnswerNumber:
		return v.num.String()
	case AnswerBoolean:
		return fmt.Sprintf("%t", v.boolean)
	case AnswerChoices:
		return fmt.Sprintf("%q", v.choices)
	case AnswerCombobox:
		return fmt.Sprintf("%q (%s)", v.combo.Value, v.combo.Text)
	default:
		return "<absent>"
	}
}

// EngineValue converts the answer into the plain value written to a
// calculation request: strings, float64 numbers, booleans, the combobox code.
// Multi-select answers have no scalar form and need a dispatch function.
func (v AnswerValue) EngineValue() (any, error) {
	switch v.kind {
	case AnswerString:
		return v.str, nil
	case AnswerNumber:
		return v.num.InexactFloat64(), nil
	case AnswerBoolean:
		return v.boolean, nil
	case AnswerCombobox:
		return v.combo.Value, nil
	case AnswerChoices:
		return nil, fmt.Errorf("multi-select answer has no scalar engine value")
	default:
		return nil, fmt.Errorf("answer is absent")
	}
}

// Native returns a plain Go value suitable for expression evaluation.
func (v AnswerValue) Native() any {
	switch v.kind {
	case AnswerString:
		return v.str
	case AnswerNumber:
		return v.num.InexactFloat64()
	case AnswerBoolean:
		return v.boolean
	case AnswerChoices:
		return slices.Clone(v.choices)
	case AnswerCombobox:
		return v.combo.Value
	default:
		return nil
	}
}

// Equal reports whether two answers have the same kind and payload.
func (v AnswerValue) Equal(other AnswerValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case AnswerString:
		return v.str == other.str
	case AnswerNumber:
		return v.num.Equal(other.num)
	case AnswerBoolean:
		return v.boolean == other.boolean
	case AnswerChoices:
		return slices.Equal(v.choices, other.choices)
	case AnswerCombobox:
		return v.combo == other.combo
	default:
		return true
	}
}

// CheckShape verifies the answer has the single shape allowed for a question type.
// Absent answers are always accepted.
func (v AnswerValue) CheckShape(t QuestionType) error {
	if v.kind == AnswerAbsent {
		return nil
	}
	want, err := t.AnswerKind()
	if err != nil {
		return err
	}
	if v.kind != want {
		return fmt.Errorf("question type %s expects a %s answer, got %s", t, want, v.kind)
	}
	return nil
}

// MarshalJSON writes the answer back in its loose JSON form.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case AnswerString:
		return json.Marshal(v.str)
	case AnswerNumber:
		return []byte(v.num.String()), nil
	case AnswerBoolean:
		return json.Marshal(v.boolean)
	case AnswerChoices:
		if v.choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.choices)
	case AnswerCombobox:
		return json.Marshal(v.combo)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes string, number, boolean, string array, {text,value}
// or null into the matching answer kind.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = StringAnswer(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = BoolAnswer(b)
	case '[':
		var choices []string
		if err := json.Unmarshal(trimmed, &choices); err != nil {
			return fmt.Errorf("multi-select answer must be a list of strings: %w", err)
		}
		*v = ChoicesAnswer(choices...)
	case '{':
		var combo ComboboxValue
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&combo); err != nil {
			return fmt.Errorf("combobox answer must be {text, value}: %w", err)
		}
		*v = AnswerValue{kind: AnswerCombobox, combo: combo}
	default:
		d, err := decimal.NewFromString(string(trimmed))
		if err != nil {
			return fmt.Errorf("unsupported answer value %s: %w", trimmed, err)
		}
		*v = NumberAnswer(d)
	}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for answers files written in YAML.
func (v *AnswerValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			*v = AnswerValue{}
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*v = BoolAnswer(b)
		case "!!int", "!!float":
			d, err := decimal.NewFromString(node.Value)
			if err != nil {
				return fmt.Errorf("line %d: invalid number %q: %w", node.Line, node.Value, err)
			}
			*v = NumberAnswer(d)
		default:
			*v = StringAnswer(node.Value)
		}
	case yaml.SequenceNode:
		var choices []string
		if err := node.Decode(&choices); err != nil {
			return fmt.Errorf("line %d: multi-select answer must be a list of strings: %w", node.Line, err)
		}
		*v = ChoicesAnswer(choices...)
	case yaml.MappingNode:
		var combo ComboboxValue
		if err := node.Decode(&combo); err != nil {
			return fmt.Errorf("line %d: combobox answer must be {text, value}: %w", node.Line, err)
		}
		*v = AnswerValue{kind: AnswerCombobox, combo: combo}
	default:
		return fmt.Errorf("line %d: unsupported answer node", node.Line)
	}
	return nil
}

// Clone returns a copy of the answer set safe to mutate.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if v.kind == AnswerChoices {
			v.choices = slices.Clone(v.choices)
		}
		out[k] = v
	}
	return out
}

// Keys returns the answered question ids in sorted order.
func (a Answers) Keys() []string {
	keys := make([]string, 0, len(a))
	for k, v := range a {
		if v.IsAbsent() {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
