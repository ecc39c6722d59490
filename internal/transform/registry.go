package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (AnswerTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("set_answer", createSetAnswer)
	registry.Register("unset_answer", createUnsetAnswer)
	registry.Register("set_choices", createSetChoices)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (AnswerTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the names of all registered transforms, sorted.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name:param1=value1,param2=value2"
// Example: "set_answer:key=loyer-montant-mensuel,value=650"
func (r *TransformRegistry) ParseTransformSpec(spec string) (AnswerTransform, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	name := strings.TrimSpace(parts[0])
	paramsStr := strings.TrimSpace(parts[1])

	params := make(map[string]string)
	if paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			kv := strings.SplitN(paramPair, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return r.Create(name, params)
}

// ParseTransformSpecs parses every spec in order
func (r *TransformRegistry) ParseTransformSpecs(specs []string) ([]AnswerTransform, error) {
	out := make([]AnswerTransform, 0, len(specs))
	for _, spec := range specs {
		t, err := r.ParseTransformSpec(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Factory functions for each transform

func createSetAnswer(params map[string]string) (AnswerTransform, error) {
	key, ok := params["key"]
	if !ok {
		return nil, fmt.Errorf("set_answer requires 'key' parameter")
	}

	raw, ok := params["value"]
	if !ok {
		return nil, fmt.Errorf("set_answer requires 'value' parameter")
	}

	value, err := parseAnswerValue(raw, params["type"], params["text"])
	if err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}

	return &SetAnswer{Key: key, Value: value}, nil
}

func createUnsetAnswer(params map[string]string) (AnswerTransform, error) {
	key, ok := params["key"]
	if !ok {
		return nil, fmt.Errorf("unset_answer requires 'key' parameter")
	}

	return &UnsetAnswer{Key: key}, nil
}

// createSetChoices reads choices separated by '|' since ',' separates parameters.
func createSetChoices(params map[string]string) (AnswerTransform, error) {
	key, ok := params["key"]
	if !ok {
		return nil, fmt.Errorf("set_choices requires 'key' parameter")
	}

	raw, ok := params["choices"]
	if !ok {
		return nil, fmt.Errorf("set_choices requires 'choices' parameter")
	}

	var choices []string
	if raw != "" {
		for _, c := range strings.Split(raw, "|") {
			choices = append(choices, strings.TrimSpace(c))
		}
	}

	return &SetChoices{Key: key, Choices: choices}, nil
}

// parseAnswerValue builds an answer from its textual form. Without an
// explicit type the value is read as a YAML scalar, so "650" is a number,
// "true" a boolean and anything else a string. A text parameter makes it a
// combobox answer.
func parseAnswerValue(raw, kind, text string) (domain.AnswerValue, error) {
	if text != "" {
		return domain.ComboboxAnswer(text, raw), nil
	}

	switch kind {
	case "string", "date":
		return domain.StringAnswer(raw), nil
	case "number":
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.AnswerValue{}, err
		}
		return domain.NumberAnswer(d), nil
	case "boolean":
		switch raw {
		case "true", "oui":
			return domain.BoolAnswer(true), nil
		case "false", "non":
			return domain.BoolAnswer(false), nil
		}
		return domain.AnswerValue{}, fmt.Errorf("%q is not a boolean", raw)
	case "":
	default:
		return domain.AnswerValue{}, fmt.Errorf("unknown value type %q", kind)
	}

	var v domain.AnswerValue
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return domain.AnswerValue{}, err
	}
	if v.IsAbsent() {
		return domain.AnswerValue{}, fmt.Errorf("value cannot be empty")
	}
	return v, nil
}
