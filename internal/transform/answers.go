package transform

import (
	"fmt"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/domain"
)

// SetAnswer sets (or replaces) the answer to one question.
type SetAnswer struct {
	Key   string
	Value domain.AnswerValue
}

func (sa *SetAnswer) Name() string {
	return "set_answer"
}

func (sa *SetAnswer) Description() string {
	return fmt.Sprintf("Set %s to %s", sa.Key, sa.Value)
}

func (sa *SetAnswer) Validate(base domain.Answers) error {
	if sa.Key == "" {
		return NewTransformError(sa.Name(), "validate", "answer key cannot be empty", nil)
	}
	if sa.Value.IsAbsent() {
		return NewTransformError(sa.Name(), "validate", "use unset_answer to remove an answer", nil)
	}
	if base == nil {
		return NewTransformError(sa.Name(), "validate", "base answers cannot be nil", nil)
	}
	return nil
}

func (sa *SetAnswer) Apply(base domain.Answers) (domain.Answers, error) {
	modified := base.Clone()
	modified[sa.Key] = sa.Value
	return modified, nil
}

// UnsetAnswer removes the answer to one question, as if it had been skipped.
type UnsetAnswer struct {
	Key string
}

func (ua *UnsetAnswer) Name() string {
	return "unset_answer"
}

func (ua *UnsetAnswer) Description() string {
	return fmt.Sprintf("Remove the answer to %s", ua.Key)
}

func (ua *UnsetAnswer) Validate(base domain.Answers) error {
	if ua.Key == "" {
		return NewTransformError(ua.Name(), "validate", "answer key cannot be empty", nil)
	}
	if base == nil {
		return NewTransformError(ua.Name(), "validate", "base answers cannot be nil", nil)
	}
	if _, exists := base[ua.Key]; !exists {
		return NewTransformError(ua.Name(), "validate", fmt.Sprintf("answer %s not found", ua.Key), nil)
	}
	return nil
}

func (ua *UnsetAnswer) Apply(base domain.Answers) (domain.Answers, error) {
	modified := base.Clone()
	delete(modified, ua.Key)
	return modified, nil
}

// SetChoices replaces the selection of a checkbox question. An empty list
// is a valid selection.
type SetChoices struct {
	Key     string
	Choices []string
}

func (sc *SetChoices) Name() string {
	return "set_choices"
}

func (sc *SetChoices) Description() string {
	if len(sc.Choices) == 0 {
		return fmt.Sprintf("Clear the selection of %s", sc.Key)
	}
	return fmt.Sprintf("Select %s for %s", strings.Join(sc.Choices, ", "), sc.Key)
}

func (sc *SetChoices) Validate(base domain.Answers) error {
	if sc.Key == "" {
		return NewTransformError(sc.Name(), "validate", "answer key cannot be empty", nil)
	}
	if base == nil {
		return NewTransformError(sc.Name(), "validate", "base answers cannot be nil", nil)
	}
	seen := make(map[string]bool, len(sc.Choices))
	for _, c := range sc.Choices {
		if c == "" {
			return NewTransformError(sc.Name(), "validate", "choice ids cannot be empty", nil)
		}
		if seen[c] {
			return NewTransformError(sc.Name(), "validate", fmt.Sprintf("choice %s selected twice", c), nil)
		}
		seen[c] = true
	}
	if existing, ok := base[sc.Key]; ok && existing.Kind() != domain.AnswerChoices {
		return NewTransformError(sc.Name(), "validate", fmt.Sprintf("answer %s is a %s, not a selection", sc.Key, existing.Kind()), nil)
	}
	return nil
}

func (sc *SetChoices) Apply(base domain.Answers) (domain.Answers, error) {
	modified := base.Clone()
	modified[sc.Key] = domain.ChoicesAnswer(sc.Choices...)
	return modified, nil
}
