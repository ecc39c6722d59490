package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// QuestionType is the discriminant of a survey question
type QuestionType string

const (
	QuestionRadio    QuestionType = "radio"
	QuestionCheckbox QuestionType = "checkbox"
	QuestionNumber   QuestionType = "number"
	QuestionDate     QuestionType = "date"
	QuestionCombobox QuestionType = "combobox"
	QuestionBoolean  QuestionType = "boolean"
)

// QuestionTypes lists every supported question type in display order
var QuestionTypes = []QuestionType{
	QuestionRadio,
	QuestionCheckbox,
	QuestionNumber,
	QuestionDate,
	QuestionCombobox,
	QuestionBoolean,
}

// AnswerKind returns the only answer shape a question of this type accepts.
func (t QuestionType) AnswerKind() (AnswerKind, error) {
	switch t {
	case QuestionRadio, QuestionDate:
		return AnswerString, nil
	case QuestionNumber:
		return AnswerNumber, nil
	case QuestionBoolean:
		return AnswerBoolean, nil
	case QuestionCheckbox:
		return AnswerChoices, nil
	case QuestionCombobox:
		return AnswerCombobox, nil
	default:
		return AnswerAbsent, fmt.Errorf("unknown question type %q", t)
	}
}

// HasChoices reports whether the type carries a choice list
func (t QuestionType) HasChoices() bool {
	return t == QuestionRadio || t == QuestionCheckbox
}

// Choice is one option of a radio or checkbox question
type Choice struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	Tooltip string `yaml:"tooltip,omitempty" json:"tooltip,omitempty"`
}

// Question is a survey question. Type selects which of the type-specific
// fields are meaningful; Validate rejects combinations that do not match.
type Question struct {
	ID          string       `yaml:"id" json:"id"`
	Title       string       `yaml:"title" json:"title"`
	Type        QuestionType `yaml:"type" json:"type"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Tooltip     string       `yaml:"tooltip,omitempty" json:"tooltip,omitempty"`
	// VisibleWhen is a boolean expression over the answers, evaluated by internal/rules.
	VisibleWhen string `yaml:"visibleWhen,omitempty" json:"visibleWhen,omitempty"`

	// radio, checkbox
	Choices []Choice `yaml:"choices,omitempty" json:"choices,omitempty"`

	// number
	Min *decimal.Decimal `yaml:"min,omitempty" json:"min,omitempty"`
	Max *decimal.Decimal `yaml:"max,omitempty" json:"max,omitempty"`

	// combobox
	AutocompleteFunction string `yaml:"autocompleteFunction,omitempty" json:"autocompleteFunction,omitempty"`
	Placeholder          string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// Validate checks the type-specific invariants of a single question
func (q *Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question id is required")
	}
	if q.Title == "" {
		return fmt.Errorf("question %s: title is required", q.ID)
	}

	switch q.Type {
	case QuestionRadio, QuestionCheckbox:
		if len(q.Choices) == 0 {
			return fmt.Errorf("question %s: %s question needs at least one choice", q.ID, q.Type)
		}
		seen := make(map[string]bool, len(q.Choices))
		for i, c := range q.Choices {
			if c.ID == "" {
				return fmt.Errorf("question %s: choice %d has no id", q.ID, i)
			}
			if seen[c.ID] {
				return fmt.Errorf("question %s: duplicate choice id %s", q.ID, c.ID)
			}
			seen[c.ID] = true
		}
	case QuestionNumber:
		if q.Min != nil && q.Max != nil && q.Min.GreaterThan(*q.Max) {
			return fmt.Errorf("question %s: min %s is greater than max %s", q.ID, q.Min, q.Max)
		}
	case QuestionCombobox:
		if q.AutocompleteFunction == "" {
			return fmt.Errorf("question %s: combobox question needs an autocompleteFunction", q.ID)
		}
	case QuestionDate, QuestionBoolean:
	default:
		return fmt.Errorf("question %s: unknown question type %q", q.ID, q.Type)
	}

	if !q.Type.HasChoices() && len(q.Choices) > 0 {
		return fmt.Errorf("question %s: %s question cannot carry choices", q.ID, q.Type)
	}
	return nil
}

// HasChoice reports whether id is one of the question's choices
func (q *Question) HasChoice(id string) bool {
	for _, c := range q.Choices {
		if c.ID == id {
			return true
		}
	}
	return false
}

// CheckAnswer validates an answer against the question: shape, choice
// membership and numeric bounds.
func (q *Question) CheckAnswer(v AnswerValue) error {
	if err := v.CheckShape(q.Type); err != nil {
		return fmt.Errorf("question %s: %w", q.ID, err)
	}

	switch q.Type {
	case QuestionRadio:
		if s, ok := v.AsString(); ok && !q.HasChoice(s) {
			return fmt.Errorf("question %s: %q is not a valid choice", q.ID, s)
		}
	case QuestionCheckbox:
		choices, _ := v.AsChoices()
		for _, s := range choices {
			if !q.HasChoice(s) {
				return fmt.Errorf("question %s: %q is not a valid choice", q.ID, s)
			}
		}
	case QuestionNumber:
		if n, ok := v.AsNumber(); ok {
			if q.Min != nil && n.LessThan(*q.Min) {
				return fmt.Errorf("question %s: %s is below the minimum %s", q.ID, n, q.Min)
			}
			if q.Max != nil && n.GreaterThan(*q.Max) {
				return fmt.Errorf("question %s: %s is above the maximum %s", q.ID, n, q.Max)
			}
		}
	}
	return nil
}
