package scenes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/shopspring/decimal"
)

// ParseInput reads what the user typed for a question. Radio and checkbox
// answers are choice ids or 1-based positions; checkbox entries are comma
// separated. Combobox input is "label|value" or a single value used for both.
func ParseInput(q *domain.Question, raw string) (domain.AnswerValue, error) {
	raw = strings.TrimSpace(raw)
	var v domain.AnswerValue

	switch q.Type {
	case domain.QuestionNumber:
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.ReplaceAll(raw, " ", ""), ",", "."))
		if err != nil {
			return v, fmt.Errorf("%q is not a number", raw)
		}
		v = domain.NumberAnswer(d)
	case domain.QuestionDate:
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return v, fmt.Errorf("%q is not a date, expected YYYY-MM-DD", raw)
		}
		v = domain.StringAnswer(raw)
	case domain.QuestionBoolean:
		switch strings.ToLower(raw) {
		case "oui", "o", "yes", "y", "true":
			v = domain.BoolAnswer(true)
		case "non", "n", "no", "false":
			v = domain.BoolAnswer(false)
		default:
			return v, fmt.Errorf("%q is not oui or non", raw)
		}
	case domain.QuestionCombobox:
		if raw == "" {
			return v, errors.New("a value is required")
		}
		text, value, found := strings.Cut(raw, "|")
		if !found {
			value = text
		}
		v = domain.ComboboxAnswer(strings.TrimSpace(text), strings.TrimSpace(value))
	case domain.QuestionRadio:
		id, err := choiceID(q, raw)
		if err != nil {
			return v, err
		}
		v = domain.StringAnswer(id)
	case domain.QuestionCheckbox:
		var ids []string
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := choiceID(q, part)
			if err != nil {
				return v, err
			}
			ids = append(ids, id)
		}
		v = domain.ChoicesAnswer(ids...)
	default:
		return v, fmt.Errorf("unknown question type %q", q.Type)
	}

	if err := q.CheckAnswer(v); err != nil {
		return domain.AnswerValue{}, err
	}
	return v, nil
}

func choiceID(q *domain.Question, raw string) (string, error) {
	if q.HasChoice(raw) {
		return raw, nil
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(q.Choices) {
		return q.Choices[n-1].ID, nil
	}
	return "", fmt.Errorf("%q is not one of the choices", raw)
}
