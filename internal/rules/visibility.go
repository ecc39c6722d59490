package rules

import (
	"errors"
	"fmt"

	"github.com/aides-simplifiees/simulateur/internal/domain"
)

// Visibility decides which questions of a survey are shown
type Visibility struct {
	eval *Evaluator
}

// NewVisibility wraps an evaluator; a nil evaluator gets a fresh one.
func NewVisibility(eval *Evaluator) (*Visibility, error) {
	if eval == nil {
		var err error
		if eval, err = NewEvaluator(); err != nil {
			return nil, err
		}
	}
	return &Visibility{eval: eval}, nil
}

// IsVisible evaluates the question's visibleWhen condition. Questions
// without a condition are always visible; a condition reading an unanswered
// question hides it.
func (v *Visibility) IsVisible(q *domain.Question, answers domain.Answers) (bool, error) {
	if q.VisibleWhen == "" {
		return true, nil
	}
	visible, err := v.eval.Bool(q.VisibleWhen, answers)
	if errors.Is(err, ErrUnanswered) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("question %s: %w", q.ID, err)
	}
	return visible, nil
}

// Check compiles every visibleWhen condition of the schema
func (v *Visibility) Check(n *domain.NormalizedSchema) []error {
	var errs []error
	for _, q := range n.Questions() {
		if q.VisibleWhen == "" {
			continue
		}
		if err := v.eval.Check(q.VisibleWhen); err != nil {
			errs = append(errs, fmt.Errorf("question %s: %w", q.ID, err))
		}
	}
	return errs
}

// PruneHidden returns a copy of answers without the answers to hidden
// questions, plus the dropped keys in survey order. Questions are visited in
// survey order and each condition sees the answers kept so far, so hiding a
// question also hides the questions that depend on it.
func (v *Visibility) PruneHidden(n *domain.NormalizedSchema, answers domain.Answers) (domain.Answers, []string, error) {
	kept := answers.Clone()
	var dropped []string
	for _, q := range n.Questions() {
		visible, err := v.IsVisible(&q, kept)
		if err != nil {
			return nil, nil, err
		}
		if visible {
			continue
		}
		if _, ok := kept[q.ID]; ok {
			delete(kept, q.ID)
			dropped = append(dropped, q.ID)
		}
	}
	return kept, dropped, nil
}

// VisibleQuestions lists the questions of a page shown for the given answers
func (v *Visibility) VisibleQuestions(p *domain.Page, answers domain.Answers) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(p.Questions))
	for _, q := range p.Questions {
		visible, err := v.IsVisible(&q, answers)
		if err != nil {
			return nil, err
		}
		if visible {
			out = append(out, q)
		}
	}
	return out, nil
}
