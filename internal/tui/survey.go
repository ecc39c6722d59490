package tui

import (
	"errors"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/rules"
)

// Item is one question of the survey with the step and page holding it
type Item struct {
	Step     *domain.NormalizedStep
	Page     *domain.Page
	Question *domain.Question
}

// Runner walks the questions of a normalized survey in order, skipping the
// ones hidden by the answers given so far. Results pages are not visited.
type Runner struct {
	vis     *rules.Visibility
	answers domain.Answers
	items   []Item
	pos     int
	history []int
}

// NewRunner starts a survey. answers pre-fills the survey and is copied.
func NewRunner(n *domain.NormalizedSchema, vis *rules.Visibility, answers domain.Answers) (*Runner, error) {
	if n == nil {
		return nil, errors.New("schema is required")
	}
	if vis == nil {
		var err error
		if vis, err = rules.NewVisibility(nil); err != nil {
			return nil, err
		}
	}
	if answers == nil {
		answers = domain.Answers{}
	}

	r := &Runner{vis: vis, answers: answers.Clone()}
	for si := range n.Steps {
		step := &n.Steps[si]
		for pi := range step.Pages {
			page := &step.Pages[pi]
			if page.EffectiveKind() != domain.PageQuestions {
				continue
			}
			for qi := range page.Questions {
				r.items = append(r.items, Item{Step: step, Page: page, Question: &page.Questions[qi]})
			}
		}
	}
	return r, nil
}

// Current returns the next visible question. ok is false once every
// remaining question is answered or hidden.
func (r *Runner) Current() (Item, bool, error) {
	for r.pos < len(r.items) {
		it := r.items[r.pos]
		visible, err := r.vis.IsVisible(it.Question, r.answers)
		if err != nil {
			return Item{}, false, err
		}
		if visible {
			return it, true, nil
		}
		r.pos++
	}
	return Item{}, false, nil
}

// Answer records v for the current question and moves on
func (r *Runner) Answer(v domain.AnswerValue) error {
	it, ok, err := r.Current()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("the survey is complete")
	}
	if err := it.Question.CheckAnswer(v); err != nil {
		return err
	}
	r.answers[it.Question.ID] = v
	r.advance()
	return nil
}

// Skip leaves the current question unanswered
func (r *Runner) Skip() error {
	it, ok, err := r.Current()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("the survey is complete")
	}
	delete(r.answers, it.Question.ID)
	r.advance()
	return nil
}

func (r *Runner) advance() {
	r.history = append(r.history, r.pos)
	r.pos++
}

// Back returns to the previously shown question. Its answer is kept so it
// can be edited.
func (r *Runner) Back() bool {
	if len(r.history) == 0 {
		return false
	}
	r.pos = r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	return true
}

// Done reports whether no question is left to show
func (r *Runner) Done() bool {
	_, ok, err := r.Current()
	return err == nil && !ok
}

// Answers returns a copy of the answers given so far
func (r *Runner) Answers() domain.Answers {
	return r.answers.Clone()
}

// Recorded returns the answer given to id, if any
func (r *Runner) Recorded(id string) (domain.AnswerValue, bool) {
	v, ok := r.answers[id]
	return v, ok
}

// Progress returns how many questions were passed and the total count,
// hidden questions included
func (r *Runner) Progress() (int, int) {
	return r.pos, len(r.items)
}
