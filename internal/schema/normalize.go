// Package schema turns authored survey schemas into their canonical deep
// form and validates them, both structurally and against the published
// JSON Schema definition.
package schema

import (
	"fmt"
	"slices"

	"github.com/aides-simplifiees/simulateur/internal/domain"
)

// StructuralError reports a schema that is missing a required part.
// It is fatal: nothing downstream can work with such a schema.
type StructuralError struct {
	Path   string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid survey schema: %s", e.Reason)
	}
	return fmt.Sprintf("invalid survey schema at %s: %s", e.Path, e.Reason)
}

func structural(path, format string, args ...any) error {
	return &StructuralError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

type options struct {
	validate bool
}

// Option configures Normalize
type Option func(*options)

// WithoutValidation skips the structural walk after conversion
func WithoutValidation() Option {
	return func(o *options) { o.validate = false }
}

// PageID returns the id generated for the n-th (1-indexed) page synthesized
// from a flat step.
func PageID(stepID string, n int) string {
	return fmt.Sprintf("%s_page_%d", stepID, n)
}

// Normalize converts every step of the schema to deep form. Deep steps pass
// through unchanged, flat steps get one page per question and steps with
// neither become empty. The input is never modified.
func Normalize(s *domain.Schema, opts ...Option) (*domain.NormalizedSchema, error) {
	o := options{validate: true}
	for _, opt := range opts {
		opt(&o)
	}
	if s == nil {
		return nil, structural("", "schema is nil")
	}

	out := &domain.NormalizedSchema{
		ID:             s.ID,
		Version:        s.Version,
		Title:          s.Title,
		Description:    s.Description,
		SchemaVersion:  s.SchemaVersion,
		Engine:         s.EffectiveEngine(),
		QuestionsToAPI: slices.Clone(s.QuestionsToAPI),
		Dispositifs:    slices.Clone(s.Dispositifs),
		Steps:          make([]domain.NormalizedStep, 0, len(s.Steps)),
	}

	for i := range s.Steps {
		step := &s.Steps[i]
		if step.Shape() == domain.StepMixed {
			return nil, structural(fmt.Sprintf("steps[%d]", i), "step %q has both pages and questions", step.ID)
		}
		out.Steps = append(out.Steps, normalizeStep(step))
	}

	if o.validate {
		if err := Validate(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func normalizeStep(step *domain.Step) domain.NormalizedStep {
	ns := domain.NormalizedStep{
		ID:          step.ID,
		Title:       step.Title,
		Description: step.Description,
	}

	switch step.Shape() {
	case domain.StepDeep:
		ns.Pages = clonePages(step.Pages)
	case domain.StepFlat:
		ns.Pages = make([]domain.Page, 0, len(step.Questions))
		for n, q := range step.Questions {
			ns.Pages = append(ns.Pages, domain.Page{
				ID:        PageID(step.ID, n+1),
				Title:     q.Title,
				Questions: []domain.Question{cloneQuestion(q)},
			})
		}
	default:
		ns.Pages = []domain.Page{}
	}
	return ns
}

// IsNormalized reports whether every step is already in deep form.
func IsNormalized(s *domain.Schema) bool {
	if s == nil {
		return false
	}
	for i := range s.Steps {
		if s.Steps[i].Shape() != domain.StepDeep {
			return false
		}
	}
	return true
}

// Denormalize collapses steps back to flat form where nothing would be lost:
// every page must be a questions page holding exactly one question, with the
// id and title a later Normalize would regenerate. Other steps stay deep.
func Denormalize(n *domain.NormalizedSchema) *domain.Schema {
	if n == nil {
		return nil
	}
	out := n.Schema()
	for i := range out.Steps {
		step := &out.Steps[i]
		if len(step.Pages) == 0 {
			// an empty step has neither list
			step.Pages = nil
			continue
		}
		if !collapsible(step) {
			continue
		}
		questions := make([]domain.Question, 0, len(step.Pages))
		for _, p := range step.Pages {
			questions = append(questions, p.Questions[0])
		}
		step.Questions = questions
		step.Pages = nil
	}
	return out
}

func collapsible(step *domain.Step) bool {
	for n, p := range step.Pages {
		if p.EffectiveKind() != domain.PageQuestions || p.Kind != "" {
			return false
		}
		if len(p.Questions) != 1 || len(p.Dispositifs) > 0 || p.Description != "" {
			return false
		}
		if p.ID != PageID(step.ID, n+1) || p.Title != p.Questions[0].Title {
			return false
		}
	}
	return true
}

func clonePages(pages []domain.Page) []domain.Page {
	out := make([]domain.Page, 0, len(pages))
	for _, p := range pages {
		cp := p
		if p.Questions != nil {
			cp.Questions = make([]domain.Question, 0, len(p.Questions))
			for _, q := range p.Questions {
				cp.Questions = append(cp.Questions, cloneQuestion(q))
			}
		}
		cp.Dispositifs = slices.Clone(p.Dispositifs)
		out = append(out, cp)
	}
	return out
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Choices = slices.Clone(q.Choices)
	if q.Min != nil {
		m := *q.Min
		q.Min = &m
	}
	if q.Max != nil {
		m := *q.Max
		q.Max = &m
	}
	return q
}
