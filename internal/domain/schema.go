package domain

import (
	"fmt"
	"slices"
)

// Engine selects how a survey computes its dispositifs
type Engine string

const (
	// EngineOpenFisca sends the answers to the OpenFisca web API
	EngineOpenFisca Engine = "openfisca"
	// EnginePublicodes evaluates dispositif rules locally
	EnginePublicodes Engine = "publicodes"
)

// PageKind is the discriminant of a survey page
type PageKind string

const (
	PageQuestions PageKind = "questions"
	PageResults   PageKind = "results"
)

// Page is either a questions page or an intermediate results page
type Page struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title,omitempty" json:"title,omitempty"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Kind        PageKind   `yaml:"type,omitempty" json:"type,omitempty"`
	Questions   []Question `yaml:"questions,omitempty" json:"questions,omitempty"`
	Dispositifs []string   `yaml:"dispositifs,omitempty" json:"dispositifs,omitempty"`
}

// EffectiveKind returns the page kind, defaulting legacy pages without a
// type to a questions page.
func (p *Page) EffectiveKind() PageKind {
	if p.Kind == "" {
		return PageQuestions
	}
	return p.Kind
}

// StepShape tells which form a raw step is in
type StepShape int

const (
	StepEmpty StepShape = iota
	StepFlat
	StepDeep
	StepMixed
)

func (s StepShape) String() string {
	switch s {
	case StepEmpty:
		return "empty"
	case StepFlat:
		return "flat"
	case StepDeep:
		return "deep"
	case StepMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Step is a raw survey step. Pages (deep form) and Questions (flat form) are
// mutually exclusive; a nil slice means the key was absent from the source.
type Step struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Pages       []Page     `yaml:"pages,omitempty" json:"pages,omitempty"`
	Questions   []Question `yaml:"questions,omitempty" json:"questions,omitempty"`
}

// Shape classifies the step
func (s *Step) Shape() StepShape {
	switch {
	case s.Pages != nil && len(s.Questions) > 0:
		return StepMixed
	case s.Pages != nil:
		return StepDeep
	case s.Questions != nil:
		return StepFlat
	default:
		return StepEmpty
	}
}

// Schema is a survey definition as authored, steps in either form
type Schema struct {
	ID             string   `yaml:"id" json:"id"`
	Version        string   `yaml:"version" json:"version"`
	Title          string   `yaml:"title" json:"title"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
	SchemaVersion  string   `yaml:"schemaVersion,omitempty" json:"schemaVersion,omitempty"`
	Engine         Engine   `yaml:"engine,omitempty" json:"engine,omitempty"`
	QuestionsToAPI []string `yaml:"questionsToApi,omitempty" json:"questionsToApi,omitempty"`
	Dispositifs    []string `yaml:"dispositifs,omitempty" json:"dispositifs,omitempty"`
	Steps          []Step   `yaml:"steps" json:"steps"`
}

// EffectiveEngine defaults schemas without an engine to OpenFisca.
func (s *Schema) EffectiveEngine() Engine {
	if s.Engine == "" {
		return EngineOpenFisca
	}
	return s.Engine
}

// NormalizedStep is a step in deep form
type NormalizedStep struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Pages       []Page `yaml:"pages" json:"pages"`
}

// NormalizedSchema is a schema whose steps are all in deep form. Only the
// schema normalizer builds one; everything downstream reads this type.
type NormalizedSchema struct {
	ID             string           `yaml:"id" json:"id"`
	Version        string           `yaml:"version" json:"version"`
	Title          string           `yaml:"title" json:"title"`
	Description    string           `yaml:"description,omitempty" json:"description,omitempty"`
	SchemaVersion  string           `yaml:"schemaVersion,omitempty" json:"schemaVersion,omitempty"`
	Engine         Engine           `yaml:"engine" json:"engine"`
	QuestionsToAPI []string         `yaml:"questionsToApi,omitempty" json:"questionsToApi,omitempty"`
	Dispositifs    []string         `yaml:"dispositifs,omitempty" json:"dispositifs,omitempty"`
	Steps          []NormalizedStep `yaml:"steps" json:"steps"`
}

// Schema converts back to the raw representation with every step deep.
func (n *NormalizedSchema) Schema() *Schema {
	s := &Schema{
		ID:             n.ID,
		Version:        n.Version,
		Title:          n.Title,
		Description:    n.Description,
		SchemaVersion:  n.SchemaVersion,
		Engine:         n.Engine,
		QuestionsToAPI: slices.Clone(n.QuestionsToAPI),
		Dispositifs:    slices.Clone(n.Dispositifs),
		Steps:          make([]Step, 0, len(n.Steps)),
	}
	for _, st := range n.Steps {
		pages := make([]Page, len(st.Pages))
		copy(pages, st.Pages)
		s.Steps = append(s.Steps, Step{
			ID:          st.ID,
			Title:       st.Title,
			Description: st.Description,
			Pages:       pages,
		})
	}
	return s
}

// Questions returns every question of the schema in survey order
func (n *NormalizedSchema) Questions() []Question {
	var out []Question
	for _, st := range n.Steps {
		for _, p := range st.Pages {
			out = append(out, p.Questions...)
		}
	}
	return out
}

// Question looks a question up by id
func (n *NormalizedSchema) Question(id string) (*Question, bool) {
	for i := range n.Steps {
		for j := range n.Steps[i].Pages {
			page := &n.Steps[i].Pages[j]
			for k := range page.Questions {
				if page.Questions[k].ID == id {
					return &page.Questions[k], true
				}
			}
		}
	}
	return nil, false
}

// CheckAnswers validates every answer against its question. Answers to
// unknown questions are reported too.
func (n *NormalizedSchema) CheckAnswers(answers Answers) []error {
	var errs []error
	for _, key := range answers.Keys() {
		q, ok := n.Question(key)
		if !ok {
			errs = append(errs, fmt.Errorf("answer %s does not match any question", key))
			continue
		}
		if err := q.CheckAnswer(answers[key]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
