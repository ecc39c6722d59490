package transform

import (
	"slices"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/domain"
)

// TemplateRegistry manages built-in what-if templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []AnswerTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names, sorted
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CreateBuiltInTemplates creates a template registry with the common what-if
// questions asked about a student move.
func CreateBuiltInTemplates() *TemplateRegistry {
	registry := NewTemplateRegistry()

	registry.Register(Template{
		Name:        "alternance",
		Description: "Switch to a work-study contract",
		Transforms: []AnswerTransform{
			&SetAnswer{Key: "statut-professionnel", Value: domain.StringAnswer("alternance")},
		},
	})

	registry.Register(Template{
		Name:        "boursier",
		Description: "Obtain a level 5 higher-education grant",
		Transforms: []AnswerTransform{
			&SetAnswer{Key: "boursier", Value: domain.BoolAnswer(true)},
			&SetAnswer{Key: "echelon-bourse", Value: domain.StringAnswer("echelon-5")},
		},
	})

	registry.Register(Template{
		Name:        "colocation",
		Description: "Rent a furnished flat share",
		Transforms: []AnswerTransform{
			&SetAnswer{Key: "situation-logement", Value: domain.StringAnswer("locataire")},
			&SetAnswer{Key: "type-logement", Value: domain.StringAnswer("logement-meuble")},
			&SetAnswer{Key: "colocation", Value: domain.BoolAnswer(true)},
		},
	})

	registry.Register(Template{
		Name:        "parcoursup",
		Description: "Move academies through Parcoursup",
		Transforms: []AnswerTransform{
			&SetAnswer{Key: "mobilite-etudes", Value: domain.StringAnswer("parcoursup-nouvelle-academie")},
		},
	})

	return registry
}
