package schema

import (
	"fmt"

	"github.com/aides-simplifiees/simulateur/internal/domain"
)

// Validate walks a normalized schema and returns the first structural problem.
func Validate(n *domain.NormalizedSchema) error {
	if n == nil {
		return structural("", "schema is nil")
	}
	if n.ID == "" {
		return structural("id", "schema id is required")
	}
	if n.Version == "" {
		return structural("version", "schema version is required")
	}
	if n.Title == "" {
		return structural("title", "schema title is required")
	}
	if len(n.Steps) == 0 {
		return structural("steps", "schema needs at least one step")
	}

	if err := validateEngine(n); err != nil {
		return err
	}

	seen := make(map[string]string)
	for i := range n.Steps {
		if err := validateStep(i, &n.Steps[i], seen); err != nil {
			return err
		}
	}
	return nil
}

func validateEngine(n *domain.NormalizedSchema) error {
	switch n.Engine {
	case domain.EngineOpenFisca:
		if len(n.QuestionsToAPI) == 0 {
			return structural("questionsToApi", "openfisca schemas must list the questions to request from the API")
		}
	case domain.EnginePublicodes:
		if len(n.Dispositifs) == 0 {
			return structural("dispositifs", "publicodes schemas must list their dispositifs")
		}
	default:
		return structural("engine", "unknown engine %q", n.Engine)
	}
	return nil
}

func validateStep(i int, step *domain.NormalizedStep, seen map[string]string) error {
	path := fmt.Sprintf("steps[%d]", i)
	if step.ID == "" {
		return structural(path+".id", "step id is required")
	}
	if step.Title == "" {
		return structural(path+".title", "step %s: title is required", step.ID)
	}
	if step.Pages == nil {
		return structural(path+".pages", "step %s is not in paginated form", step.ID)
	}

	for j := range step.Pages {
		page := &step.Pages[j]
		pagePath := fmt.Sprintf("%s.pages[%d]", path, j)
		if page.ID == "" {
			return structural(pagePath+".id", "page id is required in step %s", step.ID)
		}

		switch page.EffectiveKind() {
		case domain.PageQuestions:
			if len(page.Dispositifs) > 0 {
				return structural(pagePath, "questions page %s cannot reference dispositifs", page.ID)
			}
		case domain.PageResults:
			if len(page.Questions) > 0 {
				return structural(pagePath, "results page %s cannot hold questions", page.ID)
			}
			if len(page.Dispositifs) == 0 {
				return structural(pagePath, "results page %s must reference at least one dispositif", page.ID)
			}
		default:
			return structural(pagePath+".type", "unknown page type %q", page.Kind)
		}

		for k := range page.Questions {
			q := &page.Questions[k]
			qPath := fmt.Sprintf("%s.questions[%d]", pagePath, k)
			if err := q.Validate(); err != nil {
				return structural(qPath, "%v", err)
			}
			if prev, dup := seen[q.ID]; dup {
				return structural(qPath, "question id %s already used at %s", q.ID, prev)
			}
			seen[q.ID] = qPath
		}
	}
	return nil
}
