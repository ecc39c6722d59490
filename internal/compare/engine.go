package compare

import (
	"context"
	"fmt"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/transform"
)

// Scenario is a named set of answers
type Scenario struct {
	Name        string
	Description string
	Answers     domain.Answers
}

// CompareEngine orchestrates scenario comparison
type CompareEngine struct {
	CalcEngine        *calculation.CalculationEngine
	MetricsCalculator *MetricsCalculator
	TemplateRegistry  *transform.TemplateRegistry
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(calcEngine *calculation.CalculationEngine) *CompareEngine {
	return &CompareEngine{
		CalcEngine:        calcEngine,
		MetricsCalculator: NewMetricsCalculator(),
		TemplateRegistry:  transform.CreateBuiltInTemplates(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BaseScenarioName string   // Name shown for the base answers
	Templates        []string // What-if templates, one alternative each
}

// Compare simulates the base answers, then one alternative per template
// applied to them.
func (ce *CompareEngine) Compare(
	ctx context.Context,
	n *domain.NormalizedSchema,
	base domain.Answers,
	options CompareOptions,
) (*ComparisonSet, error) {
	name := options.BaseScenarioName
	if name == "" {
		name = "base"
	}

	alternatives := make([]Scenario, 0, len(options.Templates))
	for _, templateName := range options.Templates {
		template, ok := ce.TemplateRegistry.Get(templateName)
		if !ok {
			return nil, fmt.Errorf("template %s not found", templateName)
		}

		answers, err := transform.ApplyTransforms(base, template.Transforms)
		if err != nil {
			return nil, fmt.Errorf("failed to apply template %s: %w", templateName, err)
		}

		alternatives = append(alternatives, Scenario{
			Name:        name + "_" + templateName,
			Description: template.Description,
			Answers:     answers,
		})
	}

	return ce.CompareScenarios(ctx, n, Scenario{Name: name, Answers: base}, alternatives)
}

// CompareScenarios compares explicit answer sets (not using templates)
func (ce *CompareEngine) CompareScenarios(
	ctx context.Context,
	n *domain.NormalizedSchema,
	base Scenario,
	alternatives []Scenario,
) (*ComparisonSet, error) {
	if n == nil {
		return nil, fmt.Errorf("schema is nil")
	}

	baseResult, err := ce.run(ctx, n, base)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base scenario: %w", err)
	}

	results := []ComparisonResult{}
	for _, alt := range alternatives {
		altResult, err := ce.run(ctx, n, alt)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate scenario %s: %w", alt.Name, err)
		}
		results = append(results, ce.MetricsCalculator.CalculateComparison(altResult, baseResult))
	}

	compSet := &ComparisonSet{
		SchemaID:           n.ID,
		BaseScenarioName:   base.Name,
		BaseResult:         &baseResult,
		AlternativeResults: results,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}

func (ce *CompareEngine) run(ctx context.Context, n *domain.NormalizedSchema, s Scenario) (ComparisonResult, error) {
	sim, err := ce.CalcEngine.Run(ctx, n, s.Answers)
	if err != nil {
		return ComparisonResult{}, err
	}
	result := ce.MetricsCalculator.CalculateMetrics(s.Name, sim)
	result.Description = s.Description
	return result, nil
}
