package calculation

import (
	"context"
	"errors"
	"fmt"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
	"github.com/aides-simplifiees/simulateur/internal/rules"
)

// Calculator sends a calculation request to an engine
type Calculator interface {
	Calculate(ctx context.Context, req openfisca.CalculationRequest) (*openfisca.CalculationResponse, error)
}

// Simulation is everything one run produced. Errors collects mapping,
// extraction and local rule errors; none of them stop the run.
type Simulation struct {
	Engine   domain.Engine
	Answers  domain.Answers
	Dropped  []string
	Request  openfisca.CalculationRequest
	Response *openfisca.CalculationResponse
	Results  domain.SimulationResults
	Errors   []error
	Warnings []string
}

// ErrorMessages renders Errors for serialization
func (s *Simulation) ErrorMessages() []string {
	out := make([]string, len(s.Errors))
	for i, err := range s.Errors {
		out[i] = err.Error()
	}
	return out
}

// CalculationEngine orchestrates a complete simulation: answers to hidden
// questions are dropped, then the schema's engine computes the results,
// either OpenFisca through the client or the local rule set.
type CalculationEngine struct {
	Builder    *Builder
	Extractor  *Extractor
	Client     Calculator
	Visibility *rules.Visibility
	Evaluator  *rules.Evaluator
	LocalRules rules.RuleSet
	logger     Logger
}

// NewCalculationEngine creates an engine. client may be nil when only
// BuildRequest and local rules are used.
func NewCalculationEngine(client Calculator, local rules.RuleSet, opts ...Option) (*CalculationEngine, error) {
	builder, err := NewBuilder(opts...)
	if err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(opts...)
	if err != nil {
		return nil, err
	}
	eval, err := rules.NewEvaluator()
	if err != nil {
		return nil, err
	}
	vis, err := rules.NewVisibility(eval)
	if err != nil {
		return nil, err
	}
	if err := local.Validate(eval); err != nil {
		return nil, fmt.Errorf("local rules: %w", err)
	}

	return &CalculationEngine{
		Builder:    builder,
		Extractor:  extractor,
		Client:     client,
		Visibility: vis,
		Evaluator:  eval,
		LocalRules: local,
		logger:     newSettings(opts).logger,
	}, nil
}

// SetLogger replaces the logger of the engine and its builder and extractor
func (ce *CalculationEngine) SetLogger(l Logger) {
	ce.logger = orNop(l)
	ce.Builder.SetLogger(l)
	ce.Extractor.SetLogger(l)
}

// Prepare drops the answers to questions hidden by visibleWhen conditions
func (ce *CalculationEngine) Prepare(n *domain.NormalizedSchema, answers domain.Answers) (*Simulation, error) {
	if n == nil {
		return nil, errors.New("schema is required")
	}
	if answers == nil {
		return nil, errors.New("answers are required")
	}
	kept, dropped, err := ce.Visibility.PruneHidden(n, answers)
	if err != nil {
		return nil, fmt.Errorf("visibility: %w", err)
	}
	if len(dropped) > 0 {
		ce.logger.Debugf("dropped %d answers to hidden questions: %v", len(dropped), dropped)
	}
	return &Simulation{Engine: n.Engine, Answers: kept, Dropped: dropped}, nil
}

// BuildRequest prepares the answers and builds the OpenFisca request for
// the schema's questionsToApi, without calling the engine.
func (ce *CalculationEngine) BuildRequest(n *domain.NormalizedSchema, answers domain.Answers) (*Simulation, error) {
	sim, err := ce.Prepare(n, answers)
	if err != nil {
		return nil, err
	}
	built := ce.Builder.Build(sim.Answers, n.QuestionsToAPI)
	if !built.Success {
		return nil, built.Err
	}
	sim.Request = built.Request
	for _, e := range built.Errors {
		sim.Errors = append(sim.Errors, e)
	}
	return sim, nil
}

// Run performs the whole simulation with the schema's engine
func (ce *CalculationEngine) Run(ctx context.Context, n *domain.NormalizedSchema, answers domain.Answers) (*Simulation, error) {
	if n != nil && n.Engine == domain.EnginePublicodes {
		return ce.Eligibility(n, answers)
	}

	sim, err := ce.BuildRequest(n, answers)
	if err != nil {
		return nil, err
	}
	if ce.Client == nil {
		return nil, errors.New("no engine client configured")
	}

	resp, err := ce.Client.Calculate(ctx, sim.Request)
	if err != nil {
		return nil, err
	}
	sim.Response = resp
	ce.extractInto(sim, n, resp)
	return sim, nil
}

// Extract reads the schema's questionsToApi from a response obtained
// elsewhere
func (ce *CalculationEngine) Extract(n *domain.NormalizedSchema, resp *openfisca.CalculationResponse) *Simulation {
	sim := &Simulation{Engine: domain.EngineOpenFisca, Response: resp}
	ce.extractInto(sim, n, resp)
	return sim
}

func (ce *CalculationEngine) extractInto(sim *Simulation, n *domain.NormalizedSchema, resp *openfisca.CalculationResponse) {
	x := ce.Extractor.Extract(resp, n.QuestionsToAPI)
	sim.Results = x.Results
	sim.Errors = append(sim.Errors, x.Errors...)
	sim.Warnings = append(sim.Warnings, x.Warnings...)
}

// Eligibility evaluates the schema's dispositifs with the local rules
func (ce *CalculationEngine) Eligibility(n *domain.NormalizedSchema, answers domain.Answers) (*Simulation, error) {
	sim, err := ce.Prepare(n, answers)
	if err != nil {
		return nil, err
	}
	sim.Engine = domain.EnginePublicodes

	dispositifs := n.Dispositifs
	if len(dispositifs) == 0 {
		dispositifs = n.QuestionsToAPI
	}
	eval := ce.LocalRules.Evaluate(ce.Evaluator, dispositifs, sim.Answers)
	sim.Results = eval.Results
	sim.Errors = append(sim.Errors, eval.Errors...)
	ce.logger.Infof("evaluated %d dispositifs locally, %d errors", len(dispositifs), len(eval.Errors))
	return sim, nil
}
