package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/config"
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/output"
	"github.com/aides-simplifiees/simulateur/internal/schema"
	"github.com/aides-simplifiees/simulateur/internal/tui/scenes"
)

// Model represents the entire application state
type Model struct {
	// Navigation
	currentScene  Scene
	previousScene Scene

	// Terminal dimensions
	width  int
	height int

	// Inputs
	schemaPath  string
	answersPath string

	// Survey
	schema *domain.NormalizedSchema
	engine *calculation.CalculationEngine
	runner *Runner

	// Scene models
	questionModel *scenes.QuestionModel
	resultsModel  *scenes.ResultsModel

	// Error state
	err error

	// Loading state
	loading        bool
	loadingMessage string
}

// NewModel creates a new application model. answersPath may be empty.
func NewModel(schemaPath, answersPath string, engine *calculation.CalculationEngine) Model {
	return Model{
		currentScene:   SceneSurvey,
		schemaPath:     schemaPath,
		answersPath:    answersPath,
		engine:         engine,
		questionModel:  scenes.NewQuestionModel(),
		resultsModel:   scenes.NewResultsModel(),
		width:          80,
		height:         24,
		loading:        true,
		loadingMessage: "Chargement du questionnaire...",
	}
}

// Init initializes the model (required by tea.Model interface)
func (m Model) Init() tea.Cmd {
	return loadSchemaCmd(m.schemaPath, m.answersPath)
}

// loadSchemaCmd returns a command that loads and normalizes the survey
func loadSchemaCmd(schemaPath, answersPath string) tea.Cmd {
	return func() tea.Msg {
		parser := config.NewInputParser()
		raw, err := parser.LoadSchema(schemaPath)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		n, err := schema.Normalize(raw)
		if err != nil {
			return ErrorMsg{Err: err}
		}

		var answers domain.Answers
		if answersPath != "" {
			if answers, err = parser.LoadAnswers(answersPath); err != nil {
				return ErrorMsg{Err: err}
			}
		}
		return SchemaLoadedMsg{Schema: n, Answers: answers}
	}
}

// simulateCmd returns a command that runs the survey answers through the
// engine. buildOnly stops after the calculation request is built.
func simulateCmd(engine *calculation.CalculationEngine, n *domain.NormalizedSchema, answers domain.Answers, buildOnly bool) tea.Cmd {
	return func() tea.Msg {
		var (
			sim *calculation.Simulation
			err error
		)
		if buildOnly {
			sim, err = engine.BuildRequest(n, answers)
		} else {
			sim, err = engine.Run(context.Background(), n, answers)
		}
		if err != nil {
			return SimulationCompleteMsg{Err: err}
		}

		report := output.NewReport(n.ID, n.Engine)
		report.AddSimulation(sim)
		return SimulationCompleteMsg{Report: report}
	}
}

// String returns a human-readable name for a scene
func (s Scene) String() string {
	switch s {
	case SceneSurvey:
		return "Questionnaire"
	case SceneReview:
		return "Récapitulatif"
	case SceneResults:
		return "Résultats"
	case SceneHelp:
		return "Aide"
	default:
		return "Inconnu"
	}
}
