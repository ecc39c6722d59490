package tui

import (
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/output"
)

// Scene represents different screens in the TUI
type Scene int

const (
	SceneSurvey Scene = iota
	SceneReview
	SceneResults
	SceneHelp
)

// Message types for the Bubble Tea update cycle

// NavigateMsg switches to a different scene
type NavigateMsg struct {
	Scene Scene
}

// QuitMsg signals the application should exit
type QuitMsg struct{}

// ErrorMsg displays an error to the user
type ErrorMsg struct {
	Err error
}

// SchemaLoadedMsg signals the survey has been loaded and normalized.
// Answers holds the pre-filled answers, if any were given.
type SchemaLoadedMsg struct {
	Schema  *domain.NormalizedSchema
	Answers domain.Answers
}

// SimulationStartedMsg signals a simulation has begun
type SimulationStartedMsg struct {
	BuildOnly bool
}

// SimulationCompleteMsg signals a simulation has finished
type SimulationCompleteMsg struct {
	Report *output.Report
	Err    error
}
