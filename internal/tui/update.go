package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aides-simplifiees/simulateur/internal/tui/tuimsg"
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	// Standard tea.Msg types
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.questionModel.SetWidth(msg.Width)
		m.resultsModel.SetWidth(msg.Width)
		return m, nil

	// Custom messages
	case NavigateMsg:
		m.previousScene = m.currentScene
		m.currentScene = msg.Scene
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.loading = false
		return m, nil

	case SchemaLoadedMsg:
		m.loading = false
		m.schema = msg.Schema
		runner, err := NewRunner(msg.Schema, m.engine.Visibility, msg.Answers)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.runner = runner
		return m.showCurrentQuestion()

	case SimulationStartedMsg:
		m.loading = true
		m.loadingMessage = "Simulation en cours..."
		if msg.BuildOnly {
			m.loadingMessage = "Construction de la requête..."
		}
		return m, simulateCmd(m.engine, m.schema, m.runner.Answers(), msg.BuildOnly)

	case SimulationCompleteMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.resultsModel.SetReport(msg.Report)
		m.previousScene = SceneReview
		m.currentScene = SceneResults
		return m, nil

	case tuimsg.AnswerSubmittedMsg:
		if err := m.runner.Answer(msg.Value); err != nil {
			m.questionModel.SetErr(err)
			return m, nil
		}
		return m.showCurrentQuestion()

	case tuimsg.SkipQuestionMsg:
		if err := m.runner.Skip(); err != nil {
			m.err = err
			return m, nil
		}
		return m.showCurrentQuestion()

	case tuimsg.PreviousQuestionMsg:
		if m.runner.Back() {
			return m.showCurrentQuestion()
		}
		return m, nil
	}

	// Delegate to scene-specific update handlers
	return m.updateCurrentScene(msg)
}

// showCurrentQuestion moves the question scene to the runner's current
// question, or to the review once the survey is over
func (m Model) showCurrentQuestion() (tea.Model, tea.Cmd) {
	item, ok, err := m.runner.Current()
	if err != nil {
		m.err = err
		return m, nil
	}
	if !ok {
		m.previousScene = SceneSurvey
		m.currentScene = SceneReview
		return m, nil
	}

	where := item.Step.Title
	if item.Page.Title != "" && item.Page.Title != item.Question.Title {
		where = fmt.Sprintf("%s / %s", item.Step.Title, item.Page.Title)
	}
	previous, answered := m.runner.Recorded(item.Question.ID)
	m.currentScene = SceneSurvey
	return m, m.questionModel.SetQuestion(item.Question, where, previous, answered)
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Any key dismisses an error
	if m.err != nil {
		m.err = nil
		return m, nil
	}
	if m.loading {
		return m, nil
	}

	// The survey scene owns the keyboard while a question is asked
	if m.currentScene == SceneSurvey {
		return m.updateCurrentScene(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "?":
		return m, func() tea.Msg {
			return NavigateMsg{Scene: SceneHelp}
		}

	case "esc":
		switch m.currentScene {
		case SceneReview:
			m.runner.Back()
			return m.showCurrentQuestion()
		case SceneResults:
			return m, func() tea.Msg { return NavigateMsg{Scene: SceneReview} }
		case SceneHelp:
			back := m.previousScene
			return m, func() tea.Msg { return NavigateMsg{Scene: back} }
		}
		return m, nil
	}

	if m.currentScene == SceneReview {
		switch strings.ToLower(msg.String()) {
		case "enter", "s":
			return m, func() tea.Msg { return SimulationStartedMsg{} }
		case "b":
			return m, func() tea.Msg { return SimulationStartedMsg{BuildOnly: true} }
		}
	}

	return m.updateCurrentScene(msg)
}

// updateCurrentScene delegates updates to the current scene's model
func (m Model) updateCurrentScene(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentScene {
	case SceneSurvey:
		if m.runner != nil {
			m.questionModel, cmd = m.questionModel.Update(msg)
		}
	case SceneResults:
		m.resultsModel, cmd = m.resultsModel.Update(msg)
	}
	return m, cmd
}
