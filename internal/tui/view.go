package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aides-simplifiees/simulateur/internal/tui/components"
)

// View renders the current state of the application
func (m Model) View() string {
	if m.loading {
		return m.renderLoading()
	}

	if m.err != nil {
		return m.renderError()
	}

	var content string
	switch m.currentScene {
	case SceneSurvey:
		content = m.renderSurvey()
	case SceneReview:
		content = m.renderReview()
	case SceneResults:
		content = m.resultsModel.View()
	case SceneHelp:
		content = m.renderHelp()
	default:
		content = "Scène inconnue"
	}

	return m.renderApp(content)
}

// renderApp wraps content with title bar, status bar, and main container
func (m Model) renderApp(content string) string {
	titleBar := m.renderTitleBar()
	statusBar := m.renderStatusBar()

	contentHeight := max(0, m.height-lipgloss.Height(titleBar)-lipgloss.Height(statusBar))
	contentContainer := lipgloss.NewStyle().
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleBar,
		contentContainer,
		statusBar,
	)
}

// renderTitleBar renders the application title and breadcrumb
func (m Model) renderTitleBar() string {
	name := "Simulateur d'aides"
	if m.schema != nil && m.schema.Title != "" {
		name = m.schema.Title
	}
	title := TitleStyle.Render(name)

	breadcrumb := m.currentScene.String()
	if m.currentScene == SceneSurvey && m.runner != nil {
		passed, total := m.runner.Progress()
		breadcrumb = components.NewProgressBar(passed, total).WithLabel(breadcrumb).Render()
	} else {
		breadcrumb = SubtitleStyle.Render(breadcrumb)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, breadcrumb) + "\n"
}

// renderStatusBar renders the bottom status bar with keyboard shortcuts
func (m Model) renderStatusBar() string {
	var shortcuts []string
	switch m.currentScene {
	case SceneSurvey:
		shortcuts = []string{
			formatShortcut("enter", "valider"),
			formatShortcut("tab", "passer"),
			formatShortcut("esc", "précédente"),
			formatShortcut("ctrl+c", "quitter"),
		}
	case SceneReview:
		shortcuts = []string{
			formatShortcut("s", "simuler"),
			formatShortcut("b", "requête seule"),
			formatShortcut("esc", "modifier"),
			formatShortcut("?", "aide"),
			formatShortcut("q", "quitter"),
		}
	case SceneResults:
		shortcuts = []string{
			formatShortcut("r", "requête"),
			formatShortcut("esc", "récapitulatif"),
			formatShortcut("?", "aide"),
			formatShortcut("q", "quitter"),
		}
	default:
		shortcuts = []string{
			formatShortcut("esc", "retour"),
			formatShortcut("q", "quitter"),
		}
	}

	return StatusBarStyle.Width(m.width).Render(strings.Join(shortcuts, " • "))
}

// formatShortcut formats a keyboard shortcut with key and description
func formatShortcut(key, desc string) string {
	return StatusKeyStyle.Render(key) + " " + desc
}

// renderLoading renders a loading message
func (m Model) renderLoading() string {
	message := m.loadingMessage
	if message == "" {
		message = "Chargement..."
	}
	return m.renderApp(BorderStyle.Render("⠋ " + message))
}

// renderError renders an error message
func (m Model) renderError() string {
	content := ErrorStyle.Render(
		fmt.Sprintf("Erreur : %s\n\nAppuyez sur une touche pour continuer...", m.err),
	)
	return m.renderApp(content)
}

func (m Model) renderSurvey() string {
	if m.runner == nil {
		return BorderStyle.Render("Chargement du questionnaire...")
	}
	return m.questionModel.View()
}

// renderReview lists the answers given, in survey order
func (m Model) renderReview() string {
	if m.runner == nil || m.schema == nil {
		return BorderStyle.Render("Aucun questionnaire")
	}

	var b strings.Builder
	b.WriteString(QuestionStyle.Render("Vos réponses"))
	b.WriteString("\n\n")

	answered := 0
	for _, q := range m.schema.Questions() {
		v, ok := m.runner.Recorded(q.ID)
		if !ok {
			continue
		}
		answered++
		b.WriteString(fmt.Sprintf("%s\n  %s\n", InfoStyle.Render(q.Title), v.String()))
	}
	if answered == 0 {
		b.WriteString(InfoStyle.Render("Aucune réponse"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("Moteur : %s", m.schema.Engine)))
	return BorderStyle.Render(b.String())
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	rows := [][2]string{
		{"↑/k ↓/j", "choisir une option"},
		{"espace/x", "cocher une case"},
		{"enter", "valider la réponse"},
		{"tab", "passer la question"},
		{"esc", "question précédente / retour"},
		{"s", "lancer la simulation"},
		{"b", "construire la requête sans l'envoyer"},
		{"r", "afficher la requête de calcul"},
		{"q", "quitter"},
	}

	var b strings.Builder
	b.WriteString(QuestionStyle.Render("Raccourcis"))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString(HelpKeyStyle.Render(row[0]) + HelpDescStyle.Render(row[1]) + "\n")
	}
	return BorderStyle.Render(b.String())
}
