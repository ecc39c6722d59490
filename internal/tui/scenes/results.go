package scenes

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/output"
	"github.com/aides-simplifiees/simulateur/internal/rules"
	"github.com/aides-simplifiees/simulateur/internal/tui/components"
	"github.com/aides-simplifiees/simulateur/internal/tui/tuistyles"
)

var keyRequest = key.NewBinding(key.WithKeys("r"))

// ResultsModel shows the outcome of a simulation: one card per dispositif,
// then what went wrong. The calculation request can be toggled.
type ResultsModel struct {
	report      *output.Report
	showRequest bool
	width       int
}

// NewResultsModel creates a new results scene model
func NewResultsModel() *ResultsModel {
	return &ResultsModel{}
}

// SetReport replaces the displayed report
func (m *ResultsModel) SetReport(r *output.Report) {
	m.report = r
	m.showRequest = false
}

// Report returns the displayed report
func (m *ResultsModel) Report() *output.Report {
	return m.report
}

// SetWidth updates the scene width
func (m *ResultsModel) SetWidth(width int) {
	m.width = width
}

// Update handles messages for the results scene
func (m *ResultsModel) Update(msg tea.Msg) (*ResultsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keyRequest) {
		m.showRequest = !m.showRequest
	}
	return m, nil
}

// Cards builds one card per dispositif. An amount and its "-eligibilite"
// key share a card.
func Cards(results domain.SimulationResults) []*components.ResultCard {
	byID := map[string]*components.ResultCard{}
	for _, k := range results.Keys() {
		id := strings.TrimSuffix(k, rules.EligibilitySuffix)
		card, ok := byID[id]
		if !ok {
			card = components.NewResultCard(id)
			byID[id] = card
		}
		v := results[k]
		switch {
		case v.Kind == domain.ResultBoolean && id != k:
			card.WithEligibility(v.Boolean)
		default:
			card.WithValue(output.FormatResult(v))
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	cards := make([]*components.ResultCard, len(ids))
	for i, id := range ids {
		cards[i] = byID[id]
	}
	return cards
}

// View renders the results scene
func (m *ResultsModel) View() string {
	if m.report == nil {
		return tuistyles.BorderStyle.Render("Aucune simulation")
	}
	r := m.report
	var b strings.Builder

	if m.showRequest {
		data, err := json.MarshalIndent(r.Request, "", "  ")
		if err != nil {
			return tuistyles.ErrorStyle.Render(err.Error())
		}
		b.WriteString(tuistyles.QuestionStyle.Render("Requête de calcul"))
		b.WriteString("\n\n")
		b.Write(data)
		return b.String()
	}

	columns := 2
	if m.width >= 120 {
		columns = 3
	}
	if cards := Cards(r.Results); len(cards) > 0 {
		b.WriteString(components.CardGrid(cards, columns))
		b.WriteString("\n")
	} else {
		b.WriteString(tuistyles.InfoStyle.Render("Aucun résultat"))
		b.WriteString("\n")
	}

	if len(r.Dropped) > 0 {
		b.WriteString("\n")
		b.WriteString(tuistyles.InfoStyle.Render("Réponses ignorées : " + strings.Join(r.Dropped, ", ")))
		b.WriteString("\n")
	}
	for _, w := range r.Warnings {
		b.WriteString(tuistyles.WarningStyle.Render("⚠ " + w))
		b.WriteString("\n")
	}
	for _, e := range r.Errors {
		b.WriteString(tuistyles.ErrorStyle.Render("✗ " + e))
		b.WriteString("\n")
	}
	return b.String()
}
