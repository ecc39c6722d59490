package scenes

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/tui/tuimsg"
	"github.com/aides-simplifiees/simulateur/internal/tui/tuistyles"
)

var (
	keyUp     = key.NewBinding(key.WithKeys("up", "k"))
	keyDown   = key.NewBinding(key.WithKeys("down", "j"))
	keyToggle = key.NewBinding(key.WithKeys(" ", "x"))
	keySubmit = key.NewBinding(key.WithKeys("enter"))
	keySkip   = key.NewBinding(key.WithKeys("tab"))
	keyBack   = key.NewBinding(key.WithKeys("esc"))
)

// booleanChoices lets boolean questions be picked from a list
var booleanChoices = []domain.Choice{{ID: "oui", Title: "Oui"}, {ID: "non", Title: "Non"}}

// QuestionModel asks one survey question. Radio, checkbox and boolean
// questions are answered from a list; the others through a text field.
type QuestionModel struct {
	question *domain.Question
	context  string
	input    textinput.Model
	cursor   int
	selected map[string]bool
	err      error
	width    int
}

// NewQuestionModel creates an empty question scene
func NewQuestionModel() *QuestionModel {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 40
	return &QuestionModel{input: ti, selected: map[string]bool{}}
}

// SetQuestion shows q, pre-filled with a previous answer if there is one.
// context is displayed above the question, typically "step / page".
func (m *QuestionModel) SetQuestion(q *domain.Question, context string, previous domain.AnswerValue, answered bool) tea.Cmd {
	m.question = q
	m.context = context
	m.cursor = 0
	m.err = nil
	m.selected = map[string]bool{}
	m.input.Reset()
	m.input.Placeholder = placeholder(q)

	if answered {
		m.prefill(previous)
	}

	if m.usesList() {
		m.input.Blur()
		return nil
	}
	m.input.Focus()
	return textinput.Blink
}

func (m *QuestionModel) prefill(v domain.AnswerValue) {
	switch m.question.Type {
	case domain.QuestionRadio:
		if s, ok := v.AsString(); ok {
			m.cursor = max(0, indexOf(m.choices(), s))
		}
	case domain.QuestionBoolean:
		if b, ok := v.AsBool(); ok && !b {
			m.cursor = 1
		}
	case domain.QuestionCheckbox:
		if ids, ok := v.AsChoices(); ok {
			for _, id := range ids {
				m.selected[id] = true
			}
		}
	case domain.QuestionCombobox:
		if c, ok := v.AsCombobox(); ok {
			if c.Text == c.Value {
				m.input.SetValue(c.Value)
			} else {
				m.input.SetValue(c.Text + "|" + c.Value)
			}
		}
	case domain.QuestionDate:
		if s, ok := v.AsString(); ok {
			m.input.SetValue(s)
		}
	case domain.QuestionNumber:
		if d, ok := v.AsNumber(); ok {
			m.input.SetValue(d.String())
		}
	}
}

// SetWidth updates the scene width
func (m *QuestionModel) SetWidth(width int) {
	m.width = width
}

// Question returns the question being asked
func (m *QuestionModel) Question() *domain.Question {
	return m.question
}

// Err returns the last input error
func (m *QuestionModel) Err() error {
	return m.err
}

// SetErr shows an error under the question
func (m *QuestionModel) SetErr(err error) {
	m.err = err
}

func (m *QuestionModel) usesList() bool {
	return m.question != nil && (m.question.Type.HasChoices() || m.question.Type == domain.QuestionBoolean)
}

func (m *QuestionModel) choices() []domain.Choice {
	if m.question.Type == domain.QuestionBoolean {
		return booleanChoices
	}
	return m.question.Choices
}

// Update handles messages for the question scene
func (m *QuestionModel) Update(msg tea.Msg) (*QuestionModel, tea.Cmd) {
	if m.question == nil {
		return m, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keyBack):
			return m, func() tea.Msg { return tuimsg.PreviousQuestionMsg{} }
		case key.Matches(msg, keySkip):
			return m, func() tea.Msg { return tuimsg.SkipQuestionMsg{} }
		case key.Matches(msg, keySubmit):
			return m.submit()
		}
		if m.usesList() {
			return m.handleListKey(msg), nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *QuestionModel) handleListKey(msg tea.KeyMsg) *QuestionModel {
	choices := m.choices()
	switch {
	case key.Matches(msg, keyUp):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keyDown):
		if m.cursor < len(choices)-1 {
			m.cursor++
		}
	case key.Matches(msg, keyToggle):
		if m.question.Type == domain.QuestionCheckbox && len(choices) > 0 {
			id := choices[m.cursor].ID
			m.selected[id] = !m.selected[id]
		}
	}
	return m
}

// Value builds the answer from the current selection or text
func (m *QuestionModel) Value() (domain.AnswerValue, error) {
	q := m.question
	switch q.Type {
	case domain.QuestionRadio:
		if len(q.Choices) == 0 {
			return domain.AnswerValue{}, fmt.Errorf("question %s has no choices", q.ID)
		}
		return domain.StringAnswer(q.Choices[m.cursor].ID), nil
	case domain.QuestionBoolean:
		return domain.BoolAnswer(m.cursor == 0), nil
	case domain.QuestionCheckbox:
		var ids []string
		for _, c := range q.Choices {
			if m.selected[c.ID] {
				ids = append(ids, c.ID)
			}
		}
		return domain.ChoicesAnswer(ids...), nil
	default:
		return ParseInput(q, m.input.Value())
	}
}

func (m *QuestionModel) submit() (*QuestionModel, tea.Cmd) {
	v, err := m.Value()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	id := m.question.ID
	return m, func() tea.Msg {
		return tuimsg.AnswerSubmittedMsg{QuestionID: id, Value: v}
	}
}

// View renders the question scene
func (m *QuestionModel) View() string {
	if m.question == nil {
		return tuistyles.BorderStyle.Render("Aucune question")
	}
	q := m.question
	var b strings.Builder

	if m.context != "" {
		b.WriteString(tuistyles.SubtitleStyle.Render(m.context))
		b.WriteString("\n\n")
	}
	b.WriteString(tuistyles.QuestionStyle.Render(q.Title))
	b.WriteString("\n")
	if q.Description != "" {
		b.WriteString(tuistyles.InfoStyle.Render(q.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.usesList() {
		for i, c := range m.choices() {
			b.WriteString(m.renderChoice(i, c))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if q.Tooltip != "" {
		b.WriteString("\n")
		b.WriteString(tuistyles.InfoStyle.Render("ⓘ " + q.Tooltip))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(tuistyles.ErrorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	style := tuistyles.BorderStyle
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(b.String())
}

func (m *QuestionModel) renderChoice(i int, c domain.Choice) string {
	cursor := "  "
	style := tuistyles.UnselectedItemStyle
	if i == m.cursor {
		cursor = "› "
		style = tuistyles.SelectedItemStyle
	}

	mark := ""
	if m.question.Type == domain.QuestionCheckbox {
		mark = "[ ] "
		if m.selected[c.ID] {
			mark = "[x] "
		}
	}

	title := c.Title
	if title == "" {
		title = c.ID
	}
	return cursor + style.Render(mark+title)
}

func placeholder(q *domain.Question) string {
	switch q.Type {
	case domain.QuestionNumber:
		switch {
		case q.Min != nil && q.Max != nil:
			return fmt.Sprintf("nombre entre %s et %s", q.Min, q.Max)
		case q.Min != nil:
			return fmt.Sprintf("nombre supérieur ou égal à %s", q.Min)
		default:
			return "nombre"
		}
	case domain.QuestionDate:
		return "AAAA-MM-JJ"
	case domain.QuestionCombobox:
		if q.Placeholder != "" {
			return q.Placeholder
		}
		return "libellé|valeur"
	default:
		return ""
	}
}

func indexOf(choices []domain.Choice, id string) int {
	for i, c := range choices {
		if c.ID == id {
			return i
		}
	}
	return -1
}
