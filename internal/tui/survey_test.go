package tui

import (
	"testing"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surveySchema() *domain.NormalizedSchema {
	zero := decimal.Zero
	return &domain.NormalizedSchema{
		ID:             "demenagement-logement",
		Title:          "Déménagement",
		Engine:         domain.EngineOpenFisca,
		QuestionsToAPI: []string{"aide-personnalisee-logement"},
		Steps: []domain.NormalizedStep{
			{
				ID:    "logement",
				Title: "Logement",
				Pages: []domain.Page{
					{ID: "logement_page_1", Title: "Situation", Questions: []domain.Question{
						{ID: "situation-logement", Title: "Situation", Type: domain.QuestionRadio,
							Choices: []domain.Choice{{ID: "locataire", Title: "Locataire"}, {ID: "proprietaire", Title: "Propriétaire"}}},
						{ID: "loyer-montant-mensuel", Title: "Loyer", Type: domain.QuestionNumber, Min: &zero,
							VisibleWhen: `answers["situation-logement"] == "locataire"`},
					}},
					{ID: "logement_resultats", Kind: domain.PageResults, Dispositifs: []string{"aide-personnalisee-logement"}},
				},
			},
			{
				ID:    "etudes",
				Title: "Études",
				Pages: []domain.Page{{ID: "etudes_page_1", Questions: []domain.Question{
					{ID: "boursier", Title: "Boursier ?", Type: domain.QuestionBoolean},
				}}},
			},
		},
	}
}

func currentID(t *testing.T, r *Runner) string {
	t.Helper()
	it, ok, err := r.Current()
	require.NoError(t, err)
	require.True(t, ok, "the survey should not be over")
	return it.Question.ID
}

func TestRunner_WalksVisibleQuestions(t *testing.T) {
	r, err := NewRunner(surveySchema(), nil, nil)
	require.NoError(t, err)

	_, total := r.Progress()
	assert.Equal(t, 3, total, "results pages hold no questions")

	assert.Equal(t, "situation-logement", currentID(t, r))
	require.NoError(t, r.Answer(domain.StringAnswer("proprietaire")))

	assert.Equal(t, "boursier", currentID(t, r), "the rent question is hidden for owners")
	require.NoError(t, r.Answer(domain.BoolAnswer(true)))

	assert.True(t, r.Done())
	assert.Equal(t, domain.Answers{
		"situation-logement": domain.StringAnswer("proprietaire"),
		"boursier":           domain.BoolAnswer(true),
	}, r.Answers())
}

func TestRunner_AnswerIsChecked(t *testing.T) {
	r, err := NewRunner(surveySchema(), nil, nil)
	require.NoError(t, err)

	assert.Error(t, r.Answer(domain.StringAnswer("colocataire")))
	assert.Error(t, r.Answer(domain.BoolAnswer(true)))
	assert.Equal(t, "situation-logement", currentID(t, r), "a rejected answer does not advance")

	require.NoError(t, r.Answer(domain.StringAnswer("locataire")))
	assert.Equal(t, "loyer-montant-mensuel", currentID(t, r))
	assert.Error(t, r.Answer(domain.IntAnswer(-5)))
}

func TestRunner_SkipAndBack(t *testing.T) {
	r, err := NewRunner(surveySchema(), nil, domain.Answers{"situation-logement": domain.StringAnswer("locataire")})
	require.NoError(t, err)

	assert.False(t, r.Back(), "nothing to go back to")

	require.NoError(t, r.Answer(domain.StringAnswer("locataire")))
	require.NoError(t, r.Skip())
	assert.Equal(t, "boursier", currentID(t, r))
	_, answered := r.Recorded("loyer-montant-mensuel")
	assert.False(t, answered)

	require.True(t, r.Back())
	assert.Equal(t, "loyer-montant-mensuel", currentID(t, r))
	require.True(t, r.Back())
	assert.Equal(t, "situation-logement", currentID(t, r))
	v, ok := r.Recorded("situation-logement")
	require.True(t, ok, "going back keeps the answer")
	assert.Equal(t, domain.StringAnswer("locataire"), v)
}

func TestRunner_CompleteSurveyRejectsAnswers(t *testing.T) {
	r, err := NewRunner(&domain.NormalizedSchema{ID: "vide"}, nil, nil)
	require.NoError(t, err)
	assert.True(t, r.Done())
	assert.Error(t, r.Answer(domain.BoolAnswer(true)))
	assert.Error(t, r.Skip())
}

func TestRunner_PrefillIsCopied(t *testing.T) {
	prefill := domain.Answers{"boursier": domain.BoolAnswer(false)}
	r, err := NewRunner(surveySchema(), nil, prefill)
	require.NoError(t, err)

	require.NoError(t, r.Answer(domain.StringAnswer("proprietaire")))
	assert.Len(t, prefill, 1)

	_, err = NewRunner(nil, nil, nil)
	assert.Error(t, err)
}

func TestRunner_BadConditionIsAnError(t *testing.T) {
	n := surveySchema()
	n.Steps[0].Pages[0].Questions[0].VisibleWhen = `answers[`
	r, err := NewRunner(n, nil, nil)
	require.NoError(t, err)

	_, _, err = r.Current()
	assert.Error(t, err)
	assert.False(t, r.Done())
}
