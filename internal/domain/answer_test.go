package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAnswerValue_UnmarshalJSON(t *testing.T) {
	body := `{
		"statut-professionnel": "etudiant",
		"loyer-montant-mensuel": 452.5,
		"alternant": true,
		"situations-particulieres": ["handicap", "enceinte"],
		"code-postal-nouvelle-ville": {"text": "Lyon (69001)", "value": "69123"},
		"type-logement": null
	}`

	var answers Answers
	require.NoError(t, json.Unmarshal([]byte(body), &answers))

	s, ok := answers["statut-professionnel"].AsString()
	assert.True(t, ok)
	assert.Equal(t, "etudiant", s)

	n, ok := answers["loyer-montant-mensuel"].AsNumber()
	assert.True(t, ok)
	assert.True(t, n.Equal(decimal.RequireFromString("452.5")))

	b, ok := answers["alternant"].AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	choices, ok := answers["situations-particulieres"].AsChoices()
	assert.True(t, ok)
	assert.Equal(t, []string{"handicap", "enceinte"}, choices)

	combo, ok := answers["code-postal-nouvelle-ville"].AsCombobox()
	assert.True(t, ok)
	assert.Equal(t, ComboboxValue{Text: "Lyon (69001)", Value: "69123"}, combo)

	assert.True(t, answers["type-logement"].IsAbsent())
	assert.NotContains(t, answers.Keys(), "type-logement")
}

func TestAnswerValue_UnmarshalJSONRejects(t *testing.T) {
	for _, body := range []string{
		`[1, 2]`,
		`{"text": "Lyon", "value": "69123", "extra": 1}`,
		`{"label": "Lyon"}`,
	} {
		var v AnswerValue
		assert.Error(t, json.Unmarshal([]byte(body), &v), body)
	}
}

func TestAnswerValue_UnmarshalYAML(t *testing.T) {
	body := `
statut-professionnel: alternance
date-naissance: 2004-06-01
nombre-enfants-a-charge: 2
boursier: false
situations-particulieres: [aucune]
code-postal-nouvelle-ville:
  text: Paris
  value: "75056"
type-logement: ~
`
	var answers Answers
	require.NoError(t, yaml.Unmarshal([]byte(body), &answers))

	assert.Equal(t, AnswerString, answers["statut-professionnel"].Kind())
	d, _ := answers["date-naissance"].AsString()
	assert.Equal(t, "2004-06-01", d)
	n, _ := answers["nombre-enfants-a-charge"].AsNumber()
	assert.Equal(t, int64(2), n.IntPart())
	assert.Equal(t, AnswerBoolean, answers["boursier"].Kind())
	assert.Equal(t, AnswerChoices, answers["situations-particulieres"].Kind())
	c, _ := answers["code-postal-nouvelle-ville"].AsCombobox()
	assert.Equal(t, "75056", c.Value)
	assert.True(t, answers["type-logement"].IsAbsent())
}

func TestAnswerValue_JSONRoundTrip(t *testing.T) {
	answers := Answers{
		"a": StringAnswer("x"),
		"b": NumberAnswer(decimal.RequireFromString("12.75")),
		"c": BoolAnswer(false),
		"d": ChoicesAnswer(),
		"e": ComboboxAnswer("Lille", "59350"),
	}

	data, err := json.Marshal(answers)
	require.NoError(t, err)

	var back Answers
	require.NoError(t, json.Unmarshal(data, &back))
	for key, v := range answers {
		assert.True(t, v.Equal(back[key]), "answer %s changed: %s vs %s", key, v, back[key])
	}
}

func TestAnswerValue_CheckShape(t *testing.T) {
	tests := []struct {
		qt    QuestionType
		ok    AnswerValue
		wrong AnswerValue
	}{
		{QuestionRadio, StringAnswer("x"), BoolAnswer(true)},
		{QuestionDate, StringAnswer("2025-01-01"), IntAnswer(2025)},
		{QuestionNumber, IntAnswer(3), StringAnswer("3")},
		{QuestionBoolean, BoolAnswer(false), StringAnswer("non")},
		{QuestionCheckbox, ChoicesAnswer("a"), StringAnswer("a")},
		{QuestionCombobox, ComboboxAnswer("Paris", "75056"), StringAnswer("75056")},
	}

	for _, tt := range tests {
		t.Run(string(tt.qt), func(t *testing.T) {
			assert.NoError(t, tt.ok.CheckShape(tt.qt))
			assert.Error(t, tt.wrong.CheckShape(tt.qt))
			assert.NoError(t, AnswerValue{}.CheckShape(tt.qt), "absent is always accepted")
		})
	}

	assert.Error(t, StringAnswer("x").CheckShape("slider"))
}

func TestAnswerValue_EngineValue(t *testing.T) {
	v, err := IntAnswer(450).EngineValue()
	require.NoError(t, err)
	assert.Equal(t, 450.0, v)

	v, err = ComboboxAnswer("Paris", "75056").EngineValue()
	require.NoError(t, err)
	assert.Equal(t, "75056", v)

	_, err = ChoicesAnswer("a").EngineValue()
	assert.Error(t, err)
	_, err = AnswerValue{}.EngineValue()
	assert.Error(t, err)
}

func TestAnswers_CloneIsIndependent(t *testing.T) {
	selection := []string{"handicap"}
	original := Answers{"situations-particulieres": ChoicesAnswer(selection...)}
	selection[0] = "enceinte"

	clone := original.Clone()
	clone["autre"] = BoolAnswer(true)

	got, _ := original["situations-particulieres"].AsChoices()
	assert.Equal(t, []string{"handicap"}, got)
	assert.NotContains(t, original, "autre")
}
