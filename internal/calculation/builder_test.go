package calculation

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referenceDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

const month = "2025-03"

func newTestBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()
	b, err := NewBuilder(append([]Option{WithReferenceDate(referenceDate)}, opts...)...)
	require.NoError(t, err)
	return b
}

func value(t *testing.T, req openfisca.CalculationRequest, kind openfisca.EntityKind, id, variable, period string) any {
	t.Helper()
	v, ok := req.Value(kind, id, variable, period)
	require.True(t, ok, "%s.%s.%s[%s] missing", kind, id, variable, period)
	return v
}

func TestBuild_AlternanceScenario(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{
		"statut-professionnel": domain.StringAnswer("alternance"),
	}, []string{"alternant"})

	require.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, true, value(t, result.Request, openfisca.Individuals, "usager", "alternant", month))
	_, hasActivite := result.Request.Value(openfisca.Individuals, "usager", "activite", month)
	assert.False(t, hasActivite)
}

func TestBuild_LocataireScenario(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{
		"situation-logement": domain.StringAnswer("locataire"),
	}, nil)

	require.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "locataire_vide",
		value(t, result.Request, openfisca.Households, "menage_usager", "statut_occupation_logement", month))
	assert.Equal(t, "75056",
		value(t, result.Request, openfisca.Households, "menage_usager", "depcom", month))
}

func TestBuild_TypeLogementRefinesSituation(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{
		"situation-logement": domain.StringAnswer("locataire"),
		"type-logement":      domain.StringAnswer("logement-meuble"),
	}, nil)

	assert.Empty(t, result.Errors)
	assert.Equal(t, "locataire_meuble",
		value(t, result.Request, openfisca.Households, "menage_usager", "statut_occupation_logement", month))
}

func TestBuild_TypeLogementDoesNotRefineOwner(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{
		"situation-logement": domain.StringAnswer("proprietaire"),
		"type-logement":      domain.StringAnswer("logement-vide"),
	}, nil)

	require.True(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, openfisca.MappingConflict, result.Errors[0].Type)
	assert.Equal(t, "type-logement", result.Errors[0].AnswerKey)
	assert.Equal(t, "proprietaire",
		value(t, result.Request, openfisca.Households, "menage_usager", "statut_occupation_logement", month))
}

func TestBuild_ConflictingAnswers(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{
		"boursier":       domain.BoolAnswer(true),
		"echelon-bourse": domain.StringAnswer("non-boursier"),
	}, nil)

	require.True(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, openfisca.MappingConflict, result.Errors[0].Type)
	assert.Equal(t, "echelon-bourse", result.Errors[0].AnswerKey)
	// the first write is kept
	assert.Equal(t, true, value(t, result.Request, openfisca.Individuals, "usager", "boursier", month))
}

func TestBuild_DispatchErrorsAreCollected(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{
		"statut-professionnel":     domain.StringAnswer("astronaute"),
		"situations-particulieres": domain.ChoicesAnswer("aucune", "handicap"),
		"loyer-montant-mensuel":    domain.IntAnswer(520),
	}, nil)

	require.True(t, result.Success)
	require.Len(t, result.Errors, 2)
	for _, e := range result.Errors {
		assert.Equal(t, openfisca.MappingUnexpectedValue, e.Type)
	}
	// other answers still land in the request
	assert.Equal(t, 520.0, value(t, result.Request, openfisca.Households, "menage_usager", "loyer", month))
}

func TestBuild_UnknownKeys(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{
		"couleur-preferee": domain.StringAnswer("bleu"),
	}, []string{"mobili-jeune", "aide-inexistante"})

	require.True(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, openfisca.MappingUnknownVariable, result.Errors[0].Type)
	assert.Equal(t, "aide-inexistante", result.Errors[0].AnswerKey)

	assert.Nil(t, value(t, result.Request, openfisca.Individuals, "usager", "mobili_jeune", month))
}

func TestBuild_PlaceholdersForDerivedKeys(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{}, []string{"locapass", "aide-personnalisee-logement-eligibilite"})

	assert.Empty(t, result.Errors)
	assert.Nil(t, value(t, result.Request, openfisca.Individuals, "usager", "locapass_eligibilite", month))
	assert.Nil(t, value(t, result.Request, openfisca.Families, "famille_usager", "aide_logement", month))
}

func TestBuild_PeriodTypes(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{
		"date-naissance":           domain.StringAnswer("2004-06-01"),
		"revenu-fiscal-reference":  domain.IntAnswer(12000),
		"revenus-activite-annuels": domain.IntAnswer(9000),
	}, nil)

	assert.Empty(t, result.Errors)
	assert.Equal(t, "2004-06-01", value(t, result.Request, openfisca.Individuals, "usager", "date_naissance", "ETERNITY"))
	assert.Equal(t, 12000.0, value(t, result.Request, openfisca.TaxHouseholds, "foyer_fiscal_usager", "rfr", "2025"))
	assert.Equal(t, 9000.0, value(t, result.Request, openfisca.Individuals, "usager", "revenus_activite", "year:2024-03"))
}

func TestBuild_ChildrenRelationship(t *testing.T) {
	b := newTestBuilder(t)

	result := b.Build(domain.Answers{
		"nombre-enfants-a-charge": domain.IntAnswer(2),
	}, nil)

	require.Empty(t, result.Errors)
	assert.Contains(t, result.Request[openfisca.Individuals], "enfant_1")
	assert.Contains(t, result.Request[openfisca.Individuals], "enfant_2")
	famille := result.Request[openfisca.Families]["famille_usager"]
	assert.Equal(t, []string{"enfant_1", "enfant_2"}, famille.Roles[openfisca.RoleChildren])

	for _, bad := range []domain.AnswerValue{domain.IntAnswer(-1), domain.StringAnswer("deux")} {
		result = b.Build(domain.Answers{"nombre-enfants-a-charge": bad}, nil)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, openfisca.MappingUnexpectedValue, result.Errors[0].Type)
	}
}

func TestBuild_ParcoursupScholarshipOverride(t *testing.T) {
	b := newTestBuilder(t)
	answers := domain.Answers{
		"echelon-bourse":  domain.StringAnswer("echelon-3"),
		"mobilite-etudes": domain.StringAnswer("parcoursup-nouvelle-region"),
	}

	t.Run("applies", func(t *testing.T) {
		result := b.Build(answers, []string{"aide-mobilite-parcoursup"})
		assert.Empty(t, result.Errors)
		assert.Equal(t, 1.0, value(t, result.Request, openfisca.Families, "famille_usager", "bourse_lycee", month))
	})

	t.Run("not requested", func(t *testing.T) {
		result := b.Build(answers, []string{"mobili-jeune"})
		_, ok := result.Request.Value(openfisca.Families, "famille_usager", "bourse_lycee", month)
		assert.False(t, ok)
	})

	t.Run("bourse lycee already present", func(t *testing.T) {
		withLycee := answers.Clone()
		withLycee["bourse-lycee"] = domain.IntAnswer(0)
		result := b.Build(withLycee, []string{"aide-mobilite-parcoursup"})
		assert.Equal(t, 0.0, value(t, result.Request, openfisca.Families, "famille_usager", "bourse_lycee", month))
	})

	t.Run("not a scholarship holder", func(t *testing.T) {
		other := answers.Clone()
		other["echelon-bourse"] = domain.StringAnswer("non-boursier")
		result := b.Build(other, []string{"aide-mobilite-parcoursup"})
		_, ok := result.Request.Value(openfisca.Families, "famille_usager", "bourse_lycee", month)
		assert.False(t, ok)
	})
}

func TestBuild_CustomDefaults(t *testing.T) {
	b := newTestBuilder(t, WithDefaults(DefaultValue{
		Entity: openfisca.Individuals, Variable: "nationalite", Period: openfisca.PeriodMonth, Value: "FR",
	}))

	result := b.Build(domain.Answers{}, nil)
	assert.Equal(t, "FR", value(t, result.Request, openfisca.Individuals, "usager", "nationalite", month))
	_, ok := result.Request.Value(openfisca.Households, "menage_usager", "depcom", month)
	assert.False(t, ok, "built-in defaults are replaced")

	result = b.Build(domain.Answers{"nationalite": domain.StringAnswer("DE")}, nil)
	assert.Equal(t, "DE", value(t, result.Request, openfisca.Individuals, "usager", "nationalite", month))
}

func TestBuild_CustomSelfID(t *testing.T) {
	b := newTestBuilder(t, WithSelfID("demandeur"))

	result := b.Build(domain.Answers{"age": domain.IntAnswer(19)}, nil)
	assert.Equal(t, 19.0, value(t, result.Request, openfisca.Individuals, "demandeur", "age", month))
	assert.Contains(t, result.Request[openfisca.Households], "menage_demandeur")
}

func TestBuild_NilAnswers(t *testing.T) {
	result := newTestBuilder(t).Build(nil, []string{"alternant"})
	assert.False(t, result.Success)
	assert.Error(t, result.Err)
}

func TestBuild_Deterministic(t *testing.T) {
	b := newTestBuilder(t)
	answers := domain.Answers{
		"statut-professionnel":     domain.StringAnswer("etudiant"),
		"situation-logement":       domain.StringAnswer("locataire"),
		"type-logement":            domain.StringAnswer("logement-social"),
		"loyer-montant-mensuel":    domain.IntAnswer(380),
		"nombre-enfants-a-charge":  domain.IntAnswer(1),
		"situations-particulieres": domain.ChoicesAnswer("handicap"),
	}
	requested := []string{"aide-personnalisee-logement", "mobili-jeune", "locapass"}

	first, err := json.Marshal(b.Build(answers, requested).Request)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(b.Build(answers, requested).Request)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestBuild_ConcurrentUse(t *testing.T) {
	b := newTestBuilder(t)

	var wg sync.WaitGroup
	results := make([]*BuildResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = b.Build(domain.Answers{
				"age": domain.IntAnswer(int64(18 + i)),
			}, []string{"mobili-jeune"})
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		assert.Empty(t, r.Errors)
		v, _ := r.Request.Value(openfisca.Individuals, "usager", "age", month)
		assert.Equal(t, float64(18+i), v, fmt.Sprintf("build %d", i))
	}
}

type recordingLogger struct {
	NopLogger
	warnings []string
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func TestBuild_ProtectedVariable(t *testing.T) {
	logger := &recordingLogger{}
	catalog := openfisca.Catalog{
		openfisca.Households: openfisca.Table{
			"conjoint": {Entity: openfisca.Households, Variable: openfisca.RoleSpouse, Period: openfisca.PeriodMonth},
		},
	}
	b := newTestBuilder(t, WithCatalog(catalog), WithDefaults(), WithLogger(logger))

	result := b.Build(domain.Answers{"conjoint": domain.StringAnswer("quelqu-un")}, nil)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, openfisca.MappingProtectedVariable, result.Errors[0].Type)
	assert.Len(t, logger.warnings, 1)
	assert.Empty(t, result.Request[openfisca.Households]["menage_usager"].Roles[openfisca.RoleSpouse])
}

func TestNewBuilder_RejectsCyclicRules(t *testing.T) {
	noop := func(domain.SimulationResults) {}
	_, err := NewBuilder(WithDerivedRules(
		DerivedRule{Name: "a", Reads: []string{"y"}, Writes: []string{"x"}, Apply: noop},
		DerivedRule{Name: "b", Reads: []string{"x"}, Writes: []string{"y"}, Apply: noop},
	))
	var dce *DerivationCycleError
	assert.ErrorAs(t, err, &dce)
}
