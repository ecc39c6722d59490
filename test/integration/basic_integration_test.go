package integration

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/config"
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
	"github.com/aides-simplifiees/simulateur/internal/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const month = "2025-03"

// TestBasicIntegration tests basic integration functionality
func TestBasicIntegration(t *testing.T) {
	t.Run("schemas_validate_and_normalize", func(t *testing.T) {
		validator, err := schema.NewValidator("1.0.0")
		require.NoError(t, err)

		for _, name := range []string{"demenagement-logement.yaml", "entree-apprentissage.json", "aides-locales.yaml"} {
			t.Run(name, func(t *testing.T) {
				doc, err := config.NewInputParser().LoadDocument(fixture(name))
				require.NoError(t, err)
				result := validator.Validate(doc)
				assert.True(t, result.Valid, result.Summary())

				n := loadSurvey(t, name)
				for _, step := range n.Steps {
					assert.NotNil(t, step.Pages, "step %s should be paginated", step.ID)
				}
			})
		}
	})

	t.Run("flat_steps_get_one_page_per_question", func(t *testing.T) {
		n := loadSurvey(t, "demenagement-logement.yaml")
		require.Len(t, n.Steps, 2)
		logement := n.Steps[1]
		require.Len(t, logement.Pages, 4)
		for i, p := range logement.Pages {
			assert.Equal(t, schema.PageID("logement", i+1), p.ID)
			require.Len(t, p.Questions, 1)
			assert.Equal(t, p.Title, p.Questions[0].Title)
		}
	})

	t.Run("deep_steps_keep_results_pages", func(t *testing.T) {
		n := loadSurvey(t, "entree-apprentissage.json")
		pages := n.Steps[0].Pages
		require.Len(t, pages, 3)
		assert.Equal(t, domain.PageResults, pages[2].EffectiveKind())
		assert.Equal(t, []string{"mobili-jeune"}, pages[2].Dispositifs)
		assert.Len(t, n.Questions(), 4)
	})

	t.Run("locataire_request", func(t *testing.T) {
		sim, err := newEngine(t, "").BuildRequest(
			loadSurvey(t, "demenagement-logement.yaml"), loadAnswers(t, "answers-locataire.yaml"))
		require.NoError(t, err)
		assert.Empty(t, sim.Dropped)
		assert.Empty(t, sim.Errors)

		v, ok := sim.Request.Value(openfisca.Households, "menage_usager", "statut_occupation_logement", month)
		require.True(t, ok)
		assert.Equal(t, "locataire_meuble", v, "type-logement refines situation-logement")

		v, ok = sim.Request.Value(openfisca.Households, "menage_usager", "depcom", month)
		require.True(t, ok)
		assert.Equal(t, "69123", v)

		v, ok = sim.Request.Value(openfisca.Individuals, "usager", "activite", month)
		require.True(t, ok)
		assert.Equal(t, "etudiant", v)
	})

	t.Run("proprietaire_drops_rental_answers", func(t *testing.T) {
		sim, err := newEngine(t, "").BuildRequest(
			loadSurvey(t, "demenagement-logement.yaml"), loadAnswers(t, "answers-proprietaire.yaml"))
		require.NoError(t, err)
		assert.Equal(t, []string{"type-logement", "loyer-montant-mensuel"}, sim.Dropped)

		_, ok := sim.Request.Value(openfisca.Households, "menage_usager", "loyer", month)
		assert.False(t, ok)
	})

	t.Run("partial_answers_hide_dependent_questions", func(t *testing.T) {
		sim, err := newEngine(t, "").BuildRequest(
			loadSurvey(t, "demenagement-logement.yaml"),
			domain.Answers{"statut-professionnel": domain.StringAnswer("alternance")})
		require.NoError(t, err)
		assert.Empty(t, sim.Dropped)
		assert.Empty(t, sim.Errors)

		v, ok := sim.Request.Value(openfisca.Individuals, "usager", "alternant", month)
		require.True(t, ok)
		assert.Equal(t, true, v)
	})

	t.Run("alternance_request", func(t *testing.T) {
		sim, err := newEngine(t, "").BuildRequest(
			loadSurvey(t, "entree-apprentissage.json"), loadAnswers(t, "answers-alternance.json"))
		require.NoError(t, err)
		assert.Empty(t, sim.Errors)

		for variable, want := range map[string]any{
			"alternant":         true,
			"handicap":          true,
			"salaire_imposable": float64(1100),
		} {
			v, ok := sim.Request.Value(openfisca.Individuals, "usager", variable, month)
			require.True(t, ok, variable)
			assert.Equal(t, want, v, variable)
		}
	})

	t.Run("simulation_round_trip", func(t *testing.T) {
		server := fakeEngine(t, http.StatusOK, engineResponse(t))
		sim, err := newEngine(t, server.URL).Run(context.Background(),
			loadSurvey(t, "demenagement-logement.yaml"), loadAnswers(t, "answers-locataire.yaml"))
		require.NoError(t, err)

		amount, ok := sim.Results.Amount("aide-personnalisee-logement")
		require.True(t, ok)
		assert.True(t, amount.Equal(decimal.RequireFromString("212.35")))

		for _, key := range []string{"aide-personnalisee-logement-eligibilite", "garantie-visale-eligibilite"} {
			eligible, ok := sim.Results.Bool(key)
			require.True(t, ok, key)
			assert.True(t, eligible, key)
		}
	})

	t.Run("local_rules", func(t *testing.T) {
		sim, err := newEngine(t, "").Eligibility(
			loadSurvey(t, "aides-locales.yaml"), domain.Answers{"age": domain.IntAnswer(30), "boursier": domain.BoolAnswer(true)})
		require.NoError(t, err)
		assert.Empty(t, sim.Errors)

		eligible, ok := sim.Results.Bool("pass-mobilite-eligibilite")
		require.True(t, ok)
		assert.False(t, eligible, "pass mobilité stops at 25")
		amount, ok := sim.Results.Amount("pass-mobilite")
		require.True(t, ok)
		assert.True(t, amount.IsZero())

		amount, ok = sim.Results.Amount("aide-permis")
		require.True(t, ok)
		assert.True(t, amount.Equal(decimal.NewFromInt(500)))
	})
}

// TestErrorHandling tests error handling scenarios
func TestErrorHandling(t *testing.T) {
	parser := config.NewInputParser()

	t.Run("missing_files", func(t *testing.T) {
		_, err := parser.LoadSchema("nonexistent.yaml")
		assert.Error(t, err)
		_, err = parser.LoadAnswers("nonexistent.yaml")
		assert.Error(t, err)
		_, err = parser.LoadResponse("nonexistent.json")
		assert.Error(t, err)
	})

	t.Run("invalid_settings", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.yaml")
		require.NoError(t, os.WriteFile(path, []byte("engine:\n  url: ftp://example.org\n"), 0o644))
		_, err := parser.LoadSettings(path)
		assert.ErrorContains(t, err, "url must be http or https")
	})

	t.Run("engine_error_payload", func(t *testing.T) {
		server := fakeEngine(t, http.StatusBadRequest, []byte(`{"error": "Variable inconnue: loyer_total"}`))
		sim, err := newEngine(t, server.URL).Run(context.Background(),
			loadSurvey(t, "demenagement-logement.yaml"), loadAnswers(t, "answers-locataire.yaml"))
		require.NoError(t, err)
		require.Len(t, sim.Errors, 1)
		var engineErr *calculation.EngineError
		assert.ErrorAs(t, sim.Errors[0], &engineErr)
		assert.Empty(t, sim.Results)
	})

	t.Run("engine_unavailable", func(t *testing.T) {
		server := fakeEngine(t, http.StatusBadGateway, []byte("bad gateway"))
		_, err := newEngine(t, server.URL).Run(context.Background(),
			loadSurvey(t, "demenagement-logement.yaml"), loadAnswers(t, "answers-locataire.yaml"))
		assert.ErrorContains(t, err, "502")
	})

	t.Run("unexpected_choice", func(t *testing.T) {
		answers := loadAnswers(t, "answers-locataire.yaml")
		answers["situation-logement"] = domain.StringAnswer("peniche")
		sim, err := newEngine(t, "").BuildRequest(loadSurvey(t, "demenagement-logement.yaml"), answers)
		require.NoError(t, err)
		require.NotEmpty(t, sim.Errors)
		assert.Contains(t, sim.Errors[0].Error(), "situation-logement")
	})

	t.Run("mixed_step_is_rejected", func(t *testing.T) {
		raw := &domain.Schema{
			ID: "mixed", Version: "1", Title: "Mixed", QuestionsToAPI: []string{"mobili-jeune"},
			Steps: []domain.Step{{
				ID: "s", Title: "S",
				Pages:     []domain.Page{{ID: "p"}},
				Questions: []domain.Question{{ID: "age", Title: "Age", Type: domain.QuestionNumber}},
			}},
		}
		_, err := schema.Normalize(raw)
		var structural *schema.StructuralError
		assert.ErrorAs(t, err, &structural)
	})
}
