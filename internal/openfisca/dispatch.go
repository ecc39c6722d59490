package openfisca

import (
	"fmt"
	"sort"

	"github.com/aides-simplifiees/simulateur/internal/domain"
)

// Assignments maps variables to the values a dispatcher produced for them
type Assignments map[string]PeriodValues

// Variables returns the assigned variable names sorted
func (a Assignments) Variables() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DispatchFunc expands one answer into engine variables. The period is
// resolved before the value is looked at.
type DispatchFunc func(answerKey string, value domain.AnswerValue, pt PeriodType, periods Periods) (Assignments, error)

// UnexpectedValueError is returned by a dispatcher for an answer value it
// has no case for.
type UnexpectedValueError struct {
	AnswerKey string
	Value     string
}

func (e *UnexpectedValueError) Error() string {
	return fmt.Sprintf("unexpected value %q for %s", e.Value, e.AnswerKey)
}

// cases maps answer codes to the variables they set
type cases map[string]map[string]any

func choiceDispatcher(c cases) DispatchFunc {
	return func(answerKey string, value domain.AnswerValue, pt PeriodType, periods Periods) (Assignments, error) {
		period, err := periods.resolveFor(answerKey, pt)
		if err != nil {
			return nil, err
		}
		code, ok := value.AsString()
		if !ok {
			return nil, &UnexpectedValueError{AnswerKey: answerKey, Value: value.String()}
		}
		vars, ok := c[code]
		if !ok {
			return nil, &UnexpectedValueError{AnswerKey: answerKey, Value: code}
		}
		out := make(Assignments, len(vars))
		for name, v := range vars {
			out[name] = PeriodValues{period: v}
		}
		return out, nil
	}
}

// salarie-hors-alternance sets nothing so that a student status coming
// from another answer is not overridden.
var professionalStatus = choiceDispatcher(cases{
	"etudiant":                {"activite": "etudiant"},
	"alternance":              {"alternant": true},
	"salarie-hors-alternance": {},
	"independant":             {"activite": "actif"},
	"sans-emploi":             {"activite": "chomeur"},
	"inactif":                 {"activite": "inactif"},
	"retraite":                {"activite": "retraite"},
})

// locataire defaults to an unfurnished rental until type-logement says more
var housingSituation = choiceDispatcher(cases{
	"locataire":            {"statut_occupation_logement": "locataire_vide"},
	"proprietaire":         {"statut_occupation_logement": "proprietaire"},
	"heberge-gratuitement": {"statut_occupation_logement": "loge_gratuitement"},
	"residence-etudiante":  {"statut_occupation_logement": "locataire_foyer"},
	"sans-domicile":        {"statut_occupation_logement": "sans_domicile"},
})

var housingType = choiceDispatcher(cases{
	"logement-vide":   {"statut_occupation_logement": "locataire_vide"},
	"logement-meuble": {"statut_occupation_logement": "locataire_meuble"},
	"logement-social": {"statut_occupation_logement": "locataire_hlm"},
	"logement-foyer":  {"statut_occupation_logement": "locataire_foyer"},
})

var scholarshipLevel = choiceDispatcher(cases{
	"non-boursier": {"boursier": false},
	"echelon-0bis": {"boursier": true, "echelon_bourse": 0},
	"echelon-1":    {"boursier": true, "echelon_bourse": 1},
	"echelon-2":    {"boursier": true, "echelon_bourse": 2},
	"echelon-3":    {"boursier": true, "echelon_bourse": 3},
	"echelon-4":    {"boursier": true, "echelon_bourse": 4},
	"echelon-5":    {"boursier": true, "echelon_bourse": 5},
	"echelon-6":    {"boursier": true, "echelon_bourse": 6},
	"echelon-7":    {"boursier": true, "echelon_bourse": 7},
})

var maritalStatus = choiceDispatcher(cases{
	"celibataire": {"statut_marital": "celibataire"},
	"marie":       {"statut_marital": "marie"},
	"pacse":       {"statut_marital": "pacse"},
	"divorce":     {"statut_marital": "divorce"},
	"veuf":        {"statut_marital": "veuf"},
})

var studyMobility = choiceDispatcher(cases{
	"pas-de-mobilite":              {"sortie_academie": false, "sortie_region_academique": false},
	"parcoursup-nouvelle-academie": {"sortie_academie": true},
	"parcoursup-nouvelle-region":   {"sortie_academie": true, "sortie_region_academique": true},
	"master-nouvelle-region":       {"aide_mobilite_master_sortie_region_academique": true},
})

// specialSituationFlags lists the checkbox entries of situations-particulieres
// and the boolean variable each sets
var specialSituationFlags = map[string]string{
	"handicap": "handicap",
	"enceinte": "enceinte",
}

const noSpecialSituation = "aucune"

func specialSituations(answerKey string, value domain.AnswerValue, pt PeriodType, periods Periods) (Assignments, error) {
	period, err := periods.resolveFor(answerKey, pt)
	if err != nil {
		return nil, err
	}
	selected, ok := value.AsChoices()
	if !ok {
		return nil, &UnexpectedValueError{AnswerKey: answerKey, Value: value.String()}
	}

	out := make(Assignments, len(specialSituationFlags))
	for _, variable := range specialSituationFlags {
		out[variable] = PeriodValues{period: false}
	}
	for _, entry := range selected {
		if entry == noSpecialSituation {
			if len(selected) > 1 {
				return nil, &UnexpectedValueError{AnswerKey: answerKey, Value: value.String()}
			}
			continue
		}
		variable, known := specialSituationFlags[entry]
		if !known {
			return nil, &UnexpectedValueError{AnswerKey: answerKey, Value: entry}
		}
		out[variable][period] = true
	}
	return out, nil
}

// Dispatchers is the registry of dispatch functions, by name
var Dispatchers = map[string]DispatchFunc{
	"statut-professionnel":     professionalStatus,
	"situation-logement":       housingSituation,
	"type-logement":            housingType,
	"echelon-bourse":           scholarshipLevel,
	"situation-familiale":      maritalStatus,
	"mobilite-etudes":          studyMobility,
	"situations-particulieres": specialSituations,
}

// Dispatch runs the named dispatcher
func Dispatch(name, answerKey string, value domain.AnswerValue, pt PeriodType, periods Periods) (Assignments, error) {
	fn, ok := Dispatchers[name]
	if !ok {
		return nil, fmt.Errorf("no dispatcher named %s", name)
	}
	return fn(answerKey, value, pt, periods)
}
