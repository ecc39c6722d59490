package calculation

import (
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/openfisca"
)

// Override is a business rule applied once normal mapping is done, so it
// can look at the whole request.
type Override struct {
	Name  string
	Apply func(st *BuildState) error
}

// DefaultOverrides returns the built-in overrides
func DefaultOverrides() []Override {
	return []Override{parcoursupScholarshipOverride}
}

// parcoursupScholarshipOverride lets a university scholarship holder moving
// through Parcoursup qualify for the Parcoursup mobility aid. The engine
// only checks bourse_lycee, so a synthetic amount is added when the request
// has none.
var parcoursupScholarshipOverride = Override{
	Name: "bourse-lycee-mobilite-parcoursup",
	Apply: func(st *BuildState) error {
		if !st.Requested("aide-mobilite-parcoursup") {
			return nil
		}
		mobility, ok := st.Answers["mobilite-etudes"].AsString()
		if !ok || !strings.HasPrefix(mobility, "parcoursup-") {
			return nil
		}
		month, err := st.Periods.Resolve(openfisca.PeriodMonth)
		if err != nil {
			return err
		}
		if boursier, _ := st.Managers.Individuals.Value("boursier", month); boursier != true {
			return nil
		}
		if st.Managers.Families.Has("bourse_lycee", month) {
			return nil
		}
		return st.Managers.Families.AddVariable("bourse_lycee", 1.0, month, "override:bourse-lycee-mobilite-parcoursup")
	},
}

func (b *Builder) applyOverrides(st *BuildState) []*openfisca.MappingError {
	var errs []*openfisca.MappingError
	for _, o := range b.cfg.overrides {
		if err := o.Apply(st); err != nil {
			errs = append(errs, b.convert("override:"+o.Name, err))
		}
	}
	return errs
}
