package calculation

import (
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
)

// DefaultValue is a variable the engine needs but the survey may never
// ask about. It is written only where the variable is absent.
type DefaultValue struct {
	Entity   openfisca.EntityKind `yaml:"entity" json:"entity"`
	Variable string               `yaml:"variable" json:"variable"`
	Period   openfisca.PeriodType `yaml:"period" json:"period"`
	Value    any                  `yaml:"value" json:"value"`
}

// defaultSource is recorded as the answer key of injected defaults
const defaultSource = "default"

// DefaultValues returns the built-in defaults
func DefaultValues() []DefaultValue {
	return []DefaultValue{
		{Entity: openfisca.Households, Variable: "statut_occupation_logement", Period: openfisca.PeriodMonth, Value: "non_renseigne"},
		// Paris
		{Entity: openfisca.Households, Variable: "depcom", Period: openfisca.PeriodMonth, Value: "75056"},
	}
}

func (b *Builder) applyDefaults(st *BuildState) []*openfisca.MappingError {
	var errs []*openfisca.MappingError
	for _, d := range b.cfg.defaults {
		m, err := st.Managers.For(d.Entity)
		if err != nil {
			errs = append(errs, mappingError(openfisca.MappingUnknownVariable, defaultSource, err))
			continue
		}
		period, err := st.Periods.Resolve(d.Period)
		if err != nil {
			errs = append(errs, mappingError(openfisca.MappingUnknownPeriod, defaultSource, err))
			continue
		}
		if m.Has(d.Variable, period) {
			continue
		}
		if err := m.AddVariable(d.Variable, d.Value, period, defaultSource); err != nil {
			errs = append(errs, b.convert(defaultSource, err))
			continue
		}
		b.cfg.logger.Debugf("default %s.%s[%s] = %v", d.Entity, d.Variable, period, d.Value)
	}
	return errs
}
