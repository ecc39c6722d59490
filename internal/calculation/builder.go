package calculation

import (
	"errors"
	"fmt"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
)

// maxChildren bounds the number of child individuals one answer may create
const maxChildren = 20

// BuildResult is the outcome of one Build call. Success is false only when
// the build could not run at all; mapping problems are listed in Errors next
// to a request holding everything that could be mapped.
type BuildResult struct {
	Request openfisca.CalculationRequest `json:"request"`
	Errors  []*openfisca.MappingError    `json:"errors"`
	Success bool                         `json:"success"`
	Err     error                        `json:"-"`
}

// BuildState is what overrides see: the answers, the requested keys and
// the managers after mapping.
type BuildState struct {
	Answers   domain.Answers
	Managers  *openfisca.Managers
	Periods   openfisca.Periods
	requested map[string]bool
}

// Requested reports whether key was asked from the engine
func (st *BuildState) Requested(key string) bool {
	return st.requested[key]
}

// Builder turns survey answers into an OpenFisca calculation request.
// A Builder holds no per-build state and may be shared between goroutines.
type Builder struct {
	cfg      settings
	pipeline *Pipeline
}

// NewBuilder creates a builder. It fails when the derived rules configured
// are inconsistent.
func NewBuilder(opts ...Option) (*Builder, error) {
	cfg := newSettings(opts)
	pipeline, err := NewPipeline(cfg.rules...)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, pipeline: pipeline}, nil
}

// SetLogger replaces the logger; nil disables logging
func (b *Builder) SetLogger(l Logger) {
	b.cfg.logger = orNop(l)
}

// Build maps answers onto fresh entity managers and asks the engine for
// every key in questionIDs. Phases run in a fixed order: answers, then
// placeholders for requested keys, then overrides, then defaults.
func (b *Builder) Build(answers domain.Answers, questionIDs []string) *BuildResult {
	if answers == nil {
		return &BuildResult{Success: false, Err: errors.New("answers are required")}
	}
	periods := b.cfg.periods()
	if _, err := periods.Resolve(openfisca.PeriodMonth); err != nil {
		return &BuildResult{Success: false, Err: fmt.Errorf("reference period: %w", err)}
	}

	st := &BuildState{
		Answers:   answers,
		Managers:  openfisca.NewManagers(b.cfg.selfID),
		Periods:   periods,
		requested: make(map[string]bool, len(questionIDs)),
	}
	for _, id := range questionIDs {
		st.requested[id] = true
	}

	var errs []*openfisca.MappingError
	for _, key := range b.answerOrder(answers) {
		if err := b.mapAnswer(st, key, answers[key]); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, b.requestPlaceholders(st, questionIDs)...)
	errs = append(errs, b.applyOverrides(st)...)
	errs = append(errs, b.applyDefaults(st)...)

	b.cfg.logger.Infof("built calculation request: %d answers, %d requested keys, %d mapping errors",
		len(answers), len(questionIDs), len(errs))

	return &BuildResult{
		Request: st.Managers.Request(),
		Errors:  errs,
		Success: true,
	}
}

// answerOrder sorts answer keys, with refining answers after the others so
// they see what they refine.
func (b *Builder) answerOrder(answers domain.Answers) []string {
	var plain, refining []string
	for _, key := range answers.Keys() {
		if found := b.cfg.catalog.Lookup(key); len(found) == 1 && found[0].Refines != "" {
			refining = append(refining, key)
			continue
		}
		plain = append(plain, key)
	}
	return append(plain, refining...)
}

func (b *Builder) mapAnswer(st *BuildState, key string, value domain.AnswerValue) *openfisca.MappingError {
	found := b.cfg.catalog.Lookup(key)
	switch len(found) {
	case 0:
		b.cfg.logger.Debugf("answer %s has no engine mapping, skipped", key)
		return nil
	case 1:
	default:
		return mappingError(openfisca.MappingConflict, key,
			fmt.Errorf("%s is mapped on %d entities", key, len(found)))
	}
	m := found[0]

	mgr, err := st.Managers.For(m.Entity)
	if err != nil {
		return b.convert(key, err)
	}

	switch {
	case m.Relationship == openfisca.RelationChildren:
		return b.addChildren(st, key, value)

	case m.Dispatch != "":
		assignments, err := openfisca.Dispatch(m.Dispatch, key, value, m.Period, st.Periods)
		if err != nil {
			return b.convert(key, err)
		}
		// keep writing after a conflict so one clash does not hide the rest
		var first *openfisca.MappingError
		for _, name := range assignments.Variables() {
			for period, v := range assignments[name] {
				if err := b.write(mgr, m, name, v, period, key); err != nil && first == nil {
					first = err
				}
			}
		}
		return first

	case m.Variable != "":
		period, err := st.Periods.Resolve(m.Period)
		if err != nil {
			var upe *openfisca.UnknownPeriodError
			if errors.As(err, &upe) {
				upe.AnswerKey = key
			}
			return b.convert(key, err)
		}
		v, err := value.EngineValue()
		if err != nil {
			return b.convert(key, &openfisca.UnexpectedValueError{AnswerKey: key, Value: value.String()})
		}
		return b.write(mgr, m, m.Variable, v, period, key)

	default:
		b.cfg.logger.Debugf("answer %s maps to nothing writable, skipped", key)
		return nil
	}
}

func (b *Builder) write(mgr *openfisca.EntityManager, m openfisca.Mapping, name string, v any, period, key string) *openfisca.MappingError {
	var err error
	if m.Refines != "" {
		err = mgr.SupersedeVariable(name, v, period, key, m.Refines, m.Refinable)
	} else {
		err = mgr.AddVariable(name, v, period, key)
	}
	if err != nil {
		return b.convert(key, err)
	}
	return nil
}

func (b *Builder) addChildren(st *BuildState, key string, value domain.AnswerValue) *openfisca.MappingError {
	n, ok := value.AsNumber()
	if !ok || !n.IsInteger() || n.IsNegative() || n.IntPart() > maxChildren {
		return b.convert(key, &openfisca.UnexpectedValueError{AnswerKey: key, Value: value.String()})
	}
	for i := 1; i <= int(n.IntPart()); i++ {
		if err := st.Managers.AddChild(fmt.Sprintf("enfant_%d", i)); err != nil {
			return b.convert(key, err)
		}
	}
	return nil
}

// requestPlaceholders asks the engine to compute every requested key that
// no answer provided. Derived keys request their inputs instead.
func (b *Builder) requestPlaceholders(st *BuildState, questionIDs []string) []*openfisca.MappingError {
	var errs []*openfisca.MappingError
	seen := make(map[string]bool, len(questionIDs))

	var request func(key string)
	request = func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		if v, answered := st.Answers[key]; answered && !v.IsAbsent() {
			return
		}
		if b.pipeline.Produces(key) {
			for _, in := range b.pipeline.Inputs(key) {
				request(in)
			}
			return
		}

		found := b.cfg.catalog.Lookup(key)
		switch {
		case len(found) == 0:
			errs = append(errs, &openfisca.MappingError{
				Type:      openfisca.MappingUnknownVariable,
				Message:   fmt.Sprintf("requested key %s is not mapped to any engine variable", key),
				AnswerKey: key,
			})
			return
		case len(found) > 1:
			errs = append(errs, mappingError(openfisca.MappingConflict, key,
				fmt.Errorf("%s is mapped on %d entities", key, len(found))))
			return
		}

		m := found[0]
		if m.Variable == "" {
			b.cfg.logger.Debugf("requested key %s has no variable to compute, skipped", key)
			return
		}
		mgr, err := st.Managers.For(m.Entity)
		if err != nil {
			errs = append(errs, b.convert(key, err))
			return
		}
		period, err := st.Periods.Resolve(m.Period)
		if err != nil {
			errs = append(errs, b.convert(key, err))
			return
		}
		if err := mgr.AddVariable(m.Variable, nil, period, key); err != nil {
			errs = append(errs, b.convert(key, err))
		}
	}

	for _, id := range questionIDs {
		request(id)
	}
	return errs
}

// convert turns any error raised while mapping key into a MappingError
func (b *Builder) convert(key string, err error) *openfisca.MappingError {
	var (
		me  *openfisca.MappingError
		upe *openfisca.UnknownPeriodError
		uve *openfisca.UnexpectedValueError
		pve *openfisca.ProtectedVariableError
	)
	switch {
	case errors.As(err, &me):
		if me.AnswerKey == "" {
			me.AnswerKey = key
		}
		return me
	case errors.As(err, &upe):
		return mappingError(openfisca.MappingUnknownPeriod, key, err)
	case errors.As(err, &uve):
		return mappingError(openfisca.MappingUnexpectedValue, key, err)
	case errors.As(err, &pve):
		b.cfg.logger.Warnf("skipped write to membership list: %v", err)
		return mappingError(openfisca.MappingProtectedVariable, key, err)
	default:
		return mappingError(openfisca.MappingConflict, key, err)
	}
}

func mappingError(t openfisca.MappingErrorType, key string, err error) *openfisca.MappingError {
	return &openfisca.MappingError{Type: t, Message: err.Error(), AnswerKey: key, Err: err}
}
