package calculation

import (
	"fmt"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
)

// EngineError is an error reported by the engine instead of results
type EngineError struct {
	Message string
}

func (e *EngineError) Error() string {
	return "calculation engine error: " + e.Message
}

// UnknownVariableError is recorded for a requested key no mapping table
// can read from a response.
type UnknownVariableError struct {
	Key    string
	Reason string
}

func (e *UnknownVariableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unknown result key %s", e.Key)
	}
	return fmt.Sprintf("unknown result key %s: %s", e.Key, e.Reason)
}

// AmbiguousVariableError is recorded for a key defined by several tables
type AmbiguousVariableError struct {
	Key      string
	Entities []openfisca.EntityKind
}

func (e *AmbiguousVariableError) Error() string {
	kinds := make([]string, len(e.Entities))
	for i, k := range e.Entities {
		kinds[i] = string(k)
	}
	return fmt.Sprintf("result key %s is defined on several entities: %s", e.Key, strings.Join(kinds, ", "))
}

// Extraction is the outcome of one Extract call
type Extraction struct {
	Results  domain.SimulationResults `json:"results"`
	Errors   []error                  `json:"-"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// ErrorMessages renders Errors for serialization
func (x *Extraction) ErrorMessages() []string {
	out := make([]string, len(x.Errors))
	for i, err := range x.Errors {
		out[i] = err.Error()
	}
	return out
}

// Extractor reads named survey results back out of engine responses
type Extractor struct {
	cfg      settings
	pipeline *Pipeline
}

// NewExtractor creates an extractor. It fails when the derived rules
// configured are inconsistent.
func NewExtractor(opts ...Option) (*Extractor, error) {
	cfg := newSettings(opts)
	pipeline, err := NewPipeline(cfg.rules...)
	if err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg, pipeline: pipeline}, nil
}

// SetLogger replaces the logger; nil disables logging
func (x *Extractor) SetLogger(l Logger) {
	x.cfg.logger = orNop(l)
}

// Extract reads every requested key from the response, then runs the
// derived rules. Problems with one key never stop the others; keys still
// missing at the end are reported as warnings.
func (x *Extractor) Extract(resp *openfisca.CalculationResponse, requestedKeys []string) *Extraction {
	out := &Extraction{Results: make(domain.SimulationResults)}

	if resp == nil {
		out.Errors = append(out.Errors, &EngineError{Message: "empty response"})
		return out
	}
	if resp.Error != "" {
		x.cfg.logger.Errorf("engine returned an error: %s", resp.Error)
		out.Errors = append(out.Errors, &EngineError{Message: resp.Error})
		return out
	}

	periods := x.cfg.periods()
	for _, key := range x.keysToRead(requestedKeys) {
		if err := x.extractKey(resp, periods, key, out.Results); err != nil {
			out.Errors = append(out.Errors, err)
		}
	}

	x.pipeline.Apply(out.Results)

	seen := make(map[string]bool, len(requestedKeys))
	for _, key := range requestedKeys {
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := out.Results[key]; !ok {
			msg := fmt.Sprintf("requested result %s is missing", key)
			x.cfg.logger.Warnf("%s", msg)
			out.Warnings = append(out.Warnings, msg)
		}
	}
	return out
}

// keysToRead expands derived keys into the keys they are computed from
func (x *Extractor) keysToRead(requested []string) []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, key := range requested {
		if x.pipeline.Produces(key) {
			for _, in := range x.pipeline.Inputs(key) {
				add(in)
			}
			continue
		}
		add(key)
	}
	return keys
}

func (x *Extractor) extractKey(resp *openfisca.CalculationResponse, periods openfisca.Periods, key string, results domain.SimulationResults) error {
	found := x.cfg.catalog.Lookup(key)
	switch len(found) {
	case 0:
		return &UnknownVariableError{Key: key}
	case 1:
	default:
		kinds := make([]openfisca.EntityKind, len(found))
		for i, m := range found {
			kinds[i] = m.Entity
		}
		return &AmbiguousVariableError{Key: key, Entities: kinds}
	}

	m := found[0]
	if m.Variable == "" {
		return &UnknownVariableError{Key: key, Reason: "not backed by an engine variable"}
	}
	period, err := periods.Resolve(m.Period)
	if err != nil {
		return fmt.Errorf("result %s: %w", key, err)
	}

	id := openfisca.InstanceID(m.Entity, x.cfg.selfID)
	raw, ok := resp.Entities.Value(m.Entity, id, m.Variable, period)
	if !ok || raw == nil {
		x.cfg.logger.Debugf("%s.%s.%s[%s] absent from response", m.Entity, id, m.Variable, period)
		return nil
	}
	v, err := domain.ResultFromEngine(raw)
	if err != nil {
		return fmt.Errorf("result %s: %w", key, err)
	}
	results[key] = v
	return nil
}
