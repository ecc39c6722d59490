package calculation

import (
	"time"

	"github.com/aides-simplifiees/simulateur/internal/openfisca"
)

// DefaultSelfID is the id of the person answering the survey
const DefaultSelfID = "usager"

type settings struct {
	selfID    string
	reference time.Time
	catalog   openfisca.Catalog
	defaults  []DefaultValue
	overrides []Override
	rules     []DerivedRule
	logger    Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		selfID:    DefaultSelfID,
		catalog:   openfisca.DefaultCatalog,
		defaults:  DefaultValues(),
		overrides: DefaultOverrides(),
		rules:     DefaultRules(),
		logger:    NopLogger{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a Builder or an Extractor. Options that do not apply
// to one of them are ignored by it.
type Option func(*settings)

// WithReferenceDate fixes the date periods are resolved against. Without
// it the current date is read at each call.
func WithReferenceDate(t time.Time) Option {
	return func(s *settings) { s.reference = t }
}

// WithSelfID changes the id of the self individual
func WithSelfID(id string) Option {
	return func(s *settings) {
		if id != "" {
			s.selfID = id
		}
	}
}

// WithCatalog replaces the answer key mapping tables
func WithCatalog(c openfisca.Catalog) Option {
	return func(s *settings) { s.catalog = c }
}

// WithDefaults replaces the default values injected by the builder
func WithDefaults(defaults ...DefaultValue) Option {
	return func(s *settings) { s.defaults = defaults }
}

// WithOverrides replaces the business overrides run by the builder
func WithOverrides(overrides ...Override) Option {
	return func(s *settings) { s.overrides = overrides }
}

// WithDerivedRules replaces the derived result rules
func WithDerivedRules(rules ...DerivedRule) Option {
	return func(s *settings) { s.rules = rules }
}

// WithLogger sets the logger; nil falls back to NopLogger
func WithLogger(l Logger) Option {
	return func(s *settings) { s.logger = orNop(l) }
}

func (s *settings) periods() openfisca.Periods {
	if s.reference.IsZero() {
		return openfisca.NewPeriods(time.Now())
	}
	return openfisca.NewPeriods(s.reference)
}
