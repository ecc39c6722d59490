package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
	"github.com/aides-simplifiees/simulateur/internal/rules"
)

// DateFormat is the layout of reference dates in settings files
const DateFormat = "2006-01-02"

// EngineSettings locates the calculation engine
type EngineSettings struct {
	URL     string        `yaml:"url" json:"url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Settings configures the simulateur CLI
type Settings struct {
	Engine EngineSettings `yaml:"engine" json:"engine"`
	// ReferenceDate fixes the simulated date (YYYY-MM-DD); empty means today.
	ReferenceDate string `yaml:"referenceDate,omitempty" json:"referenceDate,omitempty"`
	SelfID        string `yaml:"selfId,omitempty" json:"selfId,omitempty"`
	SchemaVersion string `yaml:"schemaVersion,omitempty" json:"schemaVersion,omitempty"`
	// Defaults replace the built-in default values when set.
	Defaults   []calculation.DefaultValue `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	LocalRules rules.RuleSet              `yaml:"localRules,omitempty" json:"localRules,omitempty"`
}

// DefaultSettings returns the settings used when no file is given
func DefaultSettings() *Settings {
	return &Settings{
		Engine: EngineSettings{
			URL:     "https://api.fr.openfisca.org/latest",
			Timeout: openfisca.DefaultTimeout,
		},
		SelfID:        calculation.DefaultSelfID,
		SchemaVersion: "1.0.0",
	}
}

// Reference parses the reference date; the zero time means "today"
func (s *Settings) Reference() (time.Time, error) {
	if s.ReferenceDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateFormat, s.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q, expected YYYY-MM-DD: %w", s.ReferenceDate, err)
	}
	return t, nil
}

// CalculationOptions turns the settings into builder/extractor options
func (s *Settings) CalculationOptions() ([]calculation.Option, error) {
	ref, err := s.Reference()
	if err != nil {
		return nil, err
	}
	opts := []calculation.Option{
		calculation.WithReferenceDate(ref),
		calculation.WithSelfID(s.SelfID),
	}
	if len(s.Defaults) > 0 {
		opts = append(opts, calculation.WithDefaults(s.Defaults...))
	}
	return opts, nil
}

// Client creates the engine client
func (s *Settings) Client() *openfisca.Client {
	return openfisca.NewClient(s.Engine.URL, s.Engine.Timeout)
}

// ValidateSettings validates the loaded settings
func (ip *InputParser) ValidateSettings(s *Settings) error {
	if err := ip.validateEngine(&s.Engine); err != nil {
		return fmt.Errorf("engine validation failed: %w", err)
	}
	if _, err := s.Reference(); err != nil {
		return err
	}
	if s.SelfID == "" {
		return fmt.Errorf("selfId cannot be empty")
	}
	for i, d := range s.Defaults {
		if err := ip.validateDefault(d); err != nil {
			return fmt.Errorf("default %d (%s) validation failed: %w", i, d.Variable, err)
		}
	}
	for i, r := range s.LocalRules.Rules {
		if r.Dispositif == "" || r.Eligible == "" {
			return fmt.Errorf("local rule %d: dispositif and eligible are required", i)
		}
	}
	return nil
}

// validateEngine validates the engine location
func (ip *InputParser) validateEngine(e *EngineSettings) error {
	if e.URL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be http or https, got %q", e.URL)
	}
	if e.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// validateDefault validates one default value
func (ip *InputParser) validateDefault(d calculation.DefaultValue) error {
	if d.Variable == "" {
		return fmt.Errorf("variable is required")
	}
	known := false
	for _, kind := range openfisca.EntityKinds {
		if kind == d.Entity {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown entity %q", d.Entity)
	}
	probe := openfisca.NewPeriods(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	if _, err := probe.Resolve(d.Period); err != nil {
		return err
	}
	if d.Value == nil {
		return fmt.Errorf("value is required")
	}
	return nil
}
