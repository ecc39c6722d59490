package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Report is the envelope every CLI command prints: the request that was
// built, the results that were read back and whatever went wrong on the way.
type Report struct {
	ID          string                       `json:"id"`
	GeneratedAt time.Time                    `json:"generatedAt"`
	SchemaID    string                       `json:"schemaId,omitempty"`
	Engine      domain.Engine                `json:"engine,omitempty"`
	Request     openfisca.CalculationRequest `json:"request,omitempty"`
	Digest      string                       `json:"requestDigest,omitempty"`
	Results     domain.SimulationResults     `json:"results,omitempty"`
	Dropped     []string                     `json:"droppedAnswers,omitempty"`
	Errors      []string                     `json:"errors,omitempty"`
	Warnings    []string                     `json:"warnings,omitempty"`
}

// NewReport starts a report with a fresh id
func NewReport(schemaID string, engine domain.Engine) *Report {
	return &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		SchemaID:    schemaID,
		Engine:      engine,
	}
}

// AddErrors appends the messages of errs
func (r *Report) AddErrors(errs ...error) {
	for _, err := range errs {
		if err != nil {
			r.Errors = append(r.Errors, err.Error())
		}
	}
}

// MergeResults copies results into the report, creating the map if needed
func (r *Report) MergeResults(results domain.SimulationResults) {
	if len(results) == 0 {
		return
	}
	if r.Results == nil {
		r.Results = domain.SimulationResults{}
	}
	for k, v := range results {
		r.Results[k] = v
	}
}

// AddSimulation copies what a simulation produced into the report
func (r *Report) AddSimulation(sim *calculation.Simulation) {
	if sim == nil {
		return
	}
	if sim.Engine != "" {
		r.Engine = sim.Engine
	}
	if len(sim.Request) > 0 {
		r.Request = sim.Request
		digest, err := sim.Request.Digest()
		if err != nil {
			r.AddErrors(fmt.Errorf("request digest: %w", err))
		} else {
			r.Digest = digest
		}
	}
	r.MergeResults(sim.Results)
	r.Dropped = append(r.Dropped, sim.Dropped...)
	r.AddErrors(sim.Errors...)
	r.Warnings = append(r.Warnings, sim.Warnings...)
}

// Formatter renders a report
type Formatter interface {
	Format(r *Report) ([]byte, error)
	Name() string
}

// NormalizeFormatName maps aliases to the canonical format names
func NormalizeFormatName(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console", "table", "text":
		return "console"
	case "json":
		return "json"
	case "json-compact", "jsonl":
		return "json-compact"
	case "csv":
		return "csv"
	default:
		return strings.ToLower(format)
	}
}

// NewFormatter creates a formatter based on the format name
func NewFormatter(format string) (Formatter, error) {
	switch NormalizeFormatName(format) {
	case "console":
		return ConsoleFormatter{}, nil
	case "json":
		return JSONFormatter{Pretty: true}, nil
	case "json-compact":
		return JSONFormatter{}, nil
	case "csv":
		return CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatAmount formats a euro amount
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " €"
}

// FormatResult renders one result value for humans
func FormatResult(v domain.ResultValue) string {
	if v.Kind == domain.ResultAmount {
		return FormatAmount(v.Amount)
	}
	return v.String()
}
