package openfisca

import (
	"fmt"
	"time"
)

// PeriodType is the time scope a variable is asserted or computed over
type PeriodType string

const (
	// PeriodMonth is the month of the reference date, e.g. "2025-03"
	PeriodMonth PeriodType = "MONTH"
	// PeriodLastMonth is the month before the reference date
	PeriodLastMonth PeriodType = "LAST_MONTH"
	// PeriodYear is the calendar year of the reference date, e.g. "2025"
	PeriodYear PeriodType = "YEAR"
	// PeriodYearRolling is the twelve months ending with the previous month,
	// in OpenFisca's "year:YYYY-MM" notation
	PeriodYearRolling PeriodType = "YEAR_ROLLING"
	// PeriodEternity is used for variables that never change, such as a birth date
	PeriodEternity PeriodType = "ETERNITY"
	// PeriodUndefined marks a mapping whose period type could not be determined
	PeriodUndefined PeriodType = "UNDEFINED_PERIOD_TYPE"
)

// UnknownPeriodError is returned when a period type cannot be resolved
type UnknownPeriodError struct {
	AnswerKey  string
	PeriodType PeriodType
}

func (e *UnknownPeriodError) Error() string {
	if e.AnswerKey == "" {
		return fmt.Sprintf("unknown period type %q", e.PeriodType)
	}
	return fmt.Sprintf("unknown period type %q for %s", e.PeriodType, e.AnswerKey)
}

// Periods resolves period types against a fixed reference date so that a
// whole build uses one consistent set of periods.
type Periods struct {
	ref time.Time
}

// NewPeriods anchors period resolution at ref
func NewPeriods(ref time.Time) Periods {
	return Periods{ref: ref}
}

// Reference returns the anchor date
func (p Periods) Reference() time.Time {
	return p.ref
}

// Resolve returns the OpenFisca period string for a period type
func (p Periods) Resolve(pt PeriodType) (string, error) {
	if p.ref.IsZero() {
		return "", fmt.Errorf("period reference date is not set")
	}
	switch pt {
	case PeriodMonth:
		return p.ref.Format("2006-01"), nil
	case PeriodLastMonth:
		return firstOfMonth(p.ref).AddDate(0, -1, 0).Format("2006-01"), nil
	case PeriodYear:
		return p.ref.Format("2006"), nil
	case PeriodYearRolling:
		start := firstOfMonth(p.ref).AddDate(-1, 0, 0)
		return "year:" + start.Format("2006-01"), nil
	case PeriodEternity:
		return "ETERNITY", nil
	default:
		return "", &UnknownPeriodError{PeriodType: pt}
	}
}

// resolveFor is Resolve with the answer key attached to any error
func (p Periods) resolveFor(answerKey string, pt PeriodType) (string, error) {
	period, err := p.Resolve(pt)
	if err != nil {
		if upe, ok := err.(*UnknownPeriodError); ok {
			upe.AnswerKey = answerKey
		}
		return "", err
	}
	return period, nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
