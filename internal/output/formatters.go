package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"

	"github.com/aides-simplifiees/simulateur/internal/domain"
)

// JSONFormatter renders the report as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

func (jf JSONFormatter) Name() string { return "json" }

func (jf JSONFormatter) Format(r *Report) ([]byte, error) {
	if jf.Pretty {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// CSVFormatter renders one row per result, sorted by key. Errors and
// warnings are not part of the CSV output.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(r *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"key", "kind", "value"}); err != nil {
		return nil, err
	}
	for _, key := range r.Results.Keys() {
		v := r.Results[key]
		if err := w.Write([]string{key, kindName(v), csvValue(v)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvValue(v domain.ResultValue) string {
	switch v.Kind {
	case domain.ResultBoolean:
		if v.Boolean {
			return "true"
		}
		return "false"
	case domain.ResultAmount:
		return v.Amount.StringFixed(2)
	default:
		return v.Text
	}
}

func kindName(v domain.ResultValue) string {
	switch v.Kind {
	case domain.ResultBoolean:
		return "boolean"
	case domain.ResultAmount:
		return "amount"
	default:
		return "text"
	}
}
