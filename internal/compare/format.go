package compare

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JSONFormatter formats comparison results as JSON. Decimal metrics are
// written as strings to keep their exact value.
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output for comparison results
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	var (
		data []byte
		err  error
	)
	if jf.Pretty {
		data, err = json.MarshalIndent(compSet, "", "  ")
	} else {
		data, err = json.Marshal(compSet)
	}
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// Format renders compSet as table, csv or json
func Format(compSet *ComparisonSet, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table", "console":
		return (&TableFormatter{}).Format(compSet), nil
	case "csv":
		return (&CSVFormatter{}).Format(compSet)
	case "json":
		return (&JSONFormatter{Pretty: true}).Format(compSet)
	case "json-compact":
		return (&JSONFormatter{}).Format(compSet)
	default:
		return "", fmt.Errorf("unsupported comparison format: %s", format)
	}
}
