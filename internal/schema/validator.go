package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed definitions/*.json
var definitions embed.FS

const definitionURLFormat = "https://simulateur.schemas.local/survey/v%d.schema.json"

// ValidationIssue is one JSON Schema violation
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationResult collects the outcome of validating one document
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// Summary renders the issues as a human-readable block
func (r *ValidationResult) Summary() string {
	if r.Valid {
		return "schema is valid"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "schema is invalid (%d issue", len(r.Issues))
	if len(r.Issues) != 1 {
		b.WriteString("s")
	}
	b.WriteString("):")
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "\n  - %s: %s", issue.Path, issue.Message)
	}
	return b.String()
}

// Err returns nil for a valid result and the summary as an error otherwise
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New(r.Summary())
}

// Validator checks raw schema documents against one version of the
// published JSON Schema definition.
type Validator struct {
	version    *semver.Version
	constraint *semver.Constraints
	compiled   *jsonschema.Schema
}

// NewValidator compiles the definition matching the major version of
// schemaVersion (for example "1.2.0" selects the v1 definition).
func NewValidator(schemaVersion string) (*Validator, error) {
	v, err := semver.NewVersion(schemaVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid schema version %q: %w", schemaVersion, err)
	}

	name := fmt.Sprintf("definitions/survey-schema.v%d.json", v.Major())
	data, err := definitions.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("no schema definition for version %s", v)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf(definitionURLFormat, v.Major())
	if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("schema definition load failed: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema definition compile failed: %w", err)
	}

	constraint, err := semver.NewConstraint(fmt.Sprintf("^%d.0.0", v.Major()))
	if err != nil {
		return nil, fmt.Errorf("schema version constraint: %w", err)
	}

	return &Validator{version: v, constraint: constraint, compiled: compiled}, nil
}

// Version returns the schema version this validator is keyed to
func (v *Validator) Version() string {
	return v.version.String()
}

// Validate checks a document. doc may be a decoded JSON value, a YAML
// decoded map or any value that marshals to JSON (such as *domain.Schema).
func (v *Validator) Validate(doc any) *ValidationResult {
	value, err := toJSONValue(doc)
	if err != nil {
		return &ValidationResult{Issues: []ValidationIssue{{Path: "/", Message: err.Error()}}}
	}
	return v.validateValue(value)
}

// ValidateJSON parses raw JSON and validates it
func (v *Validator) ValidateJSON(data []byte) *ValidationResult {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationResult{Issues: []ValidationIssue{{Path: "/", Message: fmt.Sprintf("invalid JSON: %v", err)}}}
	}
	return v.validateValue(value)
}

// ValidateStrict returns an error describing every issue, or nil.
func (v *Validator) ValidateStrict(doc any) error {
	if err := v.Validate(doc).Err(); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateValue(value any) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if obj, ok := value.(map[string]any); ok {
		if raw, ok := obj["schemaVersion"].(string); ok && raw != "" {
			if issue := v.checkVersion(raw); issue != nil {
				result.Issues = append(result.Issues, *issue)
			}
		}
	}

	if err := v.compiled.Validate(value); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			result.Issues = append(result.Issues, leafIssues(ve)...)
		} else {
			result.Issues = append(result.Issues, ValidationIssue{Path: "/", Message: err.Error()})
		}
	}

	sort.SliceStable(result.Issues, func(i, j int) bool {
		return result.Issues[i].Path < result.Issues[j].Path
	})
	result.Valid = len(result.Issues) == 0
	return result
}

func (v *Validator) checkVersion(raw string) *ValidationIssue {
	docVersion, err := semver.NewVersion(raw)
	if err != nil {
		return &ValidationIssue{Path: "/schemaVersion", Message: fmt.Sprintf("invalid version %q: %v", raw, err)}
	}
	if !v.constraint.Check(docVersion) {
		return &ValidationIssue{
			Path:    "/schemaVersion",
			Message: fmt.Sprintf("version %s is not supported by the v%d validator", docVersion, v.version.Major()),
		}
	}
	return nil
}

func leafIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	if len(ve.Causes) == 0 {
		path := ve.InstanceLocation
		if path == "" {
			path = "/"
		}
		return []ValidationIssue{{Path: path, Message: ve.Message}}
	}
	var out []ValidationIssue
	for _, cause := range ve.Causes {
		out = append(out, leafIssues(cause)...)
	}
	return out
}

// toJSONValue round-trips doc through encoding/json so the validator only
// sees the value types it was built for.
func toJSONValue(doc any) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document is not JSON encodable: %w", err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return value, nil
}
