package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/openfisca"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of survey schemas, answers, engine responses
// and settings files. Files ending in .json are decoded as JSON, everything
// else as YAML.
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

func isJSON(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}

func (ip *InputParser) decodeFile(filename string, out any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if isJSON(filename) {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// LoadSchema loads a raw survey schema. Structural checks happen when the
// schema is normalized.
func (ip *InputParser) LoadSchema(filename string) (*domain.Schema, error) {
	var s domain.Schema
	if err := ip.decodeFile(filename, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadDocument loads a file as an untyped document, for JSON Schema validation
func (ip *InputParser) LoadDocument(filename string) (any, error) {
	var doc any
	if err := ip.decodeFile(filename, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadAnswers loads a map of answers keyed by question id
func (ip *InputParser) LoadAnswers(filename string) (domain.Answers, error) {
	var answers domain.Answers
	if err := ip.decodeFile(filename, &answers); err != nil {
		return nil, err
	}
	if answers == nil {
		answers = domain.Answers{}
	}

	if err := ip.validateAnswers(answers); err != nil {
		return nil, fmt.Errorf("answers validation failed: %w", err)
	}
	return answers, nil
}

// LoadResponse loads a calculation engine response (JSON only)
func (ip *InputParser) LoadResponse(filename string) (*openfisca.CalculationResponse, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var resp openfisca.CalculationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse engine response: %w", err)
	}
	return &resp, nil
}

// LoadSettings loads a settings file and validates it
func (ip *InputParser) LoadSettings(filename string) (*Settings, error) {
	s := DefaultSettings()
	if err := ip.decodeFile(filename, s); err != nil {
		return nil, err
	}

	if err := ip.ValidateSettings(s); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return s, nil
}

// validateAnswers rejects empty keys
func (ip *InputParser) validateAnswers(answers domain.Answers) error {
	for key := range answers {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("answer keys cannot be empty")
		}
	}
	return nil
}
