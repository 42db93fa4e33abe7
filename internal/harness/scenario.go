// Package harness runs YAML-defined compile scenarios: a document, a
// flavor, a config, and the expected SQL (or expected failure). Scenarios
// double as documentation of observable compiler behavior and as golden
// tests.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one compile scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Flavor is the target dialect. Defaults to "pg".
	Flavor string `yaml:"flavor,omitempty"`

	// Document is the source text to compile.
	Document string `yaml:"document"`

	// Config carries the optional compile configuration.
	Config ScenarioConfig `yaml:"config,omitempty"`

	// Expect specifies the expected outcome.
	Expect ExpectClause `yaml:"expect"`
}

// ScenarioConfig mirrors the public compile config in YAML form.
type ScenarioConfig struct {
	Variables  map[string]any `yaml:"variables,omitempty"`
	Limit      *int           `yaml:"limit,omitempty"`
	Offset     *int           `yaml:"offset,omitempty"`
	OrderBy    string         `yaml:"order_by,omitempty"`
	Descending bool           `yaml:"descending,omitempty"`
	Returning  string         `yaml:"returning,omitempty"`
}

// ExpectClause specifies the expected outcome: either the exact statements
// in order, or a structured error kind.
type ExpectClause struct {
	// Statements are the expected SQL strings, in document order.
	Statements []string `yaml:"statements,omitempty"`

	// Error is the expected error kind tag (e.g. MISSING_REQUIRED_VARIABLE).
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and coherent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Document == "" {
		return fmt.Errorf("document is required")
	}
	if len(s.Expect.Statements) == 0 && s.Expect.Error == "" {
		return fmt.Errorf("expect requires statements or error")
	}
	if len(s.Expect.Statements) > 0 && s.Expect.Error != "" {
		return fmt.Errorf("expect cannot have both statements and error")
	}
	return nil
}
