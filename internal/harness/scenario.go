package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a world fixture, scope
// content, and one resolution with its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden trace
	// file, so it must be filesystem-safe.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scopes lists paths to CUE scope files to compile and register.
	// Paths are relative to the scenario file location.
	Scopes []string `yaml:"scopes"`

	// World is the path to the YAML world fixture, relative to the
	// scenario file location.
	World string `yaml:"world"`

	// Actor is the acting entity the resolution runs on behalf of.
	Actor string `yaml:"actor"`

	// Env holds the ambient environment snapshot visible to predicates
	// under the "env" prefix.
	Env map[string]interface{} `yaml:"env,omitempty"`

	// Resolve names the registered scope to resolve.
	Resolve string `yaml:"resolve"`

	// MaxDepth overrides the engine's depth bound when positive.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Expect specifies the expected outcome.
	Expect ExpectClause `yaml:"expect"`
}

// ExpectClause specifies the expected resolution outcome: either a set
// of target identifiers or a resolution error category.
type ExpectClause struct {
	// IDs is the expected target set, order-insensitive. Used when Error
	// is empty; an absent list means the empty set.
	IDs []string `yaml:"ids,omitempty"`

	// Error names the expected resolution error category:
	// "structural", "depth_exceeded", or "cycle_detected".
	Error string `yaml:"error,omitempty"`
}

// Expected error category names.
const (
	ExpectStructural    = "structural"
	ExpectDepthExceeded = "depth_exceeded"
	ExpectCycleDetected = "cycle_detected"
)

// LoadScenario reads and parses a scenario YAML file. Relative scope and
// world paths are resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, scopePath := range scenario.Scopes {
		if !filepath.IsAbs(scopePath) {
			scenario.Scopes[i] = filepath.Join(base, scopePath)
		}
	}
	if scenario.World != "" && !filepath.IsAbs(scenario.World) {
		scenario.World = filepath.Join(base, scenario.World)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Scopes) == 0 {
		return fmt.Errorf("scopes list is required and must be non-empty")
	}
	if s.World == "" {
		return fmt.Errorf("world is required")
	}
	if s.Actor == "" {
		return fmt.Errorf("actor is required")
	}
	if s.Resolve == "" {
		return fmt.Errorf("resolve is required")
	}
	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	switch s.Expect.Error {
	case "", ExpectStructural, ExpectDepthExceeded, ExpectCycleDetected:
	default:
		return fmt.Errorf("expect.error must be one of %q, %q, %q",
			ExpectStructural, ExpectDepthExceeded, ExpectCycleDetected)
	}
	if s.Expect.Error != "" && len(s.Expect.IDs) > 0 {
		return fmt.Errorf("expect takes ids or error, not both")
	}

	for _, scopePath := range s.Scopes {
		if _, err := os.Stat(scopePath); os.IsNotExist(err) {
			return fmt.Errorf("scope file not found: %s", scopePath)
		}
	}
	if _, err := os.Stat(s.World); os.IsNotExist(err) {
		return fmt.Errorf("world file not found: %s", s.World)
	}
	return nil
}
