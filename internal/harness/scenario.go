package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fetchview/internal/compiler"
	"github.com/roach88/fetchview/internal/selection"
)

// Scenario is one conformance case: a schema, a root, a selection and what
// the registry and plan must look like.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the entity graph, in the YAML schema form.
	Schema compiler.Schema `yaml:"schema"`

	// Root is the entity the registry is built for.
	Root string `yaml:"root"`

	// MaxExtraDepth bounds cycle unrolling. Nil means the analyzer default.
	MaxExtraDepth *int `yaml:"max_extra_depth,omitempty"`

	// Selection is a GraphQL selection set.
	Selection string `yaml:"selection"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the registry or the plan.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Paths is used by plan_paths and truncated.
	Paths []string `yaml:"paths,omitempty"`

	// Depth is used by plan_depth.
	Depth *int `yaml:"depth,omitempty"`

	// Pattern is used by contains and not_contains.
	Pattern string `yaml:"pattern,omitempty"`

	// Max is used by registry_max_views.
	Max int `yaml:"max,omitempty"`
}

// Assertion type constants.
const (
	AssertPlanPaths        = "plan_paths"
	AssertPlanDepth        = "plan_depth"
	AssertContains         = "contains"
	AssertNotContains      = "not_contains"
	AssertRegistryMaxViews = "registry_max_views"
	AssertTruncated        = "truncated"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
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
	if len(s.Schema.Entities) == 0 {
		return fmt.Errorf("schema must declare at least one entity")
	}
	if s.Root == "" {
		return fmt.Errorf("root is required")
	}
	if s.MaxExtraDepth != nil && *s.MaxExtraDepth < 0 {
		return fmt.Errorf("max_extra_depth must be >= 0, got %d", *s.MaxExtraDepth)
	}
	if _, err := selection.ParseGraphQL(s.Selection); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPlanPaths, AssertTruncated:
		// An empty list asserts that there are none.
	case AssertPlanDepth:
		if a.Depth == nil {
			return fmt.Errorf("assertions[%d]: depth is required for plan_depth", index)
		}
	case AssertContains, AssertNotContains:
		if a.Pattern == "" {
			return fmt.Errorf("assertions[%d]: pattern is required for %s", index, a.Type)
		}
		if err := selection.ValidatePattern(a.Pattern); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertRegistryMaxViews:
		if a.Max <= 0 {
			return fmt.Errorf("assertions[%d]: max must be positive for registry_max_views", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
