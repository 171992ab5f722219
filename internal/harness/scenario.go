package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios load unit files, make calls, and assert on the returned
// values and the recorded dispatch trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the unit
	// label on registration events and as the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Units lists paths to CUE unit files to compile and load.
	// Paths are relative to the working directory unless loaded via
	// LoadScenarioWithBasePath.
	Units []string `yaml:"units"`

	// Calls contains the invocations with expected outcomes.
	Calls []CallStep `yaml:"calls"`

	// Assertions validate the recorded trace after all calls ran.
	// Supported types: trace_contains, trace_order, trace_count,
	// cache_hits, registrations.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// CallStep invokes one dispatch name.
type CallStep struct {
	// Invoke is the qualified dispatch name ("combine" or "Printer.print").
	Invoke string `yaml:"invoke"`

	// Receiver names a registered type. When set, the harness passes an
	// instance of that type as the leading argument, the receiver an
	// instance-bound implementation expects.
	Receiver string `yaml:"receiver,omitempty"`

	// Args contains the positional arguments as plain YAML values.
	Args []any `yaml:"args,omitempty"`

	// Kwargs contains the keyword arguments.
	Kwargs map[string]any `yaml:"kwargs,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the call must merely dispatch without error.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected call outcome.
type ExpectClause struct {
	// Result is the expected return value. Compared by rendered form,
	// so 2.5 and "Number: 42" both state exact expectations.
	Result any `yaml:"result,omitempty"`

	// Record is the expected selected record index under the name.
	Record *int `yaml:"record,omitempty"`

	// NoMatch states that resolution must exhaust every record.
	NoMatch bool `yaml:"no_match,omitempty"`
}

// Assertion validates the recorded trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a resolution of Name matches the given fields
	// - "trace_order": Names resolve in the given relative order
	// - "trace_count": Name resolves exactly Count times
	// - "cache_hits": Name has exactly Count cache-hit resolutions
	// - "registrations": Name registered exactly Count implementations
	Type string `yaml:"type"`

	// Name is the qualified dispatch name (all types except trace_order).
	Name string `yaml:"name,omitempty"`

	// Key is the canonical match key to look for (trace_contains).
	Key string `yaml:"key,omitempty"`

	// Outcome is "matched" or "no_match" (trace_contains).
	Outcome string `yaml:"outcome,omitempty"`

	// Record is the expected selected record index (trace_contains).
	Record *int `yaml:"record,omitempty"`

	// Count is the expected number of occurrences
	// (trace_count, cache_hits, registrations).
	Count int `yaml:"count,omitempty"`

	// Names is the expected resolution order (trace_order).
	Names []string `yaml:"names,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertCacheHits     = "cache_hits"
	AssertRegistrations = "registrations"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
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

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving unit paths relative to the provided base path.
// This is useful when scenario files reference units using relative paths.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
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

	// Resolve unit paths relative to base path BEFORE validation
	for i, unitPath := range scenario.Units {
		if !filepath.IsAbs(unitPath) && basePath != "" {
			scenario.Units[i] = filepath.Join(basePath, unitPath)
		}
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

	if len(s.Units) == 0 {
		return fmt.Errorf("units list is required and must be non-empty")
	}

	if len(s.Calls) == 0 {
		return fmt.Errorf("calls list is required and must be non-empty")
	}

	// Validate unit paths exist
	for _, unitPath := range s.Units {
		if _, err := os.Stat(unitPath); os.IsNotExist(err) {
			return fmt.Errorf("unit file not found: %s", unitPath)
		}
	}

	// Validate call steps
	for i, step := range s.Calls {
		if step.Invoke == "" {
			return fmt.Errorf("calls[%d]: invoke is required", i)
		}
		if step.Expect != nil && step.Expect.NoMatch {
			if step.Expect.Result != nil {
				return fmt.Errorf("calls[%d].expect: no_match excludes result", i)
			}
			if step.Expect.Record != nil {
				return fmt.Errorf("calls[%d].expect: no_match excludes record", i)
			}
		}
	}

	// Validate assertions
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
	case AssertTraceContains:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for trace_contains", index)
		}
		if a.Outcome != "" && a.Outcome != "matched" && a.Outcome != "no_match" {
			return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
		}
	case AssertTraceOrder:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for trace_order", index)
		}
	case AssertTraceCount, AssertCacheHits, AssertRegistrations:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for %s", index, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
