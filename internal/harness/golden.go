package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/quillon/overload/internal/types"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Outputs      []string     `json:"outputs"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for
// canonical JSON serialization. Event fields are included per type, so a
// registration never carries empty resolution fields and vice versa.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		traceList[i] = event.toCanonicalMap()
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"outputs":       s.Outputs,
	}
}

func (e TraceEvent) toCanonicalMap() map[string]any {
	m := map[string]any{
		"type": e.Type,
		"seq":  e.Seq,
		"name": e.Name,
	}
	switch e.Type {
	case EventRegistration:
		m["unit"] = e.Unit
		m["index"] = e.Index
		m["kind"] = e.Kind
		m["signature"] = e.Signature
	case EventResolution:
		m["call_token"] = e.CallToken
		m["key"] = e.Key
		m["outcome"] = e.Outcome
		m["record_index"] = e.RecordIndex
		m["cache_hit"] = e.CacheHit
	}
	return m
}

// SnapshotBytes renders a result's trace snapshot as canonical JSON,
// the exact bytes golden files hold. Shared by the goldie assertions
// below and the CLI test runner's golden comparison.
func SnapshotBytes(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Outputs:      result.Outputs,
	}

	traceJSON, err := types.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return nil, err
	}
	// Newline-terminate so golden files diff cleanly.
	return append(traceJSON, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files serve as the source of truth for expected trace output:
// a registration reorder, a changed match key, or a different selected
// record all surface as a golden diff.
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := SnapshotBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
