package harness

import (
	"context"
	"fmt"

	"github.com/quillon/overload/internal/compiler"
	"github.com/quillon/overload/internal/dispatch"
	"github.com/quillon/overload/internal/testutil"
	"github.com/quillon/overload/internal/types"
)

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh registry built from its unit files,
// with sequential call tokens so repeated runs produce byte-identical
// traces.
//
// Execution flow:
//  1. Compile and load the scenario's unit files
//  2. Build a registry with a capturing trace sink
//  3. Make each declared call, validating its expect clause
//  4. Evaluate trace assertions
//  5. Return result with pass/fail, trace, outputs, and errors
//
// Expect clause and assertion failures mark the result failed. A broken
// scenario (unloadable units, unknown dispatch name, misused receiver)
// fails Run itself.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	decls, err := compiler.LoadFiles(scenario.Units)
	if err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}

	capture := testutil.NewCaptureTraceSink()
	reg, err := compiler.BuildRegistry(ctx, decls, scenario.Name,
		dispatch.WithTraceSink(capture),
		dispatch.WithTokenGenerator(testutil.NewSequentialTokenGenerator()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	result := NewResult()
	for _, ev := range capture.Registrations() {
		result.AddRegistration(ev)
	}

	for i, step := range scenario.Calls {
		if err := runCall(ctx, reg, capture, i, step, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// runCall makes one call and validates its expect clause.
//
// A no-match outcome is a first-class result: it lands in the trace and
// the outputs, and only fails the scenario when the step did not expect
// it. Any other invocation error means the scenario itself is broken.
func runCall(ctx context.Context, reg *dispatch.Registry, capture *testutil.CaptureTraceSink, i int, step CallStep, result *Result) error {
	h, ok := reg.Lookup(step.Invoke)
	if !ok {
		return fmt.Errorf("call %d: unknown dispatch name %q", i, step.Invoke)
	}

	args, err := convertArgs(step.Args)
	if err != nil {
		return fmt.Errorf("call %d (%s): %w", i, step.Invoke, err)
	}
	if step.Receiver != "" {
		receiver := types.RecordValue{TypeName: types.Descriptor(step.Receiver)}
		args = append([]types.Value{receiver}, args...)
	}
	kwargs, err := convertKwargs(step.Kwargs)
	if err != nil {
		return fmt.Errorf("call %d (%s): %w", i, step.Invoke, err)
	}

	out, callErr := reg.Invoke(ctx, h, args, kwargs)
	if callErr != nil && !dispatch.IsNoMatch(callErr) {
		return fmt.Errorf("call %d (%s): %w", i, step.Invoke, callErr)
	}

	// Invoke recorded exactly one resolution event for this call.
	ress := capture.Resolutions()
	ev := ress[len(ress)-1]
	result.AddResolution(ev)

	if callErr != nil {
		result.AddOutput(callErr.Error())
		if step.Expect == nil || !step.Expect.NoMatch {
			result.AddError(fmt.Sprintf("call %d (%s): %v", i, step.Invoke, callErr))
		}
		return nil
	}

	result.AddOutput(out.Inspect())

	if step.Expect == nil {
		return nil
	}
	if step.Expect.NoMatch {
		result.AddError(fmt.Sprintf("call %d (%s): expected no match, got %s", i, step.Invoke, out.Inspect()))
		return nil
	}
	if step.Expect.Result != nil {
		want, err := types.FromGo(step.Expect.Result)
		if err != nil {
			return fmt.Errorf("call %d (%s): bad expected result: %w", i, step.Invoke, err)
		}
		if want.Inspect() != out.Inspect() {
			result.AddError(fmt.Sprintf("call %d (%s): result %s, want %s", i, step.Invoke, out.Inspect(), want.Inspect()))
		}
	}
	if step.Expect.Record != nil && ev.RecordIndex != *step.Expect.Record {
		result.AddError(fmt.Sprintf("call %d (%s): selected record %d, want %d", i, step.Invoke, ev.RecordIndex, *step.Expect.Record))
	}
	return nil
}

// convertArgs converts YAML-decoded positional arguments to runtime
// values. YAML integers dispatch as int, floats as float.
func convertArgs(args []any) ([]types.Value, error) {
	out := make([]types.Value, len(args))
	for i, a := range args {
		v, err := types.FromGo(a)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// convertKwargs converts YAML-decoded keyword arguments to runtime values.
func convertKwargs(kwargs map[string]any) (map[string]types.Value, error) {
	if len(kwargs) == 0 {
		return nil, nil
	}
	out := make(map[string]types.Value, len(kwargs))
	for name, a := range kwargs {
		v, err := types.FromGo(a)
		if err != nil {
			return nil, fmt.Errorf("kwargs[%s]: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
