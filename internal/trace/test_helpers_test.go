package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/quillon/overload/internal/dispatch"
	"github.com/quillon/overload/internal/testutil"
	"github.com/quillon/overload/internal/types"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRegistration creates a registration event with minimal
// required fields.
func createTestRegistration(seq int64, name string, idx int) dispatch.RegistrationEvent {
	return dispatch.RegistrationEvent{
		Seq:           seq,
		Unit:          "units.cue",
		Name:          name,
		Index:         idx,
		Kind:          dispatch.Unbound,
		Signature:     `[{"name":"value","type":"int"}]`,
		SignatureHash: "test-sig-hash",
	}
}

// createTestResolution creates a resolution event with minimal required
// fields. The key is a valid canonical key for a one-int call.
func createTestResolution(seq int64, token, name string, outcome dispatch.ResolutionOutcome, idx int, cacheHit bool) dispatch.ResolutionEvent {
	return dispatch.ResolutionEvent{
		Seq:         seq,
		CallToken:   token,
		Name:        name,
		Key:         `{"kw":{},"pos":["int"]}`,
		KeyHash:     "test-key-hash",
		Outcome:     outcome,
		RecordIndex: idx,
		CacheHit:    cacheHit,
	}
}

// constBody returns a callable that ignores its arguments.
func constBody(v types.Value) dispatch.Callable {
	return func(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
		return v, nil
	}
}

// buildEchoRegistry builds a registry recording into the given sink,
// with the free function echo registered for int then string. Reversed
// flips the registration order, which flips every first-match pick.
func buildEchoRegistry(t *testing.T, sink dispatch.TraceSink, reversed bool) *dispatch.Registry {
	t.Helper()

	opts := []dispatch.Option{
		dispatch.WithTokenGenerator(testutil.NewSequentialTokenGenerator()),
	}
	if sink != nil {
		opts = append(opts, dispatch.WithTraceSink(sink))
	}
	reg := dispatch.New(opts...)
	reg.SetUnit("units.cue")

	params := [][]dispatch.Param{
		{{Name: "value", Type: types.TypeInt}},
		{{Name: "value", Type: types.TypeString}},
	}
	bodies := []dispatch.Callable{
		constBody(types.StringValue("int impl")),
		constBody(types.StringValue("string impl")),
	}
	if reversed {
		params[0], params[1] = params[1], params[0]
		bodies[0], bodies[1] = bodies[1], bodies[0]
	}

	ctx := context.Background()
	for i := range params {
		if _, err := reg.Register(ctx, nil, "echo", params[i], dispatch.Unbound, bodies[i]); err != nil {
			t.Fatalf("Register() failed: %v", err)
		}
	}
	return reg
}

// invokeEcho runs one echo call, failing the test only on non-dispatch
// errors. No-match outcomes are part of the recorded scenarios.
func invokeEcho(t *testing.T, reg *dispatch.Registry, arg types.Value) {
	t.Helper()
	h, ok := reg.Func("echo")
	if !ok {
		t.Fatal("echo not registered")
	}
	if _, err := reg.Invoke(context.Background(), h, []types.Value{arg}, nil); err != nil && !dispatch.IsNoMatch(err) {
		t.Fatalf("Invoke() failed: %v", err)
	}
}
