package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registrationEvent(seq int64, name string, index int) TraceEvent {
	return TraceEvent{
		Type:      EventRegistration,
		Seq:       seq,
		Name:      name,
		Unit:      "test",
		Index:     index,
		Kind:      "unbound",
		Signature: `[{"name":"value","type":"int"}]`,
	}
}

func resolutionEvent(seq int64, name, key, outcome string, record int, cacheHit bool) TraceEvent {
	return TraceEvent{
		Type:        EventResolution,
		Seq:         seq,
		Name:        name,
		CallToken:   "call-1",
		Key:         key,
		Outcome:     outcome,
		RecordIndex: record,
		CacheHit:    cacheHit,
	}
}

func intPtr(n int) *int { return &n }

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		registrationEvent(1, "echo", 0),
		registrationEvent(2, "echo", 1),
		resolutionEvent(3, "echo", `{"kw":{},"pos":["int"]}`, "matched", 0, false),
		resolutionEvent(4, "echo", `{"kw":{},"pos":["string"]}`, "matched", 1, false),
		resolutionEvent(5, "echo", `{"kw":{},"pos":["int"]}`, "matched", 0, true),
		resolutionEvent(6, "greet", `{"kw":{},"pos":["bool"]}`, "no_match", -1, false),
	}
}

func TestAssertTraceContains_Found(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Type: AssertTraceContains,
		Name: "echo",
	})
	assert.NoError(t, err)
}

func TestAssertTraceContains_AllFieldsMatch(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Type:    AssertTraceContains,
		Name:    "echo",
		Key:     `{"kw":{},"pos":["string"]}`,
		Outcome: "matched",
		Record:  intPtr(1),
	})
	assert.NoError(t, err)
}

func TestAssertTraceContains_WrongOutcome(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Type:    AssertTraceContains,
		Name:    "echo",
		Outcome: "no_match",
	})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, ae.Expected, "outcome no_match")
	assert.Equal(t, "not found in trace", ae.Actual)
}

func TestAssertTraceContains_WrongRecord(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Type:   AssertTraceContains,
		Name:   "echo",
		Key:    `{"kw":{},"pos":["string"]}`,
		Record: intPtr(0),
	})
	assert.Error(t, err)
}

func TestAssertTraceContains_UnknownName(t *testing.T) {
	err := assertTraceContains(sampleTrace(), Assertion{
		Type: AssertTraceContains,
		Name: "combine",
	})
	assert.Error(t, err)
}

func TestAssertTraceContains_IgnoresRegistrations(t *testing.T) {
	// Only registrations for the name: a contains assertion must not
	// count them as resolutions.
	trace := []TraceEvent{registrationEvent(1, "quiet", 0)}
	err := assertTraceContains(trace, Assertion{Type: AssertTraceContains, Name: "quiet"})
	assert.Error(t, err)
}

func TestAssertTraceOrder_Correct(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type:  AssertTraceOrder,
		Names: []string{"echo", "greet"},
	})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_Reversed(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type:  AssertTraceOrder,
		Names: []string{"greet", "echo"},
	})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Actual, "should be before")
}

func TestAssertTraceOrder_MissingName(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type:  AssertTraceOrder,
		Names: []string{"echo", "combine"},
	})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Actual, "missing name: combine")
}

func TestAssertTraceCount_Exact(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{
		Type:  AssertTraceCount,
		Name:  "echo",
		Count: 3,
	})
	assert.NoError(t, err)
}

func TestAssertTraceCount_Mismatch(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{
		Type:  AssertTraceCount,
		Name:  "echo",
		Count: 2,
	})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "3 resolutions", ae.Actual)
}

func TestAssertTraceCount_ZeroForAbsentName(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{
		Type:  AssertTraceCount,
		Name:  "combine",
		Count: 0,
	})
	assert.NoError(t, err)
}

func TestAssertCacheHits_CountsOnlyHits(t *testing.T) {
	err := assertCacheHits(sampleTrace(), Assertion{
		Type:  AssertCacheHits,
		Name:  "echo",
		Count: 1,
	})
	assert.NoError(t, err)

	err = assertCacheHits(sampleTrace(), Assertion{
		Type:  AssertCacheHits,
		Name:  "echo",
		Count: 3,
	})
	assert.Error(t, err)
}

func TestAssertRegistrations_Counts(t *testing.T) {
	err := assertRegistrations(sampleTrace(), Assertion{
		Type:  AssertRegistrations,
		Name:  "echo",
		Count: 2,
	})
	assert.NoError(t, err)

	err = assertRegistrations(sampleTrace(), Assertion{
		Type:  AssertRegistrations,
		Name:  "greet",
		Count: 1,
	})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "0 registrations", ae.Actual)
}

func TestEvaluateAssertions_CollectsAllFailures(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	msgs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Name: "echo", Count: 3},
		{Type: AssertTraceCount, Name: "echo", Count: 99},
		{Type: AssertCacheHits, Name: "greet", Count: 5},
	})

	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "99 resolutions of echo")
	assert.Contains(t, msgs[1], "5 cache hits for greet")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	result := NewResult()
	msgs := EvaluateAssertions(result, []Assertion{{Type: "final_state"}})

	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], `unknown assertion type "final_state"`)
}

func TestAssertionError_MessageFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "2 resolutions of echo",
		Actual:   "3 resolutions",
		Trace:    sampleTrace(),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "Expected: 2 resolutions of echo")
	assert.Contains(t, msg, "Actual: 3 resolutions")
	assert.Contains(t, msg, "Resolutions:")
	assert.Contains(t, msg, "record 0 (cached)")
	assert.Contains(t, msg, "no match")
}
