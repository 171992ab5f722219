package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Resolutions for context
	fmt.Fprintf(&buf, "\nResolutions:\n")
	n := 0
	for _, event := range e.Trace {
		if event.Type == EventResolution {
			n++
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", n, event.Name, event.Key, describeSelection(event))
		}
	}

	return buf.String()
}

// describeSelection renders one resolution's outcome for error messages.
func describeSelection(event TraceEvent) string {
	if event.Outcome == "no_match" {
		return "no match"
	}
	if event.CacheHit {
		return fmt.Sprintf("record %d (cached)", event.RecordIndex)
	}
	return fmt.Sprintf("record %d", event.RecordIndex)
}

// assertTraceContains checks if the trace contains a resolution of the
// named dispatch matching every field the assertion specifies.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type != EventResolution || event.Name != assertion.Name {
			continue
		}
		if assertion.Key != "" && event.Key != assertion.Key {
			continue
		}
		if assertion.Outcome != "" && event.Outcome != assertion.Outcome {
			continue
		}
		if assertion.Record != nil && event.RecordIndex != *assertion.Record {
			continue
		}
		return nil // Found matching resolution
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeContains(assertion),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// describeContains renders the fields a trace_contains assertion asked for.
func describeContains(a Assertion) string {
	desc := fmt.Sprintf("resolution of %s", a.Name)
	if a.Key != "" {
		desc += " with key " + a.Key
	}
	if a.Outcome != "" {
		desc += " outcome " + a.Outcome
	}
	if a.Record != nil {
		desc += fmt.Sprintf(" record %d", *a.Record)
	}
	return desc
}

// assertTraceOrder checks if names resolve in the specified order.
// Resolutions don't need to be consecutive (intervening calls are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// Step 1: Find first position of each expected name
	positions := make(map[string]int)

	pos := 0
	for _, event := range trace {
		if event.Type != EventResolution {
			continue
		}
		pos++
		for _, expectedName := range assertion.Names {
			if event.Name == expectedName && positions[expectedName] == 0 {
				positions[expectedName] = pos // 1-indexed for readability
			}
		}
	}

	// Step 2: Verify all names found
	for _, name := range assertion.Names {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all names resolved: %v", assertion.Names),
				Actual:   fmt.Sprintf("missing name: %s", name),
				Trace:    trace,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Names); i++ {
		prev := assertion.Names[i-1]
		curr := assertion.Names[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("names in order: %v", assertion.Names),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the name resolves exactly the specified
// number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventResolution && event.Name == assertion.Name {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d resolutions of %s", assertion.Count, assertion.Name),
			Actual:   fmt.Sprintf("%d resolutions", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertCacheHits checks if exactly the specified number of the name's
// resolutions were answered from the cache.
func assertCacheHits(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventResolution && event.Name == assertion.Name && event.CacheHit {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertCacheHits,
			Expected: fmt.Sprintf("%d cache hits for %s", assertion.Count, assertion.Name),
			Actual:   fmt.Sprintf("%d cache hits", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertRegistrations checks if the name registered exactly the
// specified number of implementations.
func assertRegistrations(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventRegistration && event.Name == assertion.Name {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertRegistrations,
			Expected: fmt.Sprintf("%d registrations of %s", assertion.Count, assertion.Name),
			Actual:   fmt.Sprintf("%d registrations", count),
			Trace:    trace,
		}
	}

	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertCacheHits:
			err = assertCacheHits(result.Trace, assertion)
		case AssertRegistrations:
			err = assertRegistrations(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
