// Package builtin is the library of callable bodies that unit files can
// reference by name. Each body documents the parameter names it binds and
// the binding kind it is written for; a unit declaring a body under other
// parameter names gets a missing-argument error at call time, not a crash.
package builtin

import (
	"sort"

	"github.com/quillon/overload/internal/dispatch"
)

// bodies maps a unit-file body ref to its implementation.
var bodies = map[string]dispatch.Callable{
	"add_ints":        addInts,
	"concat_strings":  concatStrings,
	"echo_value":      echoValue,
	"upper_string":    upperString,
	"multiply_ints":   multiplyInts,
	"multiply_floats": multiplyFloats,
	"print_number":    printNumber,
	"print_text":      printText,
	"greet_name":      greetName,
	"greet_count":     greetCount,
	"inspect_value":   inspectValue,
}

// Lookup returns the body registered under ref.
func Lookup(ref string) (dispatch.Callable, bool) {
	body, ok := bodies[ref]
	return body, ok
}

// Known reports whether ref names a registered body.
func Known(ref string) bool {
	_, ok := bodies[ref]
	return ok
}

// Names returns all registered body refs in sorted order.
func Names() []string {
	names := make([]string, 0, len(bodies))
	for name := range bodies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
