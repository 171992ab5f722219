package builtin

import (
	"fmt"
	"strings"

	"github.com/quillon/overload/internal/types"
)

// bind flattens a call's positional and keyword arguments into declared
// order. skip drops a receiver the binding adapter supplied (1 for
// instance- and type-bound bodies, 0 otherwise). Resolution has already
// matched the call shape, so a missing name here means the unit declared
// this body under different parameter names than the body binds.
func bind(args []types.Value, kwargs map[string]types.Value, skip int, names ...string) ([]types.Value, error) {
	explicit := args
	if skip < len(args) {
		explicit = args[skip:]
	} else {
		explicit = nil
	}

	out := make([]types.Value, len(names))
	for i, name := range names {
		if i < len(explicit) {
			out[i] = explicit[i]
			continue
		}
		if v, ok := kwargs[name]; ok {
			out[i] = v
			continue
		}
		return nil, fmt.Errorf("builtin body: missing argument %q", name)
	}
	return out, nil
}

func asInt(v types.Value) (int64, error) {
	n, ok := v.(types.IntValue)
	if !ok {
		return 0, fmt.Errorf("builtin body: expected int, got %s", v.Type())
	}
	return int64(n), nil
}

func asFloat(v types.Value) (float64, error) {
	f, ok := v.(types.FloatValue)
	if !ok {
		return 0, fmt.Errorf("builtin body: expected float, got %s", v.Type())
	}
	return float64(f), nil
}

func asString(v types.Value) (string, error) {
	s, ok := v.(types.StringValue)
	if !ok {
		return "", fmt.Errorf("builtin body: expected string, got %s", v.Type())
	}
	return string(s), nil
}

// addInts binds (a, b) as ints and returns their sum.
func addInts(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 0, "a", "b")
	if err != nil {
		return nil, err
	}
	a, err := asInt(vals[0])
	if err != nil {
		return nil, err
	}
	b, err := asInt(vals[1])
	if err != nil {
		return nil, err
	}
	return types.IntValue(a + b), nil
}

// concatStrings binds (a, b) as strings and returns their concatenation.
func concatStrings(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 0, "a", "b")
	if err != nil {
		return nil, err
	}
	a, err := asString(vals[0])
	if err != nil {
		return nil, err
	}
	b, err := asString(vals[1])
	if err != nil {
		return nil, err
	}
	return types.StringValue(a + b), nil
}

// echoValue binds (value) and returns it unchanged.
func echoValue(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 0, "value")
	if err != nil {
		return nil, err
	}
	return vals[0], nil
}

// upperString binds (value) as a string and returns it upper-cased.
func upperString(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 0, "value")
	if err != nil {
		return nil, err
	}
	s, err := asString(vals[0])
	if err != nil {
		return nil, err
	}
	return types.StringValue(strings.ToUpper(s)), nil
}

// multiplyInts binds (a, b) as ints and returns their product. Written for
// static binding: no receiver is supplied or skipped.
func multiplyInts(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 0, "a", "b")
	if err != nil {
		return nil, err
	}
	a, err := asInt(vals[0])
	if err != nil {
		return nil, err
	}
	b, err := asInt(vals[1])
	if err != nil {
		return nil, err
	}
	return types.IntValue(a * b), nil
}

// multiplyFloats binds (a, b) as floats and returns their product.
func multiplyFloats(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 0, "a", "b")
	if err != nil {
		return nil, err
	}
	a, err := asFloat(vals[0])
	if err != nil {
		return nil, err
	}
	b, err := asFloat(vals[1])
	if err != nil {
		return nil, err
	}
	return types.FloatValue(a * b), nil
}

// printNumber is an instance-bound body: args[0] is the receiver. Binds
// (value) as an int and renders "Number: <value>".
func printNumber(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 1, "value")
	if err != nil {
		return nil, err
	}
	n, err := asInt(vals[0])
	if err != nil {
		return nil, err
	}
	return types.StringValue(fmt.Sprintf("Number: %d", n)), nil
}

// printText is an instance-bound body: args[0] is the receiver. Binds
// (value) as a string and renders "Text: <value>" with the raw string.
func printText(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 1, "value")
	if err != nil {
		return nil, err
	}
	s, err := asString(vals[0])
	if err != nil {
		return nil, err
	}
	return types.StringValue(fmt.Sprintf("Text: %s", s)), nil
}

// greetName is a type-bound body: args[0] is the owner type value the
// adapter supplied. Binds (name) as a string and renders "Hello <name>".
func greetName(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 1, "name")
	if err != nil {
		return nil, err
	}
	name, err := asString(vals[0])
	if err != nil {
		return nil, err
	}
	return types.StringValue(fmt.Sprintf("Hello %s", name)), nil
}

// greetCount is a type-bound body: args[0] is the owner type value. Binds
// (name) as an int and renders "Number <name>".
func greetCount(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 1, "name")
	if err != nil {
		return nil, err
	}
	n, err := asInt(vals[0])
	if err != nil {
		return nil, err
	}
	return types.StringValue(fmt.Sprintf("Number %d", n)), nil
}

// inspectValue binds (value) and returns its rendered form. Declared with
// a number or any parameter in unit files to demonstrate subtype matching.
func inspectValue(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	vals, err := bind(args, kwargs, 0, "value")
	if err != nil {
		return nil, err
	}
	return types.StringValue(vals[0].Inspect()), nil
}
