package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/quillon/overload/internal/types"
)

// CompileUnit parses a CUE value into a UnitSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the unit struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`unit: Calculator: { ... }`)
//	spec, err := CompileUnit(v.LookupPath(cue.ParsePath("unit.Calculator")))
func CompileUnit(v cue.Value) (*UnitSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &UnitSpec{}

	// Parse owner name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Owner = labels[len(labels)-1].String()
	}

	overloadVal := v.LookupPath(cue.ParsePath("overload"))
	if !overloadVal.Exists() {
		return nil, &CompileError{
			Field:   "overload",
			Message: "at least one overload is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := overloadVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		impls, err := parseImpls(iter.Value(), fmt.Sprintf("overload.%s", name))
		if err != nil {
			return nil, err
		}
		spec.Overloads = append(spec.Overloads, OverloadDecl{Name: name, Impls: impls})
	}

	if len(spec.Overloads) == 0 {
		return nil, &CompileError{
			Field:   "overload",
			Message: "at least one overload is required",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// CompileFunc parses a CUE value into a FuncDecl. The value is the ordered
// implementation list declared under fn.<name>.
func CompileFunc(v cue.Value) (*FuncDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &FuncDecl{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		decl.Name = labels[len(labels)-1].String()
	}

	impls, err := parseImpls(v, fmt.Sprintf("fn.%s", decl.Name))
	if err != nil {
		return nil, err
	}
	decl.Impls = impls

	return decl, nil
}

// CompileType parses a CUE value into a TypeDecl.
func CompileType(v cue.Value) (*TypeDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &TypeDecl{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		decl.Name = labels[len(labels)-1].String()
	}

	parentVal := v.LookupPath(cue.ParsePath("parent"))
	if parentVal.Exists() {
		parent, err := parentVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		decl.Parent = parent
	}

	return decl, nil
}

// parseImpls parses an ordered implementation list.
func parseImpls(v cue.Value, field string) ([]ImplDecl, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "implementations must be an ordered list",
			Pos:     v.Pos(),
		}
	}

	var impls []ImplDecl
	for i := 0; iter.Next(); i++ {
		impl, err := parseImpl(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		impls = append(impls, impl)
	}

	if len(impls) == 0 {
		return nil, &CompileError{
			Field:   field,
			Message: "at least one implementation is required",
			Pos:     v.Pos(),
		}
	}

	return impls, nil
}

// parseImpl parses one implementation struct: params, kind, body.
func parseImpl(v cue.Value, field string) (ImplDecl, error) {
	var impl ImplDecl

	params, err := parseParams(v, field)
	if err != nil {
		return impl, err
	}
	impl.Params = params

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if kindVal.Exists() {
		kind, err := kindVal.String()
		if err != nil {
			return impl, formatCUEError(err)
		}
		impl.Kind = kind
	}

	bodyVal := v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return impl, &CompileError{
			Field:   field + ".body",
			Message: "body ref is required",
			Pos:     v.Pos(),
		}
	}
	body, err := bodyVal.String()
	if err != nil {
		return impl, formatCUEError(err)
	}
	impl.Body = body

	return impl, nil
}

// parseParams parses the params struct of an implementation. Fields are
// iterated in declaration order, which becomes the positional order.
// Supports:
//   - Descriptor string: a: "int"
//   - Structured form: a: {type: "int", default: 3}
func parseParams(v cue.Value, field string) ([]ParamDecl, error) {
	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return nil, nil // zero-arg implementation
	}

	iter, err := paramsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var params []ParamDecl
	for iter.Next() {
		name := iter.Label()
		pv := iter.Value()

		// Try as string first (plain descriptor)
		if desc, err := pv.String(); err == nil {
			params = append(params, ParamDecl{Name: name, Type: desc})
			continue
		}

		// Structured form with type and optional default
		typeVal := pv.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.params.%s", field, name),
				Message: "must be a descriptor string or object with type field",
				Pos:     pv.Pos(),
			}
		}
		desc, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		param := ParamDecl{Name: name, Type: desc}

		defaultVal := pv.LookupPath(cue.ParsePath("default"))
		if defaultVal.Exists() {
			dv, err := cueToValue(defaultVal)
			if err != nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("%s.params.%s.default", field, name),
					Message: err.Error(),
					Pos:     defaultVal.Pos(),
				}
			}
			param.Default = dv
		}

		params = append(params, param)
	}

	return params, nil
}

// cueToValue converts a concrete CUE value to a runtime value.
func cueToValue(v cue.Value) (types.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return types.NilValue{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return types.BoolValue(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return types.IntValue(n), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return types.FloatValue(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return types.StringValue(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		var list types.ListValue
		for iter.Next() {
			elem, err := cueToValue(iter.Value())
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported default value kind: %v", v.Kind())
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
