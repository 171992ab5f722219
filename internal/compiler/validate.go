package compiler

import (
	"fmt"
	"strings"

	"github.com/quillon/overload/internal/builtin"
	"github.com/quillon/overload/internal/dispatch"
	"github.com/quillon/overload/internal/types"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedDecl = "E100" // unsupported declaration type for validation

	// Unit and overload errors (E101-E109)
	ErrNoOverloads        = "E101" // unit must declare at least one overload
	ErrNoImpls            = "E102" // overload must have implementations
	ErrInvalidKind        = "E103" // unknown binding kind string
	ErrUnknownBody        = "E104" // body ref not in the builtin library
	ErrDuplicateParam     = "E105" // duplicate parameter name
	ErrNonTrailingDefault = "E106" // required parameter after a defaulted one
	ErrEmptyName          = "E107" // empty unit, overload, or parameter name

	// Free function errors (E110-E119)
	ErrBoundKindOnFunc = "E110" // free functions cannot take a receiver

	// Type declaration errors (E120-E129)
	ErrShadowsBuiltin = "E120" // user type reuses a built-in descriptor
	ErrParentAny      = "E121" // conformance to any is implicit
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled declaration against schema rules.
// Returns all errors found (does not fail-fast).
// Supports UnitSpec, FuncDecl, and TypeDecl types.
//
// Checks that need the whole declaration set (unknown parameter
// descriptors, missing parents) belong to registry build time; Validate
// covers everything decidable from one declaration alone.
func Validate(v any) []ValidationError {
	switch decl := v.(type) {
	case *UnitSpec:
		return validateUnitSpec(decl)
	case UnitSpec:
		return validateUnitSpec(&decl)
	case *FuncDecl:
		return validateFuncDecl(decl)
	case FuncDecl:
		return validateFuncDecl(&decl)
	case *TypeDecl:
		return validateTypeDecl(decl)
	case TypeDecl:
		return validateTypeDecl(&decl)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported declaration type: %T", v),
			Code:    ErrUnsupportedDecl,
		}}
	}
}

// ValidateAll validates every declaration in a load result.
func ValidateAll(decls *LoadedDecls) []ValidationError {
	var errs []ValidationError
	for i := range decls.Types {
		errs = append(errs, Validate(&decls.Types[i])...)
	}
	for i := range decls.Units {
		errs = append(errs, Validate(&decls.Units[i])...)
	}
	for i := range decls.Funcs {
		errs = append(errs, Validate(&decls.Funcs[i])...)
	}
	return errs
}

// validateUnitSpec validates a unit declaration.
func validateUnitSpec(spec *UnitSpec) []ValidationError {
	var errs []ValidationError

	// E107: owner name is required
	if strings.TrimSpace(spec.Owner) == "" {
		errs = append(errs, ValidationError{
			Field:   "owner",
			Message: "unit owner name is required and must be non-empty",
			Code:    ErrEmptyName,
		})
	}

	// E101: at least one overload required
	if len(spec.Overloads) == 0 {
		errs = append(errs, ValidationError{
			Field:   "overload",
			Message: "at least one overload is required",
			Code:    ErrNoOverloads,
		})
	}

	for i, ov := range spec.Overloads {
		// E107: overload name is required
		if ov.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("overload[%d].name", i),
				Message: "overload name is required",
				Code:    ErrEmptyName,
			})
		}

		// E102: overload must have implementations
		if len(ov.Impls) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("overload[%d].impls", i),
				Message: fmt.Sprintf("overload %q must have at least one implementation", ov.Name),
				Code:    ErrNoImpls,
			})
		}

		for j, impl := range ov.Impls {
			implErrs := validateImpl(impl, fmt.Sprintf("overload[%d].impls[%d]", i, j), false)
			errs = append(errs, implErrs...)
		}
	}

	return errs
}

// validateFuncDecl validates a free function declaration.
func validateFuncDecl(decl *FuncDecl) []ValidationError {
	var errs []ValidationError

	// E107: function name is required
	if strings.TrimSpace(decl.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "function name is required and must be non-empty",
			Code:    ErrEmptyName,
		})
	}

	// E102: function must have implementations
	if len(decl.Impls) == 0 {
		errs = append(errs, ValidationError{
			Field:   "impls",
			Message: fmt.Sprintf("function %q must have at least one implementation", decl.Name),
			Code:    ErrNoImpls,
		})
	}

	for i, impl := range decl.Impls {
		implErrs := validateImpl(impl, fmt.Sprintf("impls[%d]", i), true)
		errs = append(errs, implErrs...)
	}

	return errs
}

// validateImpl validates one implementation declaration. free restricts
// the binding kind to unbound, since there is no owner to bind to.
func validateImpl(impl ImplDecl, fieldPath string, free bool) []ValidationError {
	var errs []ValidationError

	// E103: binding kind must parse
	kind, err := dispatch.ParseBindingKind(impl.Kind)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   fieldPath + ".kind",
			Message: fmt.Sprintf("invalid binding kind %q, must be \"instance\", \"type\", \"static\", or omitted", impl.Kind),
			Code:    ErrInvalidKind,
		})
	} else if free && kind != dispatch.Unbound {
		// E110: free functions have no receiver
		errs = append(errs, ValidationError{
			Field:   fieldPath + ".kind",
			Message: fmt.Sprintf("binding kind %q requires a unit owner", impl.Kind),
			Code:    ErrBoundKindOnFunc,
		})
	}

	// E104: body ref must resolve in the builtin library
	if impl.Body == "" {
		errs = append(errs, ValidationError{
			Field:   fieldPath + ".body",
			Message: "body ref is required",
			Code:    ErrUnknownBody,
		})
	} else if !builtin.Known(impl.Body) {
		errs = append(errs, ValidationError{
			Field:   fieldPath + ".body",
			Message: fmt.Sprintf("unknown body ref %q", impl.Body),
			Code:    ErrUnknownBody,
		})
	}

	seen := make(map[string]bool)
	defaulted := false
	for i, p := range impl.Params {
		// E107: parameter name is required
		if p.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.params[%d]", fieldPath, i),
				Message: "parameter name is required",
				Code:    ErrEmptyName,
			})
		}

		// E105: duplicate parameter name
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.params[%d]", fieldPath, i),
				Message: fmt.Sprintf("duplicate parameter name %q", p.Name),
				Code:    ErrDuplicateParam,
			})
		}
		seen[p.Name] = true

		// E106: defaults must be trailing
		if p.Default != nil {
			defaulted = true
		} else if defaulted {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.params[%d]", fieldPath, i),
				Message: fmt.Sprintf("required parameter %q follows a defaulted parameter", p.Name),
				Code:    ErrNonTrailingDefault,
			})
		}
	}

	return errs
}

// validateTypeDecl validates a user type declaration.
func validateTypeDecl(decl *TypeDecl) []ValidationError {
	var errs []ValidationError

	// E107: type name is required
	if strings.TrimSpace(decl.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "type name is required and must be non-empty",
			Code:    ErrEmptyName,
		})
	}

	// E120: built-in descriptors cannot be redeclared
	if types.IsBuiltin(types.Descriptor(decl.Name)) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("type %q shadows a built-in descriptor", decl.Name),
			Code:    ErrShadowsBuiltin,
		})
	}

	// E121: every type already conforms to any
	if decl.Parent == string(types.TypeAny) {
		errs = append(errs, ValidationError{
			Field:   "parent",
			Message: "conformance to any is implicit, omit the parent instead",
			Code:    ErrParentAny,
		})
	}

	return errs
}
