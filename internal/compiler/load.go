package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// ExtractDecls walks the top-level type, unit, and fn blocks of a built
// CUE value and compiles each declaration. Compilation continues past
// per-declaration failures; all errors are returned alongside whatever
// compiled cleanly, so callers choose between fail-fast and collect-all
// reporting.
func ExtractDecls(v cue.Value) (*LoadedDecls, []error) {
	decls := &LoadedDecls{}
	var errs []error

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if typeVal.Exists() {
		iter, iterErr := typeVal.Fields()
		if iterErr != nil {
			errs = append(errs, formatCUEError(iterErr))
		} else {
			for iter.Next() {
				decl, err := CompileType(iter.Value())
				if err != nil {
					errs = append(errs, err)
					continue
				}
				decls.Types = append(decls.Types, *decl)
			}
		}
	}

	unitVal := v.LookupPath(cue.ParsePath("unit"))
	if unitVal.Exists() {
		iter, iterErr := unitVal.Fields()
		if iterErr != nil {
			errs = append(errs, formatCUEError(iterErr))
		} else {
			for iter.Next() {
				spec, err := CompileUnit(iter.Value())
				if err != nil {
					errs = append(errs, err)
					continue
				}
				decls.Units = append(decls.Units, *spec)
			}
		}
	}

	fnVal := v.LookupPath(cue.ParsePath("fn"))
	if fnVal.Exists() {
		iter, iterErr := fnVal.Fields()
		if iterErr != nil {
			errs = append(errs, formatCUEError(iterErr))
		} else {
			for iter.Next() {
				decl, err := CompileFunc(iter.Value())
				if err != nil {
					errs = append(errs, err)
					continue
				}
				decls.Funcs = append(decls.Funcs, *decl)
			}
		}
	}

	return decls, errs
}

// LoadFiles builds the named CUE files into one unified value and extracts
// its declarations. Fails on the first error: scenario and replay callers
// need all-or-nothing loading.
func LoadFiles(paths []string) (*LoadedDecls, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no unit files given")
	}

	ctx := cuecontext.New()
	instances := load.Instances(paths, &load.Config{})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading unit files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decls, errs := ExtractDecls(value)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if decls.Empty() {
		return nil, fmt.Errorf("no units, functions, or types declared")
	}
	return decls, nil
}

// LoadDir builds every CUE file under dir and extracts its declarations.
func LoadDir(dir string) (*LoadedDecls, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading unit files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decls, errs := ExtractDecls(value)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if decls.Empty() {
		return nil, fmt.Errorf("no units, functions, or types declared")
	}
	return decls, nil
}

// CompileSource compiles declarations from in-memory CUE source.
func CompileSource(src string) (*LoadedDecls, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decls, errs := ExtractDecls(value)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return decls, nil
}
