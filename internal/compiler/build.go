package compiler

import (
	"context"
	"fmt"

	"github.com/quillon/overload/internal/builtin"
	"github.com/quillon/overload/internal/dispatch"
	"github.com/quillon/overload/internal/types"
)

// BuildRegistry registers every compiled declaration into a fresh registry.
// unit labels the declarations in trace events. Registration order is the
// declared order: types first (names before edges, so forward references
// link), then unit scopes, then free functions.
//
// Registration failures abort the build: a unit file that does not load
// cleanly is not half-loaded.
func BuildRegistry(ctx context.Context, decls *LoadedDecls, unit string, opts ...dispatch.Option) (*dispatch.Registry, error) {
	reg := dispatch.New(opts...)
	if unit != "" {
		reg.SetUnit(unit)
	}

	hier := reg.Hierarchy()
	for _, td := range decls.Types {
		if err := hier.Register(types.Descriptor(td.Name)); err != nil {
			return nil, fmt.Errorf("type %s: %w", td.Name, err)
		}
	}
	for _, td := range decls.Types {
		if td.Parent == "" {
			continue
		}
		if err := hier.Link(types.Descriptor(td.Name), types.Descriptor(td.Parent)); err != nil {
			return nil, fmt.Errorf("type %s: %w", td.Name, err)
		}
	}

	for _, us := range decls.Units {
		scope, err := reg.NewScope(types.Descriptor(us.Owner))
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", us.Owner, err)
		}
		for _, ov := range us.Overloads {
			for _, impl := range ov.Impls {
				if err := registerImpl(ctx, reg, scope, ov.Name, impl); err != nil {
					return nil, fmt.Errorf("unit %s: %w", us.Owner, err)
				}
			}
		}
		if _, err := reg.FinalizeScope(scope); err != nil {
			return nil, fmt.Errorf("unit %s: %w", us.Owner, err)
		}
	}

	for _, fd := range decls.Funcs {
		for _, impl := range fd.Impls {
			if err := registerImpl(ctx, reg, nil, fd.Name, impl); err != nil {
				return nil, err
			}
		}
	}

	return reg, nil
}

// registerImpl registers one implementation declaration, resolving its
// body ref against the builtin library.
func registerImpl(ctx context.Context, reg *dispatch.Registry, scope *dispatch.ScopeGroup, name string, impl ImplDecl) error {
	kind, err := dispatch.ParseBindingKind(impl.Kind)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	body, ok := builtin.Lookup(impl.Body)
	if !ok {
		return fmt.Errorf("%s: unknown builtin body %q", name, impl.Body)
	}

	params := make([]dispatch.Param, len(impl.Params))
	for i, p := range impl.Params {
		params[i] = dispatch.Param{
			Name:    p.Name,
			Type:    types.Descriptor(p.Type),
			Default: p.Default,
		}
	}

	if _, err := reg.Register(ctx, scope, name, params, kind, body); err != nil {
		return err
	}
	return nil
}
