package dispatch

import (
	"log/slog"

	"github.com/quillon/overload/internal/types"
)

// Contribution is one (table, binding kind) pair a defining scope
// registered under a name.
type Contribution struct {
	Table *Table
	Kind  BindingKind
}

// Merge consolidates the tables one defining scope contributed under a
// single name into one fresh table.
//
// Records are appended in the order the contributions occurred, relative
// order preserved both within and across contributing tables, so the
// merged order equals declaration order. The resulting kind is the LAST
// non-default kind encountered; if no contribution declares a
// receiver-affecting kind the merge is Unbound.
//
// Merging never rejects input: inconsistent arities or types across
// contributions surface at call time through the resolver, not here.
// A size-1 group still produces a fresh table - the merged table never
// aliases an input, so later mutation cannot reach a table a caller
// might still hold.
//
// A kind changing between two different non-default kinds mid-scope is
// likely unintentional; it is logged as a diagnostic, never fatal, since
// last-one-wins stays well-defined.
func Merge(name string, contribs []Contribution, hier *types.Hierarchy) (*Table, BindingKind) {
	merged := NewTable(name, hier)
	kind := Unbound

	merged.mu.Lock()
	defer merged.mu.Unlock()

	for _, c := range contribs {
		if !c.Kind.isDefault() {
			if !kind.isDefault() && kind != c.Kind {
				slog.Warn("ambiguous wrapper override",
					"name", name,
					"previous_kind", kind.String(),
					"next_kind", c.Kind.String(),
				)
			}
			kind = c.Kind
		}

		for _, rec := range c.Table.Records() {
			// Records are immutable; copy so the merged table can
			// re-index without touching the contribution's records.
			cp := *rec
			merged.appendRecord(&cp)
		}
	}

	return merged, kind
}
