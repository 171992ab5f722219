package dispatch

import (
	"fmt"
	"sync"

	"github.com/quillon/overload/internal/types"
)

// ScopeGroup collects the contributions registered inside one defining
// scope: a transient mapping from name to the ordered (table, kind)
// pairs declared under it.
//
// A group is consumed exactly once by scope finalization and then
// discarded; registering into or finalizing a consumed group is an
// error. Registration is a definition-time activity; the mutex makes
// misuse detectable rather than racy.
type ScopeGroup struct {
	owner types.Descriptor

	mu        sync.Mutex
	names     []string // first-registration order
	contribs  map[string][]Contribution
	finalized bool
}

func newScopeGroup(owner types.Descriptor) *ScopeGroup {
	return &ScopeGroup{
		owner:    owner,
		contribs: make(map[string][]Contribution),
	}
}

// Owner returns the defining scope's type descriptor.
func (g *ScopeGroup) Owner() types.Descriptor {
	return g.owner
}

// Names returns the registered names in first-registration order.
func (g *ScopeGroup) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// add registers one implementation into the group.
//
// Consecutive registrations under one name with the same kind extend the
// same contribution table; a kind change starts a new contribution, so
// the merge pass sees the kind sequence in declaration order. Returns
// the record and its declaration index across all of the name's
// contributions - the index the record will hold after merging.
func (g *ScopeGroup) add(name string, params []Param, kind BindingKind, body Callable, hier *types.Hierarchy) (*Record, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finalized {
		return nil, 0, fmt.Errorf("scope %q already finalized", g.owner)
	}

	// Validate before touching group state so a malformed registration
	// leaves no trace: no name entry, no empty contribution.
	if err := validateSignature(hier, name, params, body); err != nil {
		return nil, 0, err
	}

	list := g.contribs[name]
	if len(list) == 0 {
		g.names = append(g.names, name)
	}

	total := 0
	for _, c := range list {
		total += c.Table.Len()
	}

	if len(list) == 0 || list[len(list)-1].Kind != kind {
		list = append(list, Contribution{Table: NewTable(name, hier), Kind: kind})
		g.contribs[name] = list
	}

	rec, err := list[len(list)-1].Table.Register(params, body)
	if err != nil {
		return nil, 0, err
	}
	return rec, total, nil
}

// consume hands the group's contents to the merge pass and marks the
// group finalized. Exactly-once: a second consume fails.
func (g *ScopeGroup) consume() ([]string, map[string][]Contribution, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finalized {
		return nil, nil, fmt.Errorf("scope %q already finalized", g.owner)
	}
	g.finalized = true

	names := g.names
	contribs := g.contribs
	g.names = nil
	g.contribs = nil
	return names, contribs, nil
}
