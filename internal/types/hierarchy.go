package types

import (
	"fmt"
	"sync"
)

// Hierarchy is the explicit, finite subtype table.
//
// Conforms(arg, decl) answers "may a value of runtime type arg bind to a
// parameter declared as decl". The relation is reflexive and transitive over
// registered edges, and nothing else: a narrower numeric kind is compatible
// with a wider one only because the built-in table says so, never because
// some structural rule inferred it.
//
// Thread-safety: registration is definition-time and guarded by a mutex;
// Conforms and Known take the same lock. Both are short map walks, and the
// resolve path consults the table on cache misses only, so a plain mutex is
// sufficient.
type Hierarchy struct {
	mu      sync.Mutex
	known   map[Descriptor]bool
	parents map[Descriptor][]Descriptor
}

// NewHierarchy creates a hierarchy seeded with the built-in universe and the
// built-in numeric edges (int -> number, float -> number).
func NewHierarchy() *Hierarchy {
	h := &Hierarchy{
		known:   make(map[Descriptor]bool, len(builtinDescriptors)),
		parents: make(map[Descriptor][]Descriptor),
	}
	for _, d := range builtinDescriptors {
		h.known[d] = true
	}
	h.parents[TypeInt] = []Descriptor{TypeNumber}
	h.parents[TypeFloat] = []Descriptor{TypeNumber}
	return h
}

// Register adds a user-defined descriptor (typically a record type name).
// Registering a name twice is a no-op; shadowing a built-in is an error.
func (h *Hierarchy) Register(d Descriptor) error {
	if d == "" {
		return fmt.Errorf("empty type descriptor")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.known[d] {
		for _, b := range builtinDescriptors {
			if d == b {
				return fmt.Errorf("descriptor %q shadows a built-in type", d)
			}
		}
		return nil
	}
	h.known[d] = true
	return nil
}

// Link records that child conforms to parent. Both descriptors must already
// be known. Linking to TypeAny is rejected: any matches everything by rule,
// not by edge.
func (h *Hierarchy) Link(child, parent Descriptor) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.known[child] {
		return fmt.Errorf("unknown type descriptor %q", child)
	}
	if !h.known[parent] {
		return fmt.Errorf("unknown type descriptor %q", parent)
	}
	if parent == TypeAny {
		return fmt.Errorf("cannot link %q to any: any is implicit", child)
	}
	if child == parent {
		return nil
	}
	for _, p := range h.parents[child] {
		if p == parent {
			return nil
		}
	}
	h.parents[child] = append(h.parents[child], parent)
	return nil
}

// Known reports whether d was registered (built-in or user).
func (h *Hierarchy) Known(d Descriptor) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.known[d]
}

// Conforms reports whether a value of runtime type arg may bind to a
// parameter declared as decl.
//
// Rules, in order: any accepts everything; identical descriptors conform;
// otherwise arg conforms iff a registered parent chain reaches decl. Records
// with distinct type names do NOT conform to each other or to "record"
// unless an edge says so.
func (h *Hierarchy) Conforms(arg, decl Descriptor) bool {
	if decl == TypeAny {
		return true
	}
	if arg == decl {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reaches(arg, decl, make(map[Descriptor]bool))
}

// reaches walks parent edges from arg looking for decl. Caller holds h.mu.
func (h *Hierarchy) reaches(arg, decl Descriptor, seen map[Descriptor]bool) bool {
	if seen[arg] {
		return false
	}
	seen[arg] = true
	for _, p := range h.parents[arg] {
		if p == decl || h.reaches(p, decl, seen) {
			return true
		}
	}
	return false
}

// Parents returns the registered direct parents of d. Used by the CLI for
// diagnostics; returns a copy.
func (h *Hierarchy) Parents(d Descriptor) []Descriptor {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.parents[d]) == 0 {
		return nil
	}
	out := make([]Descriptor, len(h.parents[d]))
	copy(out, h.parents[d])
	return out
}
