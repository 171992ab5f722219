package dispatch

import (
	"sort"
	"strings"

	"github.com/quillon/overload/internal/types"
)

// KeywordType is one keyword argument's contribution to a match key.
type KeywordType struct {
	Name string
	Type types.Descriptor
}

// Key is the concrete argument-type key a call resolves under: positional
// runtime-type descriptors in order, plus keyword runtime-type descriptors
// sorted by name. Keys index the resolution cache and identify attempted
// calls in no-match errors and trace rows.
type Key struct {
	// Positional holds the runtime type of each positional argument,
	// receiver already stripped.
	Positional []types.Descriptor

	// Keyword holds the runtime type of each keyword argument, sorted
	// by keyword name.
	Keyword []KeywordType

	canonical string
}

// BuildKey computes the match key for an argument list. The receiver of an
// instance-bound call must be stripped before this is called.
func BuildKey(args []types.Value, kwargs map[string]types.Value) Key {
	k := Key{}

	if len(args) > 0 {
		k.Positional = make([]types.Descriptor, len(args))
		for i, a := range args {
			k.Positional[i] = a.Type()
		}
	}

	if len(kwargs) > 0 {
		k.Keyword = make([]KeywordType, 0, len(kwargs))
		for name, v := range kwargs {
			k.Keyword = append(k.Keyword, KeywordType{Name: name, Type: v.Type()})
		}
		sort.Slice(k.Keyword, func(i, j int) bool {
			return k.Keyword[i].Name < k.Keyword[j].Name
		})
	}

	k.canonicalize()
	return k
}

// KeyFromParts reconstructs a key from bare descriptors, as recovered from
// a trace row. The canonical form is recomputed, so a round-tripped key
// renders byte-identically to the one the trace recorded.
func KeyFromParts(pos []types.Descriptor, kw map[string]types.Descriptor) Key {
	k := Key{}

	if len(pos) > 0 {
		k.Positional = make([]types.Descriptor, len(pos))
		copy(k.Positional, pos)
	}

	if len(kw) > 0 {
		k.Keyword = make([]KeywordType, 0, len(kw))
		for name, d := range kw {
			k.Keyword = append(k.Keyword, KeywordType{Name: name, Type: d})
		}
		sort.Slice(k.Keyword, func(i, j int) bool {
			return k.Keyword[i].Name < k.Keyword[j].Name
		})
	}

	k.canonicalize()
	return k
}

// canonicalize computes the canonical JSON form from the structured parts.
func (k *Key) canonicalize() {
	pos := make([]any, len(k.Positional))
	for i, d := range k.Positional {
		pos[i] = string(d)
	}
	kw := make(map[string]any, len(k.Keyword))
	for _, e := range k.Keyword {
		kw[e.Name] = string(e.Type)
	}
	k.canonical = string(types.MustMarshalCanonical(map[string]any{
		"pos": pos,
		"kw":  kw,
	}))
}

// keywordMap returns the keyword descriptors as a lookup map.
func (k Key) keywordMap() map[string]types.Descriptor {
	if len(k.Keyword) == 0 {
		return nil
	}
	kw := make(map[string]types.Descriptor, len(k.Keyword))
	for _, e := range k.Keyword {
		kw[e.Name] = e.Type
	}
	return kw
}

// String returns the canonical JSON form, the cache key and trace payload.
func (k Key) String() string {
	return k.canonical
}

// Hash returns the domain-separated content hash of the canonical form.
func (k Key) Hash() string {
	return types.HashKey([]byte(k.canonical))
}

// Describe renders the key for error messages: "(int, string, b: bool)".
func (k Key) Describe() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, d := range k.Positional {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(d))
	}
	for i, e := range k.Keyword {
		if len(k.Positional) > 0 || i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Name)
		b.WriteString(": ")
		b.WriteString(string(e.Type))
	}
	b.WriteByte(')')
	return b.String()
}
