package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/quillon/overload/internal/types"
)

// Registry is the boundary the front-end collaborators call: registration
// entry point, scope finalization hook, and traced call entry point.
//
// Thread-safety model:
//   - Register / NewScope / FinalizeScope: definition-time, guarded by a
//     mutex (rare, short operations)
//   - Invoke / Func / Method / Lookup: safe for concurrent use once the
//     tables they touch are registered
//
// Dispatch state lives in-process for program lifetime; the registry
// persists nothing itself. Optional sinks observe events: a TraceSink
// for the event log, a MetricsSink for measurements. Sink failures are
// logged and never fail the operation that produced the event.
type Registry struct {
	mu      sync.Mutex
	hier    *types.Hierarchy
	free    map[string]*Table
	members map[types.Descriptor]map[string]*Handle
	unit    string

	clock    *Clock
	tokens   TokenGenerator
	trace    TraceSink
	metrics  MetricsSink
	cacheOff bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithTraceSink installs a trace sink. Default: discard.
func WithTraceSink(s TraceSink) Option {
	return func(r *Registry) {
		r.trace = s
	}
}

// WithMetricsSink installs a metrics sink. Default: discard.
func WithMetricsSink(m MetricsSink) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithTokenGenerator replaces the call-token generator.
// Default: UUIDv7. Tests use NewFixedGenerator for deterministic traces.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(r *Registry) {
		r.tokens = g
	}
}

// WithClock replaces the logical clock. Used by replay to resume from a
// recorded sequence position.
func WithClock(c *Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithCacheDisabled turns the resolution cache off on every table the
// registry creates. Each call then pays the full scan; useful when a
// cached record is suspected of masking a registration change.
func WithCacheDisabled() Option {
	return func(r *Registry) {
		r.cacheOff = true
	}
}

// New creates a Registry with a freshly seeded type hierarchy.
func New(opts ...Option) *Registry {
	r := &Registry{
		hier:    types.NewHierarchy(),
		free:    make(map[string]*Table),
		members: make(map[types.Descriptor]map[string]*Handle),
		unit:    "api",
		clock:   NewClock(),
		tokens:  UUIDv7Generator{},
		trace:   NopTraceSink{},
		metrics: NopMetricsSink{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hierarchy returns the registry's type hierarchy. User types and
// subtype edges are registered here before the signatures that use them.
func (r *Registry) Hierarchy() *types.Hierarchy {
	return r.hier
}

// Clock returns the registry's logical clock.
func (r *Registry) Clock() *Clock {
	return r.clock
}

// SetUnit labels subsequent registrations with a declaration source,
// typically the unit file being loaded. Definition-time only.
func (r *Registry) SetUnit(unit string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unit = unit
}

// currentUnit returns the unit label applied to registrations.
func (r *Registry) currentUnit() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unit
}

// NewScope opens a defining scope for an owning type. The owner's
// descriptor is registered into the hierarchy, so instances of the type
// are matchable from that point on.
func (r *Registry) NewScope(owner types.Descriptor) (*ScopeGroup, error) {
	if err := r.hier.Register(owner); err != nil {
		return nil, fmt.Errorf("scope owner: %w", err)
	}
	return newScopeGroup(owner), nil
}

// Register declares one implementation.
//
// A nil scope registers a free function: the per-name table is created
// lazily on first registration and used directly for program lifetime.
// A non-nil scope collects the contribution for the merge pass at
// finalization. Binding kinds other than Unbound require a scope.
//
// On a MALFORMED_SIGNATURE error no state changes anywhere.
func (r *Registry) Register(ctx context.Context, scope *ScopeGroup, name string, params []Param, kind BindingKind, body Callable) (*Record, error) {
	if name == "" {
		return nil, NewSignatureError(name, "empty dispatch name")
	}

	var (
		rec       *Record
		declIndex int
		qualified string
		err       error
	)

	if scope == nil {
		if kind != Unbound {
			return nil, NewSignatureError(name, fmt.Sprintf("binding kind %q requires a defining scope", kind))
		}
		rec, err = r.registerFree(name, params, body)
		if err != nil {
			return nil, err
		}
		declIndex = rec.Index
		qualified = name
	} else {
		rec, declIndex, err = scope.add(name, params, kind, body, r.hier)
		if err != nil {
			return nil, err
		}
		qualified = string(scope.Owner()) + "." + name
	}

	ev := RegistrationEvent{
		Seq:           r.clock.Next(),
		Unit:          r.currentUnit(),
		Name:          qualified,
		Index:         declIndex,
		Kind:          kind,
		Signature:     rec.Signature(),
		SignatureHash: rec.SignatureHash(),
	}
	if serr := r.trace.RecordRegistration(ctx, ev); serr != nil {
		slog.Error("trace sink failed",
			"event", "registration",
			"name", qualified,
			"seq", ev.Seq,
			"error", serr,
		)
	}
	r.metrics.ObserveRegistration(qualified, kind)

	slog.Debug("implementation registered",
		"name", qualified,
		"index", declIndex,
		"kind", kind.String(),
		"signature", ev.Signature,
	)

	return rec, nil
}

// registerFree appends into the lazily created free-function table.
// The table is only installed when the registration succeeds, so a
// malformed first registration leaves no empty table behind.
func (r *Registry) registerFree(name string, params []Param, body Callable) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.free[name]
	if !ok {
		t = NewTable(name, r.hier)
		if r.cacheOff {
			t.DisableCache()
		}
	}
	rec, err := t.Register(params, body)
	if err != nil {
		return nil, err
	}
	if !ok {
		r.free[name] = t
	}
	return rec, nil
}

// FinalizeScope consumes the group, merges each name's contributions in
// declaration order, and installs the merged handles as the owner's
// member table. Exactly-once per scope: it must see every contribution,
// so it runs only after all registration events in the scope completed.
func (r *Registry) FinalizeScope(scope *ScopeGroup) (map[string]*Handle, error) {
	names, contribs, err := scope.consume()
	if err != nil {
		return nil, err
	}

	handles := make(map[string]*Handle, len(names))
	for _, name := range names {
		merged, kind := Merge(name, contribs[name], r.hier)
		if r.cacheOff {
			merged.DisableCache()
		}
		handles[name] = NewHandle(merged, kind, scope.Owner())
	}

	r.mu.Lock()
	r.members[scope.Owner()] = handles
	r.mu.Unlock()

	slog.Debug("scope finalized",
		"owner", string(scope.Owner()),
		"members", len(handles),
	)

	return handles, nil
}

// Func returns a handle over a free function's table.
func (r *Registry) Func(name string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.free[name]
	if !ok {
		return nil, false
	}
	return NewHandle(t, Unbound, ""), true
}

// Method returns a finalized scope member's handle.
func (r *Registry) Method(owner types.Descriptor, name string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.members[owner][name]
	return h, ok
}

// Lookup resolves a qualified name: "Printer.print" finds a scope
// member, a bare name finds a free function.
func (r *Registry) Lookup(qualified string) (*Handle, bool) {
	if owner, name, found := strings.Cut(qualified, "."); found {
		return r.Method(types.Descriptor(owner), name)
	}
	return r.Func(qualified)
}

// Handles returns every registered handle sorted by qualified name.
// Used by the CLI to list what a set of units declared.
func (r *Registry) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Handle, 0, len(r.free))
	for _, t := range r.free {
		out = append(out, NewHandle(t, Unbound, ""))
	}
	for _, members := range r.members {
		for _, h := range members {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QualifiedName() < out[j].QualifiedName()
	})
	return out
}

// Invoke is the traced call entry point: it resolves through the handle,
// records the resolution event, and invokes the selected body with the
// original argument list.
//
// The call token correlates the resolution row with this invocation.
// Trace and metrics sinks run after resolution, outside every dispatch
// lock; their failures are logged and do not fail the call.
func (r *Registry) Invoke(ctx context.Context, h *Handle, args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	token := r.tokens.Generate()

	res, rerr := h.Resolve(args, kwargs)
	if rerr != nil && !IsNoMatch(rerr) {
		// Misuse (e.g. receiverless instance-bound call), not a
		// resolution outcome; nothing to trace.
		return nil, rerr
	}

	ev := ResolutionEvent{
		Seq:       r.clock.Next(),
		CallToken: token,
		Name:      h.QualifiedName(),
		Key:       res.Key.String(),
		KeyHash:   res.Key.Hash(),
		CacheHit:  res.CacheHit,
	}
	if rerr != nil {
		ev.Outcome = OutcomeNoMatch
		ev.RecordIndex = -1
	} else {
		ev.Outcome = OutcomeMatched
		ev.RecordIndex = res.Record.Index
	}

	if serr := r.trace.RecordResolution(ctx, ev); serr != nil {
		slog.Error("trace sink failed",
			"event", "resolution",
			"name", ev.Name,
			"call_token", token,
			"seq", ev.Seq,
			"error", serr,
		)
	}
	r.metrics.ObserveResolution(ev.Name, ev.Outcome, res.CacheHit, res.Scanned)

	if rerr != nil {
		return nil, rerr
	}

	slog.Debug("call resolved",
		"name", ev.Name,
		"call_token", token,
		"record_index", ev.RecordIndex,
		"cache_hit", res.CacheHit,
	)

	return h.call(res.Record, args, kwargs)
}
