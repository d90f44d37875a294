package callback

import (
	"log/slog"
	"sync"

	"github.com/roach88/verifly/internal/logging"
)

// Group owns an ordered collection of callbacks that share one identity.
//
// Insertion order is the tie-break for callbacks with no constraint
// between them, so it is preserved by Add and Merge.
//
// Thread-safety: Add is guarded by a mutex. Resolve and Invoke read a
// snapshot of the members and may run concurrently with each other.
type Group[T any] struct {
	identity string
	logger   *slog.Logger
	hooks    Hooks

	mu      sync.RWMutex
	members []Callback[T]
}

// GroupOption configures a Group.
type GroupOption func(*groupConfig)

type groupConfig struct {
	logger *slog.Logger
	hooks  Hooks
}

// WithLogger sets the logger used for resolution diagnostics.
// Groups log nothing by default.
func WithLogger(logger *slog.Logger) GroupOption {
	return func(c *groupConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks attaches lifecycle observers. Use ChainHooks to attach several.
func WithHooks(h Hooks) GroupOption {
	return func(c *groupConfig) {
		c.hooks = h
	}
}

// NewGroup creates an empty group. Only groups with equal identities can
// be merged.
func NewGroup[T any](identity string, opts ...GroupOption) *Group[T] {
	cfg := groupConfig{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Group[T]{
		identity: identity,
		logger:   cfg.logger,
		hooks:    cfg.hooks,
	}
}

// Identity returns the label shared by every group this one can merge with.
func (g *Group[T]) Identity() string { return g.identity }

// Len returns the number of members, counting same-named members separately.
func (g *Group[T]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// Callbacks returns the members in insertion order.
func (g *Group[T]) Callbacks() []Callback[T] {
	return g.snapshot()
}

// Names returns member names in insertion order.
func (g *Group[T]) Names() []string {
	members := g.snapshot()
	names := make([]string, len(members))
	for i, cb := range members {
		names[i] = cb.name
	}
	return names
}

// Add appends cb to the group.
//
// Returns a DUPLICATE_NAME error if a member with the same name exists.
// Merged groups may legitimately hold same-named members; Add still
// refuses to introduce another one.
func (g *Group[T]) Add(cb Callback[T]) error {
	if cb.name == "" || !cb.position.Valid() {
		return invalidCallback(cb.name, "callback was not built with a constructor")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, m := range g.members {
		if m.name == cb.name {
			return duplicateName(g.identity, cb.name)
		}
	}
	g.members = append(g.members, cb)
	return nil
}

// Before builds a before callback and adds it.
func (g *Group[T]) Before(name string, fn Func[T], opts ...Option) error {
	cb, err := NewBefore(name, fn, opts...)
	if err != nil {
		return err
	}
	return g.Add(cb)
}

// After builds an after callback and adds it.
func (g *Group[T]) After(name string, fn Func[T], opts ...Option) error {
	cb, err := NewAfter(name, fn, opts...)
	if err != nil {
		return err
	}
	return g.Add(cb)
}

// Around builds an around callback and adds it.
func (g *Group[T]) Around(name string, wrap WrapFunc[T], opts ...Option) error {
	cb, err := NewAround(name, wrap, opts...)
	if err != nil {
		return err
	}
	return g.Add(cb)
}

// Merge returns a new group holding g's members followed by other's.
//
// Neither operand is modified. Same-named members from both sides are kept
// as distinct entries; constraints apply to every member of a name. The
// result inherits g's logger and hooks.
//
// Returns an IDENTITY_MISMATCH error if the identities differ.
func (g *Group[T]) Merge(other *Group[T]) (*Group[T], error) {
	if other == nil {
		return nil, invalidCallback("", "cannot merge a nil group")
	}
	if g.identity != other.identity {
		return nil, identityMismatch(g.identity, other.identity)
	}

	left := g.snapshot()
	right := other.snapshot()

	members := make([]Callback[T], 0, len(left)+len(right))
	members = append(members, left...)
	members = append(members, right...)

	g.logger.Debug("callback groups merged",
		"group", g.identity,
		"left", len(left),
		"right", len(right),
	)

	return &Group[T]{
		identity: g.identity,
		logger:   g.logger,
		hooks:    g.hooks,
		members:  members,
	}, nil
}

func (g *Group[T]) snapshot() []Callback[T] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Callback[T], len(g.members))
	copy(out, g.members)
	return out
}
