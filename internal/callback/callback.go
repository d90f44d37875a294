package callback

import (
	"golang.org/x/text/unicode/norm"
)

// Func is the body of a before or after callback.
type Func[T any] func(target T) error

// WrapFunc is the body of an around callback. It must call next to run the
// layers it wraps; calling it zero times skips them.
type WrapFunc[T any] func(target T, next func() error) error

// Callback is an immutable, named unit of work with ordering constraints.
//
// Constraints reference names rather than callbacks, so a callback may
// require or precede a name that is added later (or never).
type Callback[T any] struct {
	name         string
	position     Position
	fn           Func[T]
	wrap         WrapFunc[T]
	requires     []string
	insertBefore []string
}

// Option configures the ordering constraints of a callback.
type Option func(*constraints)

type constraints struct {
	requires     []string
	insertBefore []string
}

// Requires declares names that must resolve before the callback.
func Requires(names ...string) Option {
	return func(c *constraints) {
		c.requires = append(c.requires, names...)
	}
}

// InsertBefore declares names the callback must resolve before.
func InsertBefore(names ...string) Option {
	return func(c *constraints) {
		c.insertBefore = append(c.insertBefore, names...)
	}
}

// NewBefore creates a callback that runs before the action.
func NewBefore[T any](name string, fn Func[T], opts ...Option) (Callback[T], error) {
	if fn == nil {
		return Callback[T]{}, invalidCallback(name, "before callback requires a body")
	}
	return newCallback(name, Before, fn, nil, opts)
}

// NewAfter creates a callback that runs after the action.
func NewAfter[T any](name string, fn Func[T], opts ...Option) (Callback[T], error) {
	if fn == nil {
		return Callback[T]{}, invalidCallback(name, "after callback requires a body")
	}
	return newCallback(name, After, fn, nil, opts)
}

// NewAround creates a callback that wraps the action and every inner layer.
func NewAround[T any](name string, wrap WrapFunc[T], opts ...Option) (Callback[T], error) {
	if wrap == nil {
		return Callback[T]{}, invalidCallback(name, "around callback requires a body")
	}
	return newCallback(name, Around, nil, wrap, opts)
}

func newCallback[T any](name string, pos Position, fn Func[T], wrap WrapFunc[T], opts []Option) (Callback[T], error) {
	name = NormalizeName(name)
	if name == "" {
		return Callback[T]{}, invalidCallback(name, "name is required")
	}

	var c constraints
	for _, opt := range opts {
		opt(&c)
	}

	requires, err := normalizeNames(name, "requires", c.requires)
	if err != nil {
		return Callback[T]{}, err
	}
	insertBefore, err := normalizeNames(name, "insert_before", c.insertBefore)
	if err != nil {
		return Callback[T]{}, err
	}

	return Callback[T]{
		name:         name,
		position:     pos,
		fn:           fn,
		wrap:         wrap,
		requires:     requires,
		insertBefore: insertBefore,
	}, nil
}

// Name returns the callback name.
func (c Callback[T]) Name() string { return c.name }

// Position returns where the callback runs relative to the action.
func (c Callback[T]) Position() Position { return c.position }

// Requires returns a copy of the names that must resolve before c.
func (c Callback[T]) Requires() []string { return append([]string(nil), c.requires...) }

// InsertBefore returns a copy of the names c must resolve before.
func (c Callback[T]) InsertBefore() []string { return append([]string(nil), c.insertBefore...) }

// NormalizeName folds name into NFC so that canonically equivalent
// spellings are treated as one name.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

func normalizeNames(owner, field string, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = NormalizeName(n)
		if n == "" {
			return nil, invalidCallback(owner, field+" contains an empty name")
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}
