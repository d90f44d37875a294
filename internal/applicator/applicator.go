// Package applicator turns the heterogeneous "applicable" values accepted
// by the verifier (functions, predicates, literals, named methods and
// delegate verifiers) into a single callable form.
//
// Binding happens once, at registration: a Method that names nothing, or
// names another Method, is rejected before any rule runs.
package applicator

import (
	"errors"
	"fmt"
	"sort"
)

// Applicator is the bound form of an Applicable. The bool reports whether
// the value was truthy; actions always report true.
type Applicator[R any] func(R) (bool, error)

// Kind identifies the variant held by an Applicable.
type Kind int

const (
	KindInvalid Kind = iota
	KindFunc
	KindPredicate
	KindConst
	KindMethod
	KindDescendant
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindPredicate:
		return "predicate"
	case KindConst:
		return "const"
	case KindMethod:
		return "method"
	case KindDescendant:
		return "descendant"
	}
	return "invalid"
}

var (
	// ErrUnknownMethod is returned when a Method names nothing in the set.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrMethodChain is returned when a method is defined as another Method.
	ErrMethodChain = errors.New("method cannot refer to another method")

	// ErrInvalidApplicable is returned for the zero Applicable and for
	// variants built from nil functions.
	ErrInvalidApplicable = errors.New("invalid applicable")
)

// Delegate runs another verifier against the same run.
type Delegate[R any] interface {
	Delegate(R) error
}

// Applicable is a tagged union of the values a rule, an if or an unless
// may be given. Build one with Func, Predicate, Const, Method or Descendant.
type Applicable[R any] struct {
	kind     Kind
	fn       func(R) error
	pred     func(R) bool
	value    bool
	method   string
	delegate Delegate[R]
}

// Func wraps an action. It is always truthy; its error is propagated.
func Func[R any](fn func(R) error) Applicable[R] {
	return Applicable[R]{kind: KindFunc, fn: fn}
}

// Predicate wraps a boolean test.
func Predicate[R any](fn func(R) bool) Applicable[R] {
	return Applicable[R]{kind: KindPredicate, pred: fn}
}

// Const is a literal truth value.
func Const[R any](v bool) Applicable[R] {
	return Applicable[R]{kind: KindConst, value: v}
}

// Method refers to an entry of the MethodSet passed to Bind.
func Method[R any](name string) Applicable[R] {
	return Applicable[R]{kind: KindMethod, method: name}
}

// Descendant delegates to another verifier. It is always truthy.
func Descendant[R any](d Delegate[R]) Applicable[R] {
	return Applicable[R]{kind: KindDescendant, delegate: d}
}

// Kind returns the variant.
func (a Applicable[R]) Kind() Kind { return a.kind }

// MethodName returns the referenced name for KindMethod, else "".
func (a Applicable[R]) MethodName() string { return a.method }

func (a Applicable[R]) validate() error {
	switch a.kind {
	case KindFunc:
		if a.fn == nil {
			return fmt.Errorf("%w: nil func", ErrInvalidApplicable)
		}
	case KindPredicate:
		if a.pred == nil {
			return fmt.Errorf("%w: nil predicate", ErrInvalidApplicable)
		}
	case KindMethod:
		if a.method == "" {
			return fmt.Errorf("%w: empty method name", ErrInvalidApplicable)
		}
	case KindDescendant:
		if a.delegate == nil {
			return fmt.Errorf("%w: nil delegate", ErrInvalidApplicable)
		}
	case KindConst:
	default:
		return fmt.Errorf("%w: zero value", ErrInvalidApplicable)
	}
	return nil
}

// MethodSet holds named applicables that rules refer to with Method.
type MethodSet[R any] struct {
	methods map[string]Applicable[R]
}

// NewMethodSet returns an empty set.
func NewMethodSet[R any]() *MethodSet[R] {
	return &MethodSet[R]{methods: make(map[string]Applicable[R])}
}

// Define registers name. Redefining a name replaces it for rules bound
// afterwards; rules already bound keep the old definition.
func (m *MethodSet[R]) Define(name string, a Applicable[R]) error {
	if name == "" {
		return fmt.Errorf("%w: empty method name", ErrInvalidApplicable)
	}
	if err := a.validate(); err != nil {
		return fmt.Errorf("method %q: %w", name, err)
	}
	if a.kind == KindMethod {
		return fmt.Errorf("method %q -> %q: %w", name, a.method, ErrMethodChain)
	}
	m.methods[name] = a
	return nil
}

// Lookup returns the applicable defined under name.
func (m *MethodSet[R]) Lookup(name string) (Applicable[R], bool) {
	a, ok := m.methods[name]
	return a, ok
}

// Names returns defined names, sorted.
func (m *MethodSet[R]) Names() []string {
	names := make([]string, 0, len(m.methods))
	for name := range m.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Copy returns an independent set with the same entries.
func (m *MethodSet[R]) Copy() *MethodSet[R] {
	out := NewMethodSet[R]()
	for k, v := range m.methods {
		out.methods[k] = v
	}
	return out
}

// Bind resolves a into an Applicator. Method references are looked up in
// methods, which may be nil when a holds no reference.
func Bind[R any](a Applicable[R], methods *MethodSet[R]) (Applicator[R], error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	if a.kind == KindMethod {
		if methods == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, a.method)
		}
		target, ok := methods.Lookup(a.method)
		if !ok {
			return nil, fmt.Errorf("%w: %q (defined: %v)", ErrUnknownMethod, a.method, methods.Names())
		}
		a = target
	}

	switch a.kind {
	case KindFunc:
		fn := a.fn
		return func(r R) (bool, error) {
			return true, fn(r)
		}, nil
	case KindPredicate:
		pred := a.pred
		return func(r R) (bool, error) {
			return pred(r), nil
		}, nil
	case KindConst:
		v := a.value
		return func(R) (bool, error) {
			return v, nil
		}, nil
	case KindDescendant:
		d := a.delegate
		return func(r R) (bool, error) {
			return true, d.Delegate(r)
		}, nil
	}
	// unreachable: MethodSet.Define rejects methods that are themselves methods
	return nil, fmt.Errorf("%w: %s", ErrInvalidApplicable, a.kind)
}

// MustBind is like Bind but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBind[R any](a Applicable[R], methods *MethodSet[R]) Applicator[R] {
	ap, err := Bind(a, methods)
	if err != nil {
		panic(err)
	}
	return ap
}
