// Package verifier runs named rules against a model and collects messages.
//
// Each rule is a before-callback in a callback.Group, so rules may order
// themselves with Requires and InsertBefore, and Around rules can wrap
// others. Rules are gated by If and Unless applicables, which are bound
// to the verifier's methods when the rule is registered. Rule options are
// typed by the model, so a condition over another model does not compile.
//
//	v := verifier.New[*Order]("order")
//	v.Define("paid", applicator.Predicate(func(r *verifier.Run[*Order]) bool { return r.Model.Paid }))
//	v.Verify("ship_address", applicator.Func(checkAddress), verifier.If(applicator.Method[*verifier.Run[*Order]]("paid")))
//	msgs, err := v.Call(order, nil)
package verifier

import (
	"fmt"
	"log/slog"

	"github.com/roach88/verifly/internal/applicator"
	"github.com/roach88/verifly/internal/callback"
	"github.com/roach88/verifly/internal/logging"
)

// GroupIdentity is the identity of every verifier's rule group, so the
// rules of any two verifiers over the same model can be merged.
const GroupIdentity = "verify"

// Verifier holds the rules for models of type M.
//
// Thread-safety: register rules before calling Call. Call may then run
// concurrently; each call gets its own Run.
type Verifier[M any] struct {
	name      string
	logger    *slog.Logger
	groupOpts []callback.GroupOption
	methods   *applicator.MethodSet[*Run[M]]
	rules     *callback.Group[*Run[M]]
}

// Option configures a Verifier.
type Option func(*config)

type config struct {
	logger *slog.Logger
	hooks  callback.Hooks
}

// WithLogger sets the logger. Verifiers log nothing by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks observes every rule as it runs.
func WithHooks(h callback.Hooks) Option {
	return func(c *config) { c.hooks = h }
}

// New creates a verifier with no rules.
func New[M any](name string, opts ...Option) *Verifier[M] {
	cfg := config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	groupOpts := []callback.GroupOption{
		callback.WithLogger(cfg.logger),
		callback.WithHooks(cfg.hooks),
	}
	return &Verifier[M]{
		name:      name,
		logger:    cfg.logger,
		groupOpts: groupOpts,
		methods:   applicator.NewMethodSet[*Run[M]](),
		rules:     callback.NewGroup[*Run[M]](GroupIdentity, groupOpts...),
	}
}

// Name returns the verifier's name.
func (v *Verifier[M]) Name() string { return v.name }

// Define registers a named method that rules refer to with
// applicator.Method. Methods must be defined before the rules using them.
func (v *Verifier[M]) Define(method string, a applicator.Applicable[*Run[M]]) error {
	if err := v.methods.Define(method, a); err != nil {
		return fmt.Errorf("verifier %s: %w", v.name, err)
	}
	return nil
}

// RuleOption configures a rule of a verifier over M. A condition written
// for another model type does not compile.
type RuleOption[M any] func(*rule[M])

type rule[M any] struct {
	ifs          []applicator.Applicable[*Run[M]]
	unlesses     []applicator.Applicable[*Run[M]]
	requires     []string
	insertBefore []string
}

// If runs the rule only when a is truthy.
func If[M any](a applicator.Applicable[*Run[M]]) RuleOption[M] {
	return func(r *rule[M]) { r.ifs = append(r.ifs, a) }
}

// Unless skips the rule when a is truthy.
func Unless[M any](a applicator.Applicable[*Run[M]]) RuleOption[M] {
	return func(r *rule[M]) { r.unlesses = append(r.unlesses, a) }
}

// Requires orders the rule after the named rules. M cannot be inferred
// from names, so callers spell it: Requires[*Order]("total").
func Requires[M any](names ...string) RuleOption[M] {
	return func(r *rule[M]) { r.requires = append(r.requires, names...) }
}

// InsertBefore orders the rule ahead of the named rules.
func InsertBefore[M any](names ...string) RuleOption[M] {
	return func(r *rule[M]) { r.insertBefore = append(r.insertBefore, names...) }
}

// gate is a bound if/unless pair.
type gate[M any] struct {
	ifs      []applicator.Applicator[*Run[M]]
	unlesses []applicator.Applicator[*Run[M]]
}

func (g gate[M]) open(r *Run[M]) (bool, error) {
	for _, ap := range g.ifs {
		ok, err := ap(r)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, ap := range g.unlesses {
		skip, err := ap(r)
		if err != nil || skip {
			return false, err
		}
	}
	return true, nil
}

func (v *Verifier[M]) bindRule(name string, opts []RuleOption[M]) (*rule[M], gate[M], error) {
	r := &rule[M]{}
	for _, opt := range opts {
		opt(r)
	}
	var g gate[M]
	bindAll := func(kind string, in []applicator.Applicable[*Run[M]]) ([]applicator.Applicator[*Run[M]], error) {
		out := make([]applicator.Applicator[*Run[M]], 0, len(in))
		for _, a := range in {
			ap, err := applicator.Bind(a, v.methods)
			if err != nil {
				return nil, fmt.Errorf("verifier %s: rule %q: %s: %w", v.name, name, kind, err)
			}
			out = append(out, ap)
		}
		return out, nil
	}
	var err error
	if g.ifs, err = bindAll("if", r.ifs); err != nil {
		return nil, g, err
	}
	if g.unlesses, err = bindAll("unless", r.unlesses); err != nil {
		return nil, g, err
	}
	return r, g, nil
}

func constraintOpts[M any](r *rule[M]) []callback.Option {
	return []callback.Option{
		callback.Requires(r.requires...),
		callback.InsertBefore(r.insertBefore...),
	}
}

// Verify registers a rule. action is bound immediately; an unknown method
// name is reported here rather than during Call.
//
// A Descendant action runs another verifier against the same model and
// context and appends its messages.
func (v *Verifier[M]) Verify(name string, action applicator.Applicable[*Run[M]], opts ...RuleOption[M]) error {
	r, g, err := v.bindRule(name, opts)
	if err != nil {
		return err
	}
	act, err := applicator.Bind(action, v.methods)
	if err != nil {
		return fmt.Errorf("verifier %s: rule %q: %w", v.name, name, err)
	}

	body := func(run *Run[M]) error {
		ok, err := g.open(run)
		if err != nil || !ok {
			return err
		}
		_, err = act(run)
		return err
	}
	if err := v.rules.Before(name, body, constraintOpts(r)...); err != nil {
		return fmt.Errorf("verifier %s: %w", v.name, err)
	}
	return nil
}

// Around registers a rule that wraps the rules resolved after it. When
// its gate is closed, the wrapped rules still run.
func (v *Verifier[M]) Around(name string, fn callback.WrapFunc[*Run[M]], opts ...RuleOption[M]) error {
	r, g, err := v.bindRule(name, opts)
	if err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("verifier %s: rule %q: %w: nil around", v.name, name, applicator.ErrInvalidApplicable)
	}
	wrap := func(run *Run[M], next func() error) error {
		ok, err := g.open(run)
		if err != nil {
			return err
		}
		if !ok {
			return next()
		}
		return fn(run, next)
	}
	if err := v.rules.Around(name, wrap, constraintOpts(r)...); err != nil {
		return fmt.Errorf("verifier %s: %w", v.name, err)
	}
	return nil
}

// Inherit places parent's rules ahead of v's own. Methods defined on
// parent become available to rules registered on v afterwards, unless v
// defines the same name.
func (v *Verifier[M]) Inherit(parent *Verifier[M]) error {
	if parent == nil {
		return fmt.Errorf("verifier %s: inherit: nil parent", v.name)
	}
	base := callback.NewGroup[*Run[M]](GroupIdentity, v.groupOpts...)
	withParent, err := base.Merge(parent.rules)
	if err != nil {
		return fmt.Errorf("verifier %s: inherit %s: %w", v.name, parent.name, err)
	}
	merged, err := withParent.Merge(v.rules)
	if err != nil {
		return fmt.Errorf("verifier %s: inherit %s: %w", v.name, parent.name, err)
	}
	v.rules = merged

	methods := parent.methods.Copy()
	for _, name := range v.methods.Names() {
		a, _ := v.methods.Lookup(name)
		if err := methods.Define(name, a); err != nil {
			return fmt.Errorf("verifier %s: %w", v.name, err)
		}
	}
	v.methods = methods

	v.logger.Debug("verifier inherited rules",
		"verifier", v.name,
		"parent", parent.name,
		"rules", merged.Len(),
	)
	return nil
}

// Rules returns rule names in the order they will run.
func (v *Verifier[M]) Rules() ([]string, error) {
	ordered, err := v.rules.Resolve()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ordered))
	for i, cb := range ordered {
		names[i] = cb.Name()
	}
	return names, nil
}

// Call runs every applicable rule against model and returns the messages
// they yielded, in the order they were yielded. The returned slice is
// never nil. On error, the messages yielded before the failure are
// returned with it.
func (v *Verifier[M]) Call(model M, ctx Context) ([]Message, error) {
	if ctx == nil {
		ctx = Context{}
	}
	run := &Run[M]{Model: model, Context: ctx}
	err := v.rules.Invoke(run, nil)
	msgs := run.Messages()
	if err != nil {
		v.logger.Warn("verification failed",
			"verifier", v.name,
			"messages", len(msgs),
			"error", err,
		)
		return msgs, err
	}
	v.logger.Debug("verification finished",
		"verifier", v.name,
		"messages", len(msgs),
	)
	return msgs, nil
}

// Delegate runs v against r's model and context and appends the messages
// to r. It lets a verifier be used as an applicator.Descendant.
func (v *Verifier[M]) Delegate(r *Run[M]) error {
	msgs, err := v.Call(r.Model, r.Context)
	r.messages = append(r.messages, msgs...)
	return err
}
