package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/verifly/internal/callback"
	"github.com/roach88/verifly/internal/ir"
	"github.com/roach88/verifly/internal/trace"
)

// ActionFlag is recorded on the tape when the wrapped action runs.
const ActionFlag = "action"

// ErrInjected marks failures produced by WithFailAt.
var ErrInjected = errors.New("injected failure")

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	failAt string
	logger *slog.Logger
	hooks  callback.Hooks
}

// WithFailAt makes the body that records flag return an error wrapping
// ErrInjected right after recording it. Use ActionFlag to fail the action.
func WithFailAt(flag string) BuildOption {
	return func(c *buildConfig) { c.failAt = flag }
}

// WithLogger passes a logger to the built group.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(c *buildConfig) { c.logger = logger }
}

// WithHooks passes lifecycle hooks to the built group.
func WithHooks(h callback.Hooks) BuildOption {
	return func(c *buildConfig) { c.hooks = h }
}

// Program is a built group plus the action it wraps.
type Program struct {
	Group  *callback.Group[*trace.Tape]
	failAt string
}

// Run invokes the group on a fresh tape and returns the tape.
func (p *Program) Run() (*trace.Tape, error) {
	tape := trace.NewTape()
	err := p.Group.Invoke(tape, p.action(tape))
	return tape, err
}

func (p *Program) action(tape *trace.Tape) func() error {
	return func() error {
		tape.Record(ActionFlag)
		return p.check(ActionFlag)
	}
}

func (p *Program) check(flag string) error {
	if p.failAt != "" && flag == p.failAt {
		return fmt.Errorf("%w at %s", ErrInjected, flag)
	}
	return nil
}

// Build creates a group whose bodies record flags on a trace.Tape:
// before_<name> for before callbacks, after_<name> for after callbacks and
// before_<name> / after_<name> around next for around callbacks.
//
// Members are added in declaration order, so a merged spec keeps its
// tie-break order. Same-named members are allowed; an invalid position or
// empty name is an error.
func Build(spec ir.GroupSpec, opts ...BuildOption) (*callback.Group[*trace.Tape], error) {
	p, err := BuildProgram(spec, opts...)
	if err != nil {
		return nil, err
	}
	return p.Group, nil
}

// BuildProgram is Build returning the Program, whose Run supplies the
// recording action.
func BuildProgram(spec ir.GroupSpec, opts ...BuildOption) (*Program, error) {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var groupOpts []callback.GroupOption
	if cfg.logger != nil {
		groupOpts = append(groupOpts, callback.WithLogger(cfg.logger))
	}
	groupOpts = append(groupOpts, callback.WithHooks(cfg.hooks))

	p := &Program{failAt: cfg.failAt}

	// Same-named members are legal in merged groups but Group.Add rejects
	// them, so each member goes through its own group and is merged in.
	g := callback.NewGroup[*trace.Tape](spec.Identity, groupOpts...)
	for i, cs := range spec.Callbacks {
		cb, err := p.newCallback(cs)
		if err != nil {
			return nil, fmt.Errorf("callbacks[%d]: %w", i, err)
		}
		single := callback.NewGroup[*trace.Tape](spec.Identity)
		if err := single.Add(cb); err != nil {
			return nil, fmt.Errorf("callbacks[%d]: %w", i, err)
		}
		if g, err = g.Merge(single); err != nil {
			return nil, fmt.Errorf("callbacks[%d]: %w", i, err)
		}
	}
	p.Group = g
	return p, nil
}

func (p *Program) newCallback(cs ir.CallbackSpec) (callback.Callback[*trace.Tape], error) {
	pos, err := callback.ParsePosition(cs.Position)
	if err != nil {
		return callback.Callback[*trace.Tape]{}, err
	}
	opts := []callback.Option{
		callback.Requires(cs.Requires...),
		callback.InsertBefore(cs.InsertBefore...),
	}

	switch pos {
	case callback.Before, callback.After:
		flag := fmt.Sprintf("%s_%s", pos, cs.Name)
		body := func(tape *trace.Tape) error {
			tape.Record(flag)
			return p.check(flag)
		}
		if pos == callback.Before {
			return callback.NewBefore(cs.Name, body, opts...)
		}
		return callback.NewAfter(cs.Name, body, opts...)
	default:
		enter, leave := "before_"+cs.Name, "after_"+cs.Name
		wrap := func(tape *trace.Tape, next func() error) error {
			tape.Record(enter)
			if err := p.check(enter); err != nil {
				return err
			}
			if err := next(); err != nil {
				return err
			}
			tape.Record(leave)
			return p.check(leave)
		}
		return callback.NewAround(cs.Name, wrap, opts...)
	}
}
