package callback

// Invoke resolves the group and runs action wrapped by its callbacks.
//
// Execution order, for a resolved order split by position:
//
//	around[0] → around[1] → … → before… → action → after… → … → around[0]
//
// Every body receives target. The first error returned by any body stops
// the pipeline: no later before, action or after body runs, and Invoke
// returns that error unchanged. An around callback that swallows the error
// from next does not hide it; Invoke still returns the first failure.
//
// A resolution failure is returned before any body runs.
func (g *Group[T]) Invoke(target T, action func() error) error {
	ordered, err := g.Resolve()
	if err != nil {
		return err
	}

	var arounds, befores, afters []Callback[T]
	for _, cb := range ordered {
		switch cb.position {
		case Around:
			arounds = append(arounds, cb)
		case Before:
			befores = append(befores, cb)
		case After:
			afters = append(afters, cb)
		}
	}

	p := &pipeline[T]{group: g, target: target}

	run := func() error {
		for _, cb := range befores {
			if err := p.call(cb); err != nil {
				return err
			}
		}
		if err := p.action(action); err != nil {
			return err
		}
		for _, cb := range afters {
			if err := p.call(cb); err != nil {
				return err
			}
		}
		return nil
	}

	// Fold around callbacks right-to-left so arounds[0] ends up outermost.
	for i := len(arounds) - 1; i >= 0; i-- {
		run = p.wrap(arounds[i], run)
	}

	if err := run(); err != nil {
		return err
	}
	return p.failure
}

// InvokeValue is Invoke for actions that produce a value. The value is
// returned only if the whole pipeline succeeds.
func InvokeValue[T, R any](g *Group[T], target T, action func() (R, error)) (R, error) {
	var result R
	err := g.Invoke(target, func() error {
		v, err := action()
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}

// pipeline holds the state of a single Invoke call.
type pipeline[T any] struct {
	group  *Group[T]
	target T

	// failure is the first error raised by any body. Once set, no further
	// body runs.
	failure error
}

// fail records err if it is the first failure and returns the first
// failure, so that a layer which ignored an inner error still reports it
// to the layers outside it.
func (p *pipeline[T]) fail(err error) error {
	if err != nil && p.failure == nil {
		p.failure = err
	}
	return p.failure
}

func (p *pipeline[T]) call(cb Callback[T]) error {
	if p.failure != nil {
		return p.failure
	}
	ev := Event{Group: p.group.identity, Kind: KindCallback, Name: cb.name, Position: cb.position}
	p.group.hooks.enter(ev)
	err := cb.fn(p.target)
	ev.Err = err
	p.group.hooks.leave(ev)
	return p.fail(err)
}

func (p *pipeline[T]) action(action func() error) error {
	if p.failure != nil {
		return p.failure
	}
	if action == nil {
		return nil
	}
	ev := Event{Group: p.group.identity, Kind: KindAction}
	p.group.hooks.enter(ev)
	err := action()
	ev.Err = err
	p.group.hooks.leave(ev)
	return p.fail(err)
}

func (p *pipeline[T]) wrap(cb Callback[T], inner func() error) func() error {
	return func() error {
		if p.failure != nil {
			return p.failure
		}
		ev := Event{Group: p.group.identity, Kind: KindCallback, Name: cb.name, Position: cb.position}
		p.group.hooks.enter(ev)
		err := cb.wrap(p.target, inner)
		ev.Err = err
		ev.Propagated = err != nil && p.failure != nil
		p.group.hooks.leave(ev)
		return p.fail(err)
	}
}
