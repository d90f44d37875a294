package callback

// EventKind distinguishes callback bodies from the wrapped action.
type EventKind string

const (
	// KindCallback marks a before, after or around body.
	KindCallback EventKind = "callback"
	// KindAction marks the wrapped action.
	KindAction EventKind = "action"
)

// Event describes one body entering or leaving during Invoke.
//
// For KindAction events Name is empty and Position is unset.
type Event struct {
	Group    string
	Kind     EventKind
	Name     string
	Position Position

	// Err is the body's error. Only set on leave.
	Err error

	// Propagated reports that Err was raised inside the body's next and
	// passed outward, rather than raised by the body itself. Only set on
	// the leave of an around body.
	Propagated bool
}

// ResolveEvent describes one resolution pass.
type ResolveEvent struct {
	Group string
	Order []string
	Err   error
}

// Hooks observe a group's lifecycle. Any field may be nil.
//
// Hooks run synchronously on the invoking goroutine and cannot change the
// outcome of an invocation.
type Hooks struct {
	OnResolve func(ResolveEvent)
	OnEnter   func(Event)
	OnLeave   func(Event)
}

// ChainHooks returns Hooks that call each of hs in order.
func ChainHooks(hs ...Hooks) Hooks {
	var out Hooks
	for _, h := range hs {
		if h.OnResolve != nil {
			prev := out.OnResolve
			out.OnResolve = func(e ResolveEvent) {
				if prev != nil {
					prev(e)
				}
				h.OnResolve(e)
			}
		}
		if h.OnEnter != nil {
			prev := out.OnEnter
			out.OnEnter = func(e Event) {
				if prev != nil {
					prev(e)
				}
				h.OnEnter(e)
			}
		}
		if h.OnLeave != nil {
			prev := out.OnLeave
			out.OnLeave = func(e Event) {
				if prev != nil {
					prev(e)
				}
				h.OnLeave(e)
			}
		}
	}
	return out
}

func (h Hooks) resolved(e ResolveEvent) {
	if h.OnResolve != nil {
		h.OnResolve(e)
	}
}

func (h Hooks) enter(e Event) {
	if h.OnEnter != nil {
		h.OnEnter(e)
	}
}

func (h Hooks) leave(e Event) {
	if h.OnLeave != nil {
		h.OnLeave(e)
	}
}
