package trace

import (
	"slices"
	"sync"
)

// Tape is an append-only list of flags. Bodies of groups built from specs
// record onto it; assertions read it back.
type Tape struct {
	mu    sync.Mutex
	flags []string
}

// NewTape returns an empty tape.
func NewTape() *Tape {
	return &Tape{}
}

// Record appends flag.
func (t *Tape) Record(flag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flags = append(t.flags, flag)
}

// Flags returns a copy of the recorded flags. Never nil.
func (t *Tape) Flags() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.flags))
	copy(out, t.flags)
	return out
}

// Len returns the number of recorded flags.
func (t *Tape) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.flags)
}

// Index returns the position of the first occurrence of flag, or -1.
func (t *Tape) Index(flag string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Index(t.flags, flag)
}

// Count returns how many times flag was recorded.
func (t *Tape) Count(flag string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, f := range t.flags {
		if f == flag {
			n++
		}
	}
	return n
}
