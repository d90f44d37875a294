package callback

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// flags records the order in which bodies ran.
type flags struct {
	list []string
}

func (f *flags) add(flag string) { f.list = append(f.list, flag) }

// index returns the position of flag or -1.
func (f *flags) index(flag string) int {
	for i, v := range f.list {
		if v == flag {
			return i
		}
	}
	return -1
}

// addFlagged adds a callback whose body records <position>_<name>, or for
// around callbacks before_<name> and after_<name> around next.
func addFlagged(t *testing.T, g *Group[*flags], name string, pos Position, opts ...Option) {
	t.Helper()
	var err error
	switch pos {
	case Before, After:
		flag := fmt.Sprintf("%s_%s", pos, name)
		fn := func(f *flags) error {
			f.add(flag)
			return nil
		}
		if pos == Before {
			err = g.Before(name, fn, opts...)
		} else {
			err = g.After(name, fn, opts...)
		}
	case Around:
		err = g.Around(name, func(f *flags, next func() error) error {
			f.add("before_" + name)
			if err := next(); err != nil {
				return err
			}
			f.add("after_" + name)
			return nil
		}, opts...)
	}
	require.NoError(t, err)
}

func recordAction(f *flags) func() error {
	return func() error {
		f.add("action")
		return nil
	}
}

// requireSequence asserts that each flag occurs, and strictly before the next.
func requireSequence(t *testing.T, f *flags, sequence ...string) {
	t.Helper()
	prev := -1
	for _, flag := range sequence {
		idx := f.index(flag)
		require.GreaterOrEqual(t, idx, 0, "%s not found in %v", flag, f.list)
		require.Greater(t, idx, prev, "%s out of order in %v", flag, f.list)
		prev = idx
	}
}

func resolvedNames[T any](t *testing.T, g *Group[T]) []string {
	t.Helper()
	ordered, err := g.Resolve()
	require.NoError(t, err)
	names := make([]string, len(ordered))
	for i, cb := range ordered {
		names[i] = cb.Name()
	}
	return names
}

func noop(*flags) error { return nil }
