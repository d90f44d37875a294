package compiler

import (
	"strings"

	"github.com/roach88/verifly/internal/ir"
)

// MergeByIdentity combines declarations that share an identity, in the
// order given. The result lists identities in order of first appearance;
// each merged spec holds the callbacks of its declarations concatenated,
// and a Label joining their labels with "+".
//
// The inputs are not modified.
func MergeByIdentity(specs []ir.GroupSpec) []ir.GroupSpec {
	var order []string
	byID := make(map[string]*ir.GroupSpec)
	labels := make(map[string][]string)

	for _, spec := range specs {
		merged, ok := byID[spec.Identity]
		if !ok {
			merged = &ir.GroupSpec{Identity: spec.Identity, Callbacks: []ir.CallbackSpec{}}
			byID[spec.Identity] = merged
			order = append(order, spec.Identity)
		}
		merged.Callbacks = append(merged.Callbacks, spec.Callbacks...)
		if spec.Label != "" {
			labels[spec.Identity] = append(labels[spec.Identity], spec.Label)
		}
	}

	out := make([]ir.GroupSpec, 0, len(order))
	for _, id := range order {
		merged := byID[id]
		merged.Label = strings.Join(labels[id], "+")
		out = append(out, *merged)
	}
	return out
}

// Find returns the merged spec with the given identity.
func Find(specs []ir.GroupSpec, identity string) (ir.GroupSpec, bool) {
	for _, s := range specs {
		if s.Identity == identity {
			return s, true
		}
	}
	return ir.GroupSpec{}, false
}
