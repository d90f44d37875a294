package ir

// Position values accepted in a CallbackSpec. They mirror callback.Position;
// ir cannot import callback.
const (
	PositionBefore = "before"
	PositionAfter  = "after"
	PositionAround = "around"
)

// GroupSpec is a named set of callback declarations.
type GroupSpec struct {
	// Label is the CUE field the group was declared under. Several labels
	// may share one identity and are merged into a single group.
	Label     string         `json:"label" yaml:"label,omitempty"`
	Identity  string         `json:"identity" yaml:"identity"`
	Callbacks []CallbackSpec `json:"callbacks" yaml:"callbacks"`
}

// CallbackSpec declares one callback and its ordering constraints.
type CallbackSpec struct {
	Name         string   `json:"name" yaml:"name"`
	Position     string   `json:"position" yaml:"position"`
	Requires     []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	InsertBefore []string `json:"insert_before,omitempty" yaml:"insert_before,omitempty"`
}

// Names returns callback names in declaration order.
func (g GroupSpec) Names() []string {
	names := make([]string, len(g.Callbacks))
	for i, cb := range g.Callbacks {
		names[i] = cb.Name
	}
	return names
}

// canonical returns the hashable form of the group. Label is excluded:
// two labels declaring the same callbacks under one identity hash equal.
func (g GroupSpec) canonical() map[string]any {
	callbacks := make([]any, len(g.Callbacks))
	for i, cb := range g.Callbacks {
		callbacks[i] = cb.canonical()
	}
	return map[string]any{
		"identity":  g.Identity,
		"callbacks": callbacks,
	}
}

func (c CallbackSpec) canonical() map[string]any {
	obj := map[string]any{
		"name":     c.Name,
		"position": c.Position,
	}
	if len(c.Requires) > 0 {
		obj["requires"] = c.Requires
	}
	if len(c.InsertBefore) > 0 {
		obj["insert_before"] = c.InsertBefore
	}
	return obj
}
