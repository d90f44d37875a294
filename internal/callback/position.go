package callback

import "fmt"

// Position is the temporal role of a callback relative to the wrapped action.
type Position string

const (
	// Before callbacks run after every around callback has entered and
	// before the action.
	Before Position = "before"

	// After callbacks run once the action has returned without error.
	After Position = "after"

	// Around callbacks wrap everything inside them and decide when to
	// continue.
	Around Position = "around"
)

// ValidPositions lists positions in their canonical order.
var ValidPositions = []Position{Before, After, Around}

// Valid reports whether p is one of the known positions.
func (p Position) Valid() bool {
	switch p {
	case Before, After, Around:
		return true
	}
	return false
}

// ParsePosition converts s into a Position.
func ParsePosition(s string) (Position, error) {
	p := Position(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown position %q: must be one of %v", s, ValidPositions)
	}
	return p, nil
}

func (p Position) String() string { return string(p) }
