package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/verifly/internal/callback"
	"github.com/roach88/verifly/internal/ir"
)

// Validation error codes (E120-E139)
const (
	ErrEmptyIdentity   = "E120" // identity resolved to an empty string
	ErrEmptyName       = "E121" // callback name is empty
	ErrUnknownPosition = "E122" // position is not before/after/around
	ErrDuplicateName   = "E123" // two callbacks in one declaration share a name
	ErrEmptyConstraint = "E124" // requires/insert_before names an empty string
	ErrBuildFailed     = "E125" // spec could not be built into a group
	ErrCyclicOrder     = "E130" // constraints of a merged group form a cycle
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"` // source line, when known
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a single declaration. Returns all errors found (does not
// fail-fast). Duplicate names are an error within one declaration; merged
// groups may legitimately carry several members with one name.
//
// Names are compared after NFC normalization, as callback.Group does.
func Validate(spec ir.GroupSpec) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(spec.Identity) == "" {
		errs = append(errs, ValidationError{
			Field:   "identity",
			Message: "identity is required and must be non-empty",
			Code:    ErrEmptyIdentity,
		})
	}

	seen := make(map[string]int)
	for i, cb := range spec.Callbacks {
		field := fmt.Sprintf("callbacks[%d]", i)

		name := callback.NormalizeName(cb.Name)
		if name == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "name is required and must be non-empty",
				Code:    ErrEmptyName,
			})
		} else if first, dup := seen[name]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate callback name %q (first declared at callbacks[%d])", cb.Name, first),
				Code:    ErrDuplicateName,
			})
		} else {
			seen[name] = i
		}

		if !callback.Position(cb.Position).Valid() {
			errs = append(errs, ValidationError{
				Field:   field + ".position",
				Message: fmt.Sprintf("unknown position %q: must be one of %v", cb.Position, callback.ValidPositions),
				Code:    ErrUnknownPosition,
			})
		}

		for j, n := range cb.Requires {
			if callback.NormalizeName(n) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.requires[%d]", field, j),
					Message: "constraint names must be non-empty",
					Code:    ErrEmptyConstraint,
				})
			}
		}
		for j, n := range cb.InsertBefore {
			if callback.NormalizeName(n) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.insert_before[%d]", field, j),
					Message: "constraint names must be non-empty",
					Code:    ErrEmptyConstraint,
				})
			}
		}
	}

	return errs
}

// CheckOrder builds a merged spec and resolves it, reporting a cycle as a
// ValidationError. Specs that fail Validate should not be passed here.
func CheckOrder(spec ir.GroupSpec) ([]string, *ValidationError) {
	g, err := Build(spec)
	if err != nil {
		return nil, &ValidationError{Field: "callbacks", Message: err.Error(), Code: ErrBuildFailed}
	}
	ordered, err := g.Resolve()
	if err != nil {
		return nil, &ValidationError{
			Field:   "group." + spec.Identity,
			Message: err.Error(),
			Code:    ErrCyclicOrder,
		}
	}
	names := make([]string, len(ordered))
	for i, cb := range ordered {
		names[i] = cb.Name()
	}
	return names, nil
}
