package evolve

import (
	"errors"
	"fmt"
)

// Generation error codes (E200-E299)
const (
	ErrMemberCollision  = "E201" // two items resolve to one identifier in one version
	ErrIrreversibleEdge = "E202" // downgrade cannot represent a newer-only variant
	ErrMissingHook      = "E203" // type change with no hook and no nested conversion
	ErrBadRequest       = "E204" // unknown container, version, or non-adjacent pair
)

// GenerateError represents a hard failure deriving or dispatching one
// container. Generation failures abort the offending container only.
type GenerateError struct {
	// Code is one of the E2xx constants.
	Code string

	// Container names the affected container, if known.
	Container string

	// Version is the declared version or "vA -> vB" edge involved.
	Version string

	// Name is the item, member, or variant identifier involved, if any.
	Name string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *GenerateError) Error() string {
	msg := fmt.Sprintf("[%s]", e.Code)
	if e.Container != "" {
		msg += " " + e.Container
	}
	if e.Version != "" {
		msg += " " + e.Version
	}
	if e.Name != "" {
		msg += ": " + e.Name
	}
	return msg + ": " + e.Message
}

// AsGenerateError returns the wrapped *GenerateError, if any.
func AsGenerateError(err error) (*GenerateError, bool) {
	var ge *GenerateError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsCollision reports whether err is a member name collision.
func IsCollision(err error) bool {
	ge, ok := AsGenerateError(err)
	return ok && ge.Code == ErrMemberCollision
}

// IsIrreversible reports whether err is a refused downgrade edge.
func IsIrreversible(err error) bool {
	ge, ok := AsGenerateError(err)
	return ok && ge.Code == ErrIrreversibleEdge
}
