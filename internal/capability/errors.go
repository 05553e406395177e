package capability

import (
	"errors"
	"fmt"

	"github.com/nerrad567/blockenergy-core/internal/world"
)

// Domain errors for the capability package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, capability.ErrConstructionFailed) {
//	    var ce *capability.ConstructionError
//	    errors.As(err, &ce) // ce.Cause holds the constructor's error
//	}
var (
	// ErrUnconstructibleType is returned when a type is registered without a usable constructor.
	ErrUnconstructibleType = errors.New("capability: type cannot be constructed")

	// ErrConstructionFailed is matched by every ConstructionError.
	ErrConstructionFailed = errors.New("capability: construction failed")

	// ErrTypeMismatch is returned when a type ID is already registered with a different Go type.
	ErrTypeMismatch = errors.New("capability: type mismatch")

	// ErrUnknownType is returned when looking up a type ID that was never registered.
	ErrUnknownType = errors.New("capability: unknown type")
)

// ConstructionError reports a constructor that returned an error or panicked.
type ConstructionError struct {
	TypeID TypeID
	Anchor world.Location
	Cause  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("capability: constructing %s at %s: %v", e.TypeID, e.Anchor, e.Cause)
}

// Unwrap returns the constructor's error.
func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrConstructionFailed) true.
func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstructionFailed
}
