package blockdata

import "errors"

// Domain errors for the blockdata package.
var (
	// ErrInvalidKey is returned when a namespace or key name is malformed.
	ErrInvalidKey = errors.New("blockdata: invalid key")

	// ErrCorruptValue is returned when a stored row cannot be decoded.
	ErrCorruptValue = errors.New("blockdata: corrupt value")
)
