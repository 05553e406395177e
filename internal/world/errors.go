package world

import "errors"

var (
	// ErrUnknownDirection is returned when a face name is not one of the six canonical names.
	ErrUnknownDirection = errors.New("world: unknown direction")

	// ErrInvalidLocation is returned when a location string cannot be parsed.
	ErrInvalidLocation = errors.New("world: invalid location")
)
