package energy

import "errors"

// Domain errors for the energy package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, energy.ErrInvalidEnumValue) {
//	    // stored faces map holds an unknown direction or IOType
//	}
var (
	// ErrInvalidEnumValue is returned when decoding a direction or IOType name fails.
	ErrInvalidEnumValue = errors.New("energy: invalid enum value")

	// ErrFacesNotInitialized is returned by RecordBuilder.Build when WithFace
	// was called before any WithFaces.
	ErrFacesNotInitialized = errors.New("energy: face map not initialized")
)
