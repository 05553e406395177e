package world

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a loaded world on the host. Hosts use the world UUID.
type ID string

// Location is the position of a single block.
//
// Two locations are equal iff their worlds and all three coordinates are
// equal, so Location can be used as a map key.
type Location struct {
	World ID  `json:"world"`
	X     int `json:"x"`
	Y     int `json:"y"`
	Z     int `json:"z"`
}

// At is shorthand for Location{World: w, X: x, Y: y, Z: z}.
func At(w ID, x, y, z int) Location {
	return Location{World: w, X: x, Y: y, Z: z}
}

// Relative returns the neighbouring location across face d.
func (l Location) Relative(d Direction) Location {
	dx, dy, dz := d.Offset()
	return Location{World: l.World, X: l.X + dx, Y: l.Y + dy, Z: l.Z + dz}
}

// String renders "world:x,y,z".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d,%d,%d", l.World, l.X, l.Y, l.Z)
}

// ParseLocation is the inverse of Location.String.
func ParseLocation(s string) (Location, error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}

	coords := strings.Split(s[idx+1:], ",")
	if len(coords) != 3 {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}

	var xyz [3]int
	for i, c := range coords {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q: %w", ErrInvalidLocation, s, err)
		}
		xyz[i] = n
	}

	return At(ID(s[:idx]), xyz[0], xyz[1], xyz[2]), nil
}
