package world

import "fmt"

// Direction is one of the six faces of a block.
type Direction uint8

// The six faces. The zero value is North.
const (
	North Direction = iota
	East
	South
	West
	Up
	Down
)

// Directions lists every face in declaration order.
var Directions = [...]Direction{North, East, South, West, Up, Down}

var directionNames = [...]string{
	North: "NORTH",
	East:  "EAST",
	South: "SOUTH",
	West:  "WEST",
	Up:    "UP",
	Down:  "DOWN",
}

// Name returns the canonical upper-case name persisted in block data.
func (d Direction) Name() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", d)
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	return d.Name()
}

// Valid reports whether d is one of the six faces.
func (d Direction) Valid() bool {
	return int(d) < len(directionNames)
}

// Opposite returns the face pointing the other way.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	default:
		return Up
	}
}

// Offset returns the unit block offset for d. North is -Z and East is +X.
func (d Direction) Offset() (dx, dy, dz int) {
	switch d {
	case North:
		return 0, 0, -1
	case East:
		return 1, 0, 0
	case South:
		return 0, 0, 1
	case West:
		return -1, 0, 0
	case Up:
		return 0, 1, 0
	case Down:
		return 0, -1, 0
	}
	return 0, 0, 0
}

// ParseDirection matches a canonical name exactly ("UP", not "up").
func ParseDirection(name string) (Direction, error) {
	for i, n := range directionNames {
		if n == name {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, name)
}

// MarshalText implements encoding.TextMarshaler so directions can be JSON
// map keys and values.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDirection, d)
	}
	return []byte(d.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
