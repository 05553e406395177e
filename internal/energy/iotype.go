package energy

import "fmt"

// IOType is the transfer permission of one face.
type IOType uint8

// The zero IOType is invalid and permits nothing.
const (
	Input IOType = iota + 1
	Output
	Both
	Disabled
)

// IOTypes lists every valid permission.
var IOTypes = [...]IOType{Input, Output, Both, Disabled}

var ioTypeNames = map[IOType]string{
	Input:    "INPUT",
	Output:   "OUTPUT",
	Both:     "BOTH",
	Disabled: "DISABLED",
}

// Name returns the canonical upper-case name.
func (t IOType) Name() string {
	if n, ok := ioTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("IOType(%d)", t)
}

func (t IOType) String() string {
	return t.Name()
}

// Valid reports whether t is one of the four permissions.
func (t IOType) Valid() bool {
	_, ok := ioTypeNames[t]
	return ok
}

// AllowsOutput reports whether energy may leave through a face with t.
func (t IOType) AllowsOutput() bool {
	return t == Both || t == Output
}

// AllowsInput reports whether energy may enter through a face with t.
func (t IOType) AllowsInput() bool {
	return t == Both || t == Input
}

// ParseIOType matches a canonical name exactly.
func ParseIOType(name string) (IOType, error) {
	for t, n := range ioTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: io type %q", ErrInvalidEnumValue, name)
}

// MarshalText implements encoding.TextMarshaler.
func (t IOType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: io type %d", ErrInvalidEnumValue, t)
	}
	return []byte(t.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *IOType) UnmarshalText(text []byte) error {
	parsed, err := ParseIOType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
