package flow

import "fmt"

// Kind is a block type the network reacts to.
type Kind uint8

const (
	Furnace Kind = iota + 1
	Lamp
)

var kindNames = map[Kind]string{
	Furnace: "FURNACE",
	Lamp:    "REDSTONE_LAMP",
}

// Name returns the host material name.
func (k Kind) Name() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (k Kind) String() string {
	return k.Name()
}

// ParseKind maps a host material name to a Kind. ok is false for materials
// the network ignores.
func ParseKind(material string) (Kind, bool) {
	for k, n := range kindNames {
		if n == material {
			return k, true
		}
	}
	return 0, false
}
