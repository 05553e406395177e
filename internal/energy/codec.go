package energy

import (
	"fmt"

	"github.com/nerrad567/blockenergy-core/internal/blockdata"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// DefaultNamespace prefixes the durable keys unless configured otherwise.
const DefaultNamespace = "blockenergy"

// Codec maps records to block data containers under one namespace.
type Codec struct {
	StoredKey   blockdata.Key
	CapacityKey blockdata.Key
	FacesKey    blockdata.Key
}

// DefaultCodec uses DefaultNamespace.
var DefaultCodec = MustCodec(DefaultNamespace)

// NewCodec builds the three durable keys under namespace.
func NewCodec(namespace string) (Codec, error) {
	stored, err := blockdata.NewKey(namespace, "stored_energy")
	if err != nil {
		return Codec{}, err
	}
	return Codec{
		StoredKey:   stored,
		CapacityKey: blockdata.MustKey(namespace, "max_energy"),
		FacesKey:    blockdata.MustKey(namespace, "allowed_faces"),
	}, nil
}

// MustCodec is NewCodec that panics on an invalid namespace.
func MustCodec(namespace string) Codec {
	c, err := NewCodec(namespace)
	if err != nil {
		panic(err)
	}
	return c
}

// ToContainer writes r into a fresh container.
func (c Codec) ToContainer(r Record) *blockdata.Container {
	out := blockdata.NewContainer()
	c.Encode(r, out)
	return out
}

// Encode writes r's three keys into dst, leaving other keys alone.
func (c Codec) Encode(r Record, dst *blockdata.Container) {
	faces := make(map[string]string, len(r.faces))
	for dir, t := range r.faces {
		faces[dir.Name()] = t.Name()
	}
	dst.SetInt(c.StoredKey, r.stored)
	dst.SetInt(c.CapacityKey, r.capacity)
	dst.SetStringMap(c.FacesKey, faces)
}

// FromContainer reads a record. Missing keys default to stored 0, capacity
// DefaultCapacity and no faces. An unknown direction or IOType name fails
// with ErrInvalidEnumValue.
func (c Codec) FromContainer(src *blockdata.Container) (Record, error) {
	faces := make(map[world.Direction]IOType)
	if raw, ok := src.StringMap(c.FacesKey); ok {
		for dirName, typeName := range raw {
			dir, err := world.ParseDirection(dirName)
			if err != nil {
				return Record{}, fmt.Errorf("%w: %w", ErrInvalidEnumValue, err)
			}
			t, err := ParseIOType(typeName)
			if err != nil {
				return Record{}, fmt.Errorf("face %s: %w", dirName, err)
			}
			faces[dir] = t
		}
	}

	return NewRecordBuilder(src.IntOr(c.StoredKey, 0)).
		WithCapacity(src.IntOr(c.CapacityKey, DefaultCapacity)).
		WithFaces(faces).
		Build()
}

// IsCapability reports whether src carries the stored-energy key.
func (c Codec) IsCapability(src *blockdata.Container) bool {
	return src.Has(c.StoredKey)
}

// ToContainer is DefaultCodec.ToContainer.
func ToContainer(r Record) *blockdata.Container {
	return DefaultCodec.ToContainer(r)
}

// FromContainer is DefaultCodec.FromContainer.
func FromContainer(src *blockdata.Container) (Record, error) {
	return DefaultCodec.FromContainer(src)
}
