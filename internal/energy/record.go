package energy

import (
	"encoding/json"
	"maps"
	"math"

	"github.com/nerrad567/blockenergy-core/internal/world"
)

// DefaultCapacity is the capacity of a capability nobody has configured.
const DefaultCapacity int32 = math.MaxInt32

// Record is an immutable snapshot of a capability.
type Record struct {
	stored   int32
	capacity int32
	faces    map[world.Direction]IOType
}

// Stored returns the stored amount.
func (r Record) Stored() int32 { return r.stored }

// Capacity returns the maximum capacity.
func (r Record) Capacity() int32 { return r.capacity }

// Faces returns a copy of the per-face permissions. Faces not present were
// not recorded.
func (r Record) Faces() map[world.Direction]IOType {
	out := make(map[world.Direction]IOType, len(r.faces))
	maps.Copy(out, r.faces)
	return out
}

// Face returns the recorded permission for dir.
func (r Record) Face(dir world.Direction) (IOType, bool) {
	t, ok := r.faces[dir]
	return t, ok
}

// Equal compares field by field. A nil and an empty face map are equal.
func (r Record) Equal(o Record) bool {
	return r.stored == o.stored &&
		r.capacity == o.capacity &&
		maps.Equal(r.faces, o.faces)
}

type recordJSON struct {
	Stored   int32                      `json:"stored_energy"`
	Capacity int32                      `json:"max_energy"`
	Faces    map[world.Direction]IOType `json:"allowed_faces"`
}

// MarshalJSON renders the record with its durable field names.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{Stored: r.stored, Capacity: r.capacity, Faces: r.Faces()})
}

// UnmarshalJSON accepts the MarshalJSON form. Missing fields take the same
// defaults as an empty container.
func (r *Record) UnmarshalJSON(data []byte) error {
	raw := recordJSON{Capacity: DefaultCapacity}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{stored: raw.Stored, capacity: raw.Capacity, faces: raw.Faces}
	if r.faces == nil {
		r.faces = map[world.Direction]IOType{}
	}
	return nil
}

// RecordBuilder assembles a Record.
//
// Example:
//
//	rec, err := energy.NewRecordBuilder(500).
//	    WithCapacity(25000).
//	    WithFaces(faces).
//	    WithFace(world.Up, energy.Output).
//	    Build()
type RecordBuilder struct {
	stored   int32
	capacity int32
	faces    map[world.Direction]IOType
	err      error
}

// NewRecordBuilder starts a record with the given stored amount and the
// default capacity.
func NewRecordBuilder(stored int32) *RecordBuilder {
	return &RecordBuilder{stored: stored, capacity: DefaultCapacity}
}

// DefaultRecordBuilder is NewRecordBuilder(0).
func DefaultRecordBuilder() *RecordBuilder {
	return NewRecordBuilder(0)
}

// WithStored sets the stored amount.
func (b *RecordBuilder) WithStored(stored int32) *RecordBuilder {
	b.stored = stored
	return b
}

// WithCapacity sets the capacity.
func (b *RecordBuilder) WithCapacity(capacity int32) *RecordBuilder {
	b.capacity = capacity
	return b
}

// WithFaces replaces the face map with a copy of faces.
func (b *RecordBuilder) WithFaces(faces map[world.Direction]IOType) *RecordBuilder {
	b.faces = make(map[world.Direction]IOType, len(faces))
	maps.Copy(b.faces, faces)
	return b
}

// WithFace sets one face. It requires a prior WithFaces; otherwise Build
// fails with ErrFacesNotInitialized.
func (b *RecordBuilder) WithFace(dir world.Direction, t IOType) *RecordBuilder {
	if b.faces == nil {
		if b.err == nil {
			b.err = ErrFacesNotInitialized
		}
		return b
	}
	b.faces[dir] = t
	return b
}

// Build returns the record, or the first error recorded while building.
func (b *RecordBuilder) Build() (Record, error) {
	if b.err != nil {
		return Record{}, b.err
	}
	return newRecord(b.stored, b.capacity, b.faces), nil
}

func newRecord(stored, capacity int32, faces map[world.Direction]IOType) Record {
	cp := make(map[world.Direction]IOType, len(faces))
	maps.Copy(cp, faces)
	return Record{stored: stored, capacity: capacity, faces: cp}
}
