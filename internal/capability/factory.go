package capability

import (
	"fmt"

	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// TypeID names a capability type, e.g. "standard".
type TypeID string

// Constructor builds a fresh instance anchored at a location.
type Constructor[T energy.Storage] func(anchor world.Location) (T, error)

// Factory builds instances of one capability type. It holds no state
// beyond the constructor and never caches.
type Factory[T energy.Storage] struct {
	typeID TypeID
	ctor   Constructor[T]
}

// NewFactory registers ctor for typeID. A missing constructor or empty
// type ID fails with ErrUnconstructibleType.
func NewFactory[T energy.Storage](typeID TypeID, ctor Constructor[T]) (*Factory[T], error) {
	if typeID == "" {
		return nil, fmt.Errorf("%w: empty type id", ErrUnconstructibleType)
	}
	if ctor == nil {
		return nil, fmt.Errorf("%w: %s has no constructor", ErrUnconstructibleType, typeID)
	}
	return &Factory[T]{typeID: typeID, ctor: ctor}, nil
}

// TypeID returns the type this factory builds.
func (f *Factory[T]) TypeID() TypeID {
	return f.typeID
}

// New calls the constructor once. Constructor errors and panics come back
// as a *ConstructionError.
func (f *Factory[T]) New(anchor world.Location) (inst T, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			inst = zero
			err = &ConstructionError{TypeID: f.typeID, Anchor: anchor, Cause: fmt.Errorf("panic: %v", p)}
		}
	}()

	inst, err = f.ctor(anchor)
	if err != nil {
		var zero T
		return zero, &ConstructionError{TypeID: f.typeID, Anchor: anchor, Cause: err}
	}
	return inst, nil
}
