package capability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/blockenergy-core/internal/blockdata"
	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// StandardType is the type ID of energy.Bank.
const StandardType TypeID = "standard"

// member is the type-erased view of a Registry[T].
type member interface {
	TypeID() TypeID
	Len() int
	OnWorldSaved(ctx context.Context, w world.ID) (int, error)
	OnWorldUnloaded(ctx context.Context, w world.ID) (int, error)
	SaveAll(ctx context.Context) (int, error)
}

// Registries owns one Registry per capability type. Registering a type is
// what subscribes it to world save and unload.
type Registries struct {
	store  blockdata.Store
	codec  energy.Codec
	logger Logger

	mu     sync.RWMutex
	byType map[TypeID]member
}

// NewRegistries creates an empty set of registries sharing store and codec.
func NewRegistries(store blockdata.Store, codec energy.Codec) *Registries {
	return &Registries{
		store:  store,
		codec:  codec,
		logger: noopLogger{},
		byType: make(map[TypeID]member),
	}
}

// SetLogger sets the logger for the set and every registry created after.
func (rs *Registries) SetLogger(logger Logger) {
	rs.mu.Lock()
	rs.logger = logger
	rs.mu.Unlock()
}

// Store returns the durable store shared by every registry.
func (rs *Registries) Store() blockdata.Store {
	return rs.store
}

// Codec returns the durable key layout shared by every registry.
func (rs *Registries) Codec() energy.Codec {
	return rs.codec
}

// Register returns the registry for typeID, creating it with ctor on first
// call. Later calls with the same Go type return the existing registry and
// ignore ctor; a different Go type fails with ErrTypeMismatch.
func Register[T energy.Storage](rs *Registries, typeID TypeID, ctor Constructor[T]) (*Registry[T], error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if existing, ok := rs.byType[typeID]; ok {
		reg, ok := existing.(*Registry[T])
		if !ok {
			return nil, fmt.Errorf("%w: %s is registered as %T", ErrTypeMismatch, typeID, existing)
		}
		return reg, nil
	}

	factory, err := NewFactory(typeID, ctor)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry(factory, rs.store, rs.codec)
	reg.SetLogger(rs.logger)
	rs.byType[typeID] = reg
	rs.logger.Info("capability type registered", "type", typeID)
	return reg, nil
}

// Lookup returns an already registered registry.
func Lookup[T energy.Storage](rs *Registries, typeID TypeID) (*Registry[T], error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	existing, ok := rs.byType[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeID)
	}
	reg, ok := existing.(*Registry[T])
	if !ok {
		return nil, fmt.Errorf("%w: %s is registered as %T", ErrTypeMismatch, typeID, existing)
	}
	return reg, nil
}

// Standard registers (or returns) the energy.Bank registry.
func Standard(rs *Registries) (*Registry[*energy.Bank], error) {
	return Register(rs, StandardType, func(anchor world.Location) (*energy.Bank, error) {
		return energy.NewBank(anchor), nil
	})
}

// Types returns the registered type IDs in sorted order.
func (rs *Registries) Types() []TypeID {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	ids := make([]TypeID, 0, len(rs.byType))
	for id := range rs.byType {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Stats returns the live instance count per type.
func (rs *Registries) Stats() map[TypeID]int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	out := make(map[TypeID]int, len(rs.byType))
	for id, m := range rs.byType {
		out[id] = m.Len()
	}
	return out
}

// OnWorldSaved flushes world w in every registry.
func (rs *Registries) OnWorldSaved(ctx context.Context, w world.ID) (int, error) {
	return rs.each(func(m member) (int, error) { return m.OnWorldSaved(ctx, w) })
}

// OnWorldUnloaded flushes and evicts world w in every registry.
func (rs *Registries) OnWorldUnloaded(ctx context.Context, w world.ID) (int, error) {
	return rs.each(func(m member) (int, error) { return m.OnWorldUnloaded(ctx, w) })
}

// SaveAll flushes every registry.
func (rs *Registries) SaveAll(ctx context.Context) (int, error) {
	return rs.each(func(m member) (int, error) { return m.SaveAll(ctx) })
}

func (rs *Registries) each(fn func(member) (int, error)) (int, error) {
	rs.mu.RLock()
	members := make([]member, 0, len(rs.byType))
	for _, m := range rs.byType {
		members = append(members, m)
	}
	rs.mu.RUnlock()

	var (
		total int
		errs  []error
	)
	for _, m := range members {
		n, err := fn(m)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.TypeID(), err))
		}
	}
	return total, errors.Join(errs...)
}
