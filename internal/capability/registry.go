package capability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nerrad567/blockenergy-core/internal/blockdata"
	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// materializeTimeout bounds one shared load from the store.
const materializeTimeout = 30 * time.Second

// Registry maps block locations to the live capability of one type.
//
// All public methods are safe for concurrent use.
type Registry[T energy.Storage] struct {
	factory *Factory[T]
	store   blockdata.Store
	codec   energy.Codec

	cache   map[world.Location]T
	cacheMu sync.RWMutex

	// flights deduplicates materialization per location.
	flights singleflight.Group

	// createMu makes the exists-check and initial write of Create atomic.
	createMu sync.Mutex

	logger Logger
}

// NewRegistry creates an empty registry over store.
func NewRegistry[T energy.Storage](factory *Factory[T], store blockdata.Store, codec energy.Codec) *Registry[T] {
	return &Registry[T]{
		factory: factory,
		store:   store,
		codec:   codec,
		cache:   make(map[world.Location]T),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry[T]) SetLogger(logger Logger) {
	r.logger = logger
}

// TypeID returns the capability type held by this registry.
func (r *Registry[T]) TypeID() TypeID {
	return r.factory.TypeID()
}

// IsCapability reports whether the durable store marks loc as a
// capability. It never consults the cache.
func (r *Registry[T]) IsCapability(ctx context.Context, loc world.Location) (bool, error) {
	ok, err := r.store.Has(ctx, loc, r.codec.StoredKey)
	if err != nil {
		return false, fmt.Errorf("checking capability at %s: %w", loc, err)
	}
	return ok, nil
}

// Create makes loc a capability. If it already is one, Create returns
// created=false and changes nothing. Otherwise it builds a default
// instance, writes that state to the store and caches it.
func (r *Registry[T]) Create(ctx context.Context, loc world.Location) (inst T, created bool, err error) {
	var zero T

	r.createMu.Lock()
	defer r.createMu.Unlock()

	exists, err := r.IsCapability(ctx, loc)
	if err != nil || exists {
		return zero, false, err
	}

	fresh, err := r.factory.New(loc)
	if err != nil {
		return zero, false, err
	}

	if err := r.store.Save(ctx, loc, r.codec.ToContainer(fresh.Serialize())); err != nil {
		return zero, false, fmt.Errorf("writing initial state at %s: %w", loc, err)
	}

	inst = r.insert(loc, fresh)
	r.logger.Debug("capability created", "type", r.TypeID(), "location", loc.String())
	return inst, true, nil
}

// Get returns the live instance for loc, materializing it from the store
// on first use. found is false when loc is not a capability.
func (r *Registry[T]) Get(ctx context.Context, loc world.Location) (inst T, found bool, err error) {
	var zero T

	exists, err := r.IsCapability(ctx, loc)
	if err != nil || !exists {
		return zero, false, err
	}

	if cached, ok := r.Cached(loc); ok {
		return cached, true, nil
	}

	v, err, _ := r.flights.Do(loc.String(), func() (any, error) {
		if cached, ok := r.Cached(loc); ok {
			return cached, nil
		}
		// The flight is shared, so one caller's cancellation must not
		// fail the others waiting on it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), materializeTimeout)
		defer cancel()
		fresh, err := r.materialize(fctx, loc)
		if err != nil {
			return nil, err
		}
		return r.insert(loc, fresh), nil
	})
	if err != nil {
		return zero, false, err
	}
	return v.(T), true, nil
}

// Cached returns the instance for loc if it is already live.
func (r *Registry[T]) Cached(loc world.Location) (T, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	inst, ok := r.cache[loc]
	return inst, ok
}

// Len returns the number of live instances.
func (r *Registry[T]) Len() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Locations returns the live locations in world w.
func (r *Registry[T]) Locations(w world.ID) []world.Location {
	entries := r.snapshot(func(loc world.Location) bool { return loc.World == w })
	locs := make([]world.Location, len(entries))
	for i, e := range entries {
		locs[i] = e.loc
	}
	return locs
}

// OnWorldSaved writes every live instance in world w back to the store.
// Instances in other worlds are untouched. It returns how many were
// written; failures are joined into err and do not stop the scan.
func (r *Registry[T]) OnWorldSaved(ctx context.Context, w world.ID) (int, error) {
	entries := r.snapshot(func(loc world.Location) bool { return loc.World == w })
	n, failed, err := r.flush(ctx, entries)
	r.logFlush("world saved", w, n, len(failed))
	return n, err
}

// OnWorldUnloaded evicts every live instance in world w and then writes
// them back to the store. Evicting first means no caller can mutate an
// instance after its final snapshot is taken. Instances whose write failed
// are put back so a later save can retry them, unless a newer instance for
// the same location was materialized in the meantime.
func (r *Registry[T]) OnWorldUnloaded(ctx context.Context, w world.ID) (int, error) {
	entries := r.evict(func(loc world.Location) bool { return loc.World == w })
	n, failed, err := r.flush(ctx, entries)

	if len(failed) > 0 {
		r.cacheMu.Lock()
		for _, e := range entries {
			if _, retry := failed[e.loc]; !retry {
				continue
			}
			if _, taken := r.cache[e.loc]; !taken {
				r.cache[e.loc] = e.inst
			}
		}
		r.cacheMu.Unlock()
	}

	r.logFlush("world unloaded", w, n, len(failed))
	return n, err
}

// SaveAll writes every live instance back to the store.
func (r *Registry[T]) SaveAll(ctx context.Context) (int, error) {
	entries := r.snapshot(func(world.Location) bool { return true })
	n, failed, err := r.flush(ctx, entries)
	r.logFlush("save all", "", n, len(failed))
	return n, err
}

type entry[T any] struct {
	loc  world.Location
	inst T
}

func (r *Registry[T]) snapshot(match func(world.Location) bool) []entry[T] {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	var out []entry[T]
	for loc, inst := range r.cache {
		if match(loc) {
			out = append(out, entry[T]{loc: loc, inst: inst})
		}
	}
	return out
}

// evict removes and returns the matching entries.
func (r *Registry[T]) evict(match func(world.Location) bool) []entry[T] {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	var out []entry[T]
	for loc, inst := range r.cache {
		if match(loc) {
			out = append(out, entry[T]{loc: loc, inst: inst})
			delete(r.cache, loc)
		}
	}
	return out
}

func (r *Registry[T]) flush(ctx context.Context, entries []entry[T]) (int, map[world.Location]struct{}, error) {
	var (
		written int
		errs    []error
		failed  = make(map[world.Location]struct{})
	)
	for _, e := range entries {
		if err := r.store.Save(ctx, e.loc, r.codec.ToContainer(e.inst.Serialize())); err != nil {
			errs = append(errs, fmt.Errorf("flushing %s: %w", e.loc, err))
			failed[e.loc] = struct{}{}
			continue
		}
		written++
	}
	return written, failed, errors.Join(errs...)
}

func (r *Registry[T]) logFlush(reason string, w world.ID, written, failed int) {
	args := []any{"type", r.TypeID(), "reason", reason, "written", written}
	if w != "" {
		args = append(args, "world", string(w))
	}
	if failed > 0 {
		r.logger.Warn("capability flush incomplete", append(args, "failed", failed)...)
		return
	}
	if written > 0 {
		r.logger.Info("capabilities flushed", args...)
	}
}

// materialize builds an instance and loads its durable state.
func (r *Registry[T]) materialize(ctx context.Context, loc world.Location) (T, error) {
	var zero T

	inst, err := r.factory.New(loc)
	if err != nil {
		return zero, err
	}

	c, err := r.store.Load(ctx, loc)
	if err != nil {
		return zero, fmt.Errorf("loading state at %s: %w", loc, err)
	}
	if !c.IsEmpty() {
		rec, err := r.codec.FromContainer(c)
		if err != nil {
			return zero, fmt.Errorf("decoding state at %s: %w", loc, err)
		}
		inst.Deserialize(rec)
	}

	r.logger.Debug("capability materialized", "type", r.TypeID(), "location", loc.String())
	return inst, nil
}

// insert caches inst unless another instance got there first, and returns
// whichever is cached.
func (r *Registry[T]) insert(loc world.Location, inst T) T {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	if existing, ok := r.cache[loc]; ok {
		return existing
	}
	r.cache[loc] = inst
	return inst
}
