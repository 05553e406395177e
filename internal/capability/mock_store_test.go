package capability

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/blockenergy-core/internal/blockdata"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

var errStoreDown = errors.New("store unavailable")

// MockStore is an in-memory blockdata.Store with call counters and
// failure injection.
type MockStore struct {
	mu   sync.Mutex
	data map[world.Location]*blockdata.Container

	loads atomic.Int32
	saves atomic.Int32

	// loadDelay widens the race window in concurrency tests.
	loadDelay time.Duration
	failSave  map[world.Location]error
	failHas   error

	// beforeSave runs at the start of every Save, outside the store lock.
	beforeSave func(loc world.Location)
}

func NewMockStore() *MockStore {
	return &MockStore{
		data:     make(map[world.Location]*blockdata.Container),
		failSave: make(map[world.Location]error),
	}
}

func (m *MockStore) Load(ctx context.Context, loc world.Location) (*blockdata.Container, error) {
	m.loads.Add(1)
	if m.loadDelay > 0 {
		select {
		case <-time.After(m.loadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.data[loc]; ok {
		return c.Clone(), nil
	}
	return blockdata.NewContainer(), nil
}

func (m *MockStore) Save(_ context.Context, loc world.Location, c *blockdata.Container) error {
	m.saves.Add(1)
	if m.beforeSave != nil {
		m.beforeSave(loc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failSave[loc]; err != nil {
		return err
	}
	dst, ok := m.data[loc]
	if !ok {
		dst = blockdata.NewContainer()
		m.data[loc] = dst
	}
	for _, k := range c.Keys() {
		if v, ok := c.Int(k); ok {
			dst.SetInt(k, v)
		} else if mv, ok := c.StringMap(k); ok {
			dst.SetStringMap(k, mv)
		}
	}
	return nil
}

func (m *MockStore) Has(_ context.Context, loc world.Location, k blockdata.Key) (bool, error) {
	if m.failHas != nil {
		return false, m.failHas
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[loc]
	return ok && c.Has(k), nil
}

func (m *MockStore) Each(ctx context.Context, w world.ID, k blockdata.Key, fn func(world.Location, *blockdata.Container) error) error {
	m.mu.Lock()
	var locs []world.Location
	for loc, c := range m.data {
		if loc.World == w && c.Has(k) {
			locs = append(locs, loc)
		}
	}
	m.mu.Unlock()

	sort.Slice(locs, func(i, j int) bool { return locs[i].String() < locs[j].String() })
	for _, loc := range locs {
		c, err := m.Load(ctx, loc)
		if err != nil {
			return err
		}
		if err := fn(loc, c); err != nil {
			return err
		}
	}
	return nil
}

// put seeds raw durable data for loc.
func (m *MockStore) put(loc world.Location, c *blockdata.Container) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[loc] = c.Clone()
}

// get returns a copy of the durable data for loc.
func (m *MockStore) get(loc world.Location) *blockdata.Container {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.data[loc]; ok {
		return c.Clone()
	}
	return blockdata.NewContainer()
}
