package energy

import (
	"maps"
	"math"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/blockenergy-core/internal/world"
)

// Bank is the standard Storage: a plain energy buffer with per-face
// permissions. A new Bank is empty, has DefaultCapacity and every face set
// to Both.
type Bank struct {
	anchor   world.Location
	stored   atomic.Int32
	capacity atomic.Int32

	facesMu sync.RWMutex
	faces   map[world.Direction]IOType
}

var _ Storage = (*Bank)(nil)

// NewBank creates the default bank for anchor.
func NewBank(anchor world.Location) *Bank {
	b := &Bank{
		anchor: anchor,
		faces:  make(map[world.Direction]IOType, len(world.Directions)),
	}
	b.capacity.Store(DefaultCapacity)
	for _, d := range world.Directions {
		b.faces[d] = Both
	}
	return b
}

// Anchor returns the block this bank belongs to.
func (b *Bank) Anchor() world.Location {
	return b.anchor
}

// Deserialize loads r. Faces absent from r keep their current permission.
func (b *Bank) Deserialize(r Record) {
	b.stored.Store(r.stored)
	b.capacity.Store(r.capacity)

	b.facesMu.Lock()
	maps.Copy(b.faces, r.faces)
	b.facesMu.Unlock()
}

// Serialize snapshots the bank.
func (b *Bank) Serialize() Record {
	b.facesMu.RLock()
	defer b.facesMu.RUnlock()
	return newRecord(b.stored.Load(), b.capacity.Load(), b.faces)
}

// Stored returns the energy currently held.
func (b *Bank) Stored() int32 {
	return b.stored.Load()
}

// Capacity returns the most energy the bank can hold.
func (b *Bank) Capacity() int32 {
	return b.capacity.Load()
}

// SetCapacity replaces the capacity. Stored energy is left as is.
func (b *Bank) SetCapacity(capacity int32) {
	b.capacity.Store(capacity)
}

// Generate adds amount, saturating at the capacity.
func (b *Bank) Generate(amount int32) {
	for {
		cur := b.stored.Load()
		next := addClamped(cur, amount, b.capacity.Load())
		if b.stored.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Burn consumes amount, emptying the bank and returning false if it holds
// less than that.
func (b *Bank) Burn(amount int32) bool {
	for {
		cur := b.stored.Load()
		rest := int64(cur) - int64(amount)
		if rest < 0 {
			if b.stored.CompareAndSwap(cur, 0) {
				return false
			}
			continue
		}
		if b.stored.CompareAndSwap(cur, saturate(rest)) {
			return true
		}
	}
}

// CanExtract reports whether energy may leave through dir.
func (b *Bank) CanExtract(dir world.Direction) bool {
	return b.FacePermission(dir).AllowsOutput()
}

// CanReceive reports whether energy may enter through dir.
func (b *Bank) CanReceive(dir world.Direction) bool {
	return b.FacePermission(dir).AllowsInput()
}

// FacePermission returns the IO type of dir, the zero IOType if never set.
func (b *Bank) FacePermission(dir world.Direction) IOType {
	b.facesMu.RLock()
	defer b.facesMu.RUnlock()
	return b.faces[dir]
}

// SetFacePermission sets the IO type of dir.
func (b *Bank) SetFacePermission(dir world.Direction, t IOType) {
	b.facesMu.Lock()
	b.faces[dir] = t
	b.facesMu.Unlock()
}

// Receive returns the stored total after accepting amount through dir.
func (b *Bank) Receive(dir world.Direction, amount int32, simulate bool) int32 {
	if !b.CanReceive(dir) {
		return 0
	}
	for {
		cur := b.stored.Load()
		total := addClamped(cur, amount, b.capacity.Load())
		if simulate {
			return total
		}
		if b.stored.CompareAndSwap(cur, total) {
			return total
		}
	}
}

// Extract removes amount through dir. See Storage.Extract for the
// shortfall behaviour.
func (b *Bank) Extract(dir world.Direction, amount int32, simulate bool) int32 {
	if !b.CanExtract(dir) {
		return 0
	}
	for {
		cur := b.stored.Load()
		rest := int64(cur) - int64(amount)
		if rest < 0 {
			if !b.stored.CompareAndSwap(cur, 0) {
				continue
			}
			if cur == 0 {
				return 0
			}
			return saturate(int64(amount) - int64(cur))
		}
		if simulate {
			return 0
		}
		if b.stored.CompareAndSwap(cur, saturate(rest)) {
			return amount
		}
	}
}

// addClamped returns min(cur+amount, capacity) without int32 wraparound.
func addClamped(cur, amount, capacity int32) int32 {
	sum := int64(cur) + int64(amount)
	if sum > int64(capacity) {
		return capacity
	}
	return saturate(sum)
}

func saturate(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}
