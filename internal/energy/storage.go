package energy

import "github.com/nerrad567/blockenergy-core/internal/world"

// Storage is the contract every energy capability satisfies.
//
// Implementations must keep 0 <= Stored() <= Capacity() across every
// mutating method except SetCapacity and Deserialize, which do not clamp.
// Each method must be safe for concurrent use.
type Storage interface {
	// Deserialize overwrites the stored amount and capacity from r and
	// merges r's faces over the current ones. Values are not validated.
	Deserialize(r Record)

	// Serialize snapshots the current state.
	Serialize() Record

	Stored() int32
	Capacity() int32

	// SetCapacity replaces the capacity without clamping the stored amount.
	SetCapacity(capacity int32)

	// Generate adds amount, saturating at Capacity.
	Generate(amount int32)

	// Burn consumes amount. If that would go below zero the store is
	// emptied and Burn returns false.
	Burn(amount int32) bool

	CanExtract(dir world.Direction) bool
	CanReceive(dir world.Direction) bool
	FacePermission(dir world.Direction) IOType
	SetFacePermission(dir world.Direction, t IOType)

	// Receive offers amount through face dir and returns the resulting
	// stored total (not the amount accepted), or 0 if the face refuses
	// input. With simulate set nothing changes.
	Receive(dir world.Direction, amount int32, simulate bool) int32

	// Extract takes amount through face dir and returns what was taken, or
	// 0 if the face refuses output. On a shortfall the store is emptied,
	// even when simulating, and amount minus the previous stored amount is
	// returned (0 if it was already empty).
	Extract(dir world.Direction, amount int32, simulate bool) int32

	// Anchor is the block this capability belongs to.
	Anchor() world.Location
}
