// Package energy defines the energy capability contract and its durable form.
//
// A capability is the live, mutable energy state attached to one block: a
// stored amount, a maximum capacity and an IOType per face. Storage is the
// contract every capability type satisfies; Bank is the standard
// implementation.
//
// # Durable form
//
// Record is an immutable snapshot of a capability, built with RecordBuilder.
// A Codec maps records to and from a blockdata.Container under three
// namespaced keys:
//
//	<ns>:stored_energy   int32
//	<ns>:max_energy      int32
//	<ns>:allowed_faces   map[direction name]IOType name
//
// The presence of <ns>:stored_energy is what makes a location a capability.
//
// # Arithmetic
//
// Every mutating primitive is atomic on the counter it touches. Sequences of
// primitives are not: an extract from one block followed by a receive into
// another can interleave with other callers, and a crash between the two
// loses the energy in transit.
//
// Receive returns the new stored total rather than the amount accepted, and
// Extract on a shortfall empties the block even when simulating. Callers rely
// on both behaviours.
package energy
