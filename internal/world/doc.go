// Package world defines block coordinates and faces.
//
// A Location is a comparable value (world identifier plus integer block
// coordinates) and is used directly as a map key by the capability
// registries. A Direction names one of the six faces of a block.
package world
