// Package capability keeps exactly one live energy capability per block.
//
// # Components
//
//   - Factory builds instances of one capability type through a registered
//     Constructor. There is no reflection: a type that was never registered
//     cannot be built.
//   - Registry is the location-keyed cache for one type. It decides whether a
//     location is a capability (by asking the durable store), materializes
//     instances on first use and writes them back on world save.
//   - Registries owns one Registry per type and fans world lifecycle events
//     out to all of them. It is created once at startup and passed by
//     reference; there is no package-level instance.
//
// # Concurrency
//
// Get is an atomic get-or-materialize per location: concurrent callers for
// one location receive the identical instance and the durable container is
// read once. Different locations never block each other during
// materialization. Nothing is atomic across locations.
//
// # Persistence
//
// Instances are written back in bulk by OnWorldSaved, OnWorldUnloaded and
// SaveAll. The write-back is a best-effort scan: a failure on one location is
// reported and the scan continues, and a crash mid-scan leaves a partial
// flush.
//
// Every registry shares the same durable keys, so a location holding energy
// data is a capability for every registered type. Callers pick the type.
//
// # Usage
//
//	regs := capability.NewRegistries(store, energy.DefaultCodec)
//	banks, err := capability.Standard(regs)
//	bank, created, err := banks.Create(ctx, loc)
//	...
//	n, err := regs.OnWorldSaved(ctx, worldID)
package capability
