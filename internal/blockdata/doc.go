// Package blockdata is the durable per-block key/value store.
//
// Each block location owns a Container of namespaced keys ("plugin:key"),
// and each key holds either a 32-bit integer or a string-to-string map. The
// host persists the container alongside the world; this service keeps it in
// SQLite through SQLiteStore.
//
// # Semantics
//
// Writes are last-write-wins per key. Save upserts every key present in the
// container and leaves other keys of the same location untouched. There is
// no cross-location transaction.
//
// # Usage
//
//	store := blockdata.NewSQLiteStore(db.DB)
//	c, err := store.Load(ctx, loc)
//	c.SetInt(blockdata.MustKey("blockenergy", "stored_energy"), 100)
//	err = store.Save(ctx, loc, c)
package blockdata
