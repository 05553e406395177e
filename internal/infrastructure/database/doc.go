// Package database provides SQLite connectivity for blockenergy core.
//
// The database holds the block data store: one row per namespaced key per
// block location. This package only manages the connection and the schema;
// the store itself lives in internal/blockdata.
//
// This package manages:
//   - Database connection with WAL mode for concurrent readers
//   - Versioned schema migrations read from an fs.FS
//   - Connection lifecycle and health checks
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql.
package database
