// Package migrations embeds the SQL schema for the block data store.
//
// The files are compiled into the binary, so a fresh install needs no SQL on
// disk. Pass FS to database.DB.Migrate.
package migrations

import "embed"

// FS holds every *.sql migration at its root.
//
//go:embed *.sql
var FS embed.FS
