package blockdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/blockenergy-core/internal/world"
)

// Store defines durable block data persistence.
// This abstraction lets the registry run against SQLite in production and
// a mock in unit tests.
type Store interface {
	// Load returns the container for loc. A location with no data yields an
	// empty container, not an error.
	Load(ctx context.Context, loc world.Location) (*Container, error)

	// Save upserts every key of c at loc. Keys not in c are left alone.
	Save(ctx context.Context, loc world.Location, c *Container) error

	// Has reports whether loc holds key k.
	Has(ctx context.Context, loc world.Location, k Key) (bool, error)

	// Each calls fn for every location in w that holds key k, in
	// coordinate order. Iteration stops at the first error from fn.
	Each(ctx context.Context, w world.ID, k Key, fn func(world.Location, *Container) error) error
}

// SQLiteStore implements Store on the block_data table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a store over an open, migrated SQLite connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Load returns every key stored at loc.
func (s *SQLiteStore) Load(ctx context.Context, loc world.Location) (*Container, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, kind, int_value, map_value
		FROM block_data
		WHERE world = ? AND x = ? AND y = ? AND z = ?`,
		string(loc.World), loc.X, loc.Y, loc.Z,
	)
	if err != nil {
		return nil, fmt.Errorf("querying block data at %s: %w", loc, err)
	}
	defer rows.Close()

	c := NewContainer()
	for rows.Next() {
		if err := scanInto(rows, c); err != nil {
			return nil, fmt.Errorf("scanning block data at %s: %w", loc, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating block data at %s: %w", loc, err)
	}
	return c, nil
}

// Save upserts every key of c at loc in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, loc world.Location, c *Container) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO block_data (world, x, y, z, key, kind, int_value, map_value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (world, x, y, z, key) DO UPDATE SET
			kind = excluded.kind,
			int_value = excluded.int_value,
			map_value = excluded.map_value,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	updatedAt := s.now().UTC().Format(time.RFC3339Nano)
	for _, k := range c.Keys() {
		var intValue, mapValue any
		kind, _ := c.KindOf(k)
		switch kind {
		case KindInt:
			v, _ := c.Int(k)
			intValue = int64(v)
		case KindStringMap:
			m, _ := c.StringMap(k)
			data, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("marshalling %s: %w", k, err)
			}
			mapValue = string(data)
		}

		if _, err := stmt.ExecContext(ctx,
			string(loc.World), loc.X, loc.Y, loc.Z,
			k.String(), string(kind), intValue, mapValue, updatedAt,
		); err != nil {
			return fmt.Errorf("saving %s at %s: %w", k, loc, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing block data at %s: %w", loc, err)
	}
	return nil
}

// Has reports whether loc holds key k.
func (s *SQLiteStore) Has(ctx context.Context, loc world.Location, k Key) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM block_data
		WHERE world = ? AND x = ? AND y = ? AND z = ? AND key = ?`,
		string(loc.World), loc.X, loc.Y, loc.Z, k.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s at %s: %w", k, loc, err)
	}
	return true, nil
}

// Each visits every location in w holding k, loading its full container.
func (s *SQLiteStore) Each(ctx context.Context, w world.ID, k Key, fn func(world.Location, *Container) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, z FROM block_data
		WHERE world = ? AND key = ?
		ORDER BY x, y, z`,
		string(w), k.String(),
	)
	if err != nil {
		return fmt.Errorf("listing %s in %s: %w", k, w, err)
	}

	// Collect first: the single pooled connection is busy until rows close.
	var locs []world.Location
	for rows.Next() {
		loc := world.Location{World: w}
		if err := rows.Scan(&loc.X, &loc.Y, &loc.Z); err != nil {
			rows.Close()
			return fmt.Errorf("scanning location: %w", err)
		}
		locs = append(locs, loc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating locations: %w", err)
	}
	rows.Close()

	for _, loc := range locs {
		c, err := s.Load(ctx, loc)
		if err != nil {
			return err
		}
		if err := fn(loc, c); err != nil {
			return err
		}
	}
	return nil
}

func scanInto(rows *sql.Rows, c *Container) error {
	var (
		rawKey   string
		kind     string
		intValue sql.NullInt64
		mapValue sql.NullString
	)
	if err := rows.Scan(&rawKey, &kind, &intValue, &mapValue); err != nil {
		return err
	}

	k, err := ParseKey(rawKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptValue, err)
	}

	switch Kind(kind) {
	case KindInt:
		if !intValue.Valid {
			return fmt.Errorf("%w: %s has no int value", ErrCorruptValue, k)
		}
		c.SetInt(k, int32(intValue.Int64))
	case KindStringMap:
		m := map[string]string{}
		if mapValue.Valid {
			if err := json.Unmarshal([]byte(mapValue.String), &m); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrCorruptValue, k, err)
			}
		}
		c.SetStringMap(k, m)
	default:
		return fmt.Errorf("%w: %s has unknown kind %q", ErrCorruptValue, k, kind)
	}
	return nil
}
