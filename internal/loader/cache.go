package loader

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/trellisdata/trellis/internal/dataset"
)

//go:embed schema.sql
var schemaSQL string

// Cache persists the latest snapshot per table between runs, so the engine
// can serve a full store before the remote loader has re-delivered anything.
// Uses SQLite with WAL mode for concurrent read access.
type Cache struct {
	db *sql.DB
}

// OpenCache creates or opens the snapshot cache at the given path. Applies
// required pragmas and the schema automatically; safe to call repeatedly.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Put stores a snapshot, replacing any earlier snapshot for the same table.
func (c *Cache) Put(ctx context.Context, snap Snapshot) error {
	if !dataset.Declared(snap.Table) {
		return fmt.Errorf("cache put: undeclared table %q", snap.Table)
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO snapshots (table_name, ready_at, document, stored_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(table_name) DO UPDATE SET
			ready_at = excluded.ready_at,
			document = excluded.document,
			stored_at = excluded.stored_at`,
		snap.Table,
		snap.ReadyAt.UTC().Format(time.RFC3339Nano),
		string(MarshalJSON(snap)),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("cache put %s: %w", snap.Table, err)
	}
	return nil
}

// Get loads the cached snapshot for a table. The second return is false
// when the table has never been cached.
func (c *Cache) Get(ctx context.Context, table string) (Snapshot, bool, error) {
	var document string
	err := c.db.QueryRowContext(ctx,
		`SELECT document FROM snapshots WHERE table_name = ?`, table,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("cache get %s: %w", table, err)
	}
	snap, err := ParseJSON([]byte(document))
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("cache get %s: %w", table, err)
	}
	return snap, true, nil
}

// Restore replays every cached snapshot into the store, in stable table
// order.
func (c *Cache) Restore(ctx context.Context, store *dataset.Store) (*dataset.Store, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT document FROM snapshots ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("cache restore: %w", err)
	}
	defer rows.Close()

	out := store
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("cache restore: %w", err)
		}
		snap, err := ParseJSON([]byte(document))
		if err != nil {
			return nil, fmt.Errorf("cache restore: %w", err)
		}
		if out, err = Apply(out, snap); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache restore: %w", err)
	}
	return out, nil
}
