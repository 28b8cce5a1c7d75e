// Package snapshot caches the last rebuilt state in a local SQLite file so
// interactive front ends can skip a full replay when nothing changed. The
// cache is strictly a performance hint: it is keyed by a fingerprint of the
// live log (op count and max seq) and is discarded on any mismatch. Deleting
// the database file never changes observable behavior; the op log remains
// the only source of truth.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/gitkan/gitkan/internal/state"
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup. A single-row table is enough: the cache
// only ever holds the most recent rebuild.
const schema = `
CREATE TABLE IF NOT EXISTS snapshot (
    id                  INTEGER PRIMARY KEY CHECK (id = 1),
    applied_through_seq INTEGER NOT NULL,
    op_count            INTEGER NOT NULL,
    state_json          TEXT NOT NULL,
    conflicts_json      TEXT NOT NULL,
    saved_at            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Cache is a SQLite-backed snapshot of the last rebuild.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at dbPath, enables WAL mode
// and a busy timeout, and creates the schema if absent.
func Open(ctx context.Context, dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open database: %w", err)
	}

	// One connection: SQLite has a single writer, and one connection avoids
	// SQLITE_BUSY contention between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: create schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Save stores the rebuild result along with the log fingerprint it was
// computed from.
func (c *Cache) Save(ctx context.Context, res state.Result, opCount int) error {
	stateJSON, err := json.Marshal(res.State)
	if err != nil {
		return fmt.Errorf("snapshot: marshal state: %w", err)
	}
	conflictsJSON, err := json.Marshal(res.Conflicts)
	if err != nil {
		return fmt.Errorf("snapshot: marshal conflicts: %w", err)
	}
	const q = `
		INSERT INTO snapshot (id, applied_through_seq, op_count, state_json, conflicts_json, saved_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			applied_through_seq = excluded.applied_through_seq,
			op_count            = excluded.op_count,
			state_json          = excluded.state_json,
			conflicts_json      = excluded.conflicts_json,
			saved_at            = CURRENT_TIMESTAMP`
	if _, err := c.db.ExecContext(ctx, q, res.AppliedThroughSeq, opCount, string(stateJSON), string(conflictsJSON)); err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

// Load returns the cached rebuild if its fingerprint matches the live log's
// max seq and op count. On any mismatch the stale row is discarded and
// ok is false; the caller rebuilds from the log as usual.
func (c *Cache) Load(ctx context.Context, liveMaxSeq int64, liveOpCount int) (res state.Result, ok bool, err error) {
	var (
		seq                      int64
		opCount                  int
		stateJSON, conflictsJSON string
	)
	row := c.db.QueryRowContext(ctx,
		"SELECT applied_through_seq, op_count, state_json, conflicts_json FROM snapshot WHERE id = 1")
	if err := row.Scan(&seq, &opCount, &stateJSON, &conflictsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.Result{}, false, nil
		}
		return state.Result{}, false, fmt.Errorf("snapshot: load: %w", err)
	}

	if seq != liveMaxSeq || opCount != liveOpCount {
		if err := c.Discard(ctx); err != nil {
			return state.Result{}, false, err
		}
		return state.Result{}, false, nil
	}

	var st state.State
	if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
		// A corrupt cache row is not an error; drop it and rebuild.
		if err := c.Discard(ctx); err != nil {
			return state.Result{}, false, err
		}
		return state.Result{}, false, nil
	}
	var conflicts []state.Conflict
	if err := json.Unmarshal([]byte(conflictsJSON), &conflicts); err != nil {
		if err := c.Discard(ctx); err != nil {
			return state.Result{}, false, err
		}
		return state.Result{}, false, nil
	}
	return state.Result{State: &st, AppliedThroughSeq: seq, Conflicts: conflicts}, true, nil
}

// Discard drops the cached snapshot.
func (c *Cache) Discard(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM snapshot WHERE id = 1"); err != nil {
		return fmt.Errorf("snapshot: discard: %w", err)
	}
	return nil
}

// Close releases database resources.
func (c *Cache) Close() error {
	return c.db.Close()
}
