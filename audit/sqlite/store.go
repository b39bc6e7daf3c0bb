// Package sqlite persists audit trails in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/viant/composer/audit"
	_ "modernc.org/sqlite"
)

const migrationV1Entries = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	ts INTEGER NOT NULL,
	action TEXT NOT NULL,
	component_id TEXT,
	level TEXT NOT NULL,
	details TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_execution ON audit_entries(execution_id, id);
`

// Store is an audit.Sink backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating when needed) the database at path and applies
// pending migrations. Use ":memory:" for a process-local database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create audit db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	ret := &Store{db: db, path: path}
	if err := ret.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return ret, nil
}

func (s *Store) migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}
	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Entries},
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// Write implements audit.Sink.
func (s *Store) Write(ctx context.Context, executionID string, entry *audit.Entry) error {
	var details []byte
	if len(entry.Details) > 0 {
		var err error
		if details, err = json.Marshal(entry.Details); err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_entries (execution_id, ts, action, component_id, level, details) VALUES (?, ?, ?, ?, ?, ?)",
		executionID, entry.Timestamp.UnixNano(), string(entry.Action), entry.ComponentID, string(entry.Level), string(details))
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns the entries of an execution in insertion order.
func (s *Store) List(ctx context.Context, executionID string) ([]*audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT ts, action, component_id, level, details FROM audit_entries WHERE execution_id = ? ORDER BY id", executionID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	var ret []*audit.Entry
	for rows.Next() {
		var (
			ts          int64
			action      string
			componentID sql.NullString
			level       string
			details     sql.NullString
		)
		if err := rows.Scan(&ts, &action, &componentID, &level, &details); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry := &audit.Entry{
			Timestamp:   time.Unix(0, ts).UTC(),
			Action:      audit.Action(action),
			ComponentID: componentID.String,
			Level:       audit.Level(level),
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		ret = append(ret, entry)
	}
	return ret, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
