// Package sqlite provides SQLite-based persistent storage for Qamqor.
// Uses WAL mode for concurrent reads and crash-safe writes. The single-writer
// connection pool plus conditional UPDATEs give every state transition
// check-and-set semantics; paired task/spec mutations run in one transaction.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations. It implements
// domain.Store.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/qamqor.db.
// Enables WAL mode, foreign keys, and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "qamqor.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations. History lives in per-entity
// tables ordered by autoincrement id, which preserves causal order without
// trusting timestamps.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			contact     TEXT NOT NULL,
			client_id   INTEGER NOT NULL,
			status      TEXT NOT NULL DEFAULT 'new',
			developer   TEXT,
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status_client ON tasks(status, client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status_developer ON tasks(status, developer)`,

		`CREATE TABLE IF NOT EXISTS technical_tasks (
			id          TEXT PRIMARY KEY,
			task_id     TEXT NOT NULL UNIQUE REFERENCES tasks(id),
			description TEXT NOT NULL,
			payment     INTEGER NOT NULL,
			status      TEXT NOT NULL DEFAULT 'new',
			developer   TEXT NOT NULL,
			worker      TEXT,
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_specs_status_worker ON technical_tasks(status, worker)`,

		`CREATE TABLE IF NOT EXISTS task_history (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id   TEXT NOT NULL REFERENCES tasks(id),
			action    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			user      TEXT NOT NULL,
			changes   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_history_task ON task_history(task_id)`,

		`CREATE TABLE IF NOT EXISTS spec_history (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			spec_id   TEXT NOT NULL REFERENCES technical_tasks(id),
			action    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			user      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spec_history_spec ON spec_history(spec_id)`,
	}

	for i, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
