package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 3

// FileName is the database file created inside the base directory.
const FileName = "tabscribe.db"

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Init initializes the SQLite database at baseDir/tabscribe.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.tabscribe.
// Init is idempotent: reopening an up-to-date database changes nothing.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migration upgrades the schema by one version inside a transaction.
type migration func(tx *sql.Tx) error

// migrations[i] upgrades from version i to i+1.
// Migrations are additive only: they create tables, columns and indexes
// that are missing and never rewrite or drop existing rows.
var migrations = []migration{
	migrateCards,
	migrateProjects,
	migrateLensCache,
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	for v := version; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if err := migrations[v](tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
	}

	return nil
}

// Migration 0 -> 1: card collection keyed by id with a createdAt index.
func migrateCards(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS cards (
		  id            TEXT PRIMARY KEY,
		  created_at    INTEGER NOT NULL,
		  title         TEXT,
		  url           TEXT,
		  favicon       TEXT,
		  snippet       TEXT NOT NULL DEFAULT '',
		  tags_json     TEXT,
		  badges_json   TEXT,
		  evidence_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_cards_created_at
		ON cards(created_at DESC);
	`)
	return err
}

// Migration 1 -> 2: DOI, projects and the trash lifecycle.
func migrateProjects(tx *sql.Tx) error {
	columns := []struct{ name, decl string }{
		{"doi", "TEXT"},
		{"project_id", "TEXT NOT NULL DEFAULT '" + card.DefaultProjectID + "'"},
		{"deleted_at", "INTEGER"},
	}
	for _, col := range columns {
		if err := addColumnIfMissing(tx, "cards", col.name, col.decl); err != nil {
			return err
		}
	}

	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
		  id         TEXT PRIMARY KEY,
		  name       TEXT NOT NULL,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cards_project_deleted
		ON cards(project_id, deleted_at);

		CREATE INDEX IF NOT EXISTS idx_cards_deleted_at
		ON cards(deleted_at)
		WHERE deleted_at IS NOT NULL;

		CREATE INDEX IF NOT EXISTS idx_cards_doi
		ON cards(doi)
		WHERE doi IS NOT NULL AND doi != '';
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT OR IGNORE INTO projects (id, name, created_at) VALUES (?, ?, ?)`,
		card.DefaultProjectID, card.DefaultProjectName, time.Now().UnixMilli(),
	)
	return err
}

// Migration 2 -> 3: lens result cache.
func migrateLensCache(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS lens_cache (
		  cache_key    TEXT PRIMARY KEY,
		  saved_at     INTEGER NOT NULL,
		  payload_json TEXT NOT NULL
		);
	`)
	return err
}

// addColumnIfMissing adds a column unless the table already has it.
func addColumnIfMissing(tx *sql.Tx, table, column, decl string) error {
	exists, err := columnExists(tx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// columnExists reports whether table has the named column.
func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// TableExists reports whether a table with the given name exists.
func TableExists(ctx context.Context, q Querier, table string) (bool, error) {
	var name string
	err := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// WithTx runs fn inside a transaction, committing on success and rolling back on error.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
