package duration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is a persistent second tier behind the in-memory cache.
type Store interface {
	Load(ctx context.Context, key Key) (float64, bool, error)
	Save(ctx context.Context, key Key, seconds float64) error
}

const schema = `CREATE TABLE IF NOT EXISTS durations (
	path    TEXT    NOT NULL,
	mtime   INTEGER NOT NULL,
	seconds REAL    NOT NULL,
	PRIMARY KEY (path, mtime)
)`

// SQLiteStore keeps durations in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens or creates the database at dbPath.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open duration cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout=5000", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialise duration cache: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns the stored duration for key.
func (s *SQLiteStore) Load(ctx context.Context, key Key) (float64, bool, error) {
	var seconds float64
	err := s.db.QueryRowContext(ctx,
		`SELECT seconds FROM durations WHERE path = ? AND mtime = ?`,
		key.Path, key.ModTime,
	).Scan(&seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return seconds, true, nil
}

// Save records seconds for key. Older versions of the same path are dropped.
func (s *SQLiteStore) Save(ctx context.Context, key Key, seconds float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM durations WHERE path = ? AND mtime <> ?`, key.Path, key.ModTime); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO durations (path, mtime, seconds) VALUES (?, ?, ?)`,
		key.Path, key.ModTime, seconds,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
