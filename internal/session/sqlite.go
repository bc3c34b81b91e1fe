package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStorage keeps values in a single-table SQLite database.
// Multi-key mutations run inside one transaction.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens the database at path and creates the table if needed.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite storage: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("sqlite storage: creating directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: opening %s: %w", path, err)
	}
	// One connection serialises writers inside this process; the busy
	// timeout covers other processes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("sqlite storage: migrating: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite storage: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(values map[string]string) error {
	return s.inTx(func(tx *sql.Tx) error {
		for k, v := range values {
			_, err := tx.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, k, v)
			if err != nil {
				return fmt.Errorf("sqlite storage: set %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStorage) Delete(keys ...string) error {
	return s.inTx(func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, k); err != nil {
				return fmt.Errorf("sqlite storage: delete %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStorage) Take(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.inTx(func(tx *sql.Tx) error {
		err := tx.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("sqlite storage: take %s: %w", key, err)
		}
		found = true
		if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("sqlite storage: take %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite storage: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite storage: commit: %w", err)
	}
	return nil
}
