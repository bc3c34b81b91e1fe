// Package session persists the client's authenticated identity.
//
// FILES:
//   - storage.go: Storage interface, keys and errors
//   - memory.go:  in-memory backend (tests, --session memory)
//   - file.go:    JSON document backend (default)
//   - sqlite.go:  SQLite backend
//   - store.go:   Store, the typed view the flows use
package session

import (
	"errors"
	"fmt"
)

// Persisted keys.
const (
	KeyToken        = "token"
	KeyUser         = "user"
	KeyRedirectFrom = "loginRedirectFrom"
)

// Storage is a persistent string key-value store.
//
// Set and Delete apply all of their keys as one unit: a concurrent reader
// sees either none or all of the change. Take reads and deletes a key in one
// step, so two callers can never both observe the same value.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(values map[string]string) error
	Delete(keys ...string) error
	Take(key string) (string, bool, error)
	Close() error
}

// Errors returned by the session package.
var (
	ErrNoSession  = errors.New("no active session")
	ErrEmptyToken = errors.New("session token is empty")
	ErrEmptyUser  = errors.New("session user is empty")
	ErrClosed     = errors.New("session storage is closed")
)

// Open returns the storage backend named by backend.
// path is ignored by the memory backend.
func Open(backend, path string) (Storage, error) {
	switch backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "file":
		return NewFileStorage(path)
	case "sqlite":
		return NewSQLiteStorage(path)
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}
