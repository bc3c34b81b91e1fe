package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/evently/evently-auth/internal/utils"
)

// FileStorage keeps values in a JSON document on disk.
//
// Every mutation rewrites the whole document into a temp file in the same
// directory and renames it over the original, so readers in this or any
// other process see either the old or the new document. Mutations also hold
// an advisory lock on "<path>.lock" so two processes sharing the document
// never overwrite each other's changes.
type FileStorage struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	closed bool
}

// NewFileStorage opens (or prepares to create) the document at path.
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("file storage: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("file storage: creating directory: %w", err)
	}
	return &FileStorage{path: path, lock: flock.New(path + ".lock")}, nil
}

func (f *FileStorage) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}
	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStorage) Set(values map[string]string) error {
	return f.update(func(doc map[string]string) bool {
		for k, v := range values {
			doc[k] = v
		}
		return len(values) > 0
	})
}

func (f *FileStorage) Delete(keys ...string) error {
	return f.update(func(doc map[string]string) bool {
		changed := false
		for _, k := range keys {
			if _, ok := doc[k]; ok {
				delete(doc, k)
				changed = true
			}
		}
		return changed
	})
}

func (f *FileStorage) Take(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := f.update(func(doc map[string]string) bool {
		value, found = doc[key]
		delete(doc, key)
		return found
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

func (f *FileStorage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.lock.Close()
}

// update loads the document, applies fn and writes it back if fn reports a change.
func (f *FileStorage) update(fn func(doc map[string]string) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("file storage: locking %s: %w", f.path, err)
	}
	defer func() { _ = f.lock.Unlock() }()

	doc, err := f.load()
	if err != nil {
		return err
	}
	if !fn(doc) {
		return nil
	}
	return f.save(doc)
}

func (f *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path) // #nosec G304 -- path comes from config
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("file storage: reading %s: %w", f.path, err)
	}

	doc := make(map[string]string)
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("file storage: parsing %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileStorage) save(doc map[string]string) error {
	data, err := utils.MarshalNoEscape(doc, true)
	if err != nil {
		return fmt.Errorf("file storage: encoding: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("file storage: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file storage: writing: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file storage: syncing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file storage: closing: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("file storage: chmod: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("file storage: replacing %s: %w", f.path, err)
	}
	return nil
}
