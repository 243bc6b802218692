package kv

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// FileStore keeps entries as files in a directory, one JSON envelope per
// key, sharded into subdirectories by key hash.
type FileStore struct {
	mu  sync.RWMutex
	dir string
	now func() time.Time
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, storageErr(err, false, "create store dir %s", dir)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// entry wraps stored data with its key and expiry. The key is kept so List
// can recover it from a hashed file name.
type entry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get retrieves a value from the store.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok, err := s.read(s.path(key))
	if err != nil || !ok {
		return nil, false, err
	}
	if e.Key != key {
		// hash collision or foreign file
		return nil, false, nil
	}
	return e.Data, true, nil
}

// read loads one envelope. Corrupt and expired envelopes are removed and
// reported as a miss.
func (s *FileStore) read(path string) (entry, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return entry{}, false, nil
	}
	if err != nil {
		return entry{}, false, storageErr(err, false, "read %s", path)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		_ = os.Remove(path)
		return entry{}, false, nil
	}
	if e.expired(s.now()) {
		_ = os.Remove(path)
		return entry{}, false, nil
	}
	return e, true, nil
}

// Set stores a value.
func (s *FileStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := entry{Key: key, Data: data}
	if ttl > 0 {
		e.ExpiresAt = s.now().Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return storageErr(err, false, "encode entry %q", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return storageErr(err, false, "create shard dir")
	}
	// write-then-rename so a crash never leaves a truncated envelope
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return storageErr(err, false, "write entry %q", key)
	}
	if err := os.Rename(tmp, path); err != nil {
		return storageErr(err, false, "write entry %q", key)
	}
	return nil
}

// Delete removes a value.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return storageErr(err, false, "delete entry %q", key)
}

// List walks every envelope and returns the live keys with the prefix.
func (s *FileStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		e, ok, err := s.read(path)
		if err != nil {
			return err
		}
		if ok && strings.HasPrefix(e.Key, prefix) {
			keys = append(keys, e.Key)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(err, false, "list %s", s.dir)
	}
	slices.Sort(keys)
	return keys, nil
}

// Clear removes every entry.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return storageErr(err, false, "read %s", s.dir)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			return storageErr(err, false, "clear %s", s.dir)
		}
	}
	return nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

// Dir returns the directory holding the entries.
func (s *FileStore) Dir() string { return s.dir }

// path converts a key to a file path: the first two hash characters name
// the shard directory.
func (s *FileStore) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

var _ Store = (*FileStore)(nil)
