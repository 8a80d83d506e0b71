// Package storage provides the persistent key/value store appcat keeps in ~/.appcat/.
//
// Each key is one file. Writes go to a temp file that is renamed over the
// final path, so a reader sees either the previous or the new value, never
// a partial one. Two racing writers resolve to "last writer wins".
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotExist is returned by reads of a key that was never written or was deleted.
var ErrNotExist = os.ErrNotExist

// Store is durable key/value storage for byte blobs and short strings.
type Store interface {
	ReadBytes(key string) ([]byte, error)
	WriteBytes(key string, data []byte) error
	ReadString(key string) (string, error)
	WriteString(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// DefaultDir returns the path to ~/.appcat/, creating it if needed
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".appcat")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}

// FileStore keeps one file per key below a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func (s *FileStore) ReadBytes(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *FileStore) WriteBytes(key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func (s *FileStore) ReadString(key string) (string, error) {
	data, err := s.ReadBytes(key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) WriteString(key, value string) error {
	return s.WriteBytes(key, []byte(value+"\n"))
}

func (s *FileStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// writeAtomic ensures the parent directory exists, writes to a temp file,
// then renames to the final path.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// SaveJSON atomically writes data as JSON under key.
func SaveJSON(s Store, key string, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return s.WriteBytes(key, jsonData)
}

// LoadJSON reads JSON stored under key into dest.
// Returns ErrNotExist if the key is missing (caller should handle).
func LoadJSON(s Store, key string, dest any) error {
	data, err := s.ReadBytes(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Memory is an in-process Store, used by tests and --ephemeral runs.
type Memory struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	data    map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) ReadBytes(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) WriteBytes(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) ReadString(key string) (string, error) {
	data, err := m.ReadBytes(key)
	return string(data), err
}

func (m *Memory) WriteString(key, value string) error {
	return m.WriteBytes(key, []byte(value))
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the number of stored keys.
func (m *Memory) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
