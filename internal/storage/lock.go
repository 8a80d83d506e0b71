package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Locker is implemented by stores that can serialize multi-key writes
// across processes.
type Locker interface {
	// Lock blocks until the store is exclusively held and returns the release func.
	Lock() (unlock func(), err error)
}

// WithLock runs fn while holding s's lock, if s supports locking.
func WithLock(s Store, fn func() error) error {
	l, ok := s.(Locker)
	if !ok {
		return fn()
	}
	unlock, err := l.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer unlock()
	return fn()
}

// LockPath returns the path of the lock file guarding a store directory
func LockPath(dir string) string {
	return filepath.Join(dir, ".appcat.lock")
}

// Lock takes the directory-wide flock of the store.
func (s *FileStore) Lock() (func(), error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	lock := NewFileLock(LockPath(s.dir))
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	// Unlock errors are safe to ignore, the fd is closed either way
	return func() { _ = lock.Unlock() }, nil
}

// Lock serializes writers within the process.
func (m *Memory) Lock() (func(), error) {
	m.writeMu.Lock()
	return m.writeMu.Unlock, nil
}

// FileLock provides exclusive file-based locking using flock.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created if it doesn't exist.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Lock acquires an exclusive lock on the file, blocking until it is free.
func (l *FileLock) Lock() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return err
	}

	l.file = f
	return nil
}

// Unlock releases the lock and closes the file. Unlocking twice is a no-op.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
