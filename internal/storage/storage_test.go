package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileStore_BytesRoundtrip(t *testing.T) {
	t.Parallel()

	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "dir"))

	if err := s.WriteBytes("entries", []byte{0x28, 0xb5, 0x2f, 0xfd}); err != nil {
		t.Fatalf("WriteBytes failed: %v", err)
	}

	got, err := s.ReadBytes("entries")
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if string(got) != "\x28\xb5\x2f\xfd" {
		t.Errorf("ReadBytes = %x, want 28b52ffd", got)
	}
}

func TestFileStore_StringRoundtrip(t *testing.T) {
	t.Parallel()

	s := NewFileStore(t.TempDir())

	if err := s.WriteString("saved_at", "1700000000000"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	got, err := s.ReadString("saved_at")
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if got != "1700000000000" {
		t.Errorf("ReadString = %q, want %q", got, "1700000000000")
	}
}

func TestFileStore_ReadMissing(t *testing.T) {
	t.Parallel()

	s := NewFileStore(t.TempDir())

	_, err := s.ReadBytes("nothing")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestFileStore_DeleteIdempotent(t *testing.T) {
	t.Parallel()

	s := NewFileStore(t.TempDir())

	if err := s.WriteString("version", "abc"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Delete("version"); err != nil {
			t.Fatalf("Delete #%d failed: %v", i+1, err)
		}
	}
	if _, err := s.ReadString("version"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist after delete, got %v", err)
	}
}

func TestFileStore_InvalidKey(t *testing.T) {
	t.Parallel()

	s := NewFileStore(t.TempDir())

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := s.WriteBytes(key, nil); err == nil {
			t.Errorf("WriteBytes(%q) expected error", key)
		}
	}
}

func TestFileStore_Atomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewFileStore(dir)

	if err := s.WriteString("k", "1"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	if err := s.WriteString("k", "2"); err != nil {
		t.Fatalf("WriteString overwrite failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "k.tmp")); err == nil {
		t.Error("temp file should not exist after successful write")
	}
	if got, _ := s.ReadString("k"); got != "2" {
		t.Errorf("ReadString = %q, want 2", got)
	}
}

func TestSaveLoadJSON_Roundtrip(t *testing.T) {
	t.Parallel()

	type Data struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	for name, s := range map[string]Store{
		"file":   NewFileStore(t.TempDir()),
		"memory": NewMemory(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			original := Data{Name: "test", Count: 42}
			if err := SaveJSON(s, "data", original); err != nil {
				t.Fatalf("SaveJSON failed: %v", err)
			}
			var loaded Data
			if err := LoadJSON(s, "data", &loaded); err != nil {
				t.Fatalf("LoadJSON failed: %v", err)
			}
			if loaded != original {
				t.Errorf("roundtrip mismatch: got %+v, want %+v", loaded, original)
			}
		})
	}
}

func TestSaveJSON_MarshalError(t *testing.T) {
	t.Parallel()

	// Channels can't be marshaled to JSON
	if err := SaveJSON(NewMemory(), "bad", make(chan int)); err == nil {
		t.Fatal("expected error for unmarshalable data, got nil")
	}
}

func TestLoadJSON_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	_ = s.WriteBytes("invalid", []byte(`{not valid json}`))

	var data map[string]any
	if err := LoadJSON(s, "invalid", &data); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestMemory_CopiesData(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	buf := []byte("abc")
	_ = s.WriteBytes("k", buf)
	buf[0] = 'x'

	got, _ := s.ReadBytes("k")
	if string(got) != "abc" {
		t.Errorf("stored value changed through caller's slice: %q", got)
	}
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	t.Parallel()

	lock := NewFileLock(filepath.Join(t.TempDir(), "never-locked.lock"))
	if err := lock.Unlock(); err != nil {
		t.Errorf("Unlock() without Lock() should not error, got %v", err)
	}
}

func TestFileLock_DoubleUnlock(t *testing.T) {
	t.Parallel()

	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))
	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("first Unlock() error = %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Errorf("second Unlock() should not error, got %v", err)
	}
}

func TestWithLock_Serializes(t *testing.T) {
	t.Parallel()

	for name, s := range map[string]Store{
		"file":   NewFileStore(t.TempDir()),
		"memory": NewMemory(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var mu sync.Mutex
			inside := 0
			maxInside := 0
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := WithLock(s, func() error {
						mu.Lock()
						inside++
						maxInside = max(maxInside, inside)
						mu.Unlock()

						time.Sleep(10 * time.Millisecond)

						mu.Lock()
						inside--
						mu.Unlock()
						return nil
					})
					if err != nil {
						t.Errorf("WithLock error = %v", err)
					}
				}()
			}
			wg.Wait()

			if maxInside != 1 {
				t.Errorf("max concurrent holders = %d, want 1", maxInside)
			}
		})
	}
}
