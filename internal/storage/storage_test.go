package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileStore()
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	if store.Exists(path) {
		t.Fatalf("expected %s to be absent", path)
	}
	if err := store.Write(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if !store.Exists(path) {
		t.Fatalf("expected %s to exist after write", path)
	}

	got, err := store.Read(path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"a":1}`)) {
		t.Fatalf("unexpected contents: %s", got)
	}
}

func TestFileStoreReadMissing(t *testing.T) {
	t.Parallel()

	_, err := NewFileStore().Read(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	store := NewFileStore()
	if _, err := store.Read(""); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath from Read, got %v", err)
	}
	if err := store.Write("", nil); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath from Write, got %v", err)
	}
}

func TestFileStoreExistsIgnoresDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if NewFileStore().Exists(filepath.Join(dir, "sub")) {
		t.Fatalf("expected directory not to count as a document")
	}
}

func TestMemoryStoreDefensiveCopies(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	src := []byte("abc")
	if err := store.Write("doc", src); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	src[0] = 'z'

	got, err := store.Read("doc")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("expected stored copy to be isolated, got %s", got)
	}

	got[1] = 'z'
	again, _ := store.Read("doc")
	if string(again) != "abc" {
		t.Fatalf("expected read copy to be isolated, got %s", again)
	}
}

func TestMemoryStoreFailWrites(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	boom := errors.New("disk full")
	store.FailWrites(boom)

	if err := store.Write("doc", []byte("x")); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if store.Exists("doc") {
		t.Fatalf("expected failed write not to store the document")
	}

	store.FailWrites(nil)
	if err := store.Write("doc", []byte("x")); err != nil {
		t.Fatalf("expected write to succeed after reset, got %v", err)
	}
}

func TestMemoryStoreReadMissing(t *testing.T) {
	t.Parallel()

	if _, err := NewMemoryStore().Read("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(offset int) {
			defer wg.Done()
			if err := store.Write("doc", []byte(fmt.Sprintf("%d", offset))); err != nil {
				t.Errorf("Write failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			_ = store.Exists("doc")
		}()
	}

	wg.Wait()

	if _, err := store.Read("doc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
