package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrEmptyPath is returned when a document path is blank.
	ErrEmptyPath = errors.New("document path must not be empty")
)

// Reader loads raw configuration documents.
type Reader interface {
	Read(path string) ([]byte, error)
	Exists(path string) bool
}

// Writer persists raw configuration documents.
type Writer interface {
	Write(path string, data []byte) error
}

// Store combines read and write access to configuration documents.
type Store interface {
	Reader
	Writer
}

// FileStore reads and writes documents on the local filesystem.
type FileStore struct {
	perm os.FileMode
}

// NewFileStore returns a Store backed by the local filesystem.
func NewFileStore() *FileStore {
	return &FileStore{perm: 0o644}
}

// Read returns the file contents, mapping a missing file to ErrNotFound.
func (s *FileStore) Read(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether path names an existing regular file.
func (s *FileStore) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Write replaces the file at path, creating parent directories as needed.
func (s *FileStore) Write(path string, data []byte) error {
	if path == "" {
		return ErrEmptyPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, s.perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MemoryStore keeps documents in-memory and guards access with a RWMutex.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string][]byte
	writeErr error
}

// NewMemoryStore initialises an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// FailWrites makes every subsequent Write return err. Passing nil restores writes.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// Read returns a defensive copy of the stored document.
func (s *MemoryStore) Read(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return clone(data), nil
}

// Exists reports whether a document is stored under path.
func (s *MemoryStore) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[path]
	return ok
}

// Write stores a copy of data under path.
func (s *MemoryStore) Write(path string, data []byte) error {
	if path == "" {
		return ErrEmptyPath
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}
	s.docs[path] = clone(data)
	return nil
}

func clone(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	return out
}
