// Package storage provides the storage adapter for collection documents.
// Supports file and in-memory backends.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"billing-fixtures/core/collection"
	"billing-fixtures/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
)

// Store is the storage interface
type Store interface {
	// Load reads a collection by name
	Load(ctx context.Context, name string) (*collection.Collection, error)

	// Save writes a collection, replacing any previous document
	Save(ctx context.Context, name string, c *collection.Collection) error

	// List returns stored collection names in sorted order
	List(ctx context.Context) ([]string, error)

	// Close closes the store
	Close() error
}

// FileStore is a file-based storage backend. Names are paths relative to
// the base path; absolute names are used as is.
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	if basePath == "" {
		basePath = "."
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "failed to create storage directory", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.basePath, name)
}

func (s *FileStore) Load(ctx context.Context, name string) (*collection.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("collection", name)
		}
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read collection %s", name)
	}
	return collection.Parse(data)
}

// Save writes through a temporary file in the same directory and renames it
// into place, so readers never see a partial document.
func (s *FileStore) Save(ctx context.Context, name string, c *collection.Collection) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dest := s.path(name)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to create collection directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to create temporary file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.TypeInternal, "failed to write collection", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to write collection", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to set collection permissions", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return errors.Wrap(errors.TypeInternal, fmt.Sprintf("failed to replace %s", dest), err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return nil
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Close() error {
	return nil
}

// MemoryStore is an in-memory storage backend (for testing). Documents are
// kept encoded, so callers never share memory with the store.
type MemoryStore struct {
	docs map[string][]byte
	mu   sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string][]byte),
	}
}

func (s *MemoryStore) Load(ctx context.Context, name string) (*collection.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[name]
	if !ok {
		return nil, errors.NotFound("collection", name)
	}
	return collection.Parse(data)
}

func (s *MemoryStore) Save(ctx context.Context, name string, c *collection.Collection) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = data
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Bytes returns the stored document as written
func (s *MemoryStore) Bytes(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[name]
	return data, ok
}

func (s *MemoryStore) Close() error {
	return nil
}

// StoreFactory creates stores by backend type
func StoreFactory(backend Backend, config map[string]string) (Store, error) {
	switch backend {
	case BackendFile:
		return NewFileStore(config["path"])
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported backend: %s", backend)
	}
}

// Ensure interfaces are implemented
var _ io.Closer = (*FileStore)(nil)
var _ io.Closer = (*MemoryStore)(nil)
var _ Store = (*FileStore)(nil)
var _ Store = (*MemoryStore)(nil)
