package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauern/skillhub/internal/hashing"
)

const (
	// BlobDirPerm is the permission for blob directories (rwxr-x---)
	BlobDirPerm = 0o750
	// BlobFilePerm is the permission for blob files (rw-r-----)
	BlobFilePerm = 0o640
)

// ErrBlobNotFound is returned when a storage id has no bytes behind it.
var ErrBlobNotFound = errors.New("blob not found")

// Blobs stores uploaded file bytes by storage id.
type Blobs interface {
	Put(id string, data []byte) error
	Get(id string) ([]byte, error)
}

// MemoryBlobs keeps blobs in memory.
type MemoryBlobs struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobs creates an empty in-memory blob store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: make(map[string][]byte)}
}

// Put stores a copy of data under id.
func (m *MemoryBlobs) Put(id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = append([]byte(nil), data...)
	return nil
}

// Get returns the bytes stored under id.
func (m *MemoryBlobs) Get(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, id)
	}
	return data, nil
}

// DiskBlobs stores each blob as a file named by its storage id, with a
// sidecar digest used to detect corruption on read.
type DiskBlobs struct {
	dir string
}

// NewDiskBlobs creates the blob directory if needed.
func NewDiskBlobs(dir string) (*DiskBlobs, error) {
	if err := os.MkdirAll(dir, BlobDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &DiskBlobs{dir: dir}, nil
}

// Put writes data under id.
func (d *DiskBlobs) Put(id string, data []byte) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := os.WriteFile(d.path(id), data, BlobFilePerm); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.WriteFile(d.path(id)+".sha256", []byte(hashing.Bytes(data)), BlobFilePerm); err != nil {
		return fmt.Errorf("failed to write blob digest: %w", err)
	}
	return nil
}

// Get reads the blob stored under id and verifies its digest.
func (d *DiskBlobs) Get(id string) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	// #nosec G304 - id is validated to a single path element
	data, err := os.ReadFile(d.path(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	// #nosec G304 - id is validated to a single path element
	want, err := os.ReadFile(d.path(id) + ".sha256")
	if err == nil && string(want) != hashing.Bytes(data) {
		return nil, fmt.Errorf("blob %s corrupted: hash mismatch", id)
	}
	return data, nil
}

func (d *DiskBlobs) path(id string) string {
	return filepath.Join(d.dir, id)
}

func validID(id string) error {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return fmt.Errorf("invalid storage id %q", id)
	}
	return nil
}
