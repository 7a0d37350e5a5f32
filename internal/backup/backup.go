// Package backup snapshots skill folders before they are overwritten and
// restores them on request.
package backup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/klauern/skillhub/internal/scan"
	"github.com/klauern/skillhub/internal/util"
)

const (
	// DirPerm is the permission for backup directories (rwxr-x---)
	DirPerm = 0o750
	// FilePerm is the permission for backup files (rw-r-----)
	FilePerm = 0o640
)

// Options describes the folder being backed up.
type Options struct {
	Slug        string
	Version     string
	Description string
}

// Manager stores folder backups and their index under one directory.
type Manager struct {
	dir string
	now func() time.Time
}

// New returns a manager rooted at dir. An empty dir uses ~/.skillhub/backups.
func New(dir string) *Manager {
	if dir == "" {
		dir = util.SkillhubBackupsPath()
	}
	return &Manager{dir: dir, now: time.Now}
}

// Dir returns the directory holding the backups.
func (m *Manager) Dir() string {
	return m.dir
}

// Folder copies every regular file under source into a new backup.
func (m *Manager) Folder(source string, opts Options) (*Metadata, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source path %q: %w", source, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", source)
	}

	_, hash, err := scan.HashFolder(source)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %q: %w", source, err)
	}

	slug := opts.Slug
	if slug == "" {
		slug = filepath.Base(source)
	}

	now := m.now()
	id := now.Format("20060102-150405-") + uuid.NewString()[:8]
	dest := filepath.Join(m.dir, slug, id)

	files, size, err := copyTree(source, dest)
	if err != nil {
		_ = os.RemoveAll(dest)
		return nil, err
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	metadata := &Metadata{
		ID:          id,
		Slug:        slug,
		Version:     opts.Version,
		SourcePath:  abs,
		BackupPath:  dest,
		CreatedAt:   now,
		Hash:        hash,
		Files:       files,
		Size:        size,
		Description: opts.Description,
	}

	index, err := LoadIndex(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}
	index.Backups[id] = *metadata
	if err := SaveIndex(m.dir, index); err != nil {
		return nil, err
	}
	return metadata, nil
}

// Get returns the metadata of one backup.
func (m *Manager) Get(id string) (Metadata, error) {
	index, err := LoadIndex(m.dir)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to load backup index: %w", err)
	}
	metadata, ok := index.Backups[id]
	if !ok {
		return Metadata{}, fmt.Errorf("backup %q not found", id)
	}
	return metadata, nil
}

// List returns the backups of slug, or every backup when slug is empty,
// newest first.
func (m *Manager) List(slug string) ([]Metadata, error) {
	index, err := LoadIndex(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}
	return index.List(slug), nil
}

// Verify checks that a backup still hashes to the recorded content hash.
func (m *Manager) Verify(id string) error {
	metadata, err := m.Get(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(metadata.BackupPath); err != nil {
		return fmt.Errorf("backup directory missing: %s", metadata.BackupPath)
	}
	_, hash, err := scan.HashFolder(metadata.BackupPath)
	if err != nil {
		return fmt.Errorf("failed to hash backup: %w", err)
	}
	if hash != metadata.Hash {
		return fmt.Errorf("backup corrupted: hash mismatch (expected %s, got %s)", metadata.Hash.Short(), hash.Short())
	}
	return nil
}

// Restore verifies a backup and copies it to target, replacing whatever is
// there. An empty target restores to the original folder.
func (m *Manager) Restore(id, target string) (Metadata, error) {
	metadata, err := m.Get(id)
	if err != nil {
		return Metadata{}, err
	}
	if err := m.Verify(id); err != nil {
		return Metadata{}, err
	}
	if target == "" {
		target = metadata.SourcePath
	}
	if err := os.RemoveAll(target); err != nil {
		return Metadata{}, fmt.Errorf("failed to clear %s: %w", target, err)
	}
	if _, _, err := copyTree(metadata.BackupPath, target); err != nil {
		return Metadata{}, fmt.Errorf("failed to restore backup: %w", err)
	}
	return metadata, nil
}

// Delete removes a backup and its index entry.
func (m *Manager) Delete(id string) error {
	index, err := LoadIndex(m.dir)
	if err != nil {
		return fmt.Errorf("failed to load backup index: %w", err)
	}
	metadata, ok := index.Backups[id]
	if !ok {
		return fmt.Errorf("backup %q not found", id)
	}
	if err := os.RemoveAll(metadata.BackupPath); err != nil {
		return fmt.Errorf("failed to delete backup directory: %w", err)
	}
	delete(index.Backups, id)
	return SaveIndex(m.dir, index)
}

func copyTree(source, dest string) (int, int64, error) {
	var files int
	var size int64
	err := filepath.WalkDir(source, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, DirPerm)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		// #nosec G304 - p comes from walking the folder being copied
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		if err := os.WriteFile(target, data, FilePerm); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		files++
		size += int64(len(data))
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to copy %s: %w", source, err)
	}
	return files, size, nil
}
