package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauern/skillhub/internal/model"
)

// Metadata describes one folder backup.
type Metadata struct {
	ID          string            `json:"id"`   // Unique backup identifier (timestamp-based)
	Slug        string            `json:"slug"` // Skill the folder held
	Version     string            `json:"version,omitempty"`
	SourcePath  string            `json:"source_path"` // Folder that was backed up
	BackupPath  string            `json:"backup_path"` // Directory holding the copy
	CreatedAt   time.Time         `json:"created_at"`
	Hash        model.ContentHash `json:"hash"` // Content hash of the text files
	Files       int               `json:"files"`
	Size        int64             `json:"size"`
	Description string            `json:"description,omitempty"`
}

// Index maintains an index of all backups
type Index struct {
	Version string              `json:"version"`
	Updated time.Time           `json:"updated"`
	Backups map[string]Metadata `json:"backups"` // Key: backup ID
}

const (
	// IndexVersion is the current version of the backup index format
	IndexVersion = "1.0"
	// IndexFilename is the name of the index file
	IndexFilename = "index.json"
)

// LoadIndex loads the backup index stored in dir. A missing index is empty.
func LoadIndex(dir string) (*Index, error) {
	indexPath := filepath.Join(dir, IndexFilename)

	// #nosec G304 - indexPath is constructed from the configured backups directory
	data, err := os.ReadFile(indexPath)
	if os.IsNotExist(err) {
		return &Index{
			Version: IndexVersion,
			Updated: time.Now(),
			Backups: make(map[string]Metadata),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}
	if index.Backups == nil {
		index.Backups = make(map[string]Metadata)
	}
	return &index, nil
}

// SaveIndex writes the backup index into dir.
func SaveIndex(dir string, index *Index) error {
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("failed to create backups directory: %w", err)
	}

	index.Updated = time.Now()

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	// #nosec G306 - index.json is metadata and can be group-readable
	if err := os.WriteFile(filepath.Join(dir, IndexFilename), data, FilePerm); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	return nil
}

// List returns the backups for slug, or all backups when slug is empty,
// newest first.
func (idx *Index) List(slug string) []Metadata {
	backups := make([]Metadata, 0, len(idx.Backups))
	for _, b := range idx.Backups {
		if slug == "" || b.Slug == slug {
			backups = append(backups, b)
		}
	}
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].ID > backups[j].ID
	})
	return backups
}
