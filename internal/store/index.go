package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauern/skillhub/internal/model"
)

const (
	// IndexVersion is the current version of the index format
	IndexVersion = "1.0"
	// IndexFilename is the name of the index file inside the data directory
	IndexFilename = "index.json"
)

// Index is the persisted form of the registry's skill records.
type Index struct {
	Version string         `json:"version"`
	Updated time.Time      `json:"updated"`
	Skills  []indexedSkill `json:"skills"`
}

// indexedSkill carries the fields a SkillRecord hides from API responses.
type indexedSkill struct {
	model.SkillRecord
	OwnerID  string               `json:"ownerId"`
	Deleted  bool                 `json:"deleted"`
	Versions []model.SkillVersion `json:"versions"`
}

// LoadIndex reads the index from dir. A missing index yields an empty one.
func LoadIndex(dir string) (*Index, error) {
	indexPath := filepath.Join(dir, IndexFilename)

	// #nosec G304 - indexPath is built from the configured data directory
	data, err := os.ReadFile(indexPath)
	if os.IsNotExist(err) {
		return &Index{Version: IndexVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}
	if index.Version != IndexVersion {
		return nil, fmt.Errorf("unsupported index version %q", index.Version)
	}
	return &index, nil
}

// SaveIndex writes the index to dir.
func SaveIndex(dir string, index *Index) error {
	if err := os.MkdirAll(dir, BlobDirPerm); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	index.Version = IndexVersion
	index.Updated = time.Now().UTC()

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	// Written beside the index and renamed into place.
	indexPath := filepath.Join(dir, IndexFilename)
	tmp := indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, BlobFilePerm); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := os.Rename(tmp, indexPath); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Records converts the index into skill records keyed by slug.
func (idx *Index) Records() map[string]*model.SkillRecord {
	records := make(map[string]*model.SkillRecord, len(idx.Skills))
	for _, s := range idx.Skills {
		rec := s.SkillRecord
		rec.OwnerID = s.OwnerID
		rec.Deleted = s.Deleted
		rec.Versions = s.Versions
		records[rec.Slug] = &rec
	}
	return records
}

// indexFromRecords builds an index sorted by slug.
func indexFromRecords(records map[string]*model.SkillRecord) *Index {
	index := &Index{Version: IndexVersion, Skills: make([]indexedSkill, 0, len(records))}
	for _, rec := range records {
		index.Skills = append(index.Skills, indexedSkill{
			SkillRecord: *rec,
			OwnerID:     rec.OwnerID,
			Deleted:     rec.Deleted,
			Versions:    rec.Versions,
		})
	}
	sort.Slice(index.Skills, func(i, j int) bool {
		return index.Skills[i].Slug < index.Skills[j].Slug
	})
	return index
}
