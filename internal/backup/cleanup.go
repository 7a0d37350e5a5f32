package backup

import (
	"fmt"
	"time"
)

// CleanupOptions configures backup cleanup behavior
type CleanupOptions struct {
	// MaxBackups limits the number of backups to keep per slug (0 = unlimited)
	MaxBackups int

	// MaxAge is the maximum age of backups to keep (0 = unlimited)
	MaxAge time.Duration

	// KeepAtLeastOne keeps the newest backup of every slug
	KeepAtLeastOne bool

	// Slug limits cleanup to one skill (empty = all skills)
	Slug string

	// DryRun reports what would be deleted without deleting
	DryRun bool
}

// DefaultCleanupOptions returns the retention applied after each install.
func DefaultCleanupOptions() CleanupOptions {
	return CleanupOptions{
		MaxBackups:     10,
		MaxAge:         30 * 24 * time.Hour,
		KeepAtLeastOne: true,
	}
}

// Cleanup removes old backups and returns the IDs it removed, or would
// remove in dry-run mode.
func (m *Manager) Cleanup(opts CleanupOptions) ([]string, error) {
	index, err := LoadIndex(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}

	groups := make(map[string][]Metadata)
	for _, b := range index.List(opts.Slug) {
		groups[b.Slug] = append(groups[b.Slug], b)
	}

	var toDelete []string
	now := m.now()
	for _, backups := range groups {
		for i, b := range backups {
			if opts.KeepAtLeastOne && i == 0 {
				continue
			}
			expired := opts.MaxAge > 0 && now.Sub(b.CreatedAt) > opts.MaxAge
			overLimit := opts.MaxBackups > 0 && i >= opts.MaxBackups
			if expired || overLimit {
				toDelete = append(toDelete, b.ID)
			}
		}
	}

	if opts.DryRun {
		return toDelete, nil
	}

	var deleted []string
	for _, id := range toDelete {
		if err := m.Delete(id); err != nil {
			return deleted, fmt.Errorf("failed to delete backup %q: %w", id, err)
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// Stats contains statistics about backups
type Stats struct {
	TotalBackups int
	TotalSize    int64
	BySlug       map[string]int
	OldestBackup time.Time
	NewestBackup time.Time
}

// Stats summarizes the stored backups.
func (m *Manager) Stats() (*Stats, error) {
	index, err := LoadIndex(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}

	stats := &Stats{
		TotalBackups: len(index.Backups),
		BySlug:       make(map[string]int),
	}
	for _, b := range index.Backups {
		stats.TotalSize += b.Size
		stats.BySlug[b.Slug]++
		if stats.OldestBackup.IsZero() || b.CreatedAt.Before(stats.OldestBackup) {
			stats.OldestBackup = b.CreatedAt
		}
		if b.CreatedAt.After(stats.NewestBackup) {
			stats.NewestBackup = b.CreatedAt
		}
	}
	return stats, nil
}
