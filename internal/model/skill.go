package model

import (
	"regexp"
	"time"
)

// slugPattern matches registry slugs: lowercase alphanumerics separated by single dashes.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// MaxSlugLength bounds the length of a registry slug.
const MaxSlugLength = 64

// IsValidSlug reports whether s is a well-formed registry slug.
func IsValidSlug(s string) bool {
	return len(s) <= MaxSlugLength && slugPattern.MatchString(s)
}

// SkillVersion is one published version of a skill bundle.
type SkillVersion struct {
	ID          string      `json:"id,omitempty"`
	Version     string      `json:"version"`
	ContentHash ContentHash `json:"contentHash,omitempty"`
	Files       Manifest    `json:"files,omitempty"`
	Changelog   string      `json:"changelog"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Stats holds registry counters for a skill.
type Stats struct {
	Downloads int `json:"downloads"`
	Stars     int `json:"stars"`
	Versions  int `json:"versions"`
	Comments  int `json:"comments"`
}

// SkillRecord is the registry's view of a skill and its version history.
// Versions are kept in chronological (publish) order.
type SkillRecord struct {
	ID          string            `json:"id,omitempty"`
	Slug        string            `json:"slug"`
	DisplayName string            `json:"displayName"`
	Summary     string            `json:"summary,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Stats       Stats             `json:"stats"`
	Approved    bool              `json:"approved,omitempty"`
	OwnerID     string            `json:"-"`
	Deleted     bool              `json:"-"`
	Versions    []SkillVersion    `json:"-"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// HasVersion reports whether the exact version tag has already been published.
func (r *SkillRecord) HasVersion(version string) bool {
	for _, v := range r.Versions {
		if v.Version == version {
			return true
		}
	}
	return false
}

// FindVersion returns the version with the given tag.
func (r *SkillRecord) FindVersion(version string) (SkillVersion, bool) {
	for _, v := range r.Versions {
		if v.Version == version {
			return v, true
		}
	}
	return SkillVersion{}, false
}

// Owner is the public profile of the user that owns a skill.
type Owner struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Image       string `json:"image,omitempty"`
}

// User is an authenticated registry account.
type User struct {
	ID          string `json:"id,omitempty"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Owner returns the public profile for u.
func (u User) Owner() Owner {
	return Owner{Handle: u.Handle, DisplayName: u.DisplayName, Image: u.Image}
}

// LocalBundle is a skill folder found on disk during a scan.
type LocalBundle struct {
	Folder      string `json:"folder"`
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
	Summary     string `json:"summary,omitempty"`
}
