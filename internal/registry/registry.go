// Package registry is the network boundary between the CLI and a skill
// registry. The sync engine and publisher depend only on the Client
// interface; HTTPClient speaks the registry's JSON API.
package registry

import (
	"context"
	"time"

	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/resolver"
)

// Client is the set of registry operations the CLI needs.
type Client interface {
	// GetSkill looks up a skill by slug. An unknown slug is not an error:
	// the returned lookup has every field nil.
	GetSkill(ctx context.Context, slug string) (*SkillLookup, error)

	// Resolve finds the version of slug whose content hash equals hash.
	Resolve(ctx context.Context, slug, hash string) (resolver.Resolution, error)

	// Whoami returns the user the client's token belongs to.
	Whoami(ctx context.Context) (model.User, error)

	// UploadURL issues a URL that file bytes can be posted to.
	UploadURL(ctx context.Context) (string, error)

	// Upload posts data to an upload URL and returns its storage id.
	Upload(ctx context.Context, uploadURL string, data []byte) (string, error)

	// Publish registers a new version from already uploaded files.
	Publish(ctx context.Context, req PublishRequest) (PublishResponse, error)

	// SetDeleted soft deletes or restores a skill.
	SetDeleted(ctx context.Context, slug string, deleted bool) error

	// Search runs a text query against the registry.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)

	// Download fetches a gzip tarball of one version. An empty version
	// means the latest one.
	Download(ctx context.Context, slug, version string) ([]byte, error)
}

// SkillLookup is the response of GET /api/skill.
type SkillLookup struct {
	Skill         *model.SkillRecord  `json:"skill"`
	LatestVersion *model.SkillVersion `json:"latestVersion"`
	Owner         *model.Owner        `json:"owner"`
}

// Exists reports whether the registry knows the skill.
func (l *SkillLookup) Exists() bool {
	return l != nil && l.Skill != nil
}

// PublishFile is one manifest entry in a publish request.
type PublishFile struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	StorageID string `json:"storageId"`
	SHA256    string `json:"sha256"`
}

// PublishRequest is the body of POST /api/cli/publish.
type PublishRequest struct {
	Slug        string        `json:"slug"`
	DisplayName string        `json:"displayName"`
	Version     string        `json:"version"`
	Changelog   string        `json:"changelog"`
	Tags        []string      `json:"tags,omitempty"`
	Files       []PublishFile `json:"files"`
}

// Manifest converts the request files into a model manifest.
func (r PublishRequest) Manifest() model.Manifest {
	m := make(model.Manifest, 0, len(r.Files))
	for _, f := range r.Files {
		m = append(m, model.FileEntry{Path: f.Path, SHA256: f.SHA256, Size: f.Size, StorageID: f.StorageID})
	}
	return m
}

// PublishResponse is the success body of POST /api/cli/publish.
type PublishResponse struct {
	OK        bool   `json:"ok"`
	SkillID   string `json:"skillId"`
	VersionID string `json:"versionId"`
}

// SearchOptions narrows a search.
type SearchOptions struct {
	Limit        int
	ApprovedOnly bool
}

// SearchResult is one hit of GET /api/search.
type SearchResult struct {
	Score       float64   `json:"score"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"displayName"`
	Summary     string    `json:"summary,omitempty"`
	Version     string    `json:"version,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WellKnown is the discovery document served under /.well-known/.
type WellKnown struct {
	Registry string `json:"registry"`
	AuthBase string `json:"authBase,omitempty"`
}

// ErrorBody is the JSON error envelope returned by the registry.
type ErrorBody struct {
	Error string `json:"error"`
}
