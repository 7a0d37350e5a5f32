package server

//go:generate mockgen -source=capabilities.go -destination=mocks/mock_capabilities.go -package=mocks

import (
	"context"

	"github.com/klauern/skillhub/internal/archive"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/registry"
	"github.com/klauern/skillhub/internal/resolver"
)

// Queries are the read-only operations handlers run against the registry.
type Queries interface {
	// GetSkill returns a live skill. Unknown or deleted slugs are NotFound.
	GetSkill(ctx context.Context, slug string) (*registry.SkillLookup, error)

	// ResolveVersion matches a content hash against the skill's history.
	ResolveVersion(ctx context.Context, slug, hash string) (resolver.Resolution, error)

	// Search ranks skills against a text query.
	Search(ctx context.Context, query string, opts registry.SearchOptions) ([]registry.SearchResult, error)

	// Bundle returns a version and its file contents. An empty version means latest.
	Bundle(ctx context.Context, slug, version string) (model.SkillVersion, []archive.File, error)
}

// Mutations change registry state on behalf of an authenticated user.
type Mutations interface {
	Publish(ctx context.Context, user model.User, req registry.PublishRequest) (registry.PublishResponse, error)
	SetDeleted(ctx context.Context, user model.User, slug string, deleted bool) error
}

// Actions handle blob transport.
type Actions interface {
	// IssueUploadToken returns a token that accepts every file of one bundle.
	IssueUploadToken(ctx context.Context, user model.User) (string, error)

	// StoreUpload saves the bytes posted to an upload token and returns a storage id.
	StoreUpload(ctx context.Context, token string, data []byte) (string, error)
}

// Authenticator maps a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}
