// Package publish uploads one local bundle and registers it as a new
// version in the registry.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/registry"
	"github.com/klauern/skillhub/internal/scan"
)

// DefaultTag is applied when a publish names no tags.
const DefaultTag = "latest"

// Options describes the version to publish.
type Options struct {
	Slug        string
	DisplayName string
	Version     string
	// Changelog may be empty.
	Changelog string
	Tags      []string
	// OnUpload is called after each file upload with the number of files
	// uploaded so far and the total.
	OnUpload func(done, total int)
}

// Result identifies the published version.
type Result struct {
	SkillID   string
	VersionID string
	Files     int
	Hash      model.ContentHash
}

// Publisher drives upload and registration through a registry client.
type Publisher struct {
	client registry.Client
}

// New creates a Publisher.
func New(client registry.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish uploads the text files of folder and publishes them as
// opts.Version of opts.Slug. Input is validated before any network call.
// An auth failure while requesting the upload URL aborts without retry.
func (p *Publisher) Publish(ctx context.Context, folder string, opts Options) (Result, error) {
	slug := strings.TrimSpace(opts.Slug)
	if !model.IsValidSlug(slug) {
		return Result{}, apierr.Validation(fmt.Sprintf("Invalid slug %q", opts.Slug))
	}
	version := strings.TrimSpace(opts.Version)
	if !IsSemver(version) {
		return Result{}, apierr.Validation(fmt.Sprintf("Version must be valid semver: %q", opts.Version))
	}

	files, err := scan.ListTextFiles(folder)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 {
		return Result{}, apierr.Validation("No text files found in " + folder)
	}
	manifest := scan.BuildManifest(files)
	hash, err := hashing.HashManifest(manifest)
	if err != nil {
		return Result{}, err
	}

	log := logging.WithContext(ctx).With(logging.Slug(slug), logging.Version(version))
	log.Debug("publishing bundle", logging.Folder(folder), logging.Count(len(files)))

	uploadURL, err := p.client.UploadURL(ctx)
	if err != nil {
		if errors.Is(err, apierr.ErrAuth) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("failed to get upload URL: %w", err)
	}

	reqFiles := make([]registry.PublishFile, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		storageID, err := p.client.Upload(ctx, uploadURL, f.Data)
		if err != nil {
			return Result{}, fmt.Errorf("failed to upload %s: %w", f.Path, err)
		}
		entry := manifest[i]
		reqFiles = append(reqFiles, registry.PublishFile{
			Path:      entry.Path,
			Size:      entry.Size,
			StorageID: storageID,
			SHA256:    entry.SHA256,
		})
		log.Debug("uploaded file", logging.Path(f.Path))
		if opts.OnUpload != nil {
			opts.OnUpload(i+1, len(files))
		}
	}

	displayName := strings.TrimSpace(opts.DisplayName)
	if displayName == "" {
		displayName = scan.TitleCase(slug)
	}
	tags := opts.Tags
	if len(tags) == 0 {
		tags = []string{DefaultTag}
	}

	resp, err := p.client.Publish(ctx, registry.PublishRequest{
		Slug:        slug,
		DisplayName: displayName,
		Version:     version,
		Changelog:   opts.Changelog,
		Tags:        tags,
		Files:       reqFiles,
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("published", logging.Hash(hash.Short()))
	return Result{SkillID: resp.SkillID, VersionID: resp.VersionID, Files: len(files), Hash: hash}, nil
}

// IsSemver reports whether v is a full MAJOR.MINOR.PATCH version with
// optional prerelease and build suffixes. A leading "v" is not accepted.
func IsSemver(v string) bool {
	if v == "" || strings.HasPrefix(v, "v") {
		return false
	}
	sv := "v" + v
	if !semver.IsValid(sv) {
		return false
	}
	core := v
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	return strings.Count(core, ".") == 2
}
