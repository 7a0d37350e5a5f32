// Package store is the registry's system of record: skill records and their
// version history, uploaded file blobs, and API tokens. It backs the HTTP
// server's query, mutation, action, and authentication capabilities.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/archive"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/publish"
	"github.com/klauern/skillhub/internal/registry"
	"github.com/klauern/skillhub/internal/resolver"
	"github.com/klauern/skillhub/internal/scan"
	"github.com/klauern/skillhub/internal/similarity"
)

// Search limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// UploadTTL is how long an upload token accepts files.
const UploadTTL = time.Hour

// uploadGrant is an issued upload token. One token covers every file of a
// bundle and is released when a publish references its blobs.
type uploadGrant struct {
	userID  string
	expires time.Time
}

// blobUpload remembers which token and user stored a blob until it is
// published.
type blobUpload struct {
	token  string
	userID string
}

// Account is an API token and the user it authenticates.
type Account struct {
	Token string
	User  model.User
}

// Options configures a Store.
type Options struct {
	// DataDir holds the index and blobs. Empty keeps everything in memory.
	DataDir string

	// AutoApprove marks skills approved when they are first published.
	AutoApprove bool

	// Accounts are the users allowed to call authenticated endpoints.
	Accounts []Account

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Store is safe for concurrent use.
type Store struct {
	mu      gosync.RWMutex
	opts    Options
	skills  map[string]*model.SkillRecord
	tokens  map[string]model.User
	users   map[string]model.User
	uploads map[string]uploadGrant
	pending map[string]blobUpload
	blobs   Blobs
	scorer  *similarity.Scorer
}

// Open creates a store, loading any index persisted in opts.DataDir.
func Open(opts Options) (*Store, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		opts:    opts,
		skills:  make(map[string]*model.SkillRecord),
		tokens:  make(map[string]model.User),
		users:   make(map[string]model.User),
		uploads: make(map[string]uploadGrant),
		pending: make(map[string]blobUpload),
		scorer:  similarity.NewScorer(similarity.DefaultConfig()),
	}
	for _, a := range opts.Accounts {
		u := a.User
		if u.ID == "" {
			u.ID = u.Handle
		}
		if a.Token == "" || u.Handle == "" {
			return nil, fmt.Errorf("account %q needs a handle and a token", u.Handle)
		}
		s.tokens[a.Token] = u
		s.users[u.ID] = u
	}

	if opts.DataDir == "" {
		s.blobs = NewMemoryBlobs()
		return s, nil
	}

	blobs, err := NewDiskBlobs(filepath.Join(opts.DataDir, "blobs"))
	if err != nil {
		return nil, err
	}
	s.blobs = blobs

	index, err := LoadIndex(opts.DataDir)
	if err != nil {
		return nil, err
	}
	s.skills = index.Records()
	logging.Debug("loaded registry index", logging.Count(len(s.skills)), logging.Path(opts.DataDir))
	return s, nil
}

// persist writes the index when the store is disk-backed. Callers hold mu.
func (s *Store) persist() error {
	if s.opts.DataDir == "" {
		return nil
	}
	if err := SaveIndex(s.opts.DataDir, indexFromRecords(s.skills)); err != nil {
		return apierr.Wrap(apierr.KindInternal, "", err)
	}
	return nil
}

// Authenticate returns the user a bearer token belongs to.
func (s *Store) Authenticate(_ context.Context, token string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.tokens[token]
	if token == "" || !ok {
		return model.User{}, apierr.Auth("Unauthorized")
	}
	return u, nil
}

// GetSkill returns a live skill with its latest version and owner.
func (s *Store) GetSkill(_ context.Context, slug string) (*registry.SkillLookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.live(slug)
	if err != nil {
		return nil, err
	}
	skill := *rec
	lookup := &registry.SkillLookup{Skill: &skill, LatestVersion: summarize(resolver.Latest(rec.Versions))}
	if u, ok := s.users[rec.OwnerID]; ok {
		owner := u.Owner()
		lookup.Owner = &owner
	}
	return lookup, nil
}

// summarize strips the file list from a version for lookup responses.
func summarize(v *model.SkillVersion) *model.SkillVersion {
	if v == nil {
		return nil
	}
	out := *v
	out.Files = nil
	return &out
}

// ResolveVersion finds the version of slug whose content hash equals hash.
func (s *Store) ResolveVersion(_ context.Context, slug, hash string) (resolver.Resolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.live(slug)
	if err != nil {
		return resolver.Resolution{}, err
	}
	res, err := resolver.Resolve(rec.Versions, hash)
	if err != nil {
		return resolver.Resolution{}, err
	}
	res.Match = summarize(res.Match)
	res.Latest = summarize(res.Latest)
	return res, nil
}

// Search ranks live skills against query. A blank query returns no results.
func (s *Store) Search(_ context.Context, query string, opts registry.SearchOptions) ([]registry.SearchResult, error) {
	results := []registry.SearchResult{}
	if strings.TrimSpace(query) == "" {
		return results, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.skills {
		if rec.Deleted || (opts.ApprovedOnly && !rec.Approved) {
			continue
		}
		score := s.scorer.Score(query, similarity.Document{
			Slug:        rec.Slug,
			DisplayName: rec.DisplayName,
			Summary:     rec.Summary,
		})
		if score <= 0 {
			continue
		}
		r := registry.SearchResult{
			Score:       score,
			Slug:        rec.Slug,
			DisplayName: rec.DisplayName,
			Summary:     rec.Summary,
			UpdatedAt:   rec.UpdatedAt,
		}
		if latest := resolver.Latest(rec.Versions); latest != nil {
			r.Version = latest.Version
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Slug < results[j].Slug
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Bundle returns one version of a live skill with its file contents. An empty
// version selects the latest. Each call counts as a download.
func (s *Store) Bundle(_ context.Context, slug, version string) (model.SkillVersion, []archive.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.live(slug)
	if err != nil {
		return model.SkillVersion{}, nil, err
	}

	var v model.SkillVersion
	if version == "" {
		latest := resolver.Latest(rec.Versions)
		if latest == nil {
			return model.SkillVersion{}, nil, apierr.NotFound("Version not found")
		}
		v = *latest
	} else {
		found, ok := rec.FindVersion(version)
		if !ok {
			return model.SkillVersion{}, nil, apierr.NotFound("Version not found")
		}
		v = found
	}

	files := make([]archive.File, 0, len(v.Files))
	for _, f := range v.Files {
		data, err := s.blobs.Get(f.StorageID)
		if err != nil {
			return model.SkillVersion{}, nil, apierr.Wrap(apierr.KindInternal, "", err)
		}
		files = append(files, archive.File{Path: f.Path, Data: data})
	}

	rec.Stats.Downloads++
	if err := s.persist(); err != nil {
		logging.Warn("failed to record download", logging.Slug(slug), logging.Err(err))
	}
	return v, files, nil
}

// IssueUploadToken returns a token that accepts every file of one bundle
// for UploadTTL, or until a publish references the files.
func (s *Store) IssueUploadToken(_ context.Context, user model.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	for token, g := range s.uploads {
		if !now.Before(g.expires) {
			delete(s.uploads, token)
		}
	}
	token := uuid.NewString()
	s.uploads[token] = uploadGrant{userID: user.ID, expires: now.Add(UploadTTL)}
	return token, nil
}

// StoreUpload saves data for an upload token and returns its storage id.
// An unknown, expired or released token is a validation error.
func (s *Store) StoreUpload(_ context.Context, token string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.uploads[token]
	if !ok || !s.opts.Now().Before(g.expires) {
		delete(s.uploads, token)
		return "", apierr.Validation("Upload token is invalid or expired")
	}

	id := uuid.NewString()
	if err := s.blobs.Put(id, data); err != nil {
		return "", apierr.Wrap(apierr.KindInternal, "", err)
	}
	s.pending[id] = blobUpload{token: token, userID: g.userID}
	return id, nil
}

// Publish appends a version to a skill, creating the skill on first publish.
// Every file must reference an uploaded blob whose digest matches.
func (s *Store) Publish(_ context.Context, user model.User, req registry.PublishRequest) (registry.PublishResponse, error) {
	if err := validatePublish(req); err != nil {
		return registry.PublishResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	manifest := req.Manifest()
	var skillDoc []byte
	for _, f := range manifest {
		if up, ok := s.pending[f.StorageID]; ok && up.userID != user.ID {
			return registry.PublishResponse{}, apierr.Publish("Missing upload for " + f.Path)
		}
		data, err := s.blobs.Get(f.StorageID)
		if errors.Is(err, ErrBlobNotFound) {
			return registry.PublishResponse{}, apierr.Publish("Missing upload for " + f.Path)
		}
		if err != nil {
			return registry.PublishResponse{}, apierr.Wrap(apierr.KindInternal, "", err)
		}
		if hashing.Bytes(data) != f.SHA256 {
			return registry.PublishResponse{}, apierr.Publish("File hash mismatch for " + f.Path)
		}
		if int64(len(data)) != f.Size {
			return registry.PublishResponse{}, apierr.Publish("File size mismatch for " + f.Path)
		}
		if strings.EqualFold(f.Path, scan.SkillFileName) {
			skillDoc = data
		}
	}
	if skillDoc == nil {
		return registry.PublishResponse{}, apierr.Publish("SKILL.md is required")
	}

	hash, err := hashing.HashManifest(manifest)
	if err != nil {
		return registry.PublishResponse{}, apierr.Publish(err.Error())
	}

	now := s.opts.Now().UTC()
	rec, ok := s.skills[req.Slug]
	switch {
	case !ok:
		rec = &model.SkillRecord{
			ID:        uuid.NewString(),
			Slug:      req.Slug,
			OwnerID:   user.ID,
			Approved:  s.opts.AutoApprove,
			CreatedAt: now,
		}
	case rec.OwnerID != user.ID:
		return registry.PublishResponse{}, apierr.Publish("Only the owner can publish updates")
	case rec.Deleted:
		return registry.PublishResponse{}, apierr.Publish("Skill is deleted")
	case rec.HasVersion(req.Version):
		return registry.PublishResponse{}, apierr.Publish("Version already exists")
	}

	v := model.SkillVersion{
		ID:          uuid.NewString(),
		Version:     req.Version,
		ContentHash: hash,
		Files:       manifest,
		Changelog:   req.Changelog,
		CreatedAt:   now,
	}
	rec.Versions = append(rec.Versions, v)
	rec.DisplayName = strings.TrimSpace(req.DisplayName)
	if meta, err := scan.ParseMetadata(skillDoc); err == nil && meta.Description != "" {
		rec.Summary = meta.Description
	}
	if rec.Tags == nil {
		rec.Tags = make(map[string]string)
	}
	tags := req.Tags
	if len(tags) == 0 {
		tags = []string{publish.DefaultTag}
	}
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			rec.Tags[tag] = v.Version
		}
	}
	rec.Stats.Versions = len(rec.Versions)
	rec.UpdatedAt = now
	s.skills[req.Slug] = rec
	s.release(manifest)

	if err := s.persist(); err != nil {
		return registry.PublishResponse{}, err
	}
	logging.Info("published version",
		logging.Slug(req.Slug),
		logging.Version(req.Version),
		logging.Hash(string(hash)),
	)
	return registry.PublishResponse{OK: true, SkillID: rec.ID, VersionID: v.ID}, nil
}

// SetDeleted soft deletes or restores a skill. Only its owner may do so.
func (s *Store) SetDeleted(_ context.Context, user model.User, slug string, deleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.skills[slug]
	if !ok {
		return apierr.NotFound("Skill not found")
	}
	if rec.OwnerID != user.ID {
		return apierr.Publish("Only the owner can delete this skill")
	}
	rec.Deleted = deleted
	rec.UpdatedAt = s.opts.Now().UTC()
	return s.persist()
}

// release retires the upload tokens that stored a published manifest's
// blobs. Callers hold mu.
func (s *Store) release(manifest model.Manifest) {
	for _, f := range manifest {
		if up, ok := s.pending[f.StorageID]; ok {
			delete(s.uploads, up.token)
			delete(s.pending, f.StorageID)
		}
	}
}

// live returns a skill that exists and is not deleted. Callers hold mu.
func (s *Store) live(slug string) (*model.SkillRecord, error) {
	rec, ok := s.skills[slug]
	if !ok || rec.Deleted {
		return nil, apierr.NotFound("Skill not found")
	}
	return rec, nil
}

func validatePublish(req registry.PublishRequest) error {
	switch {
	case !model.IsValidSlug(req.Slug):
		return apierr.Publish("Invalid slug")
	case strings.TrimSpace(req.DisplayName) == "":
		return apierr.Publish("Display name required")
	case !publish.IsSemver(req.Version):
		return apierr.Publish("Version must be valid semver")
	case len(req.Files) == 0:
		return apierr.Publish("No files")
	}
	seen := make(map[string]bool, len(req.Files))
	for _, f := range req.Files {
		if f.Path == "" || path.IsAbs(f.Path) || strings.HasPrefix(path.Clean(f.Path), "..") {
			return apierr.Publish("Invalid file path: " + f.Path)
		}
		if seen[f.Path] {
			return apierr.Publish("Duplicate file path: " + f.Path)
		}
		seen[f.Path] = true
		if !hashing.IsContentHash(f.SHA256) {
			return apierr.Publish("Invalid sha256 for " + f.Path)
		}
	}
	return nil
}
