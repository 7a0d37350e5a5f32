// Package mock provides an in-memory registry.Client for testing.
package mock

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/archive"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/registry"
	"github.com/klauern/skillhub/internal/resolver"
)

// Client is an in-memory registry. It is safe for concurrent use.
type Client struct {
	mu sync.Mutex

	user       *model.User
	skills     map[string]*model.SkillRecord
	blobs      map[string][]byte
	uploadURLs map[string]bool
	blobURL    map[string]string
	lookupErr  map[string]error
	publishErr map[string]error
	uploadErr  error

	published      []registry.PublishRequest
	deleteCalls    []DeleteCall
	getSkillCalls  int
	resolveCalls   int
	uploadURLCalls int
	uploadCalls    int
	now            func() time.Time
}

// DeleteCall records one SetDeleted invocation.
type DeleteCall struct {
	Slug    string
	Deleted bool
}

var _ registry.Client = (*Client)(nil)

// New creates an empty mock registry with no authenticated user.
func New() *Client {
	return &Client{
		skills:     make(map[string]*model.SkillRecord),
		blobs:      make(map[string][]byte),
		uploadURLs: make(map[string]bool),
		blobURL:    make(map[string]string),
		lookupErr:  make(map[string]error),
		publishErr: make(map[string]error),
		now:        time.Now,
	}
}

// WithUser authenticates the client as u.
func (c *Client) WithUser(u model.User) *Client {
	c.user = &u
	return c
}

// WithSkill seeds a skill and its version history.
func (c *Client) WithSkill(rec model.SkillRecord) *Client {
	r := rec
	c.skills[rec.Slug] = &r
	return c
}

// WithLookupError makes GetSkill and Resolve fail for slug.
func (c *Client) WithLookupError(slug string, err error) *Client {
	c.lookupErr[slug] = err
	return c
}

// WithPublishError makes Publish fail for slug.
func (c *Client) WithPublishError(slug string, err error) *Client {
	c.publishErr[slug] = err
	return c
}

// WithUploadError makes UploadURL fail.
func (c *Client) WithUploadError(err error) *Client {
	c.uploadErr = err
	return c
}

// GetSkill implements registry.Client.
func (c *Client) GetSkill(_ context.Context, slug string) (*registry.SkillLookup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getSkillCalls++

	if err := c.lookupErr[slug]; err != nil {
		return nil, err
	}
	rec, ok := c.skills[slug]
	if !ok || rec.Deleted {
		return &registry.SkillLookup{}, nil
	}
	skill := *rec
	return &registry.SkillLookup{
		Skill:         &skill,
		LatestVersion: resolver.Latest(rec.Versions),
	}, nil
}

// Resolve implements registry.Client.
func (c *Client) Resolve(_ context.Context, slug, hash string) (resolver.Resolution, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolveCalls++

	if err := c.lookupErr[slug]; err != nil {
		return resolver.Resolution{}, err
	}
	rec, ok := c.skills[slug]
	if !ok || rec.Deleted {
		return resolver.Resolution{}, apierr.NotFound("Skill not found")
	}
	return resolver.Resolve(rec.Versions, hash)
}

// Whoami implements registry.Client.
func (c *Client) Whoami(context.Context) (model.User, error) {
	if c.user == nil {
		return model.User{}, apierr.Auth("Unauthorized")
	}
	return *c.user, nil
}

// UploadURL implements registry.Client.
func (c *Client) UploadURL(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadURLCalls++

	if c.uploadErr != nil {
		return "", c.uploadErr
	}
	if c.user == nil {
		return "", apierr.Auth("Unauthorized")
	}
	url := fmt.Sprintf("mock://upload/%d", c.uploadURLCalls)
	c.uploadURLs[url] = true
	return url, nil
}

// Upload implements registry.Client. An upload URL accepts any number of
// files until a publish references one of them.
func (c *Client) Upload(_ context.Context, uploadURL string, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadCalls++

	if !c.uploadURLs[uploadURL] {
		return "", apierr.Validation("Upload token is invalid or expired")
	}
	id := fmt.Sprintf("storage-%d", len(c.blobs)+1)
	c.blobs[id] = append([]byte(nil), data...)
	c.blobURL[id] = uploadURL
	return id, nil
}

// Publish implements registry.Client. It appends a version to the skill,
// creating the skill when needed.
func (c *Client) Publish(_ context.Context, req registry.PublishRequest) (registry.PublishResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, req)

	if c.user == nil {
		return registry.PublishResponse{}, apierr.Auth("Unauthorized")
	}
	if err := c.publishErr[req.Slug]; err != nil {
		return registry.PublishResponse{}, err
	}

	files := req.Manifest()
	hash, err := hashing.HashManifest(files)
	if err != nil {
		return registry.PublishResponse{}, apierr.Publish(err.Error())
	}

	rec, ok := c.skills[req.Slug]
	if !ok {
		rec = &model.SkillRecord{
			ID:          "skill-" + req.Slug,
			Slug:        req.Slug,
			DisplayName: req.DisplayName,
			OwnerID:     c.user.ID,
			CreatedAt:   c.now(),
		}
		c.skills[req.Slug] = rec
	}
	if rec.HasVersion(req.Version) {
		return registry.PublishResponse{}, apierr.Publish("Version already exists")
	}

	v := model.SkillVersion{
		ID:          fmt.Sprintf("%s-v%d", rec.ID, len(rec.Versions)+1),
		Version:     req.Version,
		ContentHash: hash,
		Files:       files,
		Changelog:   req.Changelog,
		CreatedAt:   c.now(),
	}
	rec.Versions = append(rec.Versions, v)
	rec.UpdatedAt = v.CreatedAt
	for _, f := range files {
		delete(c.uploadURLs, c.blobURL[f.StorageID])
	}
	return registry.PublishResponse{OK: true, SkillID: rec.ID, VersionID: v.ID}, nil
}

// SetDeleted implements registry.Client.
func (c *Client) SetDeleted(_ context.Context, slug string, deleted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteCalls = append(c.deleteCalls, DeleteCall{Slug: slug, Deleted: deleted})

	if c.user == nil {
		return apierr.Auth("Unauthorized")
	}
	rec, ok := c.skills[slug]
	if !ok {
		return apierr.NotFound("Skill not found")
	}
	rec.Deleted = deleted
	return nil
}

// Search implements registry.Client with a case-insensitive substring match.
func (c *Client) Search(_ context.Context, query string, opts registry.SearchOptions) ([]registry.SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []registry.SearchResult{}, nil
	}
	var out []registry.SearchResult
	for _, rec := range c.skills {
		if rec.Deleted || (opts.ApprovedOnly && !rec.Approved) {
			continue
		}
		if !strings.Contains(rec.Slug, q) && !strings.Contains(strings.ToLower(rec.DisplayName), q) {
			continue
		}
		res := registry.SearchResult{Score: 1, Slug: rec.Slug, DisplayName: rec.DisplayName, Summary: rec.Summary, UpdatedAt: rec.UpdatedAt}
		if latest := resolver.Latest(rec.Versions); latest != nil {
			res.Version = latest.Version
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Download implements registry.Client by packing uploaded blobs.
func (c *Client) Download(_ context.Context, slug, version string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.skills[slug]
	if !ok || rec.Deleted {
		return nil, apierr.NotFound("Skill not found")
	}
	var v *model.SkillVersion
	if version == "" {
		v = resolver.Latest(rec.Versions)
	} else if found, ok := rec.FindVersion(version); ok {
		v = &found
	}
	if v == nil {
		return nil, apierr.NotFound("Version not found")
	}

	files := make([]archive.File, 0, len(v.Files))
	for _, f := range v.Files {
		data, ok := c.blobs[f.StorageID]
		if !ok {
			return nil, apierr.NotFound("File not found: " + f.Path)
		}
		files = append(files, archive.File{Path: f.Path, Data: data})
	}
	var buf bytes.Buffer
	if _, err := archive.Create(&buf, slug, v.Version, files); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Published returns every publish request received, in order.
func (c *Client) Published() []registry.PublishRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]registry.PublishRequest(nil), c.published...)
}

// DeleteCalls returns every SetDeleted call received, in order.
func (c *Client) DeleteCalls() []DeleteCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DeleteCall(nil), c.deleteCalls...)
}

// Blob returns uploaded bytes by storage id.
func (c *Client) Blob(id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blobs[id]
	return b, ok
}

// Skill returns the stored record for slug.
func (c *Client) Skill(slug string) (model.SkillRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.skills[slug]
	if !ok {
		return model.SkillRecord{}, false
	}
	return *rec, true
}

// Calls returns per-operation call counts.
func (c *Client) Calls() (getSkill, resolve, uploadURL, upload int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getSkillCalls, c.resolveCalls, c.uploadURLCalls, c.uploadCalls
}
