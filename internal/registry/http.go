package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/resolver"
)

// Defaults for Options.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	maxRetryAfter     = 10 * time.Second
	maxErrorBody      = 64 << 10
)

// UserAgent identifies the CLI to the registry.
var UserAgent = "skillhub-cli"

// Options configures an HTTPClient.
type Options struct {
	// BaseURL is the registry API root, e.g. https://registry.example.com.
	BaseURL string
	// Token is the bearer token sent with authenticated requests.
	Token string
	// Timeout bounds each HTTP request. Defaults to DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is how many times a 429 or 5xx response is retried.
	MaxRetries int
	// HTTPClient overrides the underlying client, mostly for tests.
	HTTPClient *http.Client
	// Backoff overrides the wait before retry attempt n (0-based).
	Backoff func(attempt int) time.Duration
}

// HTTPClient talks to a registry over its JSON API.
type HTTPClient struct {
	base    *url.URL
	token   string
	client  *http.Client
	retries int
	backoff func(int) time.Duration
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a registry client.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("registry URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid registry URL %q: scheme must be http or https", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := opts.Backoff
	if backoff == nil {
		backoff = defaultBackoff
	}

	return &HTTPClient{base: base, token: opts.Token, client: hc, retries: retries, backoff: backoff}, nil
}

// BaseURL returns the registry root the client talks to.
func (c *HTTPClient) BaseURL() string {
	return c.base.String()
}

// GetSkill implements Client.
func (c *HTTPClient) GetSkill(ctx context.Context, slug string) (*SkillLookup, error) {
	var out SkillLookup
	err := c.doJSON(ctx, request{
		method: http.MethodGet,
		path:   "/api/skill",
		query:  url.Values{"slug": {slug}},
	}, &out)
	if errors.Is(err, apierr.ErrNotFound) {
		return &SkillLookup{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Resolve implements Client. The hash is validated before any request.
func (c *HTTPClient) Resolve(ctx context.Context, slug, hash string) (resolver.Resolution, error) {
	if !hashing.IsContentHash(hash) {
		return resolver.Resolution{}, resolver.ErrMalformedHash
	}
	var out resolver.Resolution
	err := c.doJSON(ctx, request{
		method: http.MethodGet,
		path:   "/api/skill/resolve",
		query:  url.Values{"slug": {slug}, "hash": {hash}},
	}, &out)
	return out, err
}

// Whoami implements Client.
func (c *HTTPClient) Whoami(ctx context.Context) (model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/cli/whoami", auth: true}, &out); err != nil {
		return model.User{}, err
	}
	if out.User == nil {
		return model.User{}, apierr.Auth("Unauthorized")
	}
	return *out.User, nil
}

// UploadURL implements Client.
func (c *HTTPClient) UploadURL(ctx context.Context) (string, error) {
	var out struct {
		UploadURL string `json:"uploadUrl"`
	}
	err := c.doJSON(ctx, request{method: http.MethodPost, path: "/api/cli/upload-url", auth: true}, &out)
	if err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", errors.New("registry returned an empty upload URL")
	}
	return out.UploadURL, nil
}

// Upload implements Client.
func (c *HTTPClient) Upload(ctx context.Context, uploadURL string, data []byte) (string, error) {
	target, err := c.base.Parse(uploadURL)
	if err != nil {
		return "", fmt.Errorf("invalid upload URL %q: %w", uploadURL, err)
	}
	var out struct {
		StorageID string `json:"storageId"`
	}
	err = c.doJSON(ctx, request{
		method:      http.MethodPost,
		absolute:    target,
		body:        data,
		contentType: "application/octet-stream",
		auth:        c.sameOrigin(target),
	}, &out)
	if err != nil {
		return "", err
	}
	if out.StorageID == "" {
		return "", errors.New("registry returned an empty storage id")
	}
	return out.StorageID, nil
}

// sameOrigin reports whether u points at the registry itself. The bearer
// token is only sent there.
func (c *HTTPClient) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.base.Scheme) && strings.EqualFold(u.Host, c.base.Host)
}

// Publish implements Client.
func (c *HTTPClient) Publish(ctx context.Context, req PublishRequest) (PublishResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return PublishResponse{}, fmt.Errorf("failed to encode publish request: %w", err)
	}
	var out PublishResponse
	err = c.doJSON(ctx, request{
		method:   http.MethodPost,
		path:     "/api/cli/publish",
		body:     body,
		auth:     true,
		mutation: true,
	}, &out)
	return out, err
}

// SetDeleted implements Client.
func (c *HTTPClient) SetDeleted(ctx context.Context, slug string, deleted bool) error {
	path := "/api/cli/skill/undelete"
	if deleted {
		path = "/api/cli/skill/delete"
	}
	body, err := json.Marshal(map[string]string{"slug": slug})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, request{
		method:   http.MethodPost,
		path:     path,
		body:     body,
		auth:     true,
		mutation: true,
	}, nil)
}

// Search implements Client.
func (c *HTTPClient) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	q := url.Values{"q": {query}}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.ApprovedOnly {
		q.Set("approvedOnly", "true")
	}
	var out struct {
		Results []SearchResult `json:"results"`
	}
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/search", query: q}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Download implements Client.
func (c *HTTPClient) Download(ctx context.Context, slug, version string) ([]byte, error) {
	q := url.Values{"slug": {slug}}
	if version != "" {
		q.Set("version", version)
	}
	return c.do(ctx, request{method: http.MethodGet, path: "/api/download", query: q})
}

type request struct {
	method      string
	path        string
	absolute    *url.URL
	query       url.Values
	body        []byte
	contentType string
	auth        bool
	// mutation marks endpoints where a 400 means a registry-side rejection.
	mutation bool
}

func (r request) target(base *url.URL) string {
	if r.absolute != nil {
		return r.absolute.String()
	}
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	return u.String()
}

// retryable reports whether a response status may be retried for r.
// Non-GET requests are only retried on 429 since the registry has not
// processed them.
func (r request) retryable(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && r.method == http.MethodGet
}

func (c *HTTPClient) doJSON(ctx context.Context, r request, out any) error {
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode registry response: %w", err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, r request) ([]byte, error) {
	target := r.target(c.base)
	log := logging.WithContext(ctx)

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		status, header, body, err := c.send(ctx, r, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if r.method != http.MethodGet || attempt == c.retries {
				break
			}
			log.Debug("registry request failed, retrying", logging.Path(target), logging.Err(err))
			if werr := c.wait(ctx, c.backoff(attempt)); werr != nil {
				return nil, werr
			}
			continue
		}

		if status >= 200 && status < 300 {
			return body, nil
		}
		if r.retryable(status) && attempt < c.retries {
			wait := retryAfter(header.Get("Retry-After"), c.backoff(attempt))
			log.Debug("registry busy, retrying",
				logging.Path(target),
				slog.Int("status", status),
				logging.Count(attempt+1),
			)
			if werr := c.wait(ctx, wait); werr != nil {
				return nil, werr
			}
			continue
		}
		return nil, apierr.FromStatus(status, errorMessage(body), r.mutation)
	}
	return nil, fmt.Errorf("registry request %s %s failed: %w", r.method, r.path, lastErr)
}

func (c *HTTPClient) send(ctx context.Context, r request, target string) (int, http.Header, []byte, error) {
	var reader io.Reader
	if r.body != nil {
		reader = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if r.body != nil {
		ct := r.contentType
		if ct == "" {
			ct = "application/json"
		}
		req.Header.Set("Content-Type", ct)
	}
	if r.auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to read registry response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

func (c *HTTPClient) wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * 500 * time.Millisecond
}

// retryAfter honours a Retry-After header in seconds, capped at
// maxRetryAfter, falling back to the computed backoff.
func retryAfter(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	secs, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || secs < 0 {
		return fallback
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}

// errorMessage extracts the message from a {"error": "..."} body, falling
// back to the trimmed body text.
func errorMessage(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var eb ErrorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		return eb.Error
	}
	return strings.TrimSpace(string(body))
}
