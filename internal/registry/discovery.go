package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauern/skillhub/internal/logging"
)

// Well-known discovery paths, tried in order.
const (
	WellKnownPath       = "/.well-known/skillhub.json"
	LegacyWellKnownPath = "/.well-known/clawdhub.json"
)

// Discover reads the registry discovery document from site. When no path
// answers 200 with a usable document, Discover returns nil and no error.
// Transport failures are returned.
func Discover(ctx context.Context, hc *http.Client, site string) (*WellKnown, error) {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	base, err := url.Parse(strings.TrimRight(site, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", site, err)
	}

	for _, p := range []string{WellKnownPath, LegacyWellKnownPath} {
		u := *base
		u.Path = strings.TrimRight(base.Path, "/") + p
		wk, err := fetchWellKnown(ctx, hc, u.String())
		if err != nil {
			return nil, err
		}
		if wk != nil {
			logging.Debug("discovered registry", logging.Path(u.String()))
			return wk, nil
		}
	}
	return nil, nil
}

func fetchWellKnown(ctx context.Context, hc *http.Client, target string) (*WellKnown, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry discovery failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read discovery document: %w", err)
	}
	var wk WellKnown
	if err := json.Unmarshal(body, &wk); err != nil {
		return nil, fmt.Errorf("invalid discovery document at %s: %w", target, err)
	}
	if wk.Registry == "" {
		return nil, nil
	}
	return &wk, nil
}

// ResolveBaseURL picks the registry URL: an explicit registry wins,
// otherwise the site's discovery document, otherwise the site itself.
func ResolveBaseURL(ctx context.Context, hc *http.Client, site, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if site == "" {
		return "", fmt.Errorf("no registry or site configured")
	}
	wk, err := Discover(ctx, hc, site)
	if err != nil {
		return "", err
	}
	if wk == nil {
		return site, nil
	}
	return wk.Registry, nil
}
