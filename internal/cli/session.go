package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skillhub/internal/config"
	"github.com/klauern/skillhub/internal/registry"
)

// session carries the loaded configuration into command actions.
type session struct {
	cfg  *config.Config
	path string
}

type sessionKey struct{}

func withSession(ctx context.Context, s *session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// sessionFrom returns the session stored by the root Before hook.
func sessionFrom(ctx context.Context, cmd *cli.Command) (*session, error) {
	if s, ok := ctx.Value(sessionKey{}).(*session); ok {
		return s, nil
	}
	return loadSession(cmd)
}

func loadSession(cmd *cli.Command) (*session, error) {
	path := cmd.String("config")
	if path == "" {
		path = config.FilePath()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return &session{cfg: cfg, path: path}, nil
}

// token returns the bearer token from --token or the saved login.
func (s *session) token(cmd *cli.Command) string {
	return firstNonEmpty(cmd.String("token"), s.cfg.Registry.Token)
}

// client builds a registry client, discovering the API URL from the site
// unless --registry or the config names it.
func (s *session) client(ctx context.Context, cmd *cli.Command) (*registry.HTTPClient, error) {
	return s.clientWithToken(ctx, cmd, s.token(cmd))
}

func (s *session) clientWithToken(ctx context.Context, cmd *cli.Command, token string) (*registry.HTTPClient, error) {
	rc := s.cfg.Registry
	site := firstNonEmpty(cmd.String("site"), rc.Site)
	explicit := firstNonEmpty(cmd.String("registry"), rc.URL)

	base, err := registry.ResolveBaseURL(ctx, &http.Client{Timeout: rc.Timeout}, site, explicit)
	if err != nil {
		return nil, err
	}
	return registry.NewHTTPClient(registry.Options{
		BaseURL:    base,
		Token:      token,
		Timeout:    rc.Timeout,
		MaxRetries: rc.MaxRetries,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
