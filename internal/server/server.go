// Package server serves the registry HTTP API. Handlers receive their
// capabilities (queries, mutations, actions, authentication) explicitly, so
// they can be exercised against mocks without a backing store.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/registry"
)

// Defaults for Options.
const (
	DefaultAddr           = ":8787"
	DefaultMaxUploadBytes = 10 << 20
	shutdownTimeout       = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address.
	Addr string

	// PublicURL is the externally visible base URL, used for upload URLs and
	// the discovery document. Defaults to http://localhost plus Addr's port.
	PublicURL string

	// MaxUploadBytes bounds a single blob upload and JSON bodies.
	MaxUploadBytes int64

	// Logger receives request logs. Defaults to logging.Default().
	Logger *slog.Logger
}

// Deps are the capabilities handlers run against.
type Deps struct {
	Queries       Queries
	Mutations     Mutations
	Actions       Actions
	Authenticator Authenticator
}

// Server is the registry HTTP server.
type Server struct {
	opts Options
	deps Deps
}

// New creates a Server.
func New(deps Deps, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.PublicURL == "" {
		opts.PublicURL = defaultPublicURL(opts.Addr)
	}
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Server{opts: opts, deps: deps}
}

func defaultPublicURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// PublicURL returns the base URL clients should use.
func (s *Server) PublicURL() string {
	return s.opts.PublicURL
}

// Handler returns the routed API with request logging applied.
func (s *Server) Handler() http.Handler {
	d := s.deps
	limit := s.opts.MaxUploadBytes

	mux := http.NewServeMux()
	mux.Handle("GET /api/search", searchHandler(d.Queries))
	mux.Handle("GET /api/skill", getSkillHandler(d.Queries))
	mux.Handle("GET /api/skill/resolve", resolveHandler(d.Queries))
	mux.Handle("GET /api/download", downloadHandler(d.Queries))
	mux.Handle("GET /api/cli/whoami", whoamiHandler(d.Authenticator))
	mux.Handle("POST /api/cli/upload-url", uploadURLHandler(d.Authenticator, d.Actions, s.opts.PublicURL))
	mux.Handle("POST /api/cli/upload/{token}", uploadHandler(d.Actions, limit))
	mux.Handle("POST /api/cli/publish", publishHandler(d.Authenticator, d.Mutations, limit))
	mux.Handle("POST /api/cli/skill/delete", deleteHandler(d.Authenticator, d.Mutations, true))
	mux.Handle("POST /api/cli/skill/undelete", deleteHandler(d.Authenticator, d.Mutations, false))

	wk := wellKnownHandler(registry.WellKnown{Registry: s.opts.PublicURL, AuthBase: s.opts.PublicURL})
	mux.Handle("GET "+registry.WellKnownPath, wk)
	mux.Handle("GET "+registry.LegacyWellKnownPath, wk)

	return recoverer(s.opts.Logger, requestLogger(s.opts.Logger, mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("registry listening",
			slog.String("addr", s.opts.Addr),
			slog.String("public_url", s.opts.PublicURL),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("registry server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down registry server: %w", err)
	}
	s.opts.Logger.Info("registry stopped")
	return nil
}
