// Package config provides configuration management for skillhub.
// It supports YAML configuration files, environment variables, and sensible defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klauern/skillhub/internal/sync"
	"github.com/klauern/skillhub/internal/util"
)

// Config represents the complete skillhub configuration.
type Config struct {
	// Registry configures how the CLI reaches the registry
	Registry RegistryConfig `yaml:"registry"`

	// Sync configures default synchronization behavior
	Sync SyncConfig `yaml:"sync"`

	// Server configures the bundled registry server
	Server ServerConfig `yaml:"server"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`
}

// RegistryConfig holds registry client settings.
type RegistryConfig struct {
	// Site is the public site URL used for well-known discovery
	Site string `yaml:"site"`
	// URL is the registry API base. When empty it is discovered from Site.
	URL string `yaml:"url,omitempty"`
	// AuthBase is the auth endpoint advertised by the registry
	AuthBase string `yaml:"auth_base,omitempty"`
	// Token is the CLI bearer token written by `skillhub login`
	Token string `yaml:"token,omitempty"`
	// Timeout bounds every HTTP request
	Timeout time.Duration `yaml:"timeout"`
	// MaxRetries is the retry budget for 429 and 5xx responses
	MaxRetries int `yaml:"max_retries"`
}

// SyncConfig holds synchronization settings.
type SyncConfig struct {
	// Roots are scanned when no --root flag is given.
	// Paths can use ~ for home directory or be relative (resolved from working directory)
	Roots []string `yaml:"roots"`
	// Bump is the default version bump for changed skills (patch, minor, major)
	Bump string `yaml:"bump"`
	// Concurrency bounds parallel registry lookups
	Concurrency int `yaml:"concurrency"`
	// InitialVersion is the version given to skills the registry has never seen
	InitialVersion string `yaml:"initial_version"`
}

// ServerConfig holds registry server settings.
type ServerConfig struct {
	// Addr is the listen address
	Addr string `yaml:"addr"`
	// DataDir stores uploaded blobs and the registry snapshot
	DataDir string `yaml:"data_dir"`
	// PublicURL is advertised through the well-known document and upload URLs
	PublicURL string `yaml:"public_url,omitempty"`
	// AutoApprove marks newly published skills as approved
	AutoApprove bool `yaml:"auto_approve"`
	// Users maps static bearer tokens to user identities
	Users []ServerUser `yaml:"users,omitempty"`
}

// ServerUser is a statically configured registry account.
type ServerUser struct {
	Handle      string `yaml:"handle"`
	DisplayName string `yaml:"display_name,omitempty"`
	Token       string `yaml:"token"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			Site:       "http://localhost:8787",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Sync: SyncConfig{
			Roots: []string{
				"skills",           // Project (relative)
				"~/.claude/skills", // Claude Code
				"~/.codex/skills",  // Codex
				"~/.cursor/skills", // Cursor
			},
			Bump:           string(sync.BumpPatch),
			Concurrency:    sync.DefaultConcurrency,
			InitialVersion: sync.DefaultInitialVersion,
		},
		Server: ServerConfig{
			Addr:        ":8787",
			DataDir:     util.SkillhubDataPath(),
			AutoApprove: true,
		},
		Output: OutputConfig{
			Color:   "auto",
			Verbose: false,
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.SkillhubConfigPath(), configFileName)
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	return LoadFile(FilePath())
}

// LoadFile loads the configuration at path like Load does: a missing file
// yields the defaults with environment overrides applied.
func LoadFile(path string) (*Config, error) {
	cfg, err := LoadFromPath(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = Default()
			cfg.applyEnvironment()
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path.
// The file holds the CLI token, so it is only readable by the user.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern SKILLHUB_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	// Registry settings
	if v := os.Getenv("SKILLHUB_SITE"); v != "" {
		c.Registry.Site = v
	}
	if v := os.Getenv("SKILLHUB_REGISTRY"); v != "" {
		c.Registry.URL = v
	}
	if v := os.Getenv("SKILLHUB_TOKEN"); v != "" {
		c.Registry.Token = v
	}

	// Sync settings
	if v := os.Getenv("SKILLHUB_SYNC_BUMP"); v != "" {
		c.Sync.Bump = v
	}
	if v := os.Getenv("SKILLHUB_SYNC_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sync.Concurrency = n
		}
	}
	if v := os.Getenv("SKILLHUB_SYNC_ROOTS"); v != "" {
		c.Sync.Roots = splitPaths(v)
	}

	// Server settings
	if v := os.Getenv("SKILLHUB_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SKILLHUB_SERVER_DATA"); v != "" {
		c.Server.DataDir = v
	}

	// Output settings
	if v := os.Getenv("SKILLHUB_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("SKILLHUB_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// splitPaths splits a colon-separated path string into individual paths.
// Empty segments are filtered out.
func splitPaths(s string) []string {
	parts := strings.Split(s, ":")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// GetBump returns the bump strategy from config, validating it.
func (c *Config) GetBump() sync.BumpStrategy {
	bump := sync.BumpStrategy(c.Sync.Bump)
	if bump.IsValid() {
		return bump
	}
	return sync.BumpPatch
}

// GetRoots returns the configured fallback roots, expanded and in order.
// The baseDir is used for resolving relative paths.
func (sc *SyncConfig) GetRoots(baseDir string) []string {
	return util.ExpandPaths(sc.Roots, baseDir)
}

// RegistryURL returns the explicit registry URL, falling back to the site.
func (rc *RegistryConfig) RegistryURL() string {
	if rc.URL != "" {
		return rc.URL
	}
	return rc.Site
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
