package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Fixture writes skill folders under one base directory.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{t: t, baseDir: baseDir}
}

// TempFixture creates a fixture helper for a new temporary directory.
func (h *Harness) TempFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, h.t.TempDir())
}

// WriteFile writes content to a file relative to the fixture base directory,
// creating parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := f.Path(relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		f.t.Fatalf("failed to create directory for %s: %v", fullPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
	return fullPath
}

// WriteSkill writes <slug>/SKILL.md with a name and optional description in
// its frontmatter and returns the skill folder.
func (f *Fixture) WriteSkill(slug, name, description, content string) string {
	f.t.Helper()

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString("name: " + name + "\n")
	if description != "" {
		sb.WriteString("description: " + description + "\n")
	}
	sb.WriteString("---\n\n")
	sb.WriteString(content)

	f.WriteFile(filepath.Join(slug, "SKILL.md"), sb.String())
	return f.Path(slug)
}

// Path returns the full path for a relative path. An empty relPath is the
// base directory itself.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, filepath.FromSlash(relPath))
}
