//nolint:revive // var-naming - package name is meaningful
package util

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// WriteSkill creates a skill folder named name under root containing files,
// keyed by slash-separated relative path. A SKILL.md is added when absent.
// It returns the folder path.
func WriteSkill(t *testing.T, root, name string, files map[string]string) string {
	t.Helper()
	folder := filepath.Join(root, name)
	if _, ok := files["SKILL.md"]; !ok {
		WriteFile(t, filepath.Join(folder, "SKILL.md"), "# "+name+"\n")
	}
	for rel, content := range files {
		WriteFile(t, filepath.Join(folder, filepath.FromSlash(rel)), content)
	}
	return folder
}
