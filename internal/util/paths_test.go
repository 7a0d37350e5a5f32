package util

import (
	"path/filepath"
	"testing"
)

func TestHomeDir(t *testing.T) {
	home := HomeDir()
	if home == "" {
		t.Error("HomeDir() returned empty string")
	}

	// Verify it's an absolute path
	if !filepath.IsAbs(home) {
		t.Errorf("HomeDir() returned relative path: %s", home)
	}
}

func TestSkillhubPaths(t *testing.T) {
	want := filepath.Join(HomeDir(), ".skillhub")
	if got := SkillhubConfigPath(); got != want {
		t.Errorf("SkillhubConfigPath() = %q, want %q", got, want)
	}
	if got := SkillhubDataPath(); got != filepath.Join(want, "data") {
		t.Errorf("SkillhubDataPath() = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	tests := map[string]struct {
		path    string
		baseDir string
		want    string
	}{
		"empty":    {path: "", baseDir: "/base", want: ""},
		"tilde":    {path: "~", baseDir: "/base", want: HomeDir()},
		"home":     {path: "~/skills", baseDir: "/base", want: filepath.Join(HomeDir(), "skills")},
		"absolute": {path: "/opt/skills/../skills", baseDir: "/base", want: "/opt/skills"},
		"relative": {path: "skills", baseDir: "/base", want: "/base/skills"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ExpandPath(tt.path, tt.baseDir); got != tt.want {
				t.Errorf("ExpandPath(%q, %q) = %q, want %q", tt.path, tt.baseDir, got, tt.want)
			}
		})
	}
}

func TestExpandPaths_Dedup(t *testing.T) {
	got := ExpandPaths([]string{"a", "", "/base/a", "b"}, "/base")
	want := []string{"/base/a", "/base/b"}
	if len(got) != len(want) {
		t.Fatalf("ExpandPaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExpandPaths()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
