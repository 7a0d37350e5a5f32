package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// SkillhubConfigPath returns the skillhub configuration directory
func SkillhubConfigPath() string {
	return filepath.Join(HomeDir(), ".skillhub")
}

// SkillhubDataPath returns the default data directory of the registry server
func SkillhubDataPath() string {
	return filepath.Join(SkillhubConfigPath(), "data")
}

// SkillhubBackupsPath returns the directory holding folder backups taken
// before an install overwrites a skill
func SkillhubBackupsPath() string {
	return filepath.Join(SkillhubConfigPath(), "backups")
}

// ExpandPath expands a leading ~ to the home directory and resolves relative
// paths against baseDir. An empty path stays empty.
func ExpandPath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			baseDir = wd
		}
	}
	return filepath.Join(baseDir, path)
}

// ExpandPaths expands every path, dropping empty and duplicate results
// while keeping the original order.
func ExpandPaths(paths []string, baseDir string) []string {
	seen := make(map[string]bool, len(paths))
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		expanded := ExpandPath(p, baseDir)
		if expanded == "" || seen[expanded] {
			continue
		}
		seen[expanded] = true
		result = append(result, expanded)
	}
	return result
}
