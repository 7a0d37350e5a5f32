package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/model"
)

// MaxFileSize is the largest single file accepted into a bundle.
const MaxFileSize = 10 << 20

// textExtensions is the allow-list of bundle file types.
var textExtensions = map[string]bool{
	".md": true, ".mdx": true, ".txt": true, ".rst": true,
	".json": true, ".jsonl": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".cfg": true, ".conf": true, ".env": true, ".csv": true, ".tsv": true,
	".xml": true, ".html": true, ".css": true, ".svg": true,
	".js": true, ".mjs": true, ".cjs": true, ".ts": true, ".tsx": true, ".jsx": true,
	".py": true, ".rb": true, ".go": true, ".rs": true, ".java": true, ".kt": true,
	".swift": true, ".c": true, ".h": true, ".cpp": true, ".hpp": true,
	".sh": true, ".bash": true, ".zsh": true, ".fish": true, ".ps1": true,
	".sql": true, ".lua": true, ".pl": true, ".php": true,
}

// File is one bundle file read from disk.
type File struct {
	// Path is relative to the bundle folder and always slash separated.
	Path string
	Data []byte
}

// Entry returns the manifest entry describing f.
func (f File) Entry() model.FileEntry {
	return model.FileEntry{
		Path:   f.Path,
		SHA256: hashing.Bytes(f.Data),
		Size:   int64(len(f.Data)),
	}
}

// IsTextFile reports whether a relative path has an allowed extension.
func IsTextFile(rel string) bool {
	return textExtensions[strings.ToLower(path.Ext(rel))]
}

// ListTextFiles reads every text file in folder, sorted by path. Hidden
// entries, node_modules, non-text extensions, oversized files and files that
// are not valid UTF-8 are skipped.
func ListTextFiles(folder string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(folder, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == folder {
			return nil
		}
		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(folder, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !IsTextFile(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > MaxFileSize {
			return nil
		}

		// #nosec G304 - p comes from walking the bundle folder
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", rel, err)
		}
		if !utf8.Valid(data) {
			return nil
		}
		files = append(files, File{Path: rel, Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files in %q: %w", folder, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// BuildManifest returns the manifest describing files.
func BuildManifest(files []File) model.Manifest {
	m := make(model.Manifest, 0, len(files))
	for _, f := range files {
		m = append(m, f.Entry())
	}
	return m
}

// HashFolder lists folder's text files and returns their manifest and
// content hash.
func HashFolder(folder string) (model.Manifest, model.ContentHash, error) {
	files, err := ListTextFiles(folder)
	if err != nil {
		return nil, "", err
	}
	manifest := BuildManifest(files)
	hash, err := hashing.HashManifest(manifest)
	if err != nil {
		return nil, "", err
	}
	return manifest, hash, nil
}
