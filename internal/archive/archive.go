// Package archive packs skill bundle versions into tar.gz files and unpacks
// them again, checking every file against the bundle manifest.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/scan"
)

// ManifestName is the archive entry holding the bundle manifest. It is a
// dot file so scans of an installed bundle never include it.
const ManifestName = ".skillhub.json"

// FormatVersion is the archive layout version.
const FormatVersion = "1.0"

// ErrHashMismatch is returned when extracted content does not match the manifest.
var ErrHashMismatch = errors.New("archive content does not match manifest")

// ErrEntryTooLarge is returned for an archive member over scan.MaxFileSize.
var ErrEntryTooLarge = errors.New("archive entry too large")

// Manifest represents the metadata for an archive
type Manifest struct {
	Format      string            `json:"format"`
	CreatedAt   time.Time         `json:"created_at"`
	Slug        string            `json:"slug"`
	Version     string            `json:"version"`
	ContentHash model.ContentHash `json:"content_hash"`
	Files       model.Manifest    `json:"files"`
}

// File is one archive member.
type File struct {
	Path string
	Data []byte
}

// ExtractOptions configures archive extraction
type ExtractOptions struct {
	TargetDir string // Target directory for extraction
	DryRun    bool   // Verify without writing files
}

// Create writes a tar.gz archive containing files and a manifest describing
// them. The manifest's Files and ContentHash are computed from files.
func Create(w io.Writer, slug, version string, files []File) (*Manifest, error) {
	manifest := &Manifest{
		Format:    FormatVersion,
		CreatedAt: time.Now().UTC(),
		Slug:      slug,
		Version:   version,
		Files:     make(model.Manifest, 0, len(files)),
	}
	for _, f := range files {
		if err := checkPath(f.Path); err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, model.FileEntry{
			Path:   f.Path,
			SHA256: hashing.Bytes(f.Data),
			Size:   int64(len(f.Data)),
		})
	}
	hash, err := hashing.HashManifest(manifest.Files)
	if err != nil {
		return nil, err
	}
	manifest.ContentHash = hash

	gzWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzWriter)

	for _, f := range files {
		if err := writeEntry(tarWriter, f.Path, f.Data, manifest.CreatedAt); err != nil {
			return nil, err
		}
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := writeEntry(tarWriter, ManifestName, manifestData, manifest.CreatedAt); err != nil {
		return nil, err
	}

	if err := tarWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return manifest, nil
}

func writeEntry(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write data for %s: %w", name, err)
	}
	return nil
}

// Extract reads a bundle archive, verifies every file against the manifest,
// and writes the files under opts.TargetDir unless DryRun is set. Nothing is
// written when verification fails.
func Extract(r io.Reader, opts ExtractOptions) ([]File, *Manifest, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() { _ = gzReader.Close() }()

	tarReader := tar.NewReader(gzReader)

	var manifest *Manifest
	var files []File
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		if header.Size > scan.MaxFileSize {
			return nil, nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, header.Name)
		}
		data, err := io.ReadAll(io.LimitReader(tarReader, scan.MaxFileSize+1))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read entry %s: %w", header.Name, err)
		}
		if int64(len(data)) > scan.MaxFileSize {
			return nil, nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, header.Name)
		}

		if header.Name == ManifestName {
			if err := json.Unmarshal(data, &manifest); err != nil {
				return nil, nil, fmt.Errorf("failed to parse manifest: %w", err)
			}
			continue
		}
		if err := checkPath(header.Name); err != nil {
			return nil, nil, err
		}
		files = append(files, File{Path: header.Name, Data: data})
	}

	if manifest == nil {
		return nil, nil, fmt.Errorf("archive missing %s", ManifestName)
	}
	if err := Verify(manifest, files); err != nil {
		return nil, nil, err
	}

	if opts.TargetDir != "" && !opts.DryRun {
		if err := writeFiles(opts.TargetDir, files); err != nil {
			return nil, nil, err
		}
	}
	return files, manifest, nil
}

// Verify checks files against the manifest entries and content hash.
func Verify(manifest *Manifest, files []File) error {
	if len(files) != len(manifest.Files) {
		return fmt.Errorf("%w: %d files, manifest lists %d", ErrHashMismatch, len(files), len(manifest.Files))
	}
	entries := make(model.Manifest, 0, len(files))
	for _, f := range files {
		want, ok := manifest.Files.Lookup(f.Path)
		if !ok {
			return fmt.Errorf("%w: unexpected file %s", ErrHashMismatch, f.Path)
		}
		got := hashing.Bytes(f.Data)
		if got != want.SHA256 {
			return fmt.Errorf("%w: %s", ErrHashMismatch, f.Path)
		}
		entries = append(entries, model.FileEntry{Path: f.Path, SHA256: got})
	}
	hash, err := hashing.HashManifest(entries)
	if err != nil {
		return err
	}
	if manifest.ContentHash != "" && hash != manifest.ContentHash {
		return fmt.Errorf("%w: content hash %s, manifest says %s", ErrHashMismatch, hash.Short(), manifest.ContentHash.Short())
	}
	return nil
}

func writeFiles(targetDir string, files []File) error {
	for _, f := range files {
		dest := filepath.Join(targetDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}
		// #nosec G306 - bundle files are plain text meant to be readable
		if err := os.WriteFile(dest, f.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", dest, err)
		}
	}
	return nil
}

// checkPath rejects member names that would escape the target directory.
func checkPath(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return fmt.Errorf("invalid archive path %q", name)
	}
	clean := path.Clean(name)
	if clean != name || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("invalid archive path %q", name)
	}
	return nil
}
