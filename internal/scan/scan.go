// Package scan discovers local skill bundles and reads their files.
//
// A skill folder is a directory containing SKILL.md. A root is either a
// skill folder itself or a directory whose immediate children are skill
// folders.
package scan

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/model"
)

// SkillFileName is the marker file that makes a directory a skill folder.
const SkillFileName = "SKILL.md"

// skillFileNames lists accepted spellings of the marker file.
var skillFileNames = []string{SkillFileName, "skill.md"}

// FindSkillFolders returns the bundles under root. A missing root is not an
// error and yields no bundles.
func FindSkillFolders(root string) ([]model.LocalBundle, error) {
	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		logging.Debug("skill root not found", logging.Path(root))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("skill root %q is not a directory", root)
	}

	if skillFile(root) != "" {
		bundle, err := ReadBundle(root)
		if err != nil {
			return nil, err
		}
		return []model.LocalBundle{bundle}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read root %q: %w", root, err)
	}

	var bundles []model.LocalBundle
	for _, entry := range entries {
		if skipDir(entry.Name()) {
			continue
		}
		folder := filepath.Join(root, entry.Name())
		// os.Stat follows symlinked skill directories
		if fi, err := os.Stat(folder); err != nil || !fi.IsDir() {
			continue
		}
		if skillFile(folder) == "" {
			continue
		}
		bundle, err := ReadBundle(folder)
		if err != nil {
			logging.Warn("skipping unreadable skill folder", logging.Folder(folder), logging.Err(err))
			continue
		}
		bundles = append(bundles, bundle)
	}

	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Slug < bundles[j].Slug })

	logging.Debug("scanned skill root", logging.Path(root), logging.Count(len(bundles)))
	return bundles, nil
}

// FindAll scans each root in order. When two folders share a slug the first
// one wins and the later one is skipped with a warning.
func FindAll(roots []string) ([]model.LocalBundle, error) {
	seen := make(map[string]string)
	var all []model.LocalBundle
	for _, root := range roots {
		bundles, err := FindSkillFolders(root)
		if err != nil {
			return nil, err
		}
		for _, b := range bundles {
			if prev, ok := seen[b.Slug]; ok {
				logging.Warn("duplicate skill slug, keeping first",
					logging.Slug(b.Slug),
					logging.Folder(b.Folder),
					slog.String("kept", prev),
				)
				continue
			}
			seen[b.Slug] = b.Folder
			all = append(all, b)
		}
	}
	return all, nil
}

// ReadBundle builds the LocalBundle for a single skill folder.
func ReadBundle(folder string) (model.LocalBundle, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return model.LocalBundle{}, fmt.Errorf("failed to resolve %q: %w", folder, err)
	}

	slug := Slugify(filepath.Base(abs))
	if slug == "" {
		return model.LocalBundle{}, fmt.Errorf("cannot derive slug from folder %q", abs)
	}

	bundle := model.LocalBundle{
		Folder:      abs,
		Slug:        slug,
		DisplayName: TitleCase(slug),
	}

	name := skillFile(abs)
	if name == "" {
		return bundle, nil
	}
	// #nosec G304 - path is inside a discovered skill folder
	content, err := os.ReadFile(filepath.Join(abs, name))
	if err != nil {
		return model.LocalBundle{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	meta, err := ParseMetadata(content)
	if err != nil {
		logging.Warn("ignoring invalid frontmatter", logging.Folder(abs), logging.Err(err))
		return bundle, nil
	}
	if n := strings.TrimSpace(meta.Name); n != "" {
		bundle.DisplayName = n
	}
	bundle.Summary = strings.TrimSpace(meta.Description)
	return bundle, nil
}

// Slugify turns a folder name into a registry slug: lowercase ASCII
// alphanumerics joined by single dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	slug := b.String()
	if len(slug) > model.MaxSlugLength {
		slug = strings.TrimRight(slug[:model.MaxSlugLength], "-")
	}
	return slug
}

// TitleCase renders a slug as a display name, e.g. "pdf-tools" -> "Pdf Tools".
func TitleCase(slug string) string {
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(slug, "-", " "))
}

func skillFile(dir string) string {
	for _, name := range skillFileNames {
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil && fi.Mode().IsRegular() {
			return name
		}
	}
	return ""
}

// skipDir reports whether a directory never holds skill content.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}
