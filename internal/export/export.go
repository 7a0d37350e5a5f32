// Package export renders an inventory of local skill folders as JSON, YAML
// or Markdown.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/scan"
)

// Format represents the output format for exported skills.
type Format string

const (
	// FormatJSON exports skills as JSON.
	FormatJSON Format = "json"
	// FormatYAML exports skills as YAML.
	FormatYAML Format = "yaml"
	// FormatMarkdown exports skills as Markdown.
	FormatMarkdown Format = "markdown"
)

// IsValid returns true if the format is recognized.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatMarkdown:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a string into a Format.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("unsupported format %q (valid: json, yaml, markdown)", s)
	}
	return format, nil
}

// Options configures export behavior.
type Options struct {
	Format Format
	// Pretty enables indentation for JSON.
	Pretty bool
	// IncludeFiles lists every manifest entry per skill.
	IncludeFiles bool
}

// DefaultOptions returns the default export options.
func DefaultOptions() Options {
	return Options{
		Format: FormatJSON,
		Pretty: true,
	}
}

// Entry is one exported skill folder.
type Entry struct {
	Slug        string            `json:"slug" yaml:"slug"`
	DisplayName string            `json:"displayName" yaml:"displayName"`
	Summary     string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	Folder      string            `json:"folder" yaml:"folder"`
	ContentHash model.ContentHash `json:"contentHash" yaml:"contentHash"`
	FileCount   int               `json:"fileCount" yaml:"fileCount"`
	Size        int64             `json:"size" yaml:"size"`
	Files       model.Manifest    `json:"files,omitempty" yaml:"files,omitempty"`
}

// Collect hashes every bundle and returns one entry per folder, in order.
func Collect(bundles []model.LocalBundle) ([]Entry, error) {
	entries := make([]Entry, 0, len(bundles))
	for _, b := range bundles {
		manifest, hash, err := scan.HashFolder(b.Folder)
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", b.Folder, err)
		}
		entries = append(entries, Entry{
			Slug:        b.Slug,
			DisplayName: b.DisplayName,
			Summary:     b.Summary,
			Folder:      b.Folder,
			ContentHash: hash,
			FileCount:   len(manifest),
			Size:        manifest.TotalSize(),
			Files:       manifest,
		})
	}
	return entries, nil
}

// Exporter handles exporting skills to different formats.
type Exporter struct {
	opts Options
}

// New creates a new Exporter with the given options.
func New(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes entries to w in the configured format.
func (e *Exporter) Export(entries []Entry, w io.Writer) error {
	defer logging.Timer("export")()

	logging.Debug("starting export",
		slog.String("format", string(e.opts.Format)),
		logging.Count(len(entries)),
		logging.Operation("export"),
	)

	if !e.opts.IncludeFiles {
		trimmed := make([]Entry, len(entries))
		for i, entry := range entries {
			entry.Files = nil
			trimmed[i] = entry
		}
		entries = trimmed
	}

	var err error
	switch e.opts.Format {
	case FormatJSON:
		err = e.exportJSON(entries, w)
	case FormatYAML:
		err = e.exportYAML(entries, w)
	case FormatMarkdown:
		err = e.exportMarkdown(entries, w)
	default:
		err = fmt.Errorf("unsupported format: %s", e.opts.Format)
	}
	if err != nil {
		logging.Error("export failed",
			slog.String("format", string(e.opts.Format)),
			logging.Err(err),
		)
		return err
	}
	return nil
}

func (e *Exporter) exportJSON(entries []Entry, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if e.opts.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(entries)
}

func (e *Exporter) exportYAML(entries []Entry, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(entries); err != nil {
		_ = encoder.Close()
		return err
	}
	return encoder.Close()
}

func (e *Exporter) exportMarkdown(entries []Entry, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("# Skills\n\n")
	sb.WriteString(fmt.Sprintf("Total: %d skill(s)\n", len(entries)))

	for _, entry := range entries {
		sb.WriteString("\n")
		sb.WriteString(e.formatMarkdownEntry(entry))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (e *Exporter) formatMarkdownEntry(entry Entry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s\n\n", entry.DisplayName))
	if entry.Summary != "" {
		sb.WriteString(fmt.Sprintf("*%s*\n\n", entry.Summary))
	}

	sb.WriteString("| Property | Value |\n")
	sb.WriteString("|----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Slug | `%s` |\n", entry.Slug))
	sb.WriteString(fmt.Sprintf("| Folder | `%s` |\n", entry.Folder))
	sb.WriteString(fmt.Sprintf("| Hash | `%s` |\n", entry.ContentHash))
	sb.WriteString(fmt.Sprintf("| Files | %d (%s) |\n", entry.FileCount, humanize.Bytes(uint64(entry.Size))))

	if len(entry.Files) > 0 {
		sb.WriteString("\n### Files\n\n")
		for _, f := range entry.Files {
			sb.WriteString(fmt.Sprintf("- `%s` %s\n", f.Path, humanize.Bytes(uint64(f.Size))))
		}
	}
	return sb.String()
}
