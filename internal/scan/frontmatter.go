package scan

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Frontmatter delimiters. YAML uses ---, TOML uses +++.
var (
	yamlDelimiter = []byte("---")
	tomlDelimiter = []byte("+++")
)

// Metadata is the subset of SKILL.md frontmatter skillhub cares about.
type Metadata struct {
	Name        string   `yaml:"name" toml:"name"`
	Description string   `yaml:"description" toml:"description"`
	Tags        []string `yaml:"tags" toml:"tags"`
}

// FrontmatterResult contains the parsed frontmatter and remaining content.
type FrontmatterResult struct {
	// Frontmatter contains the raw frontmatter bytes
	Frontmatter []byte
	// Delimiter is the fence that enclosed the frontmatter
	Delimiter []byte
	// Content contains the remaining content after frontmatter
	Content string
	// HasFrontmatter indicates whether frontmatter was found
	HasFrontmatter bool
}

// SplitFrontmatter extracts YAML (---) or TOML (+++) frontmatter from content.
func SplitFrontmatter(content []byte) FrontmatterResult {
	for _, delim := range [][]byte{yamlDelimiter, tomlDelimiter} {
		if hasFence(content, delim) {
			return extractFrontmatter(content, delim)
		}
	}
	return FrontmatterResult{Content: string(content)}
}

func hasFence(content, delim []byte) bool {
	rest, ok := bytes.CutPrefix(content, delim)
	if !ok {
		return false
	}
	return bytes.HasPrefix(rest, []byte("\n")) || bytes.HasPrefix(rest, []byte("\r\n"))
}

// extractFrontmatter extracts frontmatter between delimiters.
func extractFrontmatter(content, delimiter []byte) FrontmatterResult {
	// Normalize Windows line endings so a single search covers both.
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	remaining := normalized[len(delimiter)+1:]

	var frontmatter, body []byte
	switch {
	case bytes.HasPrefix(remaining, delimiter):
		// Empty frontmatter: ---\n---\n
		body = remaining[len(delimiter):]
	default:
		closing := append([]byte("\n"), delimiter...)
		idx := bytes.Index(remaining, closing)
		if idx == -1 {
			// No closing delimiter, treat entire content as body
			return FrontmatterResult{Content: string(content)}
		}
		frontmatter = remaining[:idx]
		body = remaining[idx+len(closing):]
	}
	body = bytes.TrimPrefix(body, []byte("\n"))

	return FrontmatterResult{
		Frontmatter:    frontmatter,
		Delimiter:      delimiter,
		Content:        string(body),
		HasFrontmatter: true,
	}
}

// ParseMetadata reads SKILL.md frontmatter. Content without frontmatter
// yields zero Metadata and no error.
func ParseMetadata(content []byte) (Metadata, error) {
	var meta Metadata
	result := SplitFrontmatter(content)
	if !result.HasFrontmatter || len(bytes.TrimSpace(result.Frontmatter)) == 0 {
		return meta, nil
	}

	if bytes.Equal(result.Delimiter, tomlDelimiter) {
		if _, err := toml.Decode(string(result.Frontmatter), &meta); err != nil {
			return Metadata{}, fmt.Errorf("failed to parse TOML frontmatter: %w", err)
		}
		return meta, nil
	}

	if err := yaml.Unmarshal(result.Frontmatter, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}
	return meta, nil
}
