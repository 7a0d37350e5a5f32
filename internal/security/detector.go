// Package security scans skill bundle files for credentials before they are uploaded.
package security

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/klauern/skillhub/internal/scan"
)

// Severity ranks a finding. Error findings block a publish unless overridden.
type Severity string

// Finding severities.
const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SensitivePattern represents a pattern to detect sensitive data
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
	Severity    Severity
}

// Detector performs sensitive data detection with configurable patterns.
type Detector struct {
	patterns []SensitivePattern
}

// DefaultPatterns returns the default built-in sensitive data patterns.
func DefaultPatterns() []SensitivePattern {
	return []SensitivePattern{
		{
			Name:        "API Key",
			Pattern:     regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['\"]?[a-zA-Z0-9_\-]{16,}['\"]?`),
			Description: "API key pattern detected",
			Severity:    SeverityWarning,
		},
		{
			Name:        "Token",
			Pattern:     regexp.MustCompile(`(?i)(token|access[_-]?token|auth[_-]?token)\s*[:=]\s*['\"]?[a-zA-Z0-9_\-\.]{16,}['\"]?`),
			Description: "Authentication token pattern detected",
			Severity:    SeverityWarning,
		},
		{
			Name:        "Password",
			Pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['\"]?[a-zA-Z0-9_\-@!#$%^&*()]{8,}['\"]?`),
			Description: "Password pattern detected",
			Severity:    SeverityWarning,
		},
		{
			Name:        "AWS Access Key",
			Pattern:     regexp.MustCompile(`(?i)(aws[_-]?access[_-]?key[_-]?id|aws[_-]?key)\s*[:=]\s*['\"]?AKIA[A-Z0-9]{16}['\"]?`),
			Description: "AWS access key detected",
			Severity:    SeverityError,
		},
		{
			Name:        "AWS Secret Key",
			Pattern:     regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key|aws[_-]?secret)\s*[:=]\s*['\"]?[a-zA-Z0-9\/\+]{40}['\"]?`),
			Description: "AWS secret key detected",
			Severity:    SeverityError,
		},
		{
			Name:        "GitHub Token",
			Pattern:     regexp.MustCompile(`(?i)(github[_-]?token|gh[_-]?token)\s*[:=]\s*['\"]?ghp_[a-zA-Z0-9]{36,}['\"]?`),
			Description: "GitHub personal access token detected",
			Severity:    SeverityError,
		},
		{
			Name:        "Private Key",
			Pattern:     regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE\s+KEY-----`),
			Description: "Private key detected",
			Severity:    SeverityError,
		},
		{
			Name:        "Generic Secret",
			Pattern:     regexp.MustCompile(`(?i)(secret|secret[_-]?key)\s*[:=]\s*['\"]?[a-zA-Z0-9_\-]{16,}['\"]?`),
			Description: "Generic secret pattern detected",
			Severity:    SeverityWarning,
		},
		{
			Name:        "Bearer Token",
			Pattern:     regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-\.]{20,}`),
			Description: "Bearer token detected",
			Severity:    SeverityWarning,
		},
		{
			Name:        "Database Connection String",
			Pattern:     regexp.MustCompile(`(?i)(postgres|mysql|mongodb|redis):\/\/[^:]+:[^@]+@`),
			Description: "Database connection string with credentials detected",
			Severity:    SeverityError,
		},
	}
}

// NewDetector creates a new detector with the given patterns.
// If patterns is empty, DefaultPatterns is used.
func NewDetector(patterns []SensitivePattern) *Detector {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &Detector{patterns: patterns}
}

// Finding is one pattern match inside a bundle file.
type Finding struct {
	File        string
	Pattern     string
	Line        int
	Column      int
	Content     string
	Severity    Severity
	Description string
}

func (f Finding) String() string {
	loc := fmt.Sprintf("line %d", f.Line)
	if f.File != "" {
		loc = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return fmt.Sprintf("%s at %s: %s", f.Description, loc, f.Content)
}

// ScanContent returns the findings for one file's content.
func (d *Detector) ScanContent(file, content string) []Finding {
	if content == "" {
		return nil
	}

	var findings []Finding
	for lineNum, line := range strings.Split(content, "\n") {
		if isFalsePositive(line) {
			continue
		}
		for _, p := range d.patterns {
			loc := p.Pattern.FindStringIndex(line)
			if loc == nil {
				continue
			}
			findings = append(findings, Finding{
				File:        file,
				Pattern:     p.Name,
				Line:        lineNum + 1,
				Column:      loc[0] + 1,
				Content:     truncateLine(line, 80),
				Severity:    p.Severity,
				Description: p.Description,
			})
		}
	}
	return findings
}

// ScanFiles scans every bundle file, ordered by path then line.
func (d *Detector) ScanFiles(files []scan.File) []Finding {
	var findings []Finding
	for _, f := range files {
		findings = append(findings, d.ScanContent(f.Path, string(f.Data))...)
	}
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})
	return findings
}

// ScanFolder lists the text files of a skill folder and scans them.
func ScanFolder(folder string) ([]Finding, error) {
	files, err := scan.ListTextFiles(folder)
	if err != nil {
		return nil, err
	}
	return NewDetector(nil).ScanFiles(files), nil
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// isFalsePositive checks if a line is likely a false positive
func isFalsePositive(line string) bool {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*") {
		return true
	}

	// Documentation placeholders only count when they sit in the value part.
	if strings.ContainsAny(trimmed, ":=") {
		parts := strings.FieldsFunc(trimmed, func(r rune) bool {
			return r == ':' || r == '='
		})
		if len(parts) >= 2 {
			value := strings.ToLower(strings.TrimSpace(parts[1]))
			if strings.Contains(value, "your_") ||
				strings.Contains(value, "<your") ||
				strings.Contains(value, "placeholder") ||
				strings.Contains(value, "example_") ||
				strings.HasPrefix(value, "\"xxx") ||
				strings.HasPrefix(value, "'xxx") ||
				value == "xxxxxxxxxxxxx" {
				return true
			}
		}
	}

	return false
}

func truncateLine(line string, maxLen int) string {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) <= maxLen {
		return trimmed
	}
	return trimmed[:maxLen-3] + "..."
}
