// Package similarity scores registry skills against free-text search queries.
package similarity

import (
	"strings"
	"unicode"
)

// Field weights applied to the best term match in each field.
const (
	weightSlug        = 1.0
	weightDisplayName = 0.9
	weightSummary     = 0.5

	// exactBonus is added when the whole query equals the slug.
	exactBonus = 1.0
)

// Document is the searchable text of one skill.
type Document struct {
	Slug        string
	DisplayName string
	Summary     string
}

// Config configures a Scorer.
type Config struct {
	// Threshold is the minimum fuzzy similarity (0.0-1.0) for a term to
	// match a word it does not contain. Default: 0.85
	Threshold float64
	// Algorithm is "levenshtein", "jaro-winkler", or "combined".
	// Default: "combined"
	Algorithm string
}

// DefaultConfig returns the scorer defaults used by the registry.
func DefaultConfig() Config {
	return Config{Threshold: 0.85, Algorithm: "combined"}
}

// Scorer ranks documents against a query.
type Scorer struct {
	config Config
}

// NewScorer creates a Scorer, filling unset fields from DefaultConfig.
func NewScorer(config Config) *Scorer {
	if config.Threshold <= 0 || config.Threshold > 1 {
		config.Threshold = DefaultConfig().Threshold
	}
	if config.Algorithm == "" {
		config.Algorithm = DefaultConfig().Algorithm
	}
	return &Scorer{config: config}
}

// Score returns how well doc matches query. Every query term must match some
// field; otherwise the score is 0.
func (s *Scorer) Score(query string, doc Document) float64 {
	terms := strings.Fields(Normalize(query))
	if len(terms) == 0 {
		return 0
	}

	fields := []struct {
		words  []string
		weight float64
	}{
		{strings.Fields(Normalize(doc.Slug)), weightSlug},
		{strings.Fields(Normalize(doc.DisplayName)), weightDisplayName},
		{strings.Fields(Normalize(doc.Summary)), weightSummary},
	}

	total := 0.0
	for _, term := range terms {
		best := 0.0
		for _, f := range fields {
			best = max(best, s.termScore(term, f.words)*f.weight)
		}
		if best == 0 {
			return 0
		}
		total += best
	}

	score := total / float64(len(terms))
	if Normalize(query) == Normalize(doc.Slug) {
		score += exactBonus
	}
	return score
}

// termScore is 1 for an exact word, 0.8 for a word containing the term,
// and a discounted fuzzy similarity above the threshold.
func (s *Scorer) termScore(term string, words []string) float64 {
	best := 0.0
	for _, w := range words {
		switch {
		case w == term:
			return 1.0
		case strings.Contains(w, term):
			best = max(best, 0.8)
		default:
			if sim := s.Compare(term, w); sim >= s.config.Threshold {
				best = max(best, 0.6*sim)
			}
		}
	}
	return best
}

// Compare returns the similarity of two already-normalized words (0.0-1.0).
func (s *Scorer) Compare(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	switch s.config.Algorithm {
	case "levenshtein":
		return LevenshteinSimilarity(a, b)
	case "jaro-winkler":
		return JaroWinkler(a, b)
	default:
		return max(LevenshteinSimilarity(a, b), JaroWinkler(a, b))
	}
}

// Normalize lowercases s, keeps letters and digits, and collapses every run
// of separators into a single space.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			if !space {
				b.WriteRune(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
