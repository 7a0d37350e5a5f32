// Package resolver matches content hashes against a skill's version history.
package resolver

import (
	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/model"
)

// ErrMalformedHash is returned when the target is not a 64 character
// lowercase hex string. It is a validation error, distinct from a miss.
var ErrMalformedHash = &apierr.Error{Kind: apierr.KindValidation, Message: "Invalid hash"}

// Resolution carries the two independent facts a resolve produces: whether
// the exact content exists anywhere in history, and what the newest version is.
type Resolution struct {
	Match  *model.SkillVersion `json:"match"`
	Latest *model.SkillVersion `json:"latestVersion"`
}

// Found reports whether the target content exists in history.
func (r Resolution) Found() bool {
	return r.Match != nil
}

// MatchesLatest reports whether the matched version is the newest one.
func (r Resolution) MatchesLatest() bool {
	return r.Match != nil && r.Latest != nil && r.Match.Version == r.Latest.Version
}

// Resolve finds the version in history whose content hash equals target.
//
// When several versions share the hash, the most recently created wins, with
// ties broken by the lexicographically greatest version string. Versions
// without a stored hash have it recomputed from their manifest; versions whose
// manifest cannot be hashed are skipped.
func Resolve(history []model.SkillVersion, target string) (Resolution, error) {
	if !hashing.IsContentHash(target) {
		return Resolution{}, ErrMalformedHash
	}

	res := Resolution{Latest: Latest(history)}
	for i := range history {
		v := &history[i]
		h, ok := contentHash(v)
		if !ok || string(h) != target {
			continue
		}
		if res.Match == nil || newer(v, res.Match) {
			res.Match = v
		}
	}
	return res, nil
}

// Latest returns the most recently created version in history, or nil when
// history is empty. Ties on CreatedAt go to the greatest version string.
func Latest(history []model.SkillVersion) *model.SkillVersion {
	var latest *model.SkillVersion
	for i := range history {
		v := &history[i]
		if latest == nil || newer(v, latest) {
			latest = v
		}
	}
	return latest
}

// ContentHash returns the stored hash of v, or recomputes it from the manifest.
func ContentHash(v model.SkillVersion) (model.ContentHash, bool) {
	return contentHash(&v)
}

func contentHash(v *model.SkillVersion) (model.ContentHash, bool) {
	if v.ContentHash != "" {
		return v.ContentHash, true
	}
	h, err := hashing.HashManifest(v.Files)
	if err != nil {
		return "", false
	}
	return h, true
}

func newer(a, b *model.SkillVersion) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Version > b.Version
}
