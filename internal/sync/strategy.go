package sync

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// BumpStrategy selects which semver component is incremented when a changed
// skill is republished.
type BumpStrategy string

const (
	// BumpPatch increments the patch version: 1.2.3 -> 1.2.4.
	BumpPatch BumpStrategy = "patch"

	// BumpMinor increments the minor version: 1.2.3 -> 1.3.0.
	BumpMinor BumpStrategy = "minor"

	// BumpMajor increments the major version: 1.2.3 -> 2.0.0.
	BumpMajor BumpStrategy = "major"
)

// IsValid returns true if the strategy is recognized.
func (b BumpStrategy) IsValid() bool {
	switch b {
	case BumpPatch, BumpMinor, BumpMajor:
		return true
	default:
		return false
	}
}

// AllBumpStrategies returns all supported bump strategies.
func AllBumpStrategies() []BumpStrategy {
	return []BumpStrategy{BumpPatch, BumpMinor, BumpMajor}
}

// String returns the string representation of the strategy.
func (b BumpStrategy) String() string {
	return string(b)
}

// Description returns a human-readable description of the strategy.
func (b BumpStrategy) Description() string {
	switch b {
	case BumpPatch:
		return "Increment the patch version (bug fixes)"
	case BumpMinor:
		return "Increment the minor version (new features)"
	case BumpMajor:
		return "Increment the major version (breaking changes)"
	default:
		return "Unknown bump strategy"
	}
}

// Apply returns version bumped by b. Prerelease and build suffixes are
// dropped, so 1.2.3-beta.1 bumps to 1.2.4 with BumpPatch.
func (b BumpStrategy) Apply(version string) (string, error) {
	if !b.IsValid() {
		return "", fmt.Errorf("unknown bump strategy %q", b)
	}
	sv := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(sv) {
		return "", fmt.Errorf("cannot bump invalid version %q", version)
	}

	// Canonical fills shorthand forms (v1.2 -> v1.2.0) and drops build metadata.
	core, _, _ := strings.Cut(strings.TrimPrefix(semver.Canonical(sv), "v"), "-")
	var major, minor, patch int
	if _, err := fmt.Sscanf(core, "%d.%d.%d", &major, &minor, &patch); err != nil {
		return "", fmt.Errorf("cannot bump version %q: %w", version, err)
	}

	switch b {
	case BumpMajor:
		major, minor, patch = major+1, 0, 0
	case BumpMinor:
		minor, patch = minor+1, 0
	default:
		patch++
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch), nil
}
