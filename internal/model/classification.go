package model

import "fmt"

// Classification is the sync decision for one local bundle.
// It is recomputed on every run and never stored.
type Classification int

const (
	// ClassificationNew means the slug does not exist in the registry.
	ClassificationNew Classification = iota + 1
	// ClassificationSynced means the local content already exists in the skill's history.
	ClassificationSynced
	// ClassificationNeedsUpdate means the slug exists but no published version has this content.
	ClassificationNeedsUpdate
)

// String returns the display label for c.
func (c Classification) String() string {
	switch c {
	case ClassificationNew:
		return "new"
	case ClassificationSynced:
		return "synced"
	case ClassificationNeedsUpdate:
		return "update"
	default:
		panic(fmt.Sprintf("model: invalid classification %d", int(c)))
	}
}

// NeedsPublish reports whether a bundle with this classification should be uploaded.
func (c Classification) NeedsPublish() bool {
	switch c {
	case ClassificationNew, ClassificationNeedsUpdate:
		return true
	case ClassificationSynced:
		return false
	default:
		panic(fmt.Sprintf("model: invalid classification %d", int(c)))
	}
}

// RequiresChangelog reports whether an interactive publish must collect a
// non-empty changelog. New skills have no prior version to describe them.
func (c Classification) RequiresChangelog() bool {
	return c == ClassificationNew
}
