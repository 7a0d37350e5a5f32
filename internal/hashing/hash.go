// Package hashing computes canonical content hashes for skill bundles.
//
// A bundle's content hash depends only on the set of (path, sha256) pairs in
// its manifest. Enumeration order, file sizes, and storage references do not
// contribute, so clients and the registry derive the same hash independently.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/klauern/skillhub/internal/model"
)

// HashLength is the length of a hex-encoded SHA-256 digest.
const HashLength = sha256.Size * 2

// ErrDuplicatePath matches any *DuplicatePathError.
var ErrDuplicatePath = errors.New("duplicate path in manifest")

// DuplicatePathError reports a path that occurs more than once in a manifest.
type DuplicatePathError struct {
	Path string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("duplicate path in manifest: %q", e.Path)
}

// Is lets errors.Is(err, ErrDuplicatePath) match.
func (e *DuplicatePathError) Is(target error) bool {
	return target == ErrDuplicatePath
}

// HashManifest returns the canonical content hash of files.
//
// Entries are sorted by path using byte-wise ordering and each contributes
// "path\nsha256\n" to a single SHA-256 digest. An empty manifest hashes to the
// digest of the empty string.
func HashManifest(files model.Manifest) (model.ContentHash, error) {
	sorted := make(model.Manifest, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Path == sorted[i-1].Path {
			return "", &DuplicatePathError{Path: sorted[i].Path}
		}
	}

	h := sha256.New()
	for _, f := range sorted {
		h.Write([]byte(f.Path))
		h.Write([]byte{'\n'})
		h.Write([]byte(f.SHA256))
		h.Write([]byte{'\n'})
	}
	return model.ContentHash(hex.EncodeToString(h.Sum(nil))), nil
}

// Bytes returns the lowercase hex SHA-256 of data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsContentHash reports whether s has the shape of a content hash:
// exactly 64 lowercase hexadecimal characters.
func IsContentHash(s string) bool {
	if len(s) != HashLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
