package model

// FileEntry describes one file of a bundle by its relative path and content digest.
type FileEntry struct {
	Path      string `json:"path"`
	SHA256    string `json:"sha256"`
	Size      int64  `json:"size"`
	StorageID string `json:"storageId,omitempty"`
}

// Manifest is the set of files making up one bundle version, keyed by path.
// Enumeration order carries no meaning.
type Manifest []FileEntry

// TotalSize returns the combined size of all files in bytes.
func (m Manifest) TotalSize() int64 {
	var total int64
	for _, f := range m {
		total += f.Size
	}
	return total
}

// Lookup returns the entry for path.
func (m Manifest) Lookup(path string) (FileEntry, bool) {
	for _, f := range m {
		if f.Path == path {
			return f, true
		}
	}
	return FileEntry{}, false
}

// ContentHash is the canonical digest of a manifest: 64 lowercase hex characters.
type ContentHash string

// String returns the hash as a plain string.
func (h ContentHash) String() string {
	return string(h)
}

// Short returns an abbreviated form suitable for display.
func (h ContentHash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}
