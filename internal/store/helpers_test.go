package store

import (
	"os"
	"path/filepath"
)

func writeRaw(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), BlobFilePerm)
}
