// Package filex holds small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureParentDir creates the directory that will hold path. Relative paths
// are resolved against the working directory. It returns the directory.
func EnsureParentDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// IsFilePath reports whether a sqlite DSN names a plain file, as opposed to
// an in-memory database or a file: URI.
func IsFilePath(dsn string) bool {
	if dsn == "" || strings.HasPrefix(dsn, ":memory:") {
		return false
	}
	return !strings.HasPrefix(dsn, "file:")
}
