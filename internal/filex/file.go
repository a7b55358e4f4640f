package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates base/dirName and returns its absolute path. An
// empty base means the working directory.
func EnsureDir(base, dirName string) (string, error) {
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		base = cwd
	}

	dir, err := filepath.Abs(filepath.Join(base, dirName))
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dirName, err)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
