package io

import (
	"fmt"
	"os"
	"path/filepath"
)

// MakeDirForFile ensures the parent directory of filePath exists. The creator
// is only used to describe the error.
func MakeDirForFile(filePath string, creator string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return fmt.Errorf("could not create dir for %s: %w", creator, err)
	}
	return nil
}
