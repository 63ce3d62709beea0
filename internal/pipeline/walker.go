package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// ListFiles returns the absolute path of every regular file under dir,
// descending into all subdirectories. Directory entries themselves are
// never yielded. WalkDir visits in lexical order, so the result is stable
// for an unchanged tree.
func ListFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files = append(files, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	return files, nil
}
