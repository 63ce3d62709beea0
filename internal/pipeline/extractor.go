package pipeline

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ExtractZip unpacks an archive into outDir, creating it and any
// intermediate directories as needed. Entries are streamed to disk with at
// most width concurrent writers to cap open file handles and memory.
// A failure leaves a partially extracted tree behind; cleaning it up is
// the caller's job. The archive handle is released on every exit path.
func ExtractZip(ctx context.Context, zipPath, outDir string, width int) error {
	if width < 1 {
		width = 1
	}

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return &ExtractionError{Archive: zipPath, Err: fmt.Errorf("open archive: %w", err)}
	}
	defer reader.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &ExtractionError{Archive: zipPath, Err: fmt.Errorf("create output dir: %w", err)}
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(width)

	for _, entry := range reader.File {
		entry := entry
		target, err := entryPath(outDir, entry.Name)
		if err != nil {
			return &ExtractionError{Archive: zipPath, Err: err}
		}

		if entry.FileInfo().IsDir() {
			// Directory markers are cheap; no need to fan these out.
			if err := os.MkdirAll(target, 0o755); err != nil {
				return &ExtractionError{Archive: zipPath, Err: fmt.Errorf("create dir %s: %w", entry.Name, err)}
			}
			continue
		}

		eg.Go(func() error {
			return extractEntry(entry, target)
		})
	}

	if err := eg.Wait(); err != nil {
		return &ExtractionError{Archive: zipPath, Err: err}
	}

	return nil
}

// entryPath maps an archive entry name to its output location, rejecting
// names that would escape outDir.
func entryPath(outDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes output directory", name)
	}
	return filepath.Join(outDir, cleaned), nil
}

func extractEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", entry.Name, err)
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	_, copyErr := io.Copy(out, rc)
	closeErr := out.Close()

	if copyErr != nil {
		return fmt.Errorf("write entry %s: %w", entry.Name, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", target, closeErr)
	}

	return nil
}
