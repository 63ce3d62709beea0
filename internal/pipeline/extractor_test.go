package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractZipRoundTrip(t *testing.T) {
	dir := t.TempDir()

	entries := map[string]string{
		"root.txt":           "root content",
		"docs/":              "",
		"docs/a.txt":         "a content",
		"docs/deep/b.pdf":    "b content",
		"docs/deep/c 1.docx": "c content",
	}
	zipPath := filepath.Join(dir, "in.zip")
	writeZip(t, zipPath, entries)

	outDir := filepath.Join(dir, "out")
	if err := ExtractZip(context.Background(), zipPath, outDir, 4); err != nil {
		t.Fatalf("ExtractZip failed: %v", err)
	}

	files, err := ListFiles(outDir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	want := map[string]string{
		"root.txt":           "root content",
		"docs/a.txt":         "a content",
		"docs/deep/b.pdf":    "b content",
		"docs/deep/c 1.docx": "c content",
	}
	if len(files) != len(want) {
		t.Fatalf("extracted %d files, want %d: %v", len(files), len(want), files)
	}

	for rel, content := range want {
		data, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("missing extracted file %s: %v", rel, err)
		}
		if string(data) != content {
			t.Fatalf("file %s content = %q, want %q", rel, data, content)
		}
	}
}

func TestExtractZipSerialWidth(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "in.zip")
	writeZip(t, zipPath, map[string]string{"one.txt": "1", "two.txt": "2"})

	outDir := filepath.Join(dir, "out")
	if err := ExtractZip(context.Background(), zipPath, outDir, 0); err != nil {
		t.Fatalf("ExtractZip with width 0 failed: %v", err)
	}

	files, err := ListFiles(outDir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("extracted %d files, want 2", len(files))
	}
}

func TestExtractZipRejectsCorruptArchive(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "broken.zip")
	writeFile(t, zipPath, "this is not a zip")

	err := ExtractZip(context.Background(), zipPath, filepath.Join(dir, "out"), 4)
	if err == nil {
		t.Fatal("expected error for corrupt archive")
	}
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %T: %v", err, err)
	}
}

func TestExtractZipRejectsEscapingEntry(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{"../evil.txt": "escape attempt"})

	outDir := filepath.Join(dir, "out")
	if err := ExtractZip(context.Background(), zipPath, outDir, 4); err == nil {
		t.Fatal("expected error for entry escaping output dir")
	}

	if _, err := os.Stat(filepath.Join(dir, "evil.txt")); !os.IsNotExist(err) {
		t.Fatal("escaping entry was written outside the output dir")
	}
}
