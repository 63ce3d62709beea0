package pipeline

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestListFilesRegularFilesOnly(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "sub", "deeper", "c.txt"), "c")

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("listed %d entries, want 3: %v", len(files), files)
	}
	for _, file := range files {
		if !filepath.IsAbs(file) {
			t.Fatalf("expected absolute path, got %s", file)
		}
	}
}

func TestListFilesStableOrder(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "z.txt"), "z")
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "m", "n.txt"), "n")

	first, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	second, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("listing not stable: %v vs %v", first, second)
	}
}

func TestListFilesMissingDir(t *testing.T) {
	if _, err := ListFiles(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
