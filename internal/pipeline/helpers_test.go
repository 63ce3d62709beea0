package pipeline

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// writeZip builds a zip archive at path from entry name -> content.
// Entries with a trailing slash become directory markers.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		if name[len(name)-1] == '/' {
			if _, err := w.Create(name); err != nil {
				t.Fatalf("create dir entry %s: %v", name, err)
			}
			continue
		}
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create zip parent dir: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip %s: %v", path, err)
	}
}

// zipBytes builds an in-memory zip from entry name -> content.
func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}

	return buf.Bytes()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create parent dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const validDescriptor = `{
	"dump": "dump-2022-12",
	"source": "Outlook",
	"object": "Facture du prestataire",
	"summary": "Facture et justificatif transmis par mail",
	"date": "2022-12-14",
	"files": [
		{
			"type": "File",
			"name": "facture.pdf",
			"originalName": "facture originale.pdf",
			"content": "Facture 2022-881, montant 640,00"
		}
	]
}`

// recordFolderEntries is a complete well-formed record folder as zip
// entries rooted at prefix.
func recordFolderEntries(prefix string) map[string]string {
	return map[string]string{
		prefix + "data.json":              validDescriptor,
		prefix + "fiche.docx":             "composed fiche document " + prefix,
		prefix + "1 - facture.pdf":        "decoded pdf bytes " + prefix,
		prefix + "Source/1 - facture.eml": "original mail bytes " + prefix,
	}
}

// writeRecordFolder lays a complete well-formed record folder on disk.
func writeRecordFolder(t *testing.T, folder string) {
	t.Helper()

	writeFile(t, filepath.Join(folder, "data.json"), validDescriptor)
	writeFile(t, filepath.Join(folder, "fiche.docx"), "composed fiche document "+folder)
	writeFile(t, filepath.Join(folder, "1 - facture.pdf"), "decoded pdf bytes "+folder)
	writeFile(t, filepath.Join(folder, "Source", "1 - facture.eml"), "original mail bytes "+folder)
}
