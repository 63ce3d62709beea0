package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fichebox/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type fakeUploads struct {
	uploads  map[string]*types.Upload
	statuses map[string]string
}

func (f *fakeUploads) ByID(ctx context.Context, id string) (*types.Upload, error) {
	return f.uploads[id], nil
}

func (f *fakeUploads) UpdateStatusByID(ctx context.Context, id, status string) error {
	f.statuses[id] = status
	return nil
}

// fakeCreator stands in for the fiche repository's transactional create.
// Successful commits register hashes so later dedup lookups see them.
type fakeCreator struct {
	fiches    *fakeFiches
	documents *fakeDocuments
	commits   []types.Fiche
	err       error
}

func (f *fakeCreator) CreateWithDocuments(ctx context.Context, fiche *types.Fiche, documents []types.Document, beforeCommit func() error) error {
	if f.err != nil {
		return f.err
	}
	if beforeCommit != nil {
		if err := beforeCommit(); err != nil {
			return err
		}
	}

	f.fiches.byHash[fiche.Hash] = fiche
	for i := range documents {
		doc := documents[i]
		doc.FicheID = fiche.ID
		f.documents.byHash[doc.Hash] = &doc
	}
	f.commits = append(f.commits, *fiche)
	return nil
}

type pipelineEnv struct {
	pipeline    *Pipeline
	config      *types.Config
	uploads     *fakeUploads
	creator     *fakeCreator
	storageRoot string
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()

	root := t.TempDir()
	config := &types.Config{
		QueueKey:         "uploadsToProcess",
		FileStoragePath:  filepath.Join(root, "storage"),
		TempPath:         filepath.Join(root, "tmp"),
		ExtractWorkers:   4,
		NestedDepthLimit: 8,
	}

	fiches := &fakeFiches{byHash: map[string]*types.Fiche{}}
	documents := &fakeDocuments{byHash: map[string]*types.Document{}}
	sources := &fakeSources{byName: map[string]*types.Source{
		"Outlook": {ID: "src-outlook", Name: "Outlook"},
	}}
	creator := &fakeCreator{fiches: fiches, documents: documents}
	uploads := &fakeUploads{
		uploads:  map[string]*types.Upload{},
		statuses: map[string]string{},
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	validator := NewValidator(fiches, documents, sources)
	committer := NewCommitter(creator, config.FileStoragePath, logger)

	return &pipelineEnv{
		pipeline:    New(nil, uploads, validator, committer, config, logger),
		config:      config,
		uploads:     uploads,
		creator:     creator,
		storageRoot: config.FileStoragePath,
	}
}

// addUpload registers an upload whose archive holds the given zip entries.
func (e *pipelineEnv) addUpload(t *testing.T, entries map[string]string) string {
	t.Helper()

	id := uuid.NewString()
	relPath := filepath.Join("data", "uploads", id+".zip")
	writeZip(t, filepath.Join(e.storageRoot, relPath), entries)

	e.uploads.uploads[id] = &types.Upload{
		ID:       id,
		Type:     types.UploadTypeFile,
		FileName: id + ".zip",
		Path:     relPath,
		Status:   types.UploadStatusProcessing,
	}
	return id
}

func TestProcessUploadEndToEnd(t *testing.T) {
	env := newPipelineEnv(t)
	id := env.addUpload(t, recordFolderEntries("rec1/"))

	if err := env.pipeline.ProcessUpload(context.Background(), id); err != nil {
		t.Fatalf("ProcessUpload failed: %v", err)
	}

	if len(env.creator.commits) != 1 {
		t.Fatalf("got %d commits, want 1", len(env.creator.commits))
	}
	if env.uploads.statuses[id] != types.UploadStatusDone {
		t.Fatalf("status = %s, want done", env.uploads.statuses[id])
	}

	fiche := env.creator.commits[0]
	relocated := filepath.Join(env.storageRoot, fiche.Path)
	hash, err := FileHash(relocated)
	if err != nil {
		t.Fatalf("relocated primary missing: %v", err)
	}
	if hash != fiche.Hash {
		t.Fatalf("relocated hash = %s, fiche hash = %s", hash, fiche.Hash)
	}

	for _, rel := range []string{
		filepath.Join("data", "fiches", "Outlook", "20221214", "rec1", "facture.pdf"),
		filepath.Join("data", "fiches", "Outlook", "20221214", "rec1", "Source", "1 - facture.eml"),
	} {
		if _, err := os.Stat(filepath.Join(env.storageRoot, rel)); err != nil {
			t.Fatalf("expected relocated file %s: %v", rel, err)
		}
	}

	if _, err := os.Stat(filepath.Join(env.config.TempPath, id)); !os.IsNotExist(err) {
		t.Fatal("temporary extraction dir was not removed")
	}
}

func TestProcessUploadNestedArchivesDepthFirst(t *testing.T) {
	env := newPipelineEnv(t)

	inner := zipBytes(t, recordFolderEntries("rec1/"))
	middle := zipBytes(t, map[string]string{"b.zip": string(inner)})
	id := env.addUpload(t, map[string]string{"a.zip": string(middle)})

	if err := env.pipeline.ProcessUpload(context.Background(), id); err != nil {
		t.Fatalf("ProcessUpload failed: %v", err)
	}

	if len(env.creator.commits) != 1 {
		t.Fatalf("got %d commits, want 1", len(env.creator.commits))
	}
	if env.uploads.statuses[id] != types.UploadStatusDone {
		t.Fatalf("status = %s, want done", env.uploads.statuses[id])
	}
}

func TestProcessUploadNestingDepthCap(t *testing.T) {
	env := newPipelineEnv(t)
	env.config.NestedDepthLimit = 1

	inner := zipBytes(t, recordFolderEntries("rec1/"))
	middle := zipBytes(t, map[string]string{"b.zip": string(inner)})
	id := env.addUpload(t, map[string]string{"a.zip": string(middle)})

	if err := env.pipeline.ProcessUpload(context.Background(), id); err == nil {
		t.Fatal("expected depth cap error")
	}
	if env.uploads.statuses[id] != types.UploadStatusFailed {
		t.Fatalf("status = %s, want failed", env.uploads.statuses[id])
	}
}

func TestProcessUploadSiblingIsolation(t *testing.T) {
	env := newPipelineEnv(t)

	entries := recordFolderEntries("rec1/")
	// Sibling folder with no origin counterpart: skipped, not fatal.
	entries["rec2/data.json"] = validDescriptor
	entries["rec2/fiche.docx"] = "another composed document"
	entries["rec2/1 - facture.pdf"] = "another decoded pdf"
	id := env.addUpload(t, entries)

	if err := env.pipeline.ProcessUpload(context.Background(), id); err != nil {
		t.Fatalf("ProcessUpload failed: %v", err)
	}

	if len(env.creator.commits) != 1 {
		t.Fatalf("got %d commits, want 1", len(env.creator.commits))
	}
	if env.uploads.statuses[id] != types.UploadStatusPartial {
		t.Fatalf("status = %s, want partial", env.uploads.statuses[id])
	}
}

func TestProcessUploadDuplicateUpload(t *testing.T) {
	env := newPipelineEnv(t)

	first := env.addUpload(t, recordFolderEntries("rec1/"))
	second := env.addUpload(t, recordFolderEntries("rec1/"))

	if err := env.pipeline.ProcessUpload(context.Background(), first); err != nil {
		t.Fatalf("first ProcessUpload failed: %v", err)
	}
	if err := env.pipeline.ProcessUpload(context.Background(), second); err != nil {
		t.Fatalf("second ProcessUpload failed: %v", err)
	}

	if len(env.creator.commits) != 1 {
		t.Fatalf("got %d commits, want exactly 1", len(env.creator.commits))
	}
	if env.uploads.statuses[first] != types.UploadStatusDone {
		t.Fatalf("first status = %s, want done", env.uploads.statuses[first])
	}
	if env.uploads.statuses[second] != types.UploadStatusFailed {
		t.Fatalf("second status = %s, want failed", env.uploads.statuses[second])
	}
}

func TestProcessUploadMissingUploadRecord(t *testing.T) {
	env := newPipelineEnv(t)

	err := env.pipeline.ProcessUpload(context.Background(), uuid.NewString())
	if err == nil {
		t.Fatal("expected error for missing upload record")
	}
	if len(env.uploads.statuses) != 0 {
		t.Fatalf("no status should be written for a missing upload: %v", env.uploads.statuses)
	}
}

func TestProcessUploadRejectsBadQueuePayload(t *testing.T) {
	env := newPipelineEnv(t)

	if err := env.pipeline.ProcessUpload(context.Background(), "not-a-uuid"); err == nil {
		t.Fatal("expected error for malformed queue payload")
	}
}

func TestProcessUploadCorruptArchive(t *testing.T) {
	env := newPipelineEnv(t)

	id := uuid.NewString()
	relPath := filepath.Join("data", "uploads", id+".zip")
	writeFile(t, filepath.Join(env.storageRoot, relPath), "not a zip at all")
	env.uploads.uploads[id] = &types.Upload{ID: id, Path: relPath, Status: types.UploadStatusProcessing}

	if err := env.pipeline.ProcessUpload(context.Background(), id); err == nil {
		t.Fatal("expected extraction error")
	}
	if env.uploads.statuses[id] != types.UploadStatusFailed {
		t.Fatalf("status = %s, want failed", env.uploads.statuses[id])
	}
}

func TestProcessUploadCommitFailureSurfaces(t *testing.T) {
	env := newPipelineEnv(t)
	env.creator.err = context.DeadlineExceeded

	id := env.addUpload(t, recordFolderEntries("rec1/"))

	if err := env.pipeline.ProcessUpload(context.Background(), id); err != nil {
		t.Fatalf("ProcessUpload failed: %v", err)
	}

	if len(env.creator.commits) != 0 {
		t.Fatal("no commit should be recorded on failure")
	}
	if env.uploads.statuses[id] != types.UploadStatusFailed {
		t.Fatalf("status = %s, want failed", env.uploads.statuses[id])
	}
}

// fakeQueue delivers queued ids and cancels the run context once drained.
type fakeQueue struct {
	ids    []string
	cancel context.CancelFunc
}

func (q *fakeQueue) Pop(ctx context.Context) (string, error) {
	if len(q.ids) == 0 {
		q.cancel()
		return "", ctx.Err()
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, nil
}

func TestProcessUploadTraversalNameStaysInsideStorage(t *testing.T) {
	env := newPipelineEnv(t)

	entries := recordFolderEntries("rec1/")
	entries["rec1/data.json"] = strings.Replace(validDescriptor,
		`"name": "facture.pdf"`, `"name": "../../../../../../outside/evil.pdf"`, 1)
	id := env.addUpload(t, entries)

	if err := env.pipeline.ProcessUpload(context.Background(), id); err != nil {
		t.Fatalf("ProcessUpload failed: %v", err)
	}

	if len(env.creator.commits) != 0 {
		t.Fatalf("got %d commits, want 0", len(env.creator.commits))
	}
	if env.uploads.statuses[id] != types.UploadStatusFailed {
		t.Fatalf("status = %s, want failed", env.uploads.statuses[id])
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(env.storageRoot), "outside")); !os.IsNotExist(err) {
		t.Fatal("file escaped the storage root")
	}
}

func TestRunDrainsQueueUntilCancelled(t *testing.T) {
	env := newPipelineEnv(t)
	id := env.addUpload(t, recordFolderEntries("rec1/"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env.pipeline.queue = &fakeQueue{ids: []string{id}, cancel: cancel}

	if err := env.pipeline.Run(ctx); err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	if len(env.creator.commits) != 1 {
		t.Fatalf("got %d commits, want 1", len(env.creator.commits))
	}
}
