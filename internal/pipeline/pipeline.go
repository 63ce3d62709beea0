package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fichebox/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Queue delivers upload identifiers, blocking until one is available.
type Queue interface {
	Pop(ctx context.Context) (string, error)
}

// UploadStore is the slice of the upload repository the pipeline needs.
type UploadStore interface {
	ByID(ctx context.Context, id string) (*types.Upload, error)
	UpdateStatusByID(ctx context.Context, id, status string) error
}

// Pipeline drains the ingestion queue and drives one upload at a time
// through extraction, discovery, validation and commit. All collaborators
// are injected at construction; there is no ambient state.
type Pipeline struct {
	queue     Queue
	uploads   UploadStore
	validator *Validator
	committer *Committer
	config    *types.Config
	logger    logrus.FieldLogger
}

func New(queue Queue, uploads UploadStore, validator *Validator, committer *Committer, config *types.Config, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		queue:     queue,
		uploads:   uploads,
		validator: validator,
		committer: committer,
		config:    config,
		logger:    logger,
	}
}

// Run blocks on the queue until ctx is cancelled. Each dequeued identifier
// gets a single best-effort attempt; failures are logged, never retried
// here. Retry means re-enqueueing from outside.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.WithField("queue", p.config.QueueKey).Info("worker waiting for uploads")

	for {
		id, err := p.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.WithError(err).Error("queue pop failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		log := p.logger.WithField("uploadId", id)
		log.Info("processing upload")

		if err := p.ProcessUpload(ctx, id); err != nil {
			log.WithError(err).Error("upload processing failed")
			continue
		}

		log.Info("upload processed")
	}
}

// ProcessUpload runs the full per-upload state machine: look up the stored
// archive, unpack it (nested archives depth-first), then validate and
// commit each discovered record folder independently. The temporary
// extraction tree is removed whatever happens.
func (p *Pipeline) ProcessUpload(ctx context.Context, id string) error {
	if p.config.UploadTimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.config.UploadTimeoutSec)*time.Second)
		defer cancel()
	}

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("queue payload %q is not an upload id: %w", id, err)
	}

	upload, err := p.uploads.ByID(ctx, id)
	if err != nil {
		return fmt.Errorf("look up upload: %w", err)
	}
	if upload == nil {
		return fmt.Errorf("upload %s: %w", id, ErrNotFound)
	}

	workDir := filepath.Join(p.config.TempPath, id)
	defer os.RemoveAll(workDir)

	log := p.logger.WithField("uploadId", id)

	archivePath := filepath.Join(p.config.FileStoragePath, upload.Path)
	if err := p.extractAll(ctx, archivePath, workDir); err != nil {
		p.setStatus(ctx, id, types.UploadStatusFailed)
		return err
	}

	files, err := ListFiles(workDir)
	if err != nil {
		p.setStatus(ctx, id, types.UploadStatusFailed)
		return fmt.Errorf("list extracted files: %w", err)
	}

	folders := DiscoverFolders(files)
	log.WithField("folders", len(folders)).Info("record folders discovered")

	committed, failed := 0, 0
	for _, folder := range folders {
		folderLog := log.WithField("folder", folder)

		bundle, err := Classify(folder, files)
		if err != nil {
			folderLog.WithError(err).Warn("incomplete record folder skipped")
			failed++
			continue
		}

		record, err := p.validator.Validate(ctx, bundle, upload.ID)
		if err != nil {
			var dup *DuplicateError
			if errors.As(err, &dup) {
				folderLog.WithField("hash", dup.Hash).Warn("duplicate record skipped")
			} else {
				folderLog.WithError(err).Warn("record validation failed")
			}
			failed++
			continue
		}

		ficheID, err := p.committer.Commit(ctx, record)
		if err != nil {
			folderLog.WithError(err).Error("record commit failed")
			failed++
			continue
		}

		folderLog.WithFields(logrus.Fields{
			"ficheId":   ficheID,
			"reference": record.Fiche.Reference,
			"documents": len(record.Documents),
		}).Info("record committed")
		committed++
	}

	p.setStatus(ctx, id, uploadOutcome(committed, failed))

	return nil
}

// extractAll unpacks the upload archive and every nested zip discovered in
// the resulting tree, as an explicit work-list rather than call recursion.
// Jobs are taken LIFO, so nesting unpacks depth-first; the configured
// depth cap bounds pathological inputs.
func (p *Pipeline) extractAll(ctx context.Context, archivePath, workDir string) error {
	type job struct {
		zipPath string
		outDir  string
		depth   int
	}

	stack := []job{{zipPath: archivePath, outDir: workDir}}

	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if j.depth > p.config.NestedDepthLimit {
			return &ExtractionError{
				Archive: j.zipPath,
				Err:     fmt.Errorf("nesting deeper than %d levels", p.config.NestedDepthLimit),
			}
		}

		if err := ExtractZip(ctx, j.zipPath, j.outDir, p.config.ExtractWorkers); err != nil {
			return err
		}

		extracted, err := ListFiles(j.outDir)
		if err != nil {
			return fmt.Errorf("rescan %s for nested archives: %w", j.outDir, err)
		}

		for _, file := range extracted {
			if !strings.EqualFold(filepath.Ext(file), ".zip") {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			stack = append(stack, job{
				zipPath: file,
				outDir:  filepath.Join(filepath.Dir(file), "nested", name),
				depth:   j.depth + 1,
			})
		}
	}

	return nil
}

func (p *Pipeline) setStatus(ctx context.Context, id, status string) {
	if err := p.uploads.UpdateStatusByID(ctx, id, status); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"uploadId": id,
			"status":   status,
		}).Error("failed to record upload status")
	}
}

func uploadOutcome(committed, failed int) string {
	switch {
	case failed == 0:
		return types.UploadStatusDone
	case committed > 0:
		return types.UploadStatusPartial
	default:
		return types.UploadStatusFailed
	}
}
