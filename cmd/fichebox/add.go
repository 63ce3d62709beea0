package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fichebox/internal/db"
	"fichebox/internal/pipeline"
	"fichebox/internal/queue"
	"fichebox/internal/store"
	"fichebox/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var addCommand = &cli.Command{
	Name:      "add",
	Usage:     "Register a zip archive as a new pending upload",
	ArgsUsage: "<zip-path>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "user",
			Usage: "Owning user id",
		},
		&cli.BoolFlag{
			Name:  "enqueue",
			Usage: "Push the upload onto the worker queue immediately",
		},
	},
	Action: add,
}

func add(cCtx *cli.Context) error {
	srcPath := cCtx.Args().First()
	if srcPath == "" {
		return fmt.Errorf("zip path required")
	}

	ctx := context.Background()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	uploadRepo := store.NewUploadRepository(pool)

	hash, err := pipeline.FileHash(srcPath)
	if err != nil {
		return err
	}

	existing, err := uploadRepo.ByHash(ctx, hash)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("archive already registered as upload %s (%s)", existing.ID, existing.Status)
	}

	id := uuid.NewString()
	now := time.Now()
	fileName := filepath.Base(srcPath)
	relPath := filepath.Join("data", "uploads", now.Format("20060102"), fmt.Sprintf("%s - %s", id, fileName))

	if err := copyIntoStorage(srcPath, filepath.Join(config.FileStoragePath, relPath)); err != nil {
		return err
	}

	upload := &types.Upload{
		ID:          id,
		UserID:      cCtx.String("user"),
		DisplayName: fmt.Sprintf("%s-%s-%s", now.Format("02Jan2006"), types.UploadTypeFile, id[:8]),
		Type:        types.UploadTypeFile,
		Date:        now,
		FileName:    fileName,
		Path:        relPath,
		Hash:        hash,
		Status:      types.UploadStatusPending,
	}
	if err := uploadRepo.Create(ctx, upload); err != nil {
		return err
	}

	if cCtx.Bool("enqueue") {
		queueClient, err := queue.Connect(ctx, config)
		if err != nil {
			return err
		}
		defer queueClient.Close()

		if err := uploadRepo.UpdateStatusByID(ctx, id, types.UploadStatusProcessing); err != nil {
			return err
		}
		if err := queueClient.Push(ctx, id); err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"uploadId": id,
		"path":     relPath,
		"enqueued": cCtx.Bool("enqueue"),
	}).Info("upload registered")
	return nil
}

func copyIntoStorage(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create upload dir for %s: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()

	if copyErr != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copy %s: %w", src, copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("close %s: %w", dst, closeErr)
	}

	return nil
}
