package main

import (
	"context"
	"fmt"

	"fichebox/internal/db"
	"fichebox/internal/queue"
	"fichebox/internal/store"
	"fichebox/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var enqueueCommand = &cli.Command{
	Name:      "enqueue",
	Usage:     "Mark an upload as processing and push it onto the worker queue",
	ArgsUsage: "<upload-id>",
	Action:    enqueue,
}

func enqueue(cCtx *cli.Context) error {
	id := cCtx.Args().First()
	if id == "" {
		return fmt.Errorf("upload id required")
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

	queueClient, err := queue.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer queueClient.Close()

	uploadRepo := store.NewUploadRepository(pool)

	upload, err := uploadRepo.ByID(ctx, id)
	if err != nil {
		return err
	}
	if upload == nil {
		return fmt.Errorf("upload %s not found", id)
	}

	if upload.Status != types.UploadStatusPending {
		logrus.WithFields(logrus.Fields{
			"uploadId": id,
			"status":   upload.Status,
		}).Warn("re-enqueueing upload that is not pending")
	}

	if err := uploadRepo.UpdateStatusByID(ctx, id, types.UploadStatusProcessing); err != nil {
		return err
	}

	if err := queueClient.Push(ctx, id); err != nil {
		return err
	}

	logrus.WithField("uploadId", id).Info("upload enqueued")
	return nil
}
