package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"fichebox/internal/db"
	"fichebox/internal/pipeline"
	"fichebox/internal/queue"
	"fichebox/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var workCommand = &cli.Command{
	Name:   "work",
	Usage:  "Run the background ingestion worker",
	Action: work,
}

func work(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

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
	ficheRepo := store.NewFicheRepository(pool)
	documentRepo := store.NewDocumentRepository(pool)
	sourceRepo := store.NewSourceRepository(pool)

	validator := pipeline.NewValidator(ficheRepo, documentRepo, sourceRepo)
	committer := pipeline.NewCommitter(ficheRepo, config.FileStoragePath, logger)

	worker := pipeline.New(queueClient, uploadRepo, validator, committer, config, logger)

	err = worker.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("worker stopped")
	return nil
}
