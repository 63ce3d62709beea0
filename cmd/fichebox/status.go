package main

import (
	"context"
	"fmt"
	"time"

	"fichebox/internal/db"
	"fichebox/internal/store"
	"fichebox/pkg/types"

	"github.com/urfave/cli/v2"
)

var statusCommand = &cli.Command{
	Name:      "status",
	Usage:     "Show upload counts per status, or one upload with its committed fiches",
	ArgsUsage: "[upload-id]",
	Action:    status,
}

func status(cCtx *cli.Context) error {
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

	id := cCtx.Args().First()
	if id == "" {
		for _, s := range []string{
			types.UploadStatusPending,
			types.UploadStatusProcessing,
			types.UploadStatusDone,
			types.UploadStatusPartial,
			types.UploadStatusFailed,
		} {
			uploads, err := uploadRepo.ByStatus(ctx, s)
			if err != nil {
				return err
			}
			fmt.Printf("%-12s %d\n", s, len(uploads))
		}
		return nil
	}

	upload, err := uploadRepo.ByID(ctx, id)
	if err != nil {
		return err
	}
	if upload == nil {
		return fmt.Errorf("upload %s not found", id)
	}

	fmt.Printf("upload %s\n", upload.ID)
	fmt.Printf("  name:   %s\n", upload.DisplayName)
	fmt.Printf("  status: %s\n", upload.Status)
	fmt.Printf("  date:   %s\n", upload.Date.Format(time.RFC3339))
	fmt.Printf("  path:   %s\n", upload.Path)

	ficheRepo := store.NewFicheRepository(pool)
	documentRepo := store.NewDocumentRepository(pool)

	fiches, err := ficheRepo.ByUploadID(ctx, id)
	if err != nil {
		return err
	}
	for _, fiche := range fiches {
		fmt.Printf("  fiche %s (%s)\n", fiche.Reference, fiche.Date.Format("2006-01-02"))
		fmt.Printf("    object: %s\n", fiche.Object)
		fmt.Printf("    path:   %s\n", fiche.Path)

		docs, err := documentRepo.ByFicheID(ctx, fiche.ID)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			fmt.Printf("    document %s [%s]\n", doc.Name, doc.Type)
		}
	}

	return nil
}
