package main

import (
	"context"
	"fmt"

	"fichebox/internal/db"
	"fichebox/internal/seed"
	"fichebox/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the source catalog",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		sourceRepo := store.NewSourceRepository(pool)

		logrus.Info("Seeding sources...")
		if err := seed.SeedSources(ctx, sourceRepo); err != nil {
			return fmt.Errorf("failed to seed sources: %w", err)
		}

		logrus.Info("Sources seeded successfully")

		return nil
	},
}
