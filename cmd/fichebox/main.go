package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "fichebox",
		Usage: "Archive ingestion pipeline for record bundles",
		Commands: []*cli.Command{
			workCommand,
			addCommand,
			enqueueCommand,
			statusCommand,
			seedCommand,
			nanoidCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
