package main

import (
	"fmt"

	"fichebox/pkg/types"

	"github.com/kelseyhightower/envconfig"
)

func loadConfig() (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	if c.FileStoragePath == "" {
		return nil, fmt.Errorf("set FILE_STORAGE_PATH")
	}

	if c.ExtractWorkers < 1 {
		c.ExtractWorkers = 1
	}

	if c.NestedDepthLimit < 1 {
		c.NestedDepthLimit = 1
	}

	return c, nil
}
