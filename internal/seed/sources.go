package seed

import (
	"context"
	"fmt"

	"fichebox/internal/store"
	"fichebox/pkg/types"

	"github.com/sirupsen/logrus"
)

// SeedSources inserts the source catalog entries below if they are not
// already present. This list is the source of truth for origin systems a
// record descriptor may name.
//
// To generate new IDs: `go run ./cmd/fichebox nanoid`
func SeedSources(ctx context.Context, repo *store.SourceRepository) error {
	sources := []types.Source{
		{ID: "pQ4yN0dVhLsKm2XWcR8bTZaeJu16oEGf", Name: "Outlook"},
		{ID: "Hx9sLKqTWm3vA8ZbeR0cN5dYgoJuP2fi", Name: "Thunderbird"},
		{ID: "7dRkEJ2wN8mXcL0sYqZaVgTbeoH5uPif", Name: "SharePoint"},
		{ID: "aVZ3bTquN1mW9XcL5sEkYgR0deoJ8fPH", Name: "NetworkShare"},
		{ID: "0eWYgR5dVquJ8fmN3bTcL1sXkZaoH9Pi", Name: "Scanner"},
	}

	for _, source := range sources {
		existing, err := repo.ByName(ctx, source.Name)
		if err != nil {
			return fmt.Errorf("failed to look up source %s: %w", source.Name, err)
		}
		if existing != nil {
			continue
		}

		if err := repo.Create(ctx, &source); err != nil {
			return fmt.Errorf("failed to create source %s: %w", source.Name, err)
		}

		logrus.WithField("source", source.Name).Info("source created")
	}

	return nil
}
