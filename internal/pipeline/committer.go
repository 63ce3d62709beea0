package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fichebox/pkg/types"

	"github.com/sirupsen/logrus"
)

// stagingSuffix marks a file copied into permanent storage but not yet
// part of a committed fiche.
const stagingSuffix = ".part"

// FicheCreator executes the per-record transaction: fiche row, document
// rows, and a pre-commit hook that can veto the whole thing.
type FicheCreator interface {
	CreateWithDocuments(ctx context.Context, fiche *types.Fiche, documents []types.Document, beforeCommit func() error) error
}

// Committer durably commits one normalized record: rows in a single
// transaction, files staged into permanent storage before the commit and
// renamed into final place after it. The rename is the only step outside
// the transaction, so a crash can at worst leave .part files behind next
// to committed rows; that divergence is detected and reported, never
// silent.
type Committer struct {
	fiches      FicheCreator
	storageRoot string
	logger      logrus.FieldLogger
}

func NewCommitter(fiches FicheCreator, storageRoot string, logger logrus.FieldLogger) *Committer {
	return &Committer{
		fiches:      fiches,
		storageRoot: storageRoot,
		logger:      logger,
	}
}

// Commit writes the record's rows and files. On any failure before the
// database commit everything rolls back and staged files are removed; the
// error is always surfaced to the caller.
func (c *Committer) Commit(ctx context.Context, record *NormalizedFiche) (string, error) {
	var staged []string

	err := c.fiches.CreateWithDocuments(ctx, &record.Fiche, record.Documents, func() error {
		for _, move := range record.Moves {
			dst := filepath.Join(c.storageRoot, move.To)
			if err := stageFile(move.From, dst+stagingSuffix); err != nil {
				return err
			}
			staged = append(staged, dst)
		}
		return nil
	})
	if err != nil {
		for _, dst := range staged {
			_ = os.Remove(dst + stagingSuffix)
		}
		return "", fmt.Errorf("commit fiche %s: %w", record.Fiche.Reference, err)
	}

	for _, dst := range staged {
		if err := os.Rename(dst+stagingSuffix, dst); err != nil {
			// Rows are already committed; files and database now disagree.
			c.logger.WithError(err).WithFields(logrus.Fields{
				"ficheId":   record.Fiche.ID,
				"reference": record.Fiche.Reference,
				"path":      dst,
			}).Error("storage diverged from committed fiche, manual remediation required")
			return record.Fiche.ID, fmt.Errorf("finalize files for fiche %s: %w", record.Fiche.Reference, err)
		}
	}

	return record.Fiche.ID, nil
}

// stageFile copies src to dst, creating parent directories. A copy rather
// than a rename: the extraction tree and permanent storage may live on
// different filesystems, and the extraction tree is removed wholesale
// afterward anyway.
func stageFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create storage dir for %s: %w", dst, err)
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
