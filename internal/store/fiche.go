package store

import (
	"context"
	"fmt"

	"fichebox/internal/utils"
	"fichebox/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ficheTableName = "fichebox.fiche"

var ficheColumns = utils.StructTagValues(types.Fiche{})

type FicheRepository struct {
	pool *pgxpool.Pool
}

func NewFicheRepository(pool *pgxpool.Pool) *FicheRepository {
	return &FicheRepository{pool: pool}
}

func (r *FicheRepository) ByHash(ctx context.Context, hash string) (*types.Fiche, error) {
	query, args, err := psql().
		Select(ficheColumns...).
		From(ficheTableName).
		Where(sq.Eq{"hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate fiche by hash query: %w", err)
	}

	var fiche types.Fiche
	err = pgxscan.Get(ctx, r.pool, &fiche, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch fiche by hash: %w", err)
	}

	return &fiche, nil
}

func (r *FicheRepository) ByUploadID(ctx context.Context, uploadID string) ([]*types.Fiche, error) {
	query, args, err := psql().
		Select(ficheColumns...).
		From(ficheTableName).
		Where(sq.Eq{"upload_id": uploadID}).
		OrderBy("date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate fiches by upload query: %w", err)
	}

	var fiches []*types.Fiche
	err = pgxscan.Select(ctx, r.pool, &fiches, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fiches by upload: %w", err)
	}

	return fiches, nil
}

// CreateWithDocuments inserts a fiche and its documents in a single
// transaction. beforeCommit runs after all rows are written but before the
// transaction commits; returning an error from it rolls everything back.
// The committer uses the hook to stage file relocations so that no fiche
// row ever commits without its files staged on disk.
func (r *FicheRepository) CreateWithDocuments(ctx context.Context, fiche *types.Fiche, documents []types.Document, beforeCommit func() error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx for fiche create: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ficheQuery, ficheArgs, err := psql().
		Insert(ficheTableName).
		Columns(ficheColumns...).
		Values(
			fiche.ID,
			fiche.Reference,
			fiche.SourceID,
			fiche.Date,
			fiche.Object,
			fiche.Summary,
			fiche.Hash,
			fiche.Path,
			fiche.UploadID,
			fiche.Dump,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate fiche insert: %w", err)
	}

	_, err = tx.Exec(ctx, ficheQuery, ficheArgs...)
	if err != nil {
		return fmt.Errorf("failed to insert fiche: %w", err)
	}

	for i := range documents {
		documents[i].FicheID = fiche.ID

		docQuery, docArgs, err := psql().
			Insert(documentTableName).
			Columns(documentColumns...).
			Values(
				documents[i].ID,
				documents[i].FicheID,
				documents[i].Type,
				documents[i].Name,
				documents[i].Path,
				documents[i].Hash,
				documents[i].Content,
				documents[i].Metadata,
				documents[i].OriginalName,
				documents[i].OriginalPath,
				documents[i].OriginalHash,
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate document insert: %w", err)
		}

		_, err = tx.Exec(ctx, docQuery, docArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %w", documents[i].Name, err)
		}
	}

	if beforeCommit != nil {
		if err := beforeCommit(); err != nil {
			return fmt.Errorf("pre-commit hook failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit fiche create tx: %w", err)
	}

	return nil
}
