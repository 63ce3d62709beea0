package store

import (
	"context"
	"fmt"
	"time"

	"fichebox/internal/utils"
	"fichebox/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uploadTableName = "fichebox.upload"

var uploadColumns = utils.StructTagValues(types.Upload{})

type UploadRepository struct {
	pool *pgxpool.Pool
}

func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

func (r *UploadRepository) ByID(ctx context.Context, id string) (*types.Upload, error) {
	query, args, err := psql().
		Select(uploadColumns...).
		From(uploadTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload query: %w", err)
	}

	var upload types.Upload
	err = pgxscan.Get(ctx, r.pool, &upload, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch upload: %w", err)
	}

	return &upload, nil
}

func (r *UploadRepository) ByHash(ctx context.Context, hash string) (*types.Upload, error) {
	query, args, err := psql().
		Select(uploadColumns...).
		From(uploadTableName).
		Where(sq.Eq{"hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload by hash query: %w", err)
	}

	var upload types.Upload
	err = pgxscan.Get(ctx, r.pool, &upload, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch upload by hash: %w", err)
	}

	return &upload, nil
}

func (r *UploadRepository) ByStatus(ctx context.Context, status string) ([]*types.Upload, error) {
	query, args, err := psql().
		Select(uploadColumns...).
		From(uploadTableName).
		Where(sq.Eq{"status": status}).
		OrderBy("date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate uploads by status query: %w", err)
	}

	var uploads []*types.Upload
	err = pgxscan.Select(ctx, r.pool, &uploads, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch uploads by status: %w", err)
	}

	return uploads, nil
}

func (r *UploadRepository) UpdateStatusByID(ctx context.Context, id, status string) error {
	query, args, err := psql().
		Update(uploadTableName).
		Set("status", status).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upload status update: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update upload status: %w", err)
	}

	return nil
}

func (r *UploadRepository) Create(ctx context.Context, upload *types.Upload) error {
	if upload.Date.IsZero() {
		upload.Date = time.Now()
	}

	query, args, err := psql().
		Insert(uploadTableName).
		Columns(uploadColumns...).
		Values(
			upload.ID,
			upload.UserID,
			upload.DisplayName,
			upload.Type,
			upload.Date,
			upload.FileName,
			upload.Path,
			upload.Hash,
			upload.Status,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upload insert: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}

	return nil
}
