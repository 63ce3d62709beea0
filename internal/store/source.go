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

const sourceTableName = "fichebox.source"

var sourceColumns = utils.StructTagValues(types.Source{})

type SourceRepository struct {
	pool *pgxpool.Pool
}

func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{pool: pool}
}

func (r *SourceRepository) ByName(ctx context.Context, name string) (*types.Source, error) {
	query, args, err := psql().
		Select(sourceColumns...).
		From(sourceTableName).
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate source by name query: %w", err)
	}

	var source types.Source
	err = pgxscan.Get(ctx, r.pool, &source, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch source by name: %w", err)
	}

	return &source, nil
}

func (r *SourceRepository) All(ctx context.Context) ([]*types.Source, error) {
	query, args, err := psql().
		Select(sourceColumns...).
		From(sourceTableName).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate sources query: %w", err)
	}

	var sources []*types.Source
	err = pgxscan.Select(ctx, r.pool, &sources, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sources: %w", err)
	}

	return sources, nil
}

func (r *SourceRepository) Create(ctx context.Context, source *types.Source) error {
	query, args, err := psql().
		Insert(sourceTableName).
		Columns(sourceColumns...).
		Values(source.ID, source.Name).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate source insert: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}

	return nil
}
