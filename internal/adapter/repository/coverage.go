package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/subsearch/internal/repository"
)

type coverageRepository struct {
	pool *pgxpool.Pool
}

// NewCoverageRepository constructs the pgx-backed coverage index store.
func NewCoverageRepository(pool *pgxpool.Pool) repository.CoverageRepository {
	return &coverageRepository{pool: pool}
}

func (r *coverageRepository) Stats(ctx context.Context) (repository.CoverageStats, error) {
	if err := ctx.Err(); err != nil {
		return repository.CoverageStats{}, err
	}

	var stats repository.CoverageStats
	err := r.pool.QueryRow(ctx, `SELECT
		(SELECT count(*) FROM language_coverage),
		(SELECT count(*) FROM cards WHERE available)`).
		Scan(&stats.IndexRows, &stats.AvailableCards)
	if err != nil {
		return repository.CoverageStats{}, fmt.Errorf("coverage stats: %w", err)
	}
	return stats, nil
}

func (r *coverageRepository) BulkRepair(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tag, err := r.pool.Exec(ctx, `INSERT INTO language_coverage (card_id, language)
		SELECT DISTINCT st.card_id, st.language FROM subtitle_texts st WHERE st.text <> ''
		ON CONFLICT (card_id, language) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("bulk coverage repair: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *coverageRepository) RepairRange(ctx context.Context, afterCardID int64, span int32) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return afterCardID, 0, err
	}

	// Resolve the chunk's upper bound first so the watermark advances even
	// through card id gaps.
	var lastID int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(max(id), $1) FROM (
			SELECT id FROM cards WHERE id > $1 ORDER BY id LIMIT $2
		) chunk`, afterCardID, span).Scan(&lastID)
	if err != nil {
		return afterCardID, 0, fmt.Errorf("resolve repair chunk: %w", err)
	}
	if lastID == afterCardID {
		return afterCardID, 0, nil
	}

	tag, err := r.pool.Exec(ctx, `INSERT INTO language_coverage (card_id, language)
		SELECT DISTINCT st.card_id, st.language FROM subtitle_texts st
		WHERE st.card_id > $1 AND st.card_id <= $2 AND st.text <> ''
		ON CONFLICT (card_id, language) DO NOTHING`, afterCardID, lastID)
	if err != nil {
		return afterCardID, 0, fmt.Errorf("chunked coverage repair: %w", err)
	}
	return lastID, tag.RowsAffected(), nil
}
