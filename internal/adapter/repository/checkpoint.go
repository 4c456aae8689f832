package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/subsearch/internal/repository"
)

type checkpointRepository struct {
	pool *pgxpool.Pool
}

// NewCheckpointRepository constructs the pgx-backed job watermark store.
func NewCheckpointRepository(pool *pgxpool.Pool) repository.CheckpointRepository {
	return &checkpointRepository{pool: pool}
}

func (r *checkpointRepository) Get(ctx context.Context, job string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var watermark int64
	err := r.pool.QueryRow(ctx,
		`SELECT watermark FROM job_checkpoints WHERE job = $1`, job).Scan(&watermark)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get checkpoint %s: %w", job, err)
	}
	return watermark, nil
}

func (r *checkpointRepository) Set(ctx context.Context, job string, watermark int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := r.pool.Exec(ctx, `INSERT INTO job_checkpoints (job, watermark)
		VALUES ($1, $2)
		ON CONFLICT (job) DO UPDATE SET watermark = EXCLUDED.watermark, updated_at = now()`,
		job, watermark)
	if err != nil {
		return fmt.Errorf("set checkpoint %s: %w", job, err)
	}
	return nil
}
