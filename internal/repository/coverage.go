package repository

import "context"

// CoverageStats summarizes the health inputs of the coverage index.
type CoverageStats struct {
	IndexRows      int64
	AvailableCards int64
}

// CoverageRepository maintains the derived (card, language) presence table.
// All writes are idempotent upserts, safe under concurrent writers.
type CoverageRepository interface {
	Stats(ctx context.Context) (CoverageStats, error)
	// BulkRepair upserts the whole index from subtitle texts in one
	// statement and returns the number of rows written.
	BulkRepair(ctx context.Context) (int64, error)
	// RepairRange upserts coverage for cards with id in (afterCardID,
	// afterCardID+span], returning the last card id covered and the number
	// of rows written. Zero rows with lastID == afterCardID means the scan
	// is complete.
	RepairRange(ctx context.Context, afterCardID int64, span int32) (lastID int64, rows int64, err error)
}

// CheckpointRepository persists per-job watermarks so background scans are
// resumable and re-entrant.
type CheckpointRepository interface {
	Get(ctx context.Context, job string) (int64, error)
	Set(ctx context.Context, job string, watermark int64) error
}
