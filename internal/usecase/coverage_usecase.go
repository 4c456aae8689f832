package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/subsearch/internal/metrics"
	"github.com/eslsoft/subsearch/internal/repository"
)

const coverageRepairJob = "coverage_repair"

// CoverageUsecase plans the physical shape of the multi-language predicate
// and keeps the backing presence index repaired.
type CoverageUsecase interface {
	// Plan picks indexed or fallback execution for a search that filters on
	// langCount subtitle languages. An unhealthy index triggers a background
	// repair but never blocks the caller.
	Plan(ctx context.Context, langCount int) repository.QueryPlan
	// Repair rebuilds missing index rows. Small datasets are repaired in one
	// statement; large ones in checkpointed chunks so an interrupted pass
	// resumes where it stopped.
	Repair(ctx context.Context) error
	// RunRepairWorker drains repair requests until the context ends.
	RunRepairWorker(ctx context.Context)
}

// CoverageOptions tunes index health thresholds and repair batching.
type CoverageOptions struct {
	// HealthyRatio is the minimum estimated coverage for the index to be
	// trusted. Estimated coverage is (rows / LanguagesPerCard) / cards.
	HealthyRatio float64
	// MinIndexRows guards the ratio against small-sample noise; below it the
	// index is never trusted.
	MinIndexRows int64
	// LanguagesPerCard is the assumed average index rows per card used by
	// the coverage estimate.
	LanguagesPerCard float64
	// BulkRepairCardLimit is the dataset size up to which repair runs as a
	// single statement instead of checkpointed chunks.
	BulkRepairCardLimit int64
	// RepairChunkSpan is the number of cards each chunked repair statement
	// covers.
	RepairChunkSpan int32
}

type coverageUsecase struct {
	repo        repository.CoverageRepository
	checkpoints repository.CheckpointRepository
	logger      *logrus.Logger
	opts        CoverageOptions

	repairCh chan struct{}
}

func NewCoverageUsecase(repo repository.CoverageRepository, checkpoints repository.CheckpointRepository, logger *logrus.Logger, opts CoverageOptions) CoverageUsecase {
	if opts.LanguagesPerCard <= 0 {
		opts.LanguagesPerCard = 2
	}
	if opts.RepairChunkSpan <= 0 {
		opts.RepairChunkSpan = 10000
	}
	return &coverageUsecase{
		repo:        repo,
		checkpoints: checkpoints,
		logger:      logger,
		opts:        opts,
		repairCh:    make(chan struct{}, 1),
	}
}

func (u *coverageUsecase) Plan(ctx context.Context, langCount int) repository.QueryPlan {
	if langCount == 0 {
		return repository.PlanFallback
	}

	stats, err := u.repo.Stats(ctx)
	if err != nil {
		u.logger.WithError(err).Warn("coverage stats unavailable, planning fallback")
		metrics.PlanFallbacksTotal.Inc()
		return repository.PlanFallback
	}
	if u.healthy(stats) {
		return repository.PlanIndexed
	}

	metrics.PlanFallbacksTotal.Inc()
	u.enqueueRepair()
	u.logger.WithFields(logrus.Fields{
		"index_rows":      stats.IndexRows,
		"available_cards": stats.AvailableCards,
	}).Info("coverage index unhealthy, planning fallback")
	return repository.PlanFallback
}

func (u *coverageUsecase) healthy(stats repository.CoverageStats) bool {
	if stats.IndexRows <= u.opts.MinIndexRows {
		return false
	}
	if stats.AvailableCards == 0 {
		return false
	}
	estimated := float64(stats.IndexRows) / u.opts.LanguagesPerCard / float64(stats.AvailableCards)
	return estimated > u.opts.HealthyRatio
}

// enqueueRepair requests one repair pass; requests collapse while a pass is
// already pending.
func (u *coverageUsecase) enqueueRepair() {
	select {
	case u.repairCh <- struct{}{}:
	default:
	}
}

func (u *coverageUsecase) RunRepairWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-u.repairCh:
			if err := u.Repair(ctx); err != nil {
				u.logger.WithError(err).Error("coverage repair failed")
			}
		}
	}
}

func (u *coverageUsecase) Repair(ctx context.Context) error {
	stats, err := u.repo.Stats(ctx)
	if err != nil {
		return fmt.Errorf("coverage repair: %w", err)
	}

	if stats.AvailableCards <= u.opts.BulkRepairCardLimit {
		rows, err := u.repo.BulkRepair(ctx)
		if err != nil {
			return fmt.Errorf("coverage repair: %w", err)
		}
		metrics.CoverageRepairRows.Add(float64(rows))
		u.logger.WithField("rows", rows).Info("coverage index repaired")
		return nil
	}

	watermark, err := u.checkpoints.Get(ctx, coverageRepairJob)
	if err != nil {
		return fmt.Errorf("coverage repair: %w", err)
	}

	var total int64
	for {
		lastID, rows, err := u.repo.RepairRange(ctx, watermark, u.opts.RepairChunkSpan)
		if err != nil {
			return fmt.Errorf("coverage repair: %w", err)
		}
		metrics.CoverageRepairRows.Add(float64(rows))
		total += rows

		if lastID == watermark {
			// Full pass done; rewind so the next run starts from scratch.
			if err := u.checkpoints.Set(ctx, coverageRepairJob, 0); err != nil {
				return fmt.Errorf("coverage repair: %w", err)
			}
			u.logger.WithField("rows", total).Info("coverage index repaired")
			return nil
		}

		watermark = lastID
		if err := u.checkpoints.Set(ctx, coverageRepairJob, watermark); err != nil {
			return fmt.Errorf("coverage repair: %w", err)
		}
	}
}
