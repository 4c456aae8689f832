package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/subsearch/internal/infrastructure/config"
	"github.com/eslsoft/subsearch/internal/usecase"
)

// Scheduler runs the background maintenance jobs: autocomplete term
// extraction and coverage index repair.
type Scheduler struct {
	scheduler *gocron.Scheduler
	terms     usecase.TermIndexUsecase
	coverage  usecase.CoverageUsecase
	logger    *logrus.Logger
}

func New(terms usecase.TermIndexUsecase, coverage usecase.CoverageUsecase, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		terms:     terms,
		coverage:  coverage,
		logger:    logger,
	}
}

// Start registers the jobs and runs them asynchronously. Jobs that overlap
// their own next run are skipped, not queued.
func (s *Scheduler) Start(ctx context.Context, cfg *config.Config) error {
	termsEvery, err := time.ParseDuration(cfg.Terms.Schedule)
	if err != nil {
		return fmt.Errorf("parse terms schedule: %w", err)
	}
	repairEvery, err := time.ParseDuration(cfg.Coverage.RepairSchedule)
	if err != nil {
		return fmt.Errorf("parse repair schedule: %w", err)
	}

	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Every(termsEvery).Do(func() {
		if err := s.terms.Run(ctx); err != nil {
			s.logger.WithError(err).Error("scheduled term extraction failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule term extraction: %w", err)
	}

	if _, err := s.scheduler.Every(repairEvery).Do(func() {
		if err := s.coverage.Repair(ctx); err != nil {
			s.logger.WithError(err).Error("scheduled coverage repair failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule coverage repair: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.WithFields(logrus.Fields{
		"terms_every":  termsEvery,
		"repair_every": repairEvery,
	}).Info("background jobs scheduled")
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
