package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/subsearch/internal/adapter/httpapi"
	adapterrepo "github.com/eslsoft/subsearch/internal/adapter/repository"
	"github.com/eslsoft/subsearch/internal/infrastructure/cache"
	"github.com/eslsoft/subsearch/internal/infrastructure/config"
	"github.com/eslsoft/subsearch/internal/metrics"
	"github.com/eslsoft/subsearch/internal/usecase"
)

// Server represents the application server
type Server struct {
	config     *config.Config
	httpServer *http.Server
	logger     *logrus.Logger

	coverage usecase.CoverageUsecase
	terms    usecase.TermIndexUsecase

	cancelWorkers context.CancelFunc
}

// NewServer wires repositories, usecases and the HTTP API together.
func NewServer(cfg *config.Config, logger *logrus.Logger, pool *pgxpool.Pool, redisClient *redis.Client) *Server {
	metrics.Register(prometheus.DefaultRegisterer)

	cardRepo := adapterrepo.NewCardSearchRepository(pool, cfg.Search.ParamBudget)
	subtitleRepo := adapterrepo.NewSubtitleRepository(pool)
	ratingRepo := adapterrepo.NewRatingRepository(pool)
	termRepo := adapterrepo.NewSearchTermRepository(pool, cfg.Terms.UpsertChunk)
	coverageRepo := adapterrepo.NewCoverageRepository(pool)
	checkpointRepo := adapterrepo.NewCheckpointRepository(pool)

	coverageUC := usecase.NewCoverageUsecase(coverageRepo, checkpointRepo, logger, usecase.CoverageOptions{
		HealthyRatio:        cfg.Coverage.HealthyRatio,
		MinIndexRows:        cfg.Coverage.MinIndexRows,
		LanguagesPerCard:    cfg.Coverage.LanguagesPerCard,
		BulkRepairCardLimit: cfg.Coverage.BulkRepairCardLimit,
		RepairChunkSpan:     cfg.Coverage.RepairChunkSpan,
	})
	termUC := usecase.NewTermIndexUsecase(subtitleRepo, termRepo, checkpointRepo, logger, usecase.TermIndexOptions{
		ScanBatch: cfg.Terms.ScanBatch,
	})
	searchUC := usecase.NewSearchUsecase(
		cardRepo, subtitleRepo, ratingRepo, termRepo,
		coverageUC, cache.NewRedisCache(redisClient), logger,
		usecase.SearchOptions{
			CacheTTL:           cfg.Search.CacheTTL,
			HydrateConcurrency: cfg.Search.HydrateConcurrency,
			HydrateBatchSize:   cfg.Search.HydrateBatchSize,
		},
	)

	handler := httpapi.NewHandler(searchUC, logger)
	corsWrapper := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: requestLogger(logger, corsWrapper.Handler(handler.Routes())),
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		logger:     logger,
		coverage:   coverageUC,
		terms:      termUC,
	}
}

// CoverageUsecase exposes the wired coverage usecase for schedulers and CLI
// commands.
func (s *Server) CoverageUsecase() usecase.CoverageUsecase { return s.coverage }

// TermIndexUsecase exposes the wired term extractor.
func (s *Server) TermIndexUsecase() usecase.TermIndexUsecase { return s.terms }

// StartHTTP starts the HTTP server and the on-demand repair worker.
func (s *Server) StartHTTP() error {
	workerCtx, cancel := context.WithCancel(context.Background())
	s.cancelWorkers = cancel
	go s.coverage.RunRepairWorker(workerCtx)

	s.logger.Infof("HTTP server starting on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if s.cancelWorkers != nil {
		s.cancelWorkers()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorf("Failed to shutdown HTTP server: %v", err)
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
