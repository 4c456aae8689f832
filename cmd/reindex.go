/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	adapterrepo "github.com/eslsoft/subsearch/internal/adapter/repository"
	"github.com/eslsoft/subsearch/internal/infrastructure/config"
	infraDB "github.com/eslsoft/subsearch/internal/infrastructure/database"
	"github.com/eslsoft/subsearch/internal/infrastructure/server"
	"github.com/eslsoft/subsearch/internal/usecase"
)

// reindexCmd runs one pass of the background term extractor.
var reindexCmd = &cobra.Command{
	Use:   "reindex-terms",
	Short: "Run one autocomplete term extraction pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStart, _ := cmd.Flags().GetBool("from-start")

		cfg, logger, pool, cleanup, err := loadJobDeps()
		if err != nil {
			return err
		}
		defer cleanup()

		uc := usecase.NewTermIndexUsecase(
			adapterrepo.NewSubtitleRepository(pool),
			adapterrepo.NewSearchTermRepository(pool, cfg.Terms.UpsertChunk),
			adapterrepo.NewCheckpointRepository(pool),
			logger,
			usecase.TermIndexOptions{ScanBatch: cfg.Terms.ScanBatch},
		)

		if fromStart {
			if err := uc.Reset(cmd.Context()); err != nil {
				return err
			}
		}
		return uc.Run(cmd.Context())
	},
}

// repairCoverageCmd runs one coverage index repair pass.
var repairCoverageCmd = &cobra.Command{
	Use:   "repair-coverage",
	Short: "Repair the language coverage index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, pool, cleanup, err := loadJobDeps()
		if err != nil {
			return err
		}
		defer cleanup()

		uc := usecase.NewCoverageUsecase(
			adapterrepo.NewCoverageRepository(pool),
			adapterrepo.NewCheckpointRepository(pool),
			logger,
			usecase.CoverageOptions{
				HealthyRatio:        cfg.Coverage.HealthyRatio,
				MinIndexRows:        cfg.Coverage.MinIndexRows,
				LanguagesPerCard:    cfg.Coverage.LanguagesPerCard,
				BulkRepairCardLimit: cfg.Coverage.BulkRepairCardLimit,
				RepairChunkSpan:     cfg.Coverage.RepairChunkSpan,
			},
		)
		return uc.Repair(cmd.Context())
	},
}

func loadJobDeps() (*config.Config, *logrus.Logger, *pgxpool.Pool, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := server.NewLogger(cfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("build logger: %w", err)
	}
	pool, cleanup, err := infraDB.NewConnection(cfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("db connect: %w", err)
	}
	return cfg, logger, pool, cleanup, nil
}

func init() {
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(repairCoverageCmd)

	reindexCmd.Flags().Bool("from-start", false, "rewind the scan watermark and re-read all subtitles")
}
