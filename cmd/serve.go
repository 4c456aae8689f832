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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/subsearch/internal/infrastructure/cache"
	"github.com/eslsoft/subsearch/internal/infrastructure/config"
	infraDB "github.com/eslsoft/subsearch/internal/infrastructure/database"
	"github.com/eslsoft/subsearch/internal/infrastructure/scheduler"
	"github.com/eslsoft/subsearch/internal/infrastructure/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the search HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		noJobs, _ := cmd.Flags().GetBool("no-jobs")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, err := server.NewLogger(cfg)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}

		// DB connection (pgx pool)
		pool, cleanup, err := infraDB.NewConnection(cfg)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer cleanup()

		redisClient := cache.NewClient(cfg)
		defer redisClient.Close()
		if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, result caching degraded")
		}

		srv := server.NewServer(cfg, logger, pool, redisClient)

		jobCtx, cancelJobs := context.WithCancel(context.Background())
		defer cancelJobs()
		if !noJobs {
			jobs := scheduler.New(srv.TermIndexUsecase(), srv.CoverageUsecase(), logger)
			if err := jobs.Start(jobCtx, cfg); err != nil {
				return fmt.Errorf("start background jobs: %w", err)
			}
			defer jobs.Stop()
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.StartHTTP() }()

		// Graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Infof("received signal: %s, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
			return nil
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("no-jobs", false, "disable scheduled term extraction and coverage repair")
}
