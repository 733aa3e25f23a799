package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	redis_adapter "github.com/user/trackscope/internal/adapter/redis"
	"github.com/user/trackscope/internal/delivery/http/handler"
	"github.com/user/trackscope/internal/delivery/http/router"
	"github.com/user/trackscope/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the queue workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
		noWorkers, _ := cmd.Flags().GetBool("no-workers")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		// --- Repositories ---
		s, err := a.stores(ctx)
		if err != nil {
			return err
		}
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return err
		}
		queueRepo := redis_adapter.NewQueueRepo(rdb)
		completionRepo := redis_adapter.NewCompletionRepo(rdb)

		profiles, err := a.profiles(nil)
		if err != nil {
			return err
		}

		// --- Use Cases ---
		jobManager := usecase.NewJobManager(queueRepo, completionRepo, s.results, s.failures, profiles, a.logger)
		annotator, trackers, err := a.annotator(ctx, s.results, false)
		if err != nil {
			return err
		}

		workerCtx, cancelWorkers := context.WithCancel(context.WithoutCancel(ctx))
		defer cancelWorkers()
		var worker *usecase.QueueWorker
		if !noWorkers {
			scheduler := a.scheduler(s, profiles,
				usecase.WithCompletionMarkers(completionRepo, a.cfg.Redis.CompletionTTL))
			worker = usecase.NewQueueWorker(queueRepo, scheduler, a.cfg.Server.Workers, pollInterval, a.logger, a.metrics)
			worker.Start(workerCtx)
			a.logger.Info("Queue workers started", zap.Int("workers", a.cfg.Server.Workers))
		}

		// --- HTTP Server ---
		var (
			ann    handler.ResultAnnotator
			lookup handler.TrackerLookup
		)
		if trackers != nil {
			ann, lookup = annotator, trackers
		}
		apiHandler := handler.NewHandler(jobManager, s.results, ann, lookup, a.logger)
		server := &http.Server{
			Addr:         ":" + a.cfg.Server.Port,
			Handler:      router.New(apiHandler, a.metrics, a.registry, a.logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 70 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		select {
		case <-quit:
		case err := <-errCh:
			if err != nil {
				a.logger.Error("Could not listen on port", zap.String("port", a.cfg.Server.Port), zap.Error(err))
				return err
			}
		}

		a.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Server forced to shutdown", zap.Error(err))
		}
		if worker != nil {
			cancelWorkers()
			worker.Stop()
			report := worker.Report()
			totals := report.Totals()
			a.logger.Info("Queue workers stopped",
				zap.Int("succeeded", totals.Succeeded),
				zap.Int("failed", totals.Failed),
				zap.Int("skipped", totals.Skipped))
		}
		a.logger.Info("Server exiting")
		return nil
	},
}

func init() {
	serveCmd.Flags().Duration("poll-interval", 2*time.Second, "how long idle workers wait before polling the queue again")
	serveCmd.Flags().Bool("no-workers", false, "serve the API only; another process consumes the queue")
}
