// Package main is the entrypoint for the standalone batch runner daemon.
//
// The runner is the container deployment of the report batch: an in-process
// cron fires the hourly cycle, and a small HTTP listener exposes liveness and
// readiness endpoints for the orchestrator (ECS/Kubernetes). The per-hour job
// lock in the database keeps multiple replicas, or the runner alongside the
// Lambda deployment, from processing the same hour twice.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/batch"
	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/config"
	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/db"
	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/queue"
	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/reports"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("batch runner exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return err
	}
	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})

	loc := cfg.Batch.Location()

	var summarizer reports.SummaryGenerator
	if !cfg.OpenAI.APIKey.IsEmpty() {
		summarizer = reports.NewOpenAISummarizer(reports.OpenAISummarizerConfig{
			APIKey:  cfg.OpenAI.APIKey.Value(),
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout,
		})
	} else {
		logger.Warn("OPENAI_API_KEY not set, reports will use fallback summaries")
	}

	notifier := queue.NewReportNotifier(sqsClient, cfg.AWS.ReportNotificationQueue, logger)
	reportSvc := reports.NewService(summarizer, db.NewReportRepository(pool), notifier, logger)
	assembler := batch.NewAssembler(db.NewInquiryRepository(pool), db.NewPropertyRepository(pool), reportSvc, logger)

	orchestrator := batch.NewOrchestrator(batch.OrchestratorConfig{
		Store:       db.NewBatchSettingRepository(pool),
		Processor:   assembler,
		Location:    loc,
		Concurrency: cfg.Batch.Concurrency,
		Logger:      logger,
	})

	runner := &batch.LockedRunner{
		Orchestrator: orchestrator,
		Locks:        db.NewJobLockRepository(pool),
		History:      db.NewJobHistoryRepository(pool),
		Metrics:      batch.NewCloudWatchCycleMetrics(cwClient, cfg.AWS.MetricNamespace, logger),
		WorkerID:     "batch-runner-" + uuid.New().String(),
		LockTTL:      cfg.Batch.LockTTL,
		Logger:       logger,
	}

	// Cron fires in the operational timezone so "0 * * * *" means the top of
	// each Tokyo hour regardless of the host zone.
	clock := batch.NewSystemClock(loc)
	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(cfg.Batch.CronSpec, func() {
		summary, err := runner.Run(ctx, clock.Now())
		if err != nil {
			logger.Error("batch cycle failed", "error", err)
			return
		}
		logger.Info("batch cycle finished", "summary", summary)
	}); err != nil {
		return err
	}
	scheduler.Start()
	logger.Info("batch runner started",
		"cron", cfg.Batch.CronSpec,
		"timezone", cfg.Batch.Timezone,
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: healthRouter(pool),
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	// Let an in-flight cycle finish before closing the pool.
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown failed", "error", err)
	}

	logger.Info("batch runner stopped")
	return nil
}

// healthRouter exposes liveness and readiness endpoints. Readiness pings the
// database so a replica with a broken pool is pulled from rotation.
func healthRouter(pool *pgxpool.Pool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	return r
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
