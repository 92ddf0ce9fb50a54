// Package main is the entrypoint for the report batcher Lambda function.
//
// The batcher is triggered hourly by an EventBridge schedule. Each invocation
// runs one batch cycle: list active report settings, select the ones due in
// the past hour, generate a sales-status report per setting, and advance each
// setting's schedule. A per-hour job lock makes concurrent or retried
// invocations of the same hour no-ops.
//
// This file handles dependency wiring (cold start) and delegates all business
// logic to the internal/batch package.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/batch"
	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/config"
	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/db"
	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/queue"
	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/reports"
)

// BatchPayload is the optional invocation payload. An empty payload runs the
// cycle as of the current time; reference_time supports replaying a past hour
// from the console.
type BatchPayload struct {
	ReferenceTime string `json:"reference_time,omitempty"` // RFC3339
}

// runner and clock are wired once per cold start and reused across warm
// invocations.
var (
	runner *batch.LockedRunner
	clock  batch.Clock
)

var logger *slog.Logger

func main() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	logger.Info("report batcher initializing (cold start)")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
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
	clock = batch.NewSystemClock(loc)

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

	settingRepo := db.NewBatchSettingRepository(pool)
	assembler := batch.NewAssembler(db.NewInquiryRepository(pool), db.NewPropertyRepository(pool), reportSvc, logger)

	orchestrator := batch.NewOrchestrator(batch.OrchestratorConfig{
		Store:       settingRepo,
		Processor:   assembler,
		Location:    loc,
		Concurrency: cfg.Batch.Concurrency,
		Logger:      logger,
	})

	runner = &batch.LockedRunner{
		Orchestrator: orchestrator,
		Locks:        db.NewJobLockRepository(pool),
		History:      db.NewJobHistoryRepository(pool),
		Metrics:      batch.NewCloudWatchCycleMetrics(cwClient, cfg.AWS.MetricNamespace, logger),
		WorkerID:     "report-batcher-" + uuid.New().String(),
		LockTTL:      cfg.Batch.LockTTL,
		Logger:       logger,
	}

	lambda.Start(handleRequest)
}

// handleRequest runs one batch cycle per invocation.
func handleRequest(ctx context.Context, payload BatchPayload) (string, error) {
	now := clock.Now()
	if payload.ReferenceTime != "" {
		parsed, err := time.Parse(time.RFC3339, payload.ReferenceTime)
		if err != nil {
			logger.Warn("invalid reference_time, using current time",
				"reference_time", payload.ReferenceTime,
				"error", err,
			)
		} else {
			now = parsed
		}
	}

	return runner.Run(ctx, now)
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
