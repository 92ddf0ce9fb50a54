package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// JobType is the job_locks / job_history identifier for the report batch.
const JobType = "report_batch"

// DefaultLockTTL covers one cycle's execution with margin.
const DefaultLockTTL = 15 * time.Minute

// CycleOrchestrator abstracts the orchestrator for the runner.
type CycleOrchestrator interface {
	RunCycle(ctx context.Context, now time.Time) (CycleStats, error)
}

// JobLocker abstracts distributed lock acquisition.
type JobLocker interface {
	Acquire(ctx context.Context, lockID string, workerID string, ttl time.Duration) (bool, error)
}

// JobHistorian abstracts job history recording.
type JobHistorian interface {
	Start(ctx context.Context, jobType string) (int64, error)
	Finish(ctx context.Context, id int64, status string, items int, err error) error
}

// CyclePublisher abstracts metric emission for a finished cycle.
type CyclePublisher interface {
	PublishCycle(ctx context.Context, stats CycleStats)
}

// LockedRunner wraps the orchestrator with the operational plumbing shared by
// both entry points (Lambda and standalone daemon): a per-hour distributed
// lock so concurrent replicas never run the same cycle, job history rows for
// visibility, and cycle metrics.
type LockedRunner struct {
	Orchestrator CycleOrchestrator
	Locks        JobLocker
	History      JobHistorian
	Metrics      CyclePublisher // optional
	WorkerID     string
	LockTTL      time.Duration
	Logger       *slog.Logger
}

// Run executes one locked cycle as of now and returns a human-readable
// summary for the trigger harness.
func (r *LockedRunner) Run(ctx context.Context, now time.Time) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := r.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	// One lock per wall-clock hour: a delayed retrigger within the same hour
	// is a duplicate, the next hour is a fresh cycle.
	lockID := fmt.Sprintf("%s:%s", JobType, now.UTC().Truncate(time.Hour).Format("2006-01-02T15"))
	acquired, err := r.Locks.Acquire(ctx, lockID, r.WorkerID, ttl)
	if err != nil {
		return "", fmt.Errorf("acquiring job lock %s: %w", lockID, err)
	}
	if !acquired {
		logger.InfoContext(ctx, "cycle lock held by another worker, skipping",
			"lock_id", lockID,
			"worker_id", r.WorkerID,
		)
		return fmt.Sprintf("skipped: lock %s held by another worker", lockID), nil
	}

	jobID, err := r.History.Start(ctx, JobType)
	if err != nil {
		logger.ErrorContext(ctx, "failed to start job history",
			"error", err,
		)
		// Non-fatal: run the cycle anyway; jobID 0 skips Finish.
		jobID = 0
	}

	stats, cycleErr := r.Orchestrator.RunCycle(ctx, now)

	if r.Metrics != nil {
		r.Metrics.PublishCycle(ctx, stats)
	}

	status := "success"
	if cycleErr != nil {
		status = "failed"
	}
	if jobID != 0 {
		if finishErr := r.History.Finish(ctx, jobID, status, stats.Processed(), cycleErr); finishErr != nil {
			logger.ErrorContext(ctx, "failed to finish job history",
				"job_id", jobID,
				"error", finishErr,
			)
		}
	}

	if cycleErr != nil {
		return "", fmt.Errorf("report batch cycle failed: %w", cycleErr)
	}

	return fmt.Sprintf("report batch complete: %d due, %d processed", stats.Selected, stats.Processed()), nil
}
