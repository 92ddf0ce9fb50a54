package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// DefaultConcurrency bounds per-setting workers within a cycle when no
// explicit concurrency is configured.
const DefaultConcurrency = 5

// SettingStore abstracts the batch-setting persistence the orchestrator
// needs. Using an interface allows clean testing without a database.
type SettingStore interface {
	// ListActiveTargets returns the execution projection of every active,
	// non-deleted setting across all tenants.
	ListActiveTargets(ctx context.Context) ([]types.ExecutionTarget, error)

	// AdvanceSchedule conditionally moves a setting to its next firing time.
	// Returns false when another worker already advanced the row.
	AdvanceSchedule(ctx context.Context, clientID string, createdAt time.Time, executedAt, next time.Time) (bool, error)
}

// TargetProcessor handles one due setting for one cycle. Implemented by
// Assembler in production.
type TargetProcessor interface {
	Process(ctx context.Context, target types.ExecutionTarget, period Period) (Outcome, error)
}

// CycleStats summarizes one orchestration cycle for logging, job history,
// and metrics.
type CycleStats struct {
	Active   int
	Selected int
	Outcomes map[Outcome]int
	Duration time.Duration
}

// Processed returns the number of settings handled this cycle.
func (s CycleStats) Processed() int {
	total := 0
	for _, n := range s.Outcomes {
		total += n
	}
	return total
}

// Orchestrator drives the hourly report batch cycle: select due settings,
// process each independently and concurrently, and reschedule each after
// processing. One setting's failure never aborts the cycle or its siblings.
type Orchestrator struct {
	store       SettingStore
	processor   TargetProcessor
	loc         *time.Location
	concurrency int
	logger      *slog.Logger
}

// OrchestratorConfig holds the dependencies for creating an Orchestrator.
type OrchestratorConfig struct {
	Store       SettingStore
	Processor   TargetProcessor
	Location    *time.Location
	Concurrency int
	Logger      *slog.Logger
}

// NewOrchestrator creates an Orchestrator with the given configuration.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		store:       cfg.Store,
		processor:   cfg.Processor,
		loc:         loc,
		concurrency: concurrency,
		logger:      logger,
	}
}

// RunCycle executes one orchestration cycle as of now:
//
//  1. Normalize now to the operational timezone.
//  2. List all active, non-deleted settings (no property filter).
//  3. Select the due subset via the execution window.
//  4. Process every due setting concurrently with a bounded worker group.
//     Worker errors are captured per item and never propagate to siblings
//     or to the cycle result.
//  5. Reschedule each processed setting, except when the property was
//     missing or processing failed before the reschedule point; those keep
//     their next_execution_date and are retried by a later cycle's window.
//
// RunCycle returns an error only for cycle-level failures (listing targets).
func (o *Orchestrator) RunCycle(ctx context.Context, now time.Time) (CycleStats, error) {
	started := time.Now()
	now = now.In(o.loc)

	stats := CycleStats{Outcomes: make(map[Outcome]int)}

	targets, err := o.store.ListActiveTargets(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing active settings: %w", err)
	}
	stats.Active = len(targets)

	due := SelectDue(now, targets)
	stats.Selected = len(due)

	o.logger.InfoContext(ctx, "report batch cycle started",
		"now", now.Format(time.RFC3339),
		"active_settings", len(targets),
		"due_settings", len(due),
	)

	if len(due) == 0 {
		stats.Duration = time.Since(started)
		o.logger.InfoContext(ctx, "report batch cycle complete, nothing due",
			"duration_ms", stats.Duration.Milliseconds(),
		)
		return stats, nil
	}

	// All-settle join: every worker records its outcome into its own slot
	// and returns nil, so no failure cancels the group.
	outcomes := make([]Outcome, len(due))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, target := range due {
		i, target := i, target
		g.Go(func() error {
			outcomes[i] = o.processTarget(ctx, target)
			return nil
		})
	}
	_ = g.Wait()

	for _, outcome := range outcomes {
		stats.Outcomes[outcome]++
	}
	stats.Duration = time.Since(started)

	o.logger.InfoContext(ctx, "report batch cycle complete",
		"due_settings", len(due),
		"report_created", stats.Outcomes[OutcomeReportCreated],
		"skipped_no_data", stats.Outcomes[OutcomeSkippedNoData],
		"skipped_not_generating", stats.Outcomes[OutcomeSkippedNotGenerating],
		"property_missing", stats.Outcomes[OutcomePropertyMissing],
		"failed", stats.Outcomes[OutcomeFailed],
		"duration_ms", stats.Duration.Milliseconds(),
	)

	return stats, nil
}

// processTarget handles a single due setting end to end: period computation,
// assembly, and rescheduling. Errors are logged and absorbed here; the
// setting will be retried on a later cycle because its next_execution_date
// only advances after successful processing.
func (o *Orchestrator) processTarget(ctx context.Context, target types.ExecutionTarget) Outcome {
	executedAt := target.NextExecutionDate
	period := PeriodFor(target.Cadence, executedAt, o.loc)

	o.logger.InfoContext(ctx, "processing due setting",
		"setting_id", target.ID,
		"client_id", target.ClientID,
		"property_id", target.PropertyID,
		"executed_at", executedAt.Format(time.RFC3339),
		"period_start", period.Start,
		"period_end", period.End,
	)

	outcome, err := o.processor.Process(ctx, target, period)
	if err != nil {
		o.logger.ErrorContext(ctx, "setting processing failed, will retry next cycle",
			"setting_id", target.ID,
			"client_id", target.ClientID,
			"property_id", target.PropertyID,
			"error", err,
		)
		return OutcomeFailed
	}

	// A missing property leaves next_execution_date untouched so the next
	// cycle's window picks the setting up again.
	if outcome == OutcomePropertyMissing {
		return outcome
	}

	next := NextExecution(target.Weekday, target.Cadence, executedAt, o.loc)
	advanced, err := o.store.AdvanceSchedule(ctx, target.ClientID, target.CreatedAt, executedAt, next)
	if err != nil {
		o.logger.ErrorContext(ctx, "failed to advance schedule, will retry next cycle",
			"setting_id", target.ID,
			"client_id", target.ClientID,
			"error", err,
		)
		return OutcomeFailed
	}
	if !advanced {
		o.logger.InfoContext(ctx, "schedule already advanced by another worker",
			"setting_id", target.ID,
			"client_id", target.ClientID,
		)
		return outcome
	}

	o.logger.InfoContext(ctx, "setting processed",
		"setting_id", target.ID,
		"client_id", target.ClientID,
		"outcome", string(outcome),
		"next_execution_date", next.Format(time.RFC3339),
	)

	return outcome
}
