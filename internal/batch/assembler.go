package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// Outcome tags the result of processing one due setting within a cycle.
type Outcome string

const (
	// OutcomeReportCreated means a report was generated and persisted.
	OutcomeReportCreated Outcome = "report_created"
	// OutcomeSkippedNoData means the period contained no inquiries, so no
	// report was created. The setting is still rescheduled.
	OutcomeSkippedNoData Outcome = "skipped_no_data"
	// OutcomeSkippedNotGenerating means the setting has auto-generation
	// disabled. The setting is still rescheduled.
	OutcomeSkippedNotGenerating Outcome = "skipped_not_generating"
	// OutcomePropertyMissing means the property master record no longer
	// exists. Processing is abandoned for this cycle and the setting is NOT
	// rescheduled, so the next cycle retries it.
	OutcomePropertyMissing Outcome = "property_missing"
	// OutcomeFailed means processing raised an error. The setting is not
	// rescheduled by the failed worker and will be retried on a later cycle.
	OutcomeFailed Outcome = "failed"
)

// InquiryStore reads interaction records for the assembler.
type InquiryStore interface {
	// ListForPeriod returns all inquiries for a (tenant, property) within
	// the inclusive calendar-date range [startDate, endDate].
	ListForPeriod(ctx context.Context, clientID, propertyID, startDate, endDate string) ([]types.Inquiry, error)
}

// PropertyStore resolves property master records. A nil result without error
// means the property does not exist.
type PropertyStore interface {
	Get(ctx context.Context, clientID, propertyID string) (*types.Property, error)
}

// ReportCreator is the report creation collaborator: an AI-summarization and
// persistence service that turns an assembled request into a stored report.
type ReportCreator interface {
	CreateFromBatch(ctx context.Context, req types.ReportCreateRequest) (*types.Report, error)
}

// Assembler gathers a due setting's interaction records for its computed
// period and delegates report creation.
type Assembler struct {
	inquiries  InquiryStore
	properties PropertyStore
	reports    ReportCreator
	logger     *slog.Logger
}

// NewAssembler creates an Assembler with the given collaborators.
func NewAssembler(inquiries InquiryStore, properties PropertyStore, reports ReportCreator, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		inquiries:  inquiries,
		properties: properties,
		reports:    reports,
		logger:     logger,
	}
}

// Process handles one due setting for one cycle:
//
//  1. Fetch the inquiries in the period for the setting's property.
//  2. Fetch the property record; if absent, abandon this setting for the
//     cycle (OutcomePropertyMissing) without error.
//  3. If the setting auto-generates and the period has at least one inquiry,
//     build a report-creation request and delegate to the ReportCreator.
//  4. Otherwise report the applicable skip outcome.
//
// Rescheduling is the orchestrator's responsibility and is driven by the
// returned outcome.
func (a *Assembler) Process(ctx context.Context, target types.ExecutionTarget, period Period) (Outcome, error) {
	inquiries, err := a.inquiries.ListForPeriod(ctx, target.ClientID, target.PropertyID, period.Start, period.End)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("listing inquiries for setting %s: %w", target.ID, err)
	}

	property, err := a.properties.Get(ctx, target.ClientID, target.PropertyID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("fetching property %s for setting %s: %w", target.PropertyID, target.ID, err)
	}
	if property == nil {
		a.logger.WarnContext(ctx, "property missing, skipping setting for this cycle",
			"setting_id", target.ID,
			"client_id", target.ClientID,
			"property_id", target.PropertyID,
		)
		return OutcomePropertyMissing, nil
	}

	if !target.AutoGenerate {
		return OutcomeSkippedNotGenerating, nil
	}
	if len(inquiries) == 0 {
		return OutcomeSkippedNoData, nil
	}

	summaries := make([]types.InquirySummary, 0, len(inquiries))
	for _, q := range inquiries {
		summaries = append(summaries, types.InquirySummary{
			CustomerID:   q.CustomerID,
			CustomerName: q.CustomerName,
			InquiredAt:   q.InquiredAt,
			Category:     q.Category,
			Title:        q.Title,
		})
	}

	req := types.ReportCreateRequest{
		ClientID:     target.ClientID,
		PropertyID:   target.PropertyID,
		PropertyName: property.Name, // master record, not the denormalized cache
		PeriodStart:  period.Start,
		PeriodEnd:    period.End,
		Inquiries:    summaries,
	}

	report, err := a.reports.CreateFromBatch(ctx, req)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("creating report for setting %s: %w", target.ID, err)
	}

	a.logger.InfoContext(ctx, "report created",
		"setting_id", target.ID,
		"client_id", target.ClientID,
		"property_id", target.PropertyID,
		"report_id", report.ID,
		"period_start", period.Start,
		"period_end", period.End,
		"inquiry_count", len(inquiries),
	)

	return OutcomeReportCreated, nil
}
