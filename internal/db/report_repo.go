package db

import (
	"context"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// ReportRepository provides write access to the reports table for the report
// creation service.
type ReportRepository struct {
	db DBTX
}

// NewReportRepository creates a repository backed by the given database
// connection (pool or transaction).
func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a generated sales-status report.
func (r *ReportRepository) Create(ctx context.Context, rep *types.Report) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO reports
		 (id, client_id, property_id, title, period_start, period_end,
		  summary, inquiry_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rep.ID,
		rep.ClientID,
		rep.PropertyID,
		rep.Title,
		rep.PeriodStart,
		rep.PeriodEnd,
		rep.Summary,
		rep.InquiryCount,
		rep.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create report", err)
	}
	return nil
}
