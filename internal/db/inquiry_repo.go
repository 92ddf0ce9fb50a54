package db

import (
	"context"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// InquiryRepository provides read access to the inquiries table for the
// batch assembler. Inquiry creation belongs to the inquiry API and is outside
// this repository.
type InquiryRepository struct {
	db DBTX
}

// NewInquiryRepository creates a repository backed by the given database
// connection (pool or transaction).
func NewInquiryRepository(db DBTX) *InquiryRepository {
	return &InquiryRepository{db: db}
}

// ListForPeriod returns all inquiries for a (tenant, property) whose
// timestamp falls within the closed calendar-date range
// [startDate, endDate] (YYYY-MM-DD, interpreted in the database's date
// comparison), oldest first.
func (r *InquiryRepository) ListForPeriod(ctx context.Context, clientID, propertyID, startDate, endDate string) ([]types.Inquiry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, client_id, property_id, customer_id, customer_name,
		        category, title, inquired_at
		 FROM inquiries
		 WHERE client_id = $1 AND property_id = $2
		   AND inquired_at::date >= $3::date
		   AND inquired_at::date <= $4::date
		 ORDER BY inquired_at ASC`,
		clientID,
		propertyID,
		startDate,
		endDate,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query inquiries for period", err)
	}
	defer rows.Close()

	var inquiries []types.Inquiry
	for rows.Next() {
		var q types.Inquiry
		if err := rows.Scan(
			&q.ID,
			&q.ClientID,
			&q.PropertyID,
			&q.CustomerID,
			&q.CustomerName,
			&q.Category,
			&q.Title,
			&q.InquiredAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan inquiry", err)
		}
		inquiries = append(inquiries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating inquiries", err)
	}

	return inquiries, nil
}
