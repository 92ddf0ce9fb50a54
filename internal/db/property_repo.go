package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// PropertyRepository provides read access to the properties master table.
type PropertyRepository struct {
	db DBTX
}

// NewPropertyRepository creates a repository backed by the given database
// connection (pool or transaction).
func NewPropertyRepository(db DBTX) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Get returns the property for a (tenant, property id) pair, or nil when the
// property does not exist or has been deleted. The batch assembler treats a
// nil result as expected data drift, not an error.
func (r *PropertyRepository) Get(ctx context.Context, clientID, propertyID string) (*types.Property, error) {
	var p types.Property
	err := r.db.QueryRow(ctx,
		`SELECT id, client_id, name, deleted_at
		 FROM properties
		 WHERE client_id = $1 AND id = $2 AND deleted_at IS NULL`,
		clientID,
		propertyID,
	).Scan(&p.ID, &p.ClientID, &p.Name, &p.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query property", err)
	}
	return &p, nil
}
