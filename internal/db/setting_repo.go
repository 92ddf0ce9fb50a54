package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// BatchSettingRepository provides data access for the batch_report_settings
// table. Soft-deleted rows (deleted_at set) are excluded from every read;
// nothing resurrects them.
//
// Schema:
//
//	CREATE TABLE batch_report_settings (
//	  client_id           TEXT        NOT NULL,
//	  created_at          TIMESTAMPTZ NOT NULL,
//	  id                  TEXT        NOT NULL,
//	  property_id         TEXT        NOT NULL,
//	  property_name       TEXT        NOT NULL,
//	  weekday             INT         NOT NULL,
//	  start_date          DATE        NOT NULL,
//	  auto_create_period  TEXT        NOT NULL,
//	  auto_generate       BOOLEAN     NOT NULL,
//	  execution_time      TEXT        NOT NULL,
//	  next_execution_date TIMESTAMPTZ NOT NULL,
//	  status              TEXT        NOT NULL,
//	  last_execution_date TIMESTAMPTZ,
//	  execution_count     INT         NOT NULL DEFAULT 0,
//	  employee_id         TEXT        NOT NULL,
//	  updated_at          TIMESTAMPTZ NOT NULL,
//	  deleted_at          TIMESTAMPTZ,
//	  PRIMARY KEY (client_id, created_at)
//	);
//
// There is deliberately no uniqueness constraint on (client_id, property_id);
// the duplicate-active guard is enforced at creation time by the settings
// service, matching the original store's semantics.
type BatchSettingRepository struct {
	db DBTX
}

// NewBatchSettingRepository creates a repository backed by the given
// database connection (pool or transaction).
func NewBatchSettingRepository(db DBTX) *BatchSettingRepository {
	return &BatchSettingRepository{db: db}
}

const settingColumns = `client_id, created_at, id, property_id, property_name, weekday,
	       to_char(start_date, 'YYYY-MM-DD'), auto_create_period, auto_generate, execution_time,
	       next_execution_date, status, last_execution_date, execution_count,
	       employee_id, updated_at, deleted_at`

// Create inserts a new setting row. The caller (settings service) has already
// applied the duplicate-active guard and populated every field, including the
// computed next_execution_date.
func (r *BatchSettingRepository) Create(ctx context.Context, s *types.BatchReportSetting) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO batch_report_settings
		 (client_id, created_at, id, property_id, property_name, weekday, start_date,
		  auto_create_period, auto_generate, execution_time, next_execution_date,
		  status, execution_count, employee_id, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		s.ClientID,
		s.CreatedAt,
		s.ID,
		s.PropertyID,
		s.PropertyName,
		s.Weekday,
		s.StartDate,
		string(s.Cadence),
		s.AutoGenerate,
		s.ExecutionTime,
		s.NextExecutionDate,
		string(s.Status),
		s.ExecutionCount,
		s.EmployeeID,
		s.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create batch setting", err)
	}
	return nil
}

// GetByTenant returns all non-deleted settings for a tenant, newest first.
func (r *BatchSettingRepository) GetByTenant(ctx context.Context, clientID string) ([]types.BatchReportSetting, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+settingColumns+`
		 FROM batch_report_settings
		 WHERE client_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC`,
		clientID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query batch settings", err)
	}
	defer rows.Close()

	var settings []types.BatchReportSetting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan batch setting", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating batch settings", err)
	}

	return settings, nil
}

// GetByProperty returns the most recently created non-deleted setting for a
// (tenant, property) pair, or nil when none exists. Should duplicates somehow
// exist, newest wins.
func (r *BatchSettingRepository) GetByProperty(ctx context.Context, clientID, propertyID string) (*types.BatchReportSetting, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+settingColumns+`
		 FROM batch_report_settings
		 WHERE client_id = $1 AND property_id = $2 AND deleted_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT 1`,
		clientID,
		propertyID,
	)

	s, err := scanSetting(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query batch setting by property", err)
	}
	return &s, nil
}

// Update applies a typed partial patch to the configuration-owned fields of a
// setting, keyed by (client_id, created_at). The SET clause is derived from
// the patch struct; empty patches only bump updated_at.
func (r *BatchSettingRepository) Update(ctx context.Context, clientID string, createdAt time.Time, patch types.SettingPatch) (*types.BatchReportSetting, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{clientID, createdAt}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.PropertyName != nil {
		add("property_name", *patch.PropertyName)
	}
	if patch.Weekday != nil {
		add("weekday", *patch.Weekday)
	}
	if patch.Cadence != nil {
		add("auto_create_period", string(*patch.Cadence))
	}
	if patch.AutoGenerate != nil {
		add("auto_generate", *patch.AutoGenerate)
	}
	if patch.ExecutionTime != nil {
		add("execution_time", *patch.ExecutionTime)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}

	row := r.db.QueryRow(ctx,
		`UPDATE batch_report_settings
		 SET `+strings.Join(sets, ", ")+`
		 WHERE client_id = $1 AND created_at = $2 AND deleted_at IS NULL
		 RETURNING `+settingColumns,
		args...,
	)

	s, err := scanSetting(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, types.NewAppError(types.ErrCodeNotFoundSetting, "batch setting not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to update batch setting", err)
	}
	return &s, nil
}

// SoftDelete marks a setting deleted without physically removing it. The row
// disappears from every read and from due-selection immediately.
func (r *BatchSettingRepository) SoftDelete(ctx context.Context, clientID string, createdAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE batch_report_settings
		 SET deleted_at = NOW(), updated_at = NOW()
		 WHERE client_id = $1 AND created_at = $2 AND deleted_at IS NULL`,
		clientID,
		createdAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to soft delete batch setting", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundSetting, "batch setting not found", nil)
	}
	return nil
}

// ListActiveTargets returns the execution projection of every active,
// non-deleted setting across all tenants. The orchestrator applies the
// execution-window filter on top of this set.
func (r *BatchSettingRepository) ListActiveTargets(ctx context.Context) ([]types.ExecutionTarget, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, client_id, created_at, property_id, property_name, weekday,
		        auto_create_period, auto_generate, next_execution_date
		 FROM batch_report_settings
		 WHERE status = 'active' AND deleted_at IS NULL`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query execution targets", err)
	}
	defer rows.Close()

	var targets []types.ExecutionTarget
	for rows.Next() {
		var (
			t       types.ExecutionTarget
			cadence string
		)
		if err := rows.Scan(
			&t.ID,
			&t.ClientID,
			&t.CreatedAt,
			&t.PropertyID,
			&t.PropertyName,
			&t.Weekday,
			&cadence,
			&t.AutoGenerate,
			&t.NextExecutionDate,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan execution target", err)
		}
		t.Cadence = types.Cadence(cadence)
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating execution targets", err)
	}

	return targets, nil
}

// AdvanceSchedule moves a setting to its next firing time after an execution:
// next_execution_date := next, last_execution_date := executedAt, and the
// execution counter is incremented.
//
// The write is conditional on next_execution_date still holding the value
// that fired (executedAt). Returns false with no error when the precondition
// fails, meaning another worker already advanced the row and this execution
// was a duplicate.
func (r *BatchSettingRepository) AdvanceSchedule(ctx context.Context, clientID string, createdAt time.Time, executedAt, next time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE batch_report_settings
		 SET next_execution_date = $3,
		     last_execution_date = $4,
		     execution_count = execution_count + 1,
		     updated_at = NOW()
		 WHERE client_id = $1 AND created_at = $2
		   AND deleted_at IS NULL
		   AND next_execution_date = $4`,
		clientID,
		createdAt,
		next,
		executedAt,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to advance batch schedule", err)
	}
	return tag.RowsAffected() > 0, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSetting reads one batch_report_settings row in settingColumns order.
func scanSetting(row rowScanner) (types.BatchReportSetting, error) {
	var (
		s       types.BatchReportSetting
		cadence string
		status  string
	)
	err := row.Scan(
		&s.ClientID,
		&s.CreatedAt,
		&s.ID,
		&s.PropertyID,
		&s.PropertyName,
		&s.Weekday,
		&s.StartDate,
		&cadence,
		&s.AutoGenerate,
		&s.ExecutionTime,
		&s.NextExecutionDate,
		&status,
		&s.LastExecutionDate,
		&s.ExecutionCount,
		&s.EmployeeID,
		&s.UpdatedAt,
		&s.DeletedAt,
	)
	if err != nil {
		return types.BatchReportSetting{}, err
	}
	s.Cadence = types.Cadence(cadence)
	s.Status = types.SettingStatus(status)
	return s, nil
}
