package db

import (
	"context"
	"time"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// JobLockRepository provides distributed locking via the job_locks table,
// ensuring only one runner processes a given batch cycle even when multiple
// service replicas fire on the same hour. The locking mechanism uses
// INSERT ... ON CONFLICT DO UPDATE to atomically acquire a lock.
type JobLockRepository struct {
	db DBTX
}

// NewJobLockRepository creates a repository backed by the given database
// connection (pool or transaction).
func NewJobLockRepository(db DBTX) *JobLockRepository {
	return &JobLockRepository{db: db}
}

// Acquire attempts to insert a lock row. Returns true if acquired, false if
// the lock already exists and has not expired. The lockID is
// "job_type:timestamp_hour" (e.g. "report_batch:2024-06-10T01").
//
// The locked_at and expires_at values are computed as time.Time in Go to
// avoid PostgreSQL interval parsing incompatibilities with Go's duration
// format. If the existing row has expired, the ON CONFLICT UPDATE succeeds
// and the caller reclaims the lock; if it is still active, the WHERE clause
// prevents the update and zero rows are affected.
func (r *JobLockRepository) Acquire(ctx context.Context, lockID string, workerID string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	tag, err := r.db.Exec(ctx,
		`INSERT INTO job_locks (id, worker_id, locked_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		   SET worker_id = EXCLUDED.worker_id,
		       locked_at = EXCLUDED.locked_at,
		       expires_at = EXCLUDED.expires_at
		   WHERE job_locks.expires_at < $3`,
		lockID,
		workerID,
		now,
		expiresAt,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to acquire job lock", err)
	}

	return tag.RowsAffected() > 0, nil
}

// JobHistoryRepository provides data access for the job_history table.
// History entries track batch cycle executions for operational visibility
// and debugging.
type JobHistoryRepository struct {
	db DBTX
}

// NewJobHistoryRepository creates a repository backed by the given database
// connection (pool or transaction).
func NewJobHistoryRepository(db DBTX) *JobHistoryRepository {
	return &JobHistoryRepository{db: db}
}

// Start inserts a new job_history row with status 'running' and returns the
// auto-generated id. The caller uses this id to later call Finish.
func (r *JobHistoryRepository) Start(ctx context.Context, jobType string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO job_history (job_type, started_at, status)
		 VALUES ($1, NOW(), 'running')
		 RETURNING id`,
		jobType,
	).Scan(&id)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to start job history entry", err)
	}
	return id, nil
}

// Finish updates the job_history row with the final status ('success' or
// 'failed'), processed item count, and optional error message.
func (r *JobHistoryRepository) Finish(ctx context.Context, id int64, status string, items int, jobErr error) error {
	var errMsg *string
	if jobErr != nil {
		s := jobErr.Error()
		errMsg = &s
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE job_history
		 SET finished_at = NOW(), status = $2, items_count = $3, error = $4
		 WHERE id = $1`,
		id,
		status,
		items,
		errMsg,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to finish job history entry", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "job history entry not found", nil)
	}
	return nil
}
