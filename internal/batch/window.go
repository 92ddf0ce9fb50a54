package batch

import (
	"time"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// ExecutionWindow is the trailing selection window applied each cycle. The
// driver fires once per hour; a one-hour window guarantees no setting is
// missed when a firing is slightly delayed, while the inclusive upper bound
// guarantees no premature execution.
const ExecutionWindow = time.Hour

// SelectDue returns every target whose next_execution_date lies in the
// half-open interval (now - ExecutionWindow, now]. A target sitting exactly
// on the lower bound is excluded; one sitting exactly on now is included.
//
// The input set is expected to contain only active, non-deleted settings
// (the store guarantees this); SelectDue is a pure time filter with no side
// effects.
func SelectDue(now time.Time, targets []types.ExecutionTarget) []types.ExecutionTarget {
	lower := now.Add(-ExecutionWindow)

	var due []types.ExecutionTarget
	for _, t := range targets {
		if t.NextExecutionDate.After(lower) && !t.NextExecutionDate.After(now) {
			due = append(due, t)
		}
	}
	return due
}
