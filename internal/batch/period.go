package batch

import (
	"time"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// DateLayout is the calendar-date format used for reporting period bounds.
const DateLayout = "2006-01-02"

// Period is the calendar date range a generated report summarizes. Both
// bounds are inclusive dates with no time-of-day component.
type Period struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

// PeriodFor derives the reporting period for one firing. The execution
// instant (the setting's next_execution_date at selection time) becomes the
// period end date after normalization to the operational timezone; the start
// date is the cadence length (7 or 14 days) earlier.
//
// Pure function. An invalid cadence is a programming invariant violation and
// panics via Cadence.Days rather than being recovered from.
func PeriodFor(cadence types.Cadence, execAt time.Time, loc *time.Location) Period {
	end := execAt.In(loc)
	start := end.AddDate(0, 0, -cadence.Days())

	return Period{
		Start: start.Format(DateLayout),
		End:   end.Format(DateLayout),
	}
}

// NextExecution computes the firing time that follows an execution:
//
//  1. Add the cadence length (7 or 14 days) to the executed instant.
//  2. Shift the result by the minimal signed number of days so its day of
//     week equals the setting's anchor weekday. The shift can be negative
//     when the addition overshoots past the target weekday (e.g. after the
//     weekday was reconfigured between firings).
//
// The time-of-day component is carried through unchanged. Arithmetic is done
// on the wall clock of the operational timezone.
func NextExecution(weekday int, cadence types.Cadence, executedAt time.Time, loc *time.Location) time.Time {
	candidate := executedAt.In(loc).AddDate(0, 0, cadence.Days())
	return candidate.AddDate(0, 0, weekdayShift(weekday, int(candidate.Weekday())))
}

// weekdayShift returns the signed day delta in [-3, 3] that moves a date
// from the current weekday to the target weekday with the fewest days.
func weekdayShift(target, current int) int {
	d := (target - current + 7) % 7
	if d > 3 {
		d -= 7
	}
	return d
}
