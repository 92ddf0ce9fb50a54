// Package batch implements the recurring sales-report pipeline: due-setting
// selection, reporting-period computation, per-setting report assembly, and
// next-execution rescheduling, driven by an hourly trigger.
//
// All calendar arithmetic is anchored to the operational timezone
// (Asia/Tokyo in production) through an explicit *time.Location; there is no
// manual UTC offset arithmetic anywhere in the pipeline.
package batch

import "time"

// Clock supplies the current wall-clock time in the operational timezone.
// It is an interface so cycle logic can be tested against fixed instants.
type Clock interface {
	Now() time.Time
}

// systemClock is the production Clock, reading the OS clock and converting
// to the operational timezone.
type systemClock struct {
	loc *time.Location
}

// NewSystemClock returns a Clock that reports time.Now in loc.
func NewSystemClock(loc *time.Location) Clock {
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}
