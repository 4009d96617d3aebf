package engine

import "time"

// nextDueAt is the single place delay arithmetic happens. The base is the
// enrollment time for step 1 and the previous step's send time otherwise.
// A zero delay means due immediately, not on the next tick.
func nextDueAt(from time.Time, delayDays, delayHours int) time.Time {
	return from.Add(time.Duration(delayDays)*24*time.Hour + time.Duration(delayHours)*time.Hour)
}
