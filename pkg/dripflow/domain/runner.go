package domain

import "time"

// Runner is one registered engine instance. Runners heartbeat last_active so
// claims held by a crashed instance can be released.
type Runner struct {
	ID         int64
	Name       string
	Started    time.Time
	LastActive time.Time
}
