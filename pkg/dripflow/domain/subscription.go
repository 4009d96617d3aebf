package domain

import "time"
import "database/sql"

const (
	SubscriptionActive    = "active"
	SubscriptionCompleted = "completed"
	SubscriptionCancelled = "cancelled"
)

// Subscription is a user's progress record through one workflow enrollment.
// NextDueAt is set iff the subscription is active and a further step exists.
// ActiveGuard carries "userID:workflowID" while active and NULL otherwise; a
// unique index on it keeps a user to one active subscription per workflow
// across all supported databases.
type Subscription struct {
	ID          int64
	ExternalID  string
	UserID      string
	WorkflowID  string
	Status      string
	CurrentStep int
	NextDueAt   sql.NullTime
	LastSentAt  sql.NullTime
	SendCount   int
	RunnerID    sql.NullInt64
	Created     time.Time
	Modified    time.Time
	CompletedAt sql.NullTime
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}
