package domain

import "time"
import "database/sql"

const (
	EngagementSent    = "sent"
	EngagementOpened  = "opened"
	EngagementClicked = "clicked"
)

// EngagementEvent is one recorded send/open/click occurrence for a user.
// MessageKey links opens and clicks back to the delivery that caused them.
type EngagementEvent struct {
	ID         int64
	UserID     string
	Kind       string
	MessageKey sql.NullString
	OccurredAt time.Time
}

func KnownEngagementKinds() []string {
	return []string{EngagementSent, EngagementOpened, EngagementClicked}
}

// EngagementSnapshot is an on-demand aggregate of a user's engagement history.
// It is recomputed from engagement_events, never persisted as a stream.
type EngagementSnapshot struct {
	UserID           string
	SentCount        int
	OpenedCount      int
	ClickCount       int
	LastEngagementAt sql.NullTime
}
