package domain

import "time"

// QueuedMessage is a fire-and-forget unit handed to the outbound transport.
// IdempotencyKey is a deterministic hash of (subscriptionID, stepNumber) so a
// duplicate tick can never double-deliver the same logical send.
type QueuedMessage struct {
	Recipient      string
	Subject        string
	HTMLBody       string
	TextBody       string
	WorkflowID     string
	StepNumber     int
	IdempotencyKey string
	ScheduledAt    time.Time
}

// MessageTemplate holds the raw template text for one message. Subject and
// TextBody are text templates, HTMLBody is an html template.
type MessageTemplate struct {
	ID       string
	Subject  string
	HTMLBody string
	TextBody string
}
