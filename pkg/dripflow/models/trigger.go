package models

// TriggerRequest is the payload for firing a lifecycle event at the engine.
type TriggerRequest struct {
	UserID   string            `json:"userId" validate:"required"`
	Event    string            `json:"event" validate:"required"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EnrollmentResult reports what a trigger call did, per matching workflow.
// Success is false only when at least one enrollment failed to persist;
// skipped workflows (already active, ineligible) do not count as failures.
type EnrollmentResult struct {
	Success              bool     `json:"success"`
	SubscriptionsCreated []string `json:"subscriptionsCreated"`
	Skipped              []string `json:"skipped,omitempty"`
	Errors               []string `json:"errors,omitempty"`
}
