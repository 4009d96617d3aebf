package models

// BatchResult summarises one scheduler pass over the due subscriptions.
// Errors holds per-subscription failures; a failed subscription never aborts
// the rest of the batch.
type BatchResult struct {
	Processed int      `json:"processedCount"`
	Completed int      `json:"completedCount"`
	Skipped   int      `json:"skippedCount"`
	Errors    []string `json:"errors,omitempty"`
}
