package domain

import "time"

const (
	DeliverySent      = "SENT"
	DeliveryDuplicate = "DUPLICATE"
	DeliveryFailed    = "FAILED"
	DeliverySkipped   = "SKIPPED"
)

// Delivery is the per-send audit record written for every transport attempt.
type Delivery struct {
	ID             int64
	SubscriptionID int64
	WorkflowID     string
	StepNumber     int
	Variant        string
	Recipient      string
	IdempotencyKey string
	Status         string
	Detail         string
	DateTime       time.Time
}
