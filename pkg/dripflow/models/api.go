package models

import "time"

// SubscriptionApiResponse represents the API view of a subscription.
type SubscriptionApiResponse struct {
	ExternalID  string     `json:"externalId"`
	UserID      string     `json:"userId"`
	WorkflowID  string     `json:"workflowId"`
	Status      string     `json:"status"`
	CurrentStep int        `json:"currentStep"`
	NextDueAt   *time.Time `json:"nextDueAt,omitempty"`
	LastSentAt  *time.Time `json:"lastSentAt,omitempty"`
	SendCount   int        `json:"sendCount"`
	Created     time.Time  `json:"created"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// EngagementEventRequest ingests an open or click (or an externally recorded
// send) into the engagement store.
type EngagementEventRequest struct {
	UserID     string `json:"userId" validate:"required"`
	Kind       string `json:"kind" validate:"required,oneof=sent opened clicked"`
	MessageKey string `json:"messageKey,omitempty"`
}

// WorkflowApiResponse is the read-only catalog view exposed over HTTP.
type WorkflowApiResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Trigger         string            `json:"trigger"`
	Active          bool              `json:"active"`
	StepCount       int               `json:"stepCount"`
	TargetSegments  []string          `json:"targetSegments,omitempty"`
	ExcludeSegments []string          `json:"excludeSegments,omitempty"`
	Steps           []StepApiResponse `json:"steps,omitempty"`
}

// DeliveryApiResponse is one row of a subscription's send audit trail.
type DeliveryApiResponse struct {
	ID             int64     `json:"id"`
	WorkflowID     string    `json:"workflowId"`
	StepNumber     int       `json:"stepNumber"`
	Variant        string    `json:"variant,omitempty"`
	Recipient      string    `json:"recipient"`
	IdempotencyKey string    `json:"idempotencyKey"`
	Status         string    `json:"status"`
	Detail         string    `json:"detail,omitempty"`
	DateTime       time.Time `json:"dateTime"`
}

// RunnerApiResponse lists a registered batch runner and its last heartbeat.
type RunnerApiResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Started    time.Time `json:"started"`
	LastActive time.Time `json:"lastActive"`
}

// ScoreApiResponse carries a user's current engagement score.
type ScoreApiResponse struct {
	UserID string  `json:"userId"`
	Score  float64 `json:"score"`
}

type StepApiResponse struct {
	StepNumber int      `json:"stepNumber"`
	DelayDays  int      `json:"delayDays"`
	DelayHours int      `json:"delayHours"`
	TemplateID string   `json:"templateId"`
	Variants   []string `json:"variants,omitempty"`
	Conditions int      `json:"conditionCount"`
}
