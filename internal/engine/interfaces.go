package engine

import (
	"context"
	"time"

	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// SubscriptionRepo defines the persistence interface for subscriptions,
// matching repository.SubscriptionRepository.
type SubscriptionRepo interface {
	Save(s *domain.Subscription) (int64, error)
	FindByID(id int64) (*domain.Subscription, error)
	FindByExternalID(externalID string) (*domain.Subscription, error)
	FindActive(userID, workflowID string) (*domain.Subscription, error)
	FindByUser(userID string) (*[]domain.Subscription, error)
	FindDue(limit int, cutoff time.Time) (*[]domain.Subscription, error)
	Claim(id int64, runnerID int64, modified time.Time) bool
	ReleaseClaim(id int64) error
	AdvanceAfterSend(id int64, newCurrentStep int, sentAt time.Time, nextDueAt time.Time) error
	CompleteAfterSend(id int64, newCurrentStep int, sentAt time.Time) error
	MarkCompleted(id int64, at time.Time) error
	MarkCancelled(id int64, at time.Time) error
	FindStaleClaims(cutoff time.Time, limit int) (*[]domain.Subscription, error)
}

// DeliveryRepo defines the interface for the per-send audit log.
type DeliveryRepo interface {
	Save(d *domain.Delivery) (int64, error)
	FindAllBySubscriptionID(subscriptionID int64) (*[]domain.Delivery, error)
}

// EngagementRepo defines the interface for the engagement event store.
type EngagementRepo interface {
	Save(e *domain.EngagementEvent) (int64, error)
	Snapshot(userID string) (*domain.EngagementSnapshot, error)
}

// RunnerRepo defines the interface for runner registration and heartbeats.
type RunnerRepo interface {
	Save(r *domain.Runner) (int64, error)
	UpdateLastActive(id int64, ts time.Time) error
	GetRunnersByLastActive(limit int) ([]*domain.Runner, error)
}

// ApiClientRepo defines the interface for API client persistence.
type ApiClientRepo interface {
	Save(c *domain.ApiClient) (int64, error)
	FindEnabled() ([]*domain.ApiClient, error)
}

// ProfileProvider supplies externally computed user data: segments, profile
// fields, billing status and the delivery address. The engine treats segment
// sets and field values as opaque.
type ProfileProvider interface {
	GetUserSegments(ctx context.Context, userID string) (map[string]struct{}, error)
	GetProfileField(ctx context.Context, userID string, field string) (any, error)
	GetSubscriptionStatus(ctx context.Context, userID string) (string, error)
	GetEmail(ctx context.Context, userID string) (string, error)
}

// SendResult reports a transport attempt. A Duplicate result means the
// transport has already delivered this idempotency key; the engine counts it
// as success and advances exactly once.
type SendResult struct {
	Success   bool
	Duplicate bool
	Error     string
}

// Transport delivers a queued message. Implementations must be idempotent on
// QueuedMessage.IdempotencyKey.
type Transport interface {
	Send(ctx context.Context, msg *domain.QueuedMessage) SendResult
}

// ScoreProvider exposes the engagement score to condition evaluation.
type ScoreProvider interface {
	Score(ctx context.Context, userID string) (float64, error)
}
