package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dripware/dripflow/internal/catalog"
	"github.com/dripware/dripflow/internal/repository"
	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
	"github.com/dripware/dripflow/pkg/dripflow/models"
)

// inlineRunnerID marks claims taken by same-call processing of zero-delay
// first steps, as opposed to claims taken by a registered scheduler runner.
const inlineRunnerID int64 = 0

// EnrollmentManager turns lifecycle events into subscriptions. Safe for
// concurrent calls: the duplicate-active guard lives in the database, not in a
// read-then-write check here.
type EnrollmentManager struct {
	catalog   *catalog.Catalog
	subs      SubscriptionRepo
	profiles  ProfileProvider
	evaluator *Evaluator
	processor *StepProcessor
	clock     core.Clock
}

func NewEnrollmentManager(cat *catalog.Catalog, subs SubscriptionRepo, profiles ProfileProvider,
	evaluator *Evaluator, processor *StepProcessor, clock core.Clock) *EnrollmentManager {
	return &EnrollmentManager{
		catalog:   cat,
		subs:      subs,
		profiles:  profiles,
		evaluator: evaluator,
		processor: processor,
		clock:     clock,
	}
}

// Trigger enrolls the user into every matching, eligible workflow. A
// persistence failure on one workflow does not abort the others; partial
// success is reported in the result. Zero-delay first steps are processed
// before the call returns so immediate sends do not wait for the next tick.
func (m *EnrollmentManager) Trigger(ctx context.Context, userID string, event domain.TriggerEvent, metadata map[string]string) (*models.EnrollmentResult, error) {
	if !event.Known() {
		return nil, fmt.Errorf("unknown trigger event: %s", event)
	}

	result := &models.EnrollmentResult{Success: true, SubscriptionsCreated: []string{}}

	workflows := m.catalog.FindByTrigger(event)
	if len(workflows) == 0 {
		return result, nil
	}

	segments, err := m.profiles.GetUserSegments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("segment lookup for user %s: %w", userID, err)
	}

	for _, wf := range workflows {
		existing, err := m.subs.FindActive(userID, wf.ID)
		if err != nil {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", wf.ID, err))
			continue
		}
		if existing != nil {
			// Idempotent re-trigger while a subscription is active.
			slog.Debug("Skipping enrollment, subscription already active", "user_id", userID, "workflow_id", wf.ID)
			result.Skipped = append(result.Skipped, wf.ID)
			continue
		}

		if !m.evaluator.IsEligible(segments, wf) {
			slog.Debug("Skipping enrollment, user not eligible", "user_id", userID, "workflow_id", wf.ID)
			result.Skipped = append(result.Skipped, wf.ID)
			continue
		}

		sub, err := m.enroll(userID, wf)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateActiveSubscription) {
				// A concurrent trigger won the insert race. Same outcome as
				// the already-active skip above.
				result.Skipped = append(result.Skipped, wf.ID)
				continue
			}
			slog.Error("Failed to enroll user", "user_id", userID, "workflow_id", wf.ID, "error", err)
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", wf.ID, err))
			continue
		}

		slog.Info("Enrolled user in workflow", "user_id", userID, "workflow_id", wf.ID,
			"subscription_id", sub.ID, "event", event, "next_due_at", sub.NextDueAt.Time)
		result.SubscriptionsCreated = append(result.SubscriptionsCreated, sub.ExternalID)

		step1 := wf.Step(1)
		if step1 != nil && step1.DelayDays == 0 && step1.DelayHours == 0 {
			m.processImmediate(ctx, sub)
		}
	}

	return result, nil
}

func (m *EnrollmentManager) enroll(userID string, wf *domain.WorkflowDefinition) (*domain.Subscription, error) {
	now := m.clock.Now()
	step1 := wf.Step(1)
	sub := &domain.Subscription{
		ExternalID:  uuid.NewString(),
		UserID:      userID,
		WorkflowID:  wf.ID,
		Status:      domain.SubscriptionActive,
		CurrentStep: 0,
		NextDueAt:   sql.NullTime{Time: nextDueAt(now, step1.DelayDays, step1.DelayHours), Valid: true},
		Created:     now,
		Modified:    now,
	}
	if _, err := m.subs.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// processImmediate gives a zero-delay first step same-call delivery semantics.
// The claim given here follows the same rules as a scheduler tick, so a tick
// racing this call cannot double-send; failures are left for the next tick.
func (m *EnrollmentManager) processImmediate(ctx context.Context, sub *domain.Subscription) {
	fresh, err := m.subs.FindByID(sub.ID)
	if err != nil {
		slog.Error("Failed to reload subscription for immediate step", "subscription_id", sub.ID, "error", err)
		return
	}
	if !m.subs.Claim(fresh.ID, inlineRunnerID, fresh.Modified) {
		return
	}
	if _, err := m.processor.Process(ctx, fresh); err != nil {
		slog.Error("Immediate step processing failed, will retry on next tick", "subscription_id", sub.ID, "error", err)
	}
}
