package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dripware/dripflow/internal/catalog"
	"github.com/dripware/dripflow/internal/template"
	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// processOutcome tells the scheduler what a processing pass did with one
// claimed subscription.
type processOutcome int

const (
	outcomeAdvanced processOutcome = iota
	outcomeCompleted
	outcomeSkipped
)

// StepProcessor advances one claimed subscription by at most one step: check
// conditions, render, hand to the transport, persist the new state. The caller
// must hold the claim; the processor always leaves the claim released, either
// by advancing or by handing the row back untouched.
type StepProcessor struct {
	catalog    *catalog.Catalog
	subs       SubscriptionRepo
	deliveries DeliveryRepo
	engagement EngagementRepo
	profiles   ProfileProvider
	evaluator  *Evaluator
	transport  Transport
	templates  *template.Registry
	clock      core.Clock
}

func NewStepProcessor(cat *catalog.Catalog, subs SubscriptionRepo, deliveries DeliveryRepo,
	engagement EngagementRepo, profiles ProfileProvider, evaluator *Evaluator,
	transport Transport, templates *template.Registry, clock core.Clock) *StepProcessor {
	return &StepProcessor{
		catalog:    cat,
		subs:       subs,
		deliveries: deliveries,
		engagement: engagement,
		profiles:   profiles,
		evaluator:  evaluator,
		transport:  transport,
		templates:  templates,
		clock:      clock,
	}
}

func (p *StepProcessor) Process(ctx context.Context, sub *domain.Subscription) (processOutcome, error) {
	wf := p.catalog.Get(sub.WorkflowID)
	if wf == nil {
		// The definition was removed between process restarts. The
		// subscription can never advance again, so close it out.
		slog.Warn("Cancelling subscription for unknown workflow", "subscription_id", sub.ID, "workflow_id", sub.WorkflowID)
		if err := p.subs.MarkCancelled(sub.ID, p.clock.Now()); err != nil {
			return outcomeSkipped, fmt.Errorf("cancel subscription %d: %w", sub.ID, err)
		}
		return outcomeCompleted, nil
	}

	segments, err := p.profiles.GetUserSegments(ctx, sub.UserID)
	if err != nil {
		_ = p.subs.ReleaseClaim(sub.ID)
		return outcomeSkipped, fmt.Errorf("segment lookup for subscription %d: %w", sub.ID, err)
	}
	if !p.evaluator.IsEligible(segments, wf) {
		slog.Info("Cancelling subscription, eligibility lost", "subscription_id", sub.ID, "workflow_id", wf.ID)
		if err := p.subs.MarkCancelled(sub.ID, p.clock.Now()); err != nil {
			return outcomeSkipped, fmt.Errorf("cancel subscription %d: %w", sub.ID, err)
		}
		return outcomeCompleted, nil
	}

	stepNumber := sub.CurrentStep + 1
	step := wf.Step(stepNumber)
	if step == nil {
		if err := p.subs.MarkCompleted(sub.ID, p.clock.Now()); err != nil {
			return outcomeSkipped, fmt.Errorf("complete subscription %d: %w", sub.ID, err)
		}
		return outcomeCompleted, nil
	}

	if !p.evaluator.CheckConditions(ctx, sub.UserID, step.Conditions) {
		// Not advanced and not rescheduled: the step stays due and is
		// re-evaluated next tick. A condition that never turns true stalls
		// the subscription until someone cancels it.
		slog.Debug("Step conditions not met, skipping this tick",
			"subscription_id", sub.ID, "workflow_id", wf.ID, "step", stepNumber)
		if err := p.subs.ReleaseClaim(sub.ID); err != nil {
			return outcomeSkipped, fmt.Errorf("release subscription %d: %w", sub.ID, err)
		}
		return outcomeSkipped, nil
	}

	templateID := selectVariant(sub.UserID, wf.ID, step)

	recipient, err := p.profiles.GetEmail(ctx, sub.UserID)
	if err != nil || recipient == "" {
		_ = p.subs.ReleaseClaim(sub.ID)
		return outcomeSkipped, fmt.Errorf("resolve recipient for subscription %d: %w", sub.ID, err)
	}

	rendered, err := p.templates.Render(templateID, template.RenderData{
		UserID:     sub.UserID,
		Recipient:  recipient,
		WorkflowID: wf.ID,
		StepNumber: stepNumber,
	})
	if err != nil {
		_ = p.subs.ReleaseClaim(sub.ID)
		return outcomeSkipped, fmt.Errorf("render subscription %d step %d: %w", sub.ID, stepNumber, err)
	}

	msg := &domain.QueuedMessage{
		Recipient:      recipient,
		Subject:        rendered.Subject,
		HTMLBody:       rendered.HTMLBody,
		TextBody:       rendered.TextBody,
		WorkflowID:     wf.ID,
		StepNumber:     stepNumber,
		IdempotencyKey: idempotencyKey(sub.ID, stepNumber),
		ScheduledAt:    sub.NextDueAt.Time,
	}

	result := p.transport.Send(ctx, msg)
	if !result.Success && !result.Duplicate {
		// Leave the subscription unchanged so the next tick retries. Backoff
		// is the transport's problem, not this layer's.
		slog.Error("Transport send failed", "subscription_id", sub.ID, "step", stepNumber, "error", result.Error)
		_, _ = p.deliveries.Save(&domain.Delivery{
			SubscriptionID: sub.ID,
			WorkflowID:     wf.ID,
			StepNumber:     stepNumber,
			Variant:        templateID,
			Recipient:      recipient,
			IdempotencyKey: msg.IdempotencyKey,
			Status:         domain.DeliveryFailed,
			Detail:         result.Error,
			DateTime:       p.clock.Now(),
		})
		if err := p.subs.ReleaseClaim(sub.ID); err != nil {
			return outcomeSkipped, fmt.Errorf("release subscription %d: %w", sub.ID, err)
		}
		return outcomeSkipped, fmt.Errorf("send subscription %d step %d: %s", sub.ID, stepNumber, result.Error)
	}

	sentAt := p.clock.Now()

	deliveryStatus := domain.DeliverySent
	if result.Duplicate {
		deliveryStatus = domain.DeliveryDuplicate
	}
	_, _ = p.deliveries.Save(&domain.Delivery{
		SubscriptionID: sub.ID,
		WorkflowID:     wf.ID,
		StepNumber:     stepNumber,
		Variant:        templateID,
		Recipient:      recipient,
		IdempotencyKey: msg.IdempotencyKey,
		Status:         deliveryStatus,
		DateTime:       sentAt,
	})
	if _, err := p.engagement.Save(&domain.EngagementEvent{
		UserID:     sub.UserID,
		Kind:       domain.EngagementSent,
		MessageKey: nullString(msg.IdempotencyKey),
		OccurredAt: sentAt,
	}); err != nil {
		slog.Error("Failed to record sent engagement event", "subscription_id", sub.ID, "error", err)
	}

	next := wf.Step(stepNumber + 1)
	if next == nil {
		if err := p.subs.CompleteAfterSend(sub.ID, stepNumber, sentAt); err != nil {
			return outcomeSkipped, fmt.Errorf("persist completion of subscription %d: %w", sub.ID, err)
		}
		slog.Info("Subscription completed", "subscription_id", sub.ID, "workflow_id", wf.ID, "steps_sent", stepNumber)
		return outcomeCompleted, nil
	}

	due := nextDueAt(sentAt, next.DelayDays, next.DelayHours)
	if err := p.subs.AdvanceAfterSend(sub.ID, stepNumber, sentAt, due); err != nil {
		return outcomeSkipped, fmt.Errorf("persist advancement of subscription %d: %w", sub.ID, err)
	}
	slog.Info("Subscription advanced", "subscription_id", sub.ID, "workflow_id", wf.ID, "step", stepNumber, "next_due_at", due)
	return outcomeAdvanced, nil
}

// idempotencyKey is a deterministic function of (subscriptionID, stepNumber)
// so retries of the same logical send present the same key to the transport.
func idempotencyKey(subscriptionID int64, stepNumber int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("dripflow:%d:%d", subscriptionID, stepNumber))).String()
}

// selectVariant picks an A/B variant by hashing (userID, workflowID, step).
// The hash is stable, so repeated ticks before a commit always pick the same
// variant for the same logical send.
func selectVariant(userID, workflowID string, step *domain.StepDefinition) string {
	if len(step.Variants) == 0 {
		return step.TemplateID
	}
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%s:%d", userID, workflowID, step.StepNumber)
	return step.Variants[int(h.Sum32())%len(step.Variants)]
}
