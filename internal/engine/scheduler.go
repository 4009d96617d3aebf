package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"

	"github.com/dripware/dripflow/internal/config"
	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
	"github.com/dripware/dripflow/pkg/dripflow/models"
)

// Scheduler drives the recurring sweep over due subscriptions. One batch pass
// claims each due row, fans it out to a bounded worker pool and aggregates
// per-subscription failures; a failed row never aborts the rest of the batch.
type Scheduler struct {
	subs      SubscriptionRepo
	runners   RunnerRepo
	processor *StepProcessor
	clock     core.Clock
	runnerID  int64
	batchSize int
	workers   int
}

func NewScheduler(subs SubscriptionRepo, runners RunnerRepo, processor *StepProcessor, clock core.Clock) *Scheduler {
	batchSize := config.GetSystemSettingInteger(config.ENGINE_BATCH_SIZE)
	if batchSize <= 0 {
		batchSize = 50
	}
	workers := config.GetSystemSettingInteger(config.ENGINE_WORKER_SIZE)
	if workers <= 0 {
		workers = 5
	}
	return &Scheduler{
		subs:      subs,
		runners:   runners,
		processor: processor,
		clock:     clock,
		batchSize: batchSize,
		workers:   workers,
	}
}

// Start registers this runner, then runs the tick and stale-claim sweeps on
// their configured cron schedules until the context is cancelled. Overlapping
// ticks are skipped rather than stacked.
func (s *Scheduler) Start(ctx context.Context) error {
	s.registerRunner(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	tickSchedule := config.GetSystemSettingString(config.ENGINE_TICK_SCHEDULE)
	if _, err := c.AddFunc(tickSchedule, func() {
		result, err := s.ProcessDue(ctx)
		if err != nil {
			slog.Error("Tick failed to read due subscriptions", "error", err)
			return
		}
		if result.Processed > 0 || len(result.Errors) > 0 {
			slog.Info("Tick finished", "processed", result.Processed, "completed", result.Completed,
				"skipped", result.Skipped, "errors", len(result.Errors))
		}
	}); err != nil {
		return fmt.Errorf("invalid tick schedule %q: %w", tickSchedule, err)
	}

	repairSchedule := config.GetSystemSettingString(config.ENGINE_STALE_CLAIMS_SCHEDULE)
	if _, err := c.AddFunc(repairSchedule, func() { s.releaseStaleClaims() }); err != nil {
		return fmt.Errorf("invalid stale-claims schedule %q: %w", repairSchedule, err)
	}

	slog.Info("Scheduler started", "tick_schedule", tickSchedule, "batch_size", s.batchSize, "workers", s.workers)
	c.Start()
	<-ctx.Done()
	slog.Info("Scheduler stopping due to context cancel")
	<-c.Stop().Done()
	return nil
}

// ProcessDue is the batch entrypoint: one sweep over everything currently due.
// The returned error is only non-nil when the batch itself cannot be read;
// everything per-subscription lands in the result's Errors list.
func (s *Scheduler) ProcessDue(ctx context.Context) (*models.BatchResult, error) {
	ctx = context.WithValue(ctx, core.CtxKeyRunnerId, s.runnerID)

	due, err := s.subs.FindDue(s.batchSize, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("fetch due subscriptions: %w", err)
	}

	result := &models.BatchResult{}
	if len(*due) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	var errs *multierror.Error
	var wg sync.WaitGroup
	work := make(chan *domain.Subscription)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range work {
				outcome, err := s.processor.Process(ctx, sub)
				mu.Lock()
				switch {
				case err != nil:
					errs = multierror.Append(errs, err)
				case outcome == outcomeCompleted:
					result.Processed++
					result.Completed++
				case outcome == outcomeSkipped:
					result.Skipped++
				default:
					result.Processed++
				}
				mu.Unlock()
			}
		}()
	}

	for i := range *due {
		sub := &(*due)[i]
		// The claim is the per-subscription mutation lock: another runner (or
		// an overlapping inline enrollment send) that got here first wins and
		// this pass moves on.
		if !s.subs.Claim(sub.ID, s.runnerID, sub.Modified) {
			slog.Debug("Unable to claim subscription, picked up elsewhere", "subscription_id", sub.ID)
			continue
		}
		work <- sub
	}
	close(work)
	wg.Wait()

	if errs != nil {
		for _, e := range errs.Errors {
			result.Errors = append(result.Errors, e.Error())
		}
	}
	return result, nil
}

// Cancel is the single cancellation path: it flips an active subscription to
// cancelled. In-flight sends are not interrupted; a claim held elsewhere
// finishes its current step and the terminal status stops everything after.
func (s *Scheduler) Cancel(ctx context.Context, externalID string) error {
	sub, err := s.subs.FindByExternalID(externalID)
	if err != nil {
		return err
	}
	if !sub.IsActive() {
		return fmt.Errorf("subscription %s is already %s", externalID, sub.Status)
	}
	if err := s.subs.MarkCancelled(sub.ID, s.clock.Now()); err != nil {
		return err
	}
	slog.Info("Subscription cancelled", "subscription_id", sub.ID, "user_id", sub.UserID, "workflow_id", sub.WorkflowID)
	return nil
}

func (s *Scheduler) registerRunner(ctx context.Context) {
	name := config.GetSystemSettingString(config.ENGINE_RUNNER_NAME)
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			name = "dripflow-runner"
		} else {
			name = hostname
		}
	}
	runner := &domain.Runner{Name: name, Started: time.Now(), LastActive: time.Now()}
	id, err := s.runners.Save(runner)
	if err != nil {
		slog.Error("Failed to register runner", "error", err)
		return
	}
	s.runnerID = id
	slog.Info("Registered runner", "runner_id", id, "name", name)

	// Heartbeat so other instances can tell we are alive when deciding
	// whether our claims went stale.
	hb := time.NewTicker(30 * time.Second)
	go func(runnerID int64) {
		defer hb.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-hb.C:
				if err := s.runners.UpdateLastActive(runnerID, time.Now()); err != nil {
					slog.Error("Failed to update runner last_active", "runner_id", runnerID, "error", err)
				}
			}
		}
	}(id)
}

// releaseStaleClaims hands back subscriptions still claimed by runners that
// stopped heartbeating, so a crashed instance cannot strand its batch.
func (s *Scheduler) releaseStaleClaims() {
	afterMinutes := config.GetSystemSettingInteger(config.ENGINE_STALE_CLAIMS_AFTER_MINUTES)
	if afterMinutes <= 0 {
		afterMinutes = 5
	}
	cutoff := s.clock.Now().Add(-time.Duration(afterMinutes) * time.Minute)

	stale, err := s.subs.FindStaleClaims(cutoff, 100)
	if err != nil {
		slog.Error("Error finding stale subscription claims", "error", err)
		return
	}
	for _, sub := range *stale {
		slog.Warn("Releasing stale subscription claim", "subscription_id", sub.ID,
			"workflow_id", sub.WorkflowID, "previous_runner", sub.RunnerID.Int64)
		if err := s.subs.ReleaseClaim(sub.ID); err != nil {
			slog.Error("Failed to release stale claim", "subscription_id", sub.ID, "error", err)
		}
	}
}
