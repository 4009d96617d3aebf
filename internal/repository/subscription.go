package repository

import (
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// ErrDuplicateActiveSubscription is returned when an insert collides with the
// one-active-subscription-per-workflow guard.
var ErrDuplicateActiveSubscription = errors.New("active subscription already exists for user and workflow")

type SubscriptionRepository struct {
	db    *sql.DB
	clock core.Clock
}

const SUBSCRIPTION_COLUMNS = ` id, external_id, user_id, workflow_id, status, current_step,
		       next_due_at, last_sent_at, send_count, runner_id,
		       created, modified, completed_at `

func NewSubscriptionRepository(db *sql.DB, clock core.Clock) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, clock: clock}
}

func scanSubscription(scan func(dest ...any) error) (*domain.Subscription, error) {
	var s domain.Subscription
	err := scan(
		&s.ID,
		&s.ExternalID,
		&s.UserID,
		&s.WorkflowID,
		&s.Status,
		&s.CurrentStep,
		&s.NextDueAt,
		&s.LastSentAt,
		&s.SendCount,
		&s.RunnerID,
		&s.Created,
		&s.Modified,
		&s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// activeGuard is the value stored in the unique active_guard column while a
// subscription is active. All three supported databases allow multiple NULLs
// in a unique index, so clearing it on completion/cancellation frees the slot.
func activeGuard(userID, workflowID string) string {
	return userID + ":" + workflowID
}

// Save inserts a new active subscription and returns its ID. A concurrent
// insert for the same (user, workflow) loses on the active_guard unique index
// and surfaces as ErrDuplicateActiveSubscription.
func (r *SubscriptionRepository) Save(s *domain.Subscription) (int64, error) {
	vals := []interface{}{
		s.ExternalID, s.UserID, s.WorkflowID, s.Status, s.CurrentStep,
		formatDateInDatabaseNull(s.NextDueAt), formatDateInDatabaseNull(s.LastSentAt), s.SendCount,
		activeGuard(s.UserID, s.WorkflowID),
		formatDateInDatabase(s.Created), formatDateInDatabase(s.Modified),
	}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	base := `INSERT INTO subscriptions (
		external_id, user_id, workflow_id, status, current_step,
		next_due_at, last_sent_at, send_count, active_guard,
		created, modified
	) VALUES (` + strings.Join(pps, ", ") + `)`

	var err error
	if supportsReturning() {
		query := base + " RETURNING id"
		err = r.db.QueryRow(query, vals...).Scan(&s.ID)
	} else {
		res, e := r.db.Exec(base, vals...)
		if e != nil {
			err = e
		} else {
			id, e2 := res.LastInsertId()
			if e2 != nil {
				err = e2
			} else {
				s.ID = id
			}
		}
	}
	if err != nil && isUniqueViolation(err) {
		return 0, ErrDuplicateActiveSubscription
	}
	return s.ID, err
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") || // postgres
		strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "Duplicate entry") // mysql
}

func (r *SubscriptionRepository) FindByID(id int64) (*domain.Subscription, error) {
	query := `
		SELECT ` + SUBSCRIPTION_COLUMNS + `
		FROM subscriptions WHERE id = ` + placeholder(1) + `
	`
	return scanSubscription(r.db.QueryRow(query, id).Scan)
}

func (r *SubscriptionRepository) FindByExternalID(externalID string) (*domain.Subscription, error) {
	query := `
		SELECT ` + SUBSCRIPTION_COLUMNS + `
		FROM subscriptions WHERE external_id = ` + placeholder(1) + `
	`
	return scanSubscription(r.db.QueryRow(query, externalID).Scan)
}

// FindActive returns the single active subscription for (user, workflow), or
// nil when none exists.
func (r *SubscriptionRepository) FindActive(userID, workflowID string) (*domain.Subscription, error) {
	query := `
		SELECT ` + SUBSCRIPTION_COLUMNS + `
		FROM subscriptions
		WHERE user_id = ` + placeholder(1) + `
		  AND workflow_id = ` + placeholder(2) + `
		  AND status = 'active'
	`
	s, err := scanSubscription(r.db.QueryRow(query, userID, workflowID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *SubscriptionRepository) FindByUser(userID string) (*[]domain.Subscription, error) {
	query := `
		SELECT ` + SUBSCRIPTION_COLUMNS + `
		FROM subscriptions
		WHERE user_id = ` + placeholder(1) + `
		ORDER BY id DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return &subs, rows.Err()
}

// FindDue returns unclaimed active subscriptions whose next step is due at or
// before the cutoff, oldest first so worst-case lateness stays bounded.
func (r *SubscriptionRepository) FindDue(limit int, cutoff time.Time) (*[]domain.Subscription, error) {
	query := `
		SELECT ` + SUBSCRIPTION_COLUMNS + `
		FROM subscriptions
		WHERE ` + dateBeforeOrAt("next_due_at", cutoff) + `
		  AND status = 'active'
		  AND runner_id IS NULL
		ORDER BY next_due_at ASC
		LIMIT ` + placeholder(1) + `
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return &subs, rows.Err()
}

// Claim marks the subscription as owned by the given runner. The modified
// timestamp acts as an optimistic lock: a second runner racing on the same row
// loses and gets false, so a subscription is never advanced twice concurrently.
func (r *SubscriptionRepository) Claim(id int64, runnerID int64, modified time.Time) bool {
	query := `
		UPDATE subscriptions
		SET runner_id = ` + placeholder(1) + `, modified = ` + nowFunc(r.clock.Now()) + `
		WHERE id = ` + placeholder(2) + ` AND modified = ` + placeholder(3) + ` AND status = 'active' AND runner_id IS NULL
	`
	result, err := r.db.Exec(query, runnerID, id, formatDateInDatabase(modified))
	if err != nil {
		slog.Error("Failed to claim subscription", "error", err, "id", id, "runner_id", runnerID)
		return false
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false
	}
	return rowsAffected == 1
}

// ReleaseClaim hands the subscription back without advancing it. Used on
// condition skips and transport failures so the next tick retries.
func (r *SubscriptionRepository) ReleaseClaim(id int64) error {
	query := `
		UPDATE subscriptions
		SET runner_id = NULL, modified = ` + nowFunc(r.clock.Now()) + `
		WHERE id = ` + placeholder(1) + `
	`
	_, err := r.db.Exec(query, id)
	return err
}

// AdvanceAfterSend records a successful step send and schedules the next step.
func (r *SubscriptionRepository) AdvanceAfterSend(id int64, newCurrentStep int, sentAt time.Time, nextDueAt time.Time) error {
	query := `
		UPDATE subscriptions
		SET current_step = ` + placeholder(1) + `,
		    last_sent_at = ` + placeholder(2) + `,
		    next_due_at = ` + placeholder(3) + `,
		    send_count = send_count + 1,
		    runner_id = NULL,
		    modified = ` + nowFunc(r.clock.Now()) + `
		WHERE id = ` + placeholder(4) + `
	`
	_, err := r.db.Exec(query, newCurrentStep, formatDateInDatabase(sentAt), formatDateInDatabase(nextDueAt), id)
	return err
}

// CompleteAfterSend records the final step send and terminates the subscription.
func (r *SubscriptionRepository) CompleteAfterSend(id int64, newCurrentStep int, sentAt time.Time) error {
	query := `
		UPDATE subscriptions
		SET current_step = ` + placeholder(1) + `,
		    last_sent_at = ` + placeholder(2) + `,
		    next_due_at = NULL,
		    send_count = send_count + 1,
		    status = 'completed',
		    completed_at = ` + placeholder(3) + `,
		    active_guard = NULL,
		    runner_id = NULL,
		    modified = ` + nowFunc(r.clock.Now()) + `
		WHERE id = ` + placeholder(4) + `
	`
	_, err := r.db.Exec(query, newCurrentStep, formatDateInDatabase(sentAt), formatDateInDatabase(sentAt), id)
	return err
}

// MarkCompleted terminates a subscription that has no further step to send.
func (r *SubscriptionRepository) MarkCompleted(id int64, at time.Time) error {
	return r.terminate(id, domain.SubscriptionCompleted, at)
}

// MarkCancelled terminates a subscription on unsubscribe or lost eligibility.
func (r *SubscriptionRepository) MarkCancelled(id int64, at time.Time) error {
	return r.terminate(id, domain.SubscriptionCancelled, at)
}

func (r *SubscriptionRepository) terminate(id int64, status string, at time.Time) error {
	query := `
		UPDATE subscriptions
		SET status = ` + placeholder(1) + `,
		    next_due_at = NULL,
		    completed_at = ` + placeholder(2) + `,
		    active_guard = NULL,
		    runner_id = NULL,
		    modified = ` + nowFunc(r.clock.Now()) + `
		WHERE id = ` + placeholder(3) + ` AND status = 'active'
	`
	_, err := r.db.Exec(query, status, formatDateInDatabase(at), id)
	return err
}

// FindStaleClaims returns subscriptions still claimed by runners that stopped
// heartbeating before the cutoff, so a crashed instance cannot strand them.
func (r *SubscriptionRepository) FindStaleClaims(cutoff time.Time, limit int) (*[]domain.Subscription, error) {
	query := `
		SELECT ` + SUBSCRIPTION_COLUMNS + `
		FROM subscriptions
		WHERE status = 'active'
		  AND runner_id IS NOT NULL
		  AND runner_id NOT IN (
		      SELECT id
		      FROM runners
		      WHERE last_active > ` + placeholder(1) + `
		  )
		ORDER BY next_due_at ASC
		LIMIT ` + placeholder(2) + `
	`
	rows, err := r.db.Query(query, formatDateInDatabase(cutoff), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return &subs, rows.Err()
}
