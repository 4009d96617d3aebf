package engine

import (
	"context"
	"sync"
	"time"

	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// MockSubscriptionRepo implements SubscriptionRepo for testing
type MockSubscriptionRepo struct {
	SaveFunc              func(s *domain.Subscription) (int64, error)
	FindByIDFunc          func(id int64) (*domain.Subscription, error)
	FindByExternalIDFunc  func(externalID string) (*domain.Subscription, error)
	FindActiveFunc        func(userID, workflowID string) (*domain.Subscription, error)
	FindByUserFunc        func(userID string) (*[]domain.Subscription, error)
	FindDueFunc           func(limit int, cutoff time.Time) (*[]domain.Subscription, error)
	ClaimFunc             func(id int64, runnerID int64, modified time.Time) bool
	ReleaseClaimFunc      func(id int64) error
	AdvanceAfterSendFunc  func(id int64, newCurrentStep int, sentAt time.Time, nextDueAt time.Time) error
	CompleteAfterSendFunc func(id int64, newCurrentStep int, sentAt time.Time) error
	MarkCompletedFunc     func(id int64, at time.Time) error
	MarkCancelledFunc     func(id int64, at time.Time) error
	FindStaleClaimsFunc   func(cutoff time.Time, limit int) (*[]domain.Subscription, error)
}

func (m *MockSubscriptionRepo) Save(s *domain.Subscription) (int64, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(s)
	}
	return 1, nil
}
func (m *MockSubscriptionRepo) FindByID(id int64) (*domain.Subscription, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, nil
}
func (m *MockSubscriptionRepo) FindByExternalID(externalID string) (*domain.Subscription, error) {
	if m.FindByExternalIDFunc != nil {
		return m.FindByExternalIDFunc(externalID)
	}
	return nil, nil
}
func (m *MockSubscriptionRepo) FindActive(userID, workflowID string) (*domain.Subscription, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(userID, workflowID)
	}
	return nil, nil
}
func (m *MockSubscriptionRepo) FindByUser(userID string) (*[]domain.Subscription, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(userID)
	}
	return nil, nil
}
func (m *MockSubscriptionRepo) FindDue(limit int, cutoff time.Time) (*[]domain.Subscription, error) {
	if m.FindDueFunc != nil {
		return m.FindDueFunc(limit, cutoff)
	}
	return &[]domain.Subscription{}, nil
}
func (m *MockSubscriptionRepo) Claim(id int64, runnerID int64, modified time.Time) bool {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(id, runnerID, modified)
	}
	return true
}
func (m *MockSubscriptionRepo) ReleaseClaim(id int64) error {
	if m.ReleaseClaimFunc != nil {
		return m.ReleaseClaimFunc(id)
	}
	return nil
}
func (m *MockSubscriptionRepo) AdvanceAfterSend(id int64, newCurrentStep int, sentAt time.Time, nextDueAt time.Time) error {
	if m.AdvanceAfterSendFunc != nil {
		return m.AdvanceAfterSendFunc(id, newCurrentStep, sentAt, nextDueAt)
	}
	return nil
}
func (m *MockSubscriptionRepo) CompleteAfterSend(id int64, newCurrentStep int, sentAt time.Time) error {
	if m.CompleteAfterSendFunc != nil {
		return m.CompleteAfterSendFunc(id, newCurrentStep, sentAt)
	}
	return nil
}
func (m *MockSubscriptionRepo) MarkCompleted(id int64, at time.Time) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(id, at)
	}
	return nil
}
func (m *MockSubscriptionRepo) MarkCancelled(id int64, at time.Time) error {
	if m.MarkCancelledFunc != nil {
		return m.MarkCancelledFunc(id, at)
	}
	return nil
}
func (m *MockSubscriptionRepo) FindStaleClaims(cutoff time.Time, limit int) (*[]domain.Subscription, error) {
	if m.FindStaleClaimsFunc != nil {
		return m.FindStaleClaimsFunc(cutoff, limit)
	}
	return &[]domain.Subscription{}, nil
}

// MockDeliveryRepo implements DeliveryRepo for testing
type MockDeliveryRepo struct {
	mu                          sync.Mutex
	Saved                       []domain.Delivery
	SaveFunc                    func(d *domain.Delivery) (int64, error)
	FindAllBySubscriptionIDFunc func(subscriptionID int64) (*[]domain.Delivery, error)
}

func (m *MockDeliveryRepo) Save(d *domain.Delivery) (int64, error) {
	m.mu.Lock()
	m.Saved = append(m.Saved, *d)
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(d)
	}
	return int64(len(m.Saved)), nil
}
func (m *MockDeliveryRepo) FindAllBySubscriptionID(subscriptionID int64) (*[]domain.Delivery, error) {
	if m.FindAllBySubscriptionIDFunc != nil {
		return m.FindAllBySubscriptionIDFunc(subscriptionID)
	}
	return &[]domain.Delivery{}, nil
}

// MockEngagementRepo implements EngagementRepo for testing
type MockEngagementRepo struct {
	mu           sync.Mutex
	Saved        []domain.EngagementEvent
	SaveFunc     func(e *domain.EngagementEvent) (int64, error)
	SnapshotFunc func(userID string) (*domain.EngagementSnapshot, error)
}

func (m *MockEngagementRepo) Save(e *domain.EngagementEvent) (int64, error) {
	m.mu.Lock()
	m.Saved = append(m.Saved, *e)
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(e)
	}
	return int64(len(m.Saved)), nil
}
func (m *MockEngagementRepo) Snapshot(userID string) (*domain.EngagementSnapshot, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(userID)
	}
	return &domain.EngagementSnapshot{UserID: userID}, nil
}

// MockRunnerRepo implements RunnerRepo for testing
type MockRunnerRepo struct {
	SaveFunc                   func(r *domain.Runner) (int64, error)
	UpdateLastActiveFunc       func(id int64, ts time.Time) error
	GetRunnersByLastActiveFunc func(limit int) ([]*domain.Runner, error)
}

func (m *MockRunnerRepo) Save(r *domain.Runner) (int64, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(r)
	}
	return 1, nil
}
func (m *MockRunnerRepo) UpdateLastActive(id int64, ts time.Time) error {
	if m.UpdateLastActiveFunc != nil {
		return m.UpdateLastActiveFunc(id, ts)
	}
	return nil
}
func (m *MockRunnerRepo) GetRunnersByLastActive(limit int) ([]*domain.Runner, error) {
	if m.GetRunnersByLastActiveFunc != nil {
		return m.GetRunnersByLastActiveFunc(limit)
	}
	return nil, nil
}

// MockProfileProvider implements ProfileProvider for testing
type MockProfileProvider struct {
	GetUserSegmentsFunc       func(ctx context.Context, userID string) (map[string]struct{}, error)
	GetProfileFieldFunc       func(ctx context.Context, userID string, field string) (any, error)
	GetSubscriptionStatusFunc func(ctx context.Context, userID string) (string, error)
	GetEmailFunc              func(ctx context.Context, userID string) (string, error)
}

func (m *MockProfileProvider) GetUserSegments(ctx context.Context, userID string) (map[string]struct{}, error) {
	if m.GetUserSegmentsFunc != nil {
		return m.GetUserSegmentsFunc(ctx, userID)
	}
	return map[string]struct{}{"all_users": {}}, nil
}
func (m *MockProfileProvider) GetProfileField(ctx context.Context, userID string, field string) (any, error) {
	if m.GetProfileFieldFunc != nil {
		return m.GetProfileFieldFunc(ctx, userID, field)
	}
	return nil, nil
}
func (m *MockProfileProvider) GetSubscriptionStatus(ctx context.Context, userID string) (string, error) {
	if m.GetSubscriptionStatusFunc != nil {
		return m.GetSubscriptionStatusFunc(ctx, userID)
	}
	return "free", nil
}
func (m *MockProfileProvider) GetEmail(ctx context.Context, userID string) (string, error) {
	if m.GetEmailFunc != nil {
		return m.GetEmailFunc(ctx, userID)
	}
	return userID + "@example.com", nil
}

// MockScoreProvider implements ScoreProvider for testing
type MockScoreProvider struct {
	ScoreFunc func(ctx context.Context, userID string) (float64, error)
}

func (m *MockScoreProvider) Score(ctx context.Context, userID string) (float64, error) {
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, userID)
	}
	return 0, nil
}

// memTransport records messages and deduplicates on the idempotency key,
// mirroring what a real provider with idempotent sends does.
type memTransport struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	Sent     []*domain.QueuedMessage
	FailWith string
}

func newMemTransport() *memTransport {
	return &memTransport{seen: make(map[string]struct{})}
}

func (t *memTransport) Send(ctx context.Context, msg *domain.QueuedMessage) SendResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FailWith != "" {
		return SendResult{Error: t.FailWith}
	}
	if _, dup := t.seen[msg.IdempotencyKey]; dup {
		return SendResult{Success: true, Duplicate: true}
	}
	t.seen[msg.IdempotencyKey] = struct{}{}
	t.Sent = append(t.Sent, msg)
	return SendResult{Success: true}
}

// fixedClock pins Now to a settable instant so due-time arithmetic in tests
// is exact.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(start time.Time) *fixedClock {
	return &fixedClock{now: start}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.Now().Add(d)
	return ch
}

func (c *fixedClock) Sleep(d time.Duration) {}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
