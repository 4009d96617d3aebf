package engine

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

var scoreNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestScoreSnapshotNeverSent(t *testing.T) {
	score := scoreSnapshot(&domain.EngagementSnapshot{UserID: "u1"}, scoreNow)
	assert.Equal(t, 0.0, score)
}

func TestScoreSnapshotFullyEngaged(t *testing.T) {
	snap := &domain.EngagementSnapshot{
		UserID:           "u1",
		SentCount:        10,
		OpenedCount:      10,
		ClickCount:       10,
		LastEngagementAt: sql.NullTime{Time: scoreNow, Valid: true},
	}
	score := scoreSnapshot(snap, scoreNow)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScoreSnapshotPartialEngagement(t *testing.T) {
	// 50% open rate, no clicks, last engagement 15 of 30 days ago:
	// 0.4*0.5 + 0.3*0 + 0.3*0.5 = 0.35
	snap := &domain.EngagementSnapshot{
		UserID:           "u1",
		SentCount:        4,
		OpenedCount:      2,
		ClickCount:       0,
		LastEngagementAt: sql.NullTime{Time: scoreNow.Add(-15 * 24 * time.Hour), Valid: true},
	}
	score := scoreSnapshot(snap, scoreNow)
	assert.InDelta(t, 0.35, score, 1e-9)
}

func TestScoreSnapshotStaleEngagement(t *testing.T) {
	// Engagement older than the recency window contributes nothing.
	snap := &domain.EngagementSnapshot{
		UserID:           "u1",
		SentCount:        2,
		OpenedCount:      2,
		ClickCount:       2,
		LastEngagementAt: sql.NullTime{Time: scoreNow.Add(-90 * 24 * time.Hour), Valid: true},
	}
	score := scoreSnapshot(snap, scoreNow)
	assert.InDelta(t, 0.7, score, 1e-9)
}

func TestScoreSnapshotFutureEngagementClamped(t *testing.T) {
	snap := &domain.EngagementSnapshot{
		UserID:           "u1",
		SentCount:        1,
		OpenedCount:      0,
		LastEngagementAt: sql.NullTime{Time: scoreNow.Add(time.Hour), Valid: true},
	}
	score := scoreSnapshot(snap, scoreNow)
	assert.InDelta(t, 0.3, score, 1e-9)
}

func TestScorerPropagatesSnapshotError(t *testing.T) {
	engagement := &MockEngagementRepo{
		SnapshotFunc: func(userID string) (*domain.EngagementSnapshot, error) {
			return nil, errors.New("db down")
		},
	}
	scorer := NewScorer(engagement, newFixedClock(scoreNow))

	_, err := scorer.Score(context.Background(), "u1")
	require.Error(t, err)
}

func TestScorerUsesInjectedClock(t *testing.T) {
	engagement := &MockEngagementRepo{
		SnapshotFunc: func(userID string) (*domain.EngagementSnapshot, error) {
			return &domain.EngagementSnapshot{
				UserID:           userID,
				SentCount:        1,
				OpenedCount:      1,
				LastEngagementAt: sql.NullTime{Time: scoreNow, Valid: true},
			}, nil
		},
	}
	clock := newFixedClock(scoreNow)
	scorer := NewScorer(engagement, clock)

	before, err := scorer.Score(context.Background(), "u1")
	require.NoError(t, err)

	clock.Advance(15 * 24 * time.Hour)
	after, err := scorer.Score(context.Background(), "u1")
	require.NoError(t, err)

	assert.Greater(t, before, after)
}
