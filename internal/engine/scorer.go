package engine

import (
	"context"
	"time"

	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// Score weights. Open rate dominates, recency and clicks round it out.
const (
	weightOpenRate  = 0.4
	weightClickRate = 0.3
	weightRecency   = 0.3

	// A user whose last engagement is older than this window scores zero on
	// the recency component.
	recencyWindow = 30 * 24 * time.Hour
)

// Scorer derives a user's engagement score in [0,1] from their send/open/click
// history. Nothing is cached; each call recomputes from a fresh snapshot.
type Scorer struct {
	engagement EngagementRepo
	clock      core.Clock
}

func NewScorer(engagement EngagementRepo, clock core.Clock) *Scorer {
	return &Scorer{engagement: engagement, clock: clock}
}

func (s *Scorer) Score(ctx context.Context, userID string) (float64, error) {
	snap, err := s.engagement.Snapshot(userID)
	if err != nil {
		return 0, err
	}
	return scoreSnapshot(snap, s.clock.Now()), nil
}

// scoreSnapshot is the pure scoring function. A user who has never been sent
// anything scores zero; there is no division by zero anywhere.
func scoreSnapshot(snap *domain.EngagementSnapshot, now time.Time) float64 {
	if snap.SentCount == 0 {
		return 0
	}

	openRate := clamp01(float64(snap.OpenedCount) / float64(snap.SentCount))

	clickRate := 0.0
	if snap.OpenedCount > 0 {
		clickRate = clamp01(float64(snap.ClickCount) / float64(snap.OpenedCount))
	}

	recency := 0.0
	if snap.LastEngagementAt.Valid {
		age := now.Sub(snap.LastEngagementAt.Time)
		if age < 0 {
			age = 0
		}
		recency = clamp01(1 - float64(age)/float64(recencyWindow))
	}

	return clamp01(weightOpenRate*openRate + weightClickRate*clickRate + weightRecency*recency)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
