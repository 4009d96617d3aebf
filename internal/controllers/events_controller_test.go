package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
	"github.com/dripware/dripflow/pkg/dripflow/models"
)

// MockEngagementRepo implements engine.EngagementRepo for testing
type MockEngagementRepo struct {
	Saved        []domain.EngagementEvent
	SaveFunc     func(e *domain.EngagementEvent) (int64, error)
	SnapshotFunc func(userID string) (*domain.EngagementSnapshot, error)
}

func (m *MockEngagementRepo) Save(e *domain.EngagementEvent) (int64, error) {
	m.Saved = append(m.Saved, *e)
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

func newEventsMux(t *testing.T, repo *MockEngagementRepo) *http.ServeMux {
	t.Helper()
	clock := core.NewRealClock()
	c := NewEventsController(repo, engine.NewScorer(repo, clock), clock, apiClientRepoWithKey(t, "ci", "secret"))
	mux := http.NewServeMux()
	c.RegisterRoutes(mux)
	return mux
}

func TestHandlePostEvent(t *testing.T) {
	repo := &MockEngagementRepo{}
	mux := newEventsMux(t, repo)

	body := `{"userId":"u1","kind":"opened","messageKey":"mk-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.Saved) != 1 {
		t.Fatalf("expected 1 saved event, got %d", len(repo.Saved))
	}
	saved := repo.Saved[0]
	if saved.UserID != "u1" || saved.Kind != domain.EngagementOpened {
		t.Fatalf("unexpected event: %+v", saved)
	}
	if !saved.MessageKey.Valid || saved.MessageKey.String != "mk-1" {
		t.Fatalf("expected message key, got %+v", saved.MessageKey)
	}
}

func TestHandlePostEventRejectsUnknownKind(t *testing.T) {
	repo := &MockEngagementRepo{}
	mux := newEventsMux(t, repo)

	body := `{"userId":"u1","kind":"forwarded"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(repo.Saved) != 0 {
		t.Fatalf("nothing may be saved for an invalid kind")
	}
}

func TestHandlePostEventRejectsUnknownFields(t *testing.T) {
	repo := &MockEngagementRepo{}
	mux := newEventsMux(t, repo)

	body := `{"userId":"u1","kind":"opened","weight":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleGetScore(t *testing.T) {
	repo := &MockEngagementRepo{
		SnapshotFunc: func(userID string) (*domain.EngagementSnapshot, error) {
			return &domain.EngagementSnapshot{
				UserID:           userID,
				SentCount:        2,
				OpenedCount:      2,
				ClickCount:       2,
				LastEngagementAt: sql.NullTime{Time: time.Now(), Valid: true},
			}, nil
		},
	}
	mux := newEventsMux(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/events/u1/score", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.ScoreApiResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserID != "u1" || resp.Score <= 0.9 {
		t.Fatalf("unexpected score response: %+v", resp)
	}
}
