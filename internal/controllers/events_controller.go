package controllers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
	"github.com/dripware/dripflow/pkg/dripflow/models"
)

// EventsController ingests engagement events and serves the derived score.
type EventsController struct {
	AuthController
	EngagementRepo engine.EngagementRepo
	Scorer         *engine.Scorer
	Clock          core.Clock
	validate       *validator.Validate
}

func NewEventsController(engagementRepo engine.EngagementRepo, scorer *engine.Scorer, clock core.Clock,
	apiClientRepo engine.ApiClientRepo) *EventsController {
	return &EventsController{
		EngagementRepo: engagementRepo,
		Scorer:         scorer,
		Clock:          clock,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		AuthController: AuthController{ApiClientRepo: apiClientRepo},
	}
}

func (c *EventsController) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.EngagementEventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	event := &domain.EngagementEvent{
		UserID:     req.UserID,
		Kind:       req.Kind,
		OccurredAt: c.Clock.Now(),
	}
	if req.MessageKey != "" {
		event.MessageKey = sql.NullString{String: req.MessageKey, Valid: true}
	}

	if _, err := c.EngagementRepo.Save(event); err != nil {
		slog.Error("Failed to save engagement event", "userId", req.UserID, "kind", req.Kind, "error", err)
		http.Error(w, "failed to save event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (c *EventsController) handleGetScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userId := r.PathValue("userId")
	if userId == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	score, err := c.Scorer.Score(r.Context(), userId)
	if err != nil {
		slog.Error("Failed to compute engagement score", "userId", userId, "error", err)
		http.Error(w, "failed to compute score", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.ScoreApiResponse{UserID: userId, Score: score})
}
