package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
	"github.com/dripware/dripflow/pkg/dripflow/models"
)

// TriggersController holds dependencies for the trigger ingestion endpoint.
type TriggersController struct {
	AuthController
	Enrollment *engine.EnrollmentManager
	validate   *validator.Validate
}

func NewTriggersController(enrollment *engine.EnrollmentManager, apiClientRepo engine.ApiClientRepo) *TriggersController {
	return &TriggersController{
		Enrollment:     enrollment,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		AuthController: AuthController{ApiClientRepo: apiClientRepo},
	}
}

func (c *TriggersController) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.TriggerRequest
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

	event := domain.TriggerEvent(req.Event)
	if !event.Known() {
		http.Error(w, "unknown trigger event: "+req.Event, http.StatusBadRequest)
		return
	}

	slog.InfoContext(r.Context(), "Trigger received", "userId", req.UserID, "event", req.Event)

	result, err := c.Enrollment.Trigger(r.Context(), req.UserID, event, req.Metadata)
	if err != nil {
		slog.Error("Trigger failed", "userId", req.UserID, "event", req.Event, "error", err)
		http.Error(w, "failed to process trigger", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}
