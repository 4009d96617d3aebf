package controllers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
	"github.com/dripware/dripflow/pkg/dripflow/models"
)

// SubscriptionsController holds dependencies for subscription HTTP endpoints.
type SubscriptionsController struct {
	AuthController
	SubscriptionRepo engine.SubscriptionRepo
	DeliveryRepo     engine.DeliveryRepo
	Scheduler        *engine.Scheduler
}

func NewSubscriptionsController(subscriptionRepo engine.SubscriptionRepo, deliveryRepo engine.DeliveryRepo,
	scheduler *engine.Scheduler, apiClientRepo engine.ApiClientRepo) *SubscriptionsController {
	return &SubscriptionsController{
		SubscriptionRepo: subscriptionRepo,
		DeliveryRepo:     deliveryRepo,
		Scheduler:        scheduler,
		AuthController:   AuthController{ApiClientRepo: apiClientRepo},
	}
}

func (c *SubscriptionsController) handleGetByExternalId(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	externalId := r.PathValue("externalId")
	if externalId == "" {
		http.Error(w, "externalId is required", http.StatusBadRequest)
		return
	}

	result, err := c.SubscriptionRepo.FindByExternalID(externalId)
	if err != nil || result == nil {
		http.Error(w, "subscription not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapSubscriptionToApiSubscription(result))
}

func (c *SubscriptionsController) handleGetByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userId := r.PathValue("userId")
	if userId == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	results, err := c.SubscriptionRepo.FindByUser(userId)
	if err != nil {
		slog.Error("Failed to list subscriptions", "userId", userId, "error", err)
		http.Error(w, "failed to list subscriptions", http.StatusInternalServerError)
		return
	}

	apiResults := make([]models.SubscriptionApiResponse, 0)
	if results != nil {
		for i := range *results {
			apiResults = append(apiResults, mapSubscriptionToApiSubscription(&(*results)[i]))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResults)
}

func (c *SubscriptionsController) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	externalId := r.PathValue("externalId")
	if externalId == "" {
		http.Error(w, "externalId is required", http.StatusBadRequest)
		return
	}

	if err := c.Scheduler.Cancel(r.Context(), externalId); err != nil {
		slog.Error("Cancel failed", "externalId", externalId, "error", err)
		http.Error(w, "subscription not found", http.StatusNotFound)
		return
	}

	result, err := c.SubscriptionRepo.FindByExternalID(externalId)
	if err != nil {
		http.Error(w, "subscription not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapSubscriptionToApiSubscription(result))
}

func (c *SubscriptionsController) handleGetDeliveries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	externalId := r.PathValue("externalId")
	if externalId == "" {
		http.Error(w, "externalId is required", http.StatusBadRequest)
		return
	}

	sub, err := c.SubscriptionRepo.FindByExternalID(externalId)
	if err != nil || sub == nil {
		http.Error(w, "subscription not found", http.StatusNotFound)
		return
	}
	deliveries, err := c.DeliveryRepo.FindAllBySubscriptionID(sub.ID)
	if err != nil {
		slog.Error("Failed to list deliveries", "externalId", externalId, "error", err)
		http.Error(w, "failed to list deliveries", http.StatusInternalServerError)
		return
	}

	apiResults := make([]models.DeliveryApiResponse, 0)
	if deliveries != nil {
		for _, d := range *deliveries {
			apiResults = append(apiResults, models.DeliveryApiResponse{
				ID:             d.ID,
				WorkflowID:     d.WorkflowID,
				StepNumber:     d.StepNumber,
				Variant:        d.Variant,
				Recipient:      d.Recipient,
				IdempotencyKey: d.IdempotencyKey,
				Status:         d.Status,
				Detail:         d.Detail,
				DateTime:       d.DateTime,
			})
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResults)
}

func mapSubscriptionToApiSubscription(s *domain.Subscription) models.SubscriptionApiResponse {
	return models.SubscriptionApiResponse{
		ExternalID:  s.ExternalID,
		UserID:      s.UserID,
		WorkflowID:  s.WorkflowID,
		Status:      s.Status,
		CurrentStep: s.CurrentStep,
		NextDueAt:   nullTimePtr(s.NextDueAt),
		LastSentAt:  nullTimePtr(s.LastSentAt),
		SendCount:   s.SendCount,
		Created:     s.Created,
		CompletedAt: nullTimePtr(s.CompletedAt),
	}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
