package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/dripware/dripflow/internal/catalog"
	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
	"github.com/dripware/dripflow/pkg/dripflow/models"
)

// WorkflowsController serves the read-only catalog of workflow definitions.
type WorkflowsController struct {
	AuthController
	Catalog *catalog.Catalog
}

func NewWorkflowsController(cat *catalog.Catalog, apiClientRepo engine.ApiClientRepo) *WorkflowsController {
	return &WorkflowsController{Catalog: cat, AuthController: AuthController{ApiClientRepo: apiClientRepo}}
}

func (c *WorkflowsController) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	defs := c.Catalog.All()
	apiResults := make([]models.WorkflowApiResponse, 0, len(defs))
	for _, def := range defs {
		// List view omits steps; fetch by id for detail.
		apiResults = append(apiResults, mapWorkflowToApiWorkflow(def, false))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResults)
}

func (c *WorkflowsController) handleGetWorkflowById(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	def := c.Catalog.Get(id)
	if def == nil {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapWorkflowToApiWorkflow(def, true))
}

func mapWorkflowToApiWorkflow(def *domain.WorkflowDefinition, withSteps bool) models.WorkflowApiResponse {
	result := models.WorkflowApiResponse{
		ID:              def.ID,
		Name:            def.Name,
		Trigger:         string(def.Trigger),
		Active:          def.Active,
		StepCount:       len(def.Steps),
		TargetSegments:  def.TargetSegments,
		ExcludeSegments: def.ExcludeSegments,
	}
	if withSteps {
		for _, step := range def.Steps {
			result.Steps = append(result.Steps, models.StepApiResponse{
				StepNumber: step.StepNumber,
				DelayDays:  step.DelayDays,
				DelayHours: step.DelayHours,
				TemplateID: step.TemplateID,
				Variants:   step.Variants,
				Conditions: len(step.Conditions),
			})
		}
	}
	return result
}
