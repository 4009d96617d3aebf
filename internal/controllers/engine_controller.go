package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/pkg/dripflow/models"
)

// EngineController exposes engine operations: an on-demand batch run and the
// list of registered runners.
type EngineController struct {
	AuthController
	Scheduler  *engine.Scheduler
	RunnerRepo engine.RunnerRepo
}

func NewEngineController(scheduler *engine.Scheduler, runnerRepo engine.RunnerRepo, apiClientRepo engine.ApiClientRepo) *EngineController {
	return &EngineController{Scheduler: scheduler, RunnerRepo: runnerRepo, AuthController: AuthController{ApiClientRepo: apiClientRepo}}
}

// handleProcess runs one batch of due steps immediately instead of waiting for
// the next scheduled tick.
func (c *EngineController) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	result, err := c.Scheduler.ProcessDue(r.Context())
	if err != nil {
		slog.Error("Batch run failed", "error", err)
		http.Error(w, "failed to process due steps", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

func (c *EngineController) handleGetRunners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	runners, err := c.RunnerRepo.GetRunnersByLastActive(100)
	if err != nil {
		slog.Error("Failed to list runners", "error", err)
		http.Error(w, "failed to list runners", http.StatusInternalServerError)
		return
	}

	apiResults := make([]models.RunnerApiResponse, 0, len(runners))
	for _, runner := range runners {
		apiResults = append(apiResults, models.RunnerApiResponse{
			ID:         runner.ID,
			Name:       runner.Name,
			Started:    runner.Started,
			LastActive: runner.LastActive,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResults)
}
