package controllers

import "net/http"

// RegisterRoutes wires the HTTP routes for this controller.
func (c *TriggersController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/triggers", c.RequireAuth(c.handleTrigger))
}

func (c *SubscriptionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/subscriptions/byUser/{userId}", c.RequireAuth(c.handleGetByUser))
	mux.HandleFunc("GET /api/subscriptions/{externalId}", c.RequireAuth(c.handleGetByExternalId))
	mux.HandleFunc("GET /api/subscriptions/{externalId}/deliveries", c.RequireAuth(c.handleGetDeliveries))
	mux.HandleFunc("POST /api/subscriptions/{externalId}/cancel", c.RequireAuth(c.handleCancel))
}

func (c *EventsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/events", c.RequireAuth(c.handlePostEvent))
	mux.HandleFunc("GET /api/events/{userId}/score", c.RequireAuth(c.handleGetScore))
}

func (c *WorkflowsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/workflows", c.RequireAuth(c.handleListWorkflows))
	mux.HandleFunc("GET /api/workflows/{id}", c.RequireAuth(c.handleGetWorkflowById))
}

func (c *EngineController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/process", c.RequireAuth(c.handleProcess))
	mux.HandleFunc("GET /api/runners", c.RequireAuth(c.handleGetRunners))
}
