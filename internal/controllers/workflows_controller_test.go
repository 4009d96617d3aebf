package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dripware/dripflow/internal/catalog"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
	"github.com/dripware/dripflow/pkg/dripflow/models"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]*domain.WorkflowDefinition{{
		ID:      "welcome",
		Name:    "Welcome Series",
		Trigger: domain.TriggerSignup,
		Active:  true,
		Steps: []domain.StepDefinition{
			{StepNumber: 1, TemplateID: "welcome_hello"},
			{StepNumber: 2, DelayDays: 3, TemplateID: "welcome_tips", Variants: []string{"a", "b"}},
		},
	}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func TestHandleListWorkflows(t *testing.T) {
	c := NewWorkflowsController(testCatalog(t), apiClientRepoWithKey(t, "ci", "secret"))
	mux := http.NewServeMux()
	c.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []models.WorkflowApiResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ID != "welcome" || list[0].StepCount != 2 {
		t.Fatalf("unexpected list response: %+v", list)
	}
	if len(list[0].Steps) != 0 {
		t.Fatalf("list view must omit steps, got %+v", list[0].Steps)
	}
}

func TestHandleGetWorkflowById(t *testing.T) {
	c := NewWorkflowsController(testCatalog(t), apiClientRepoWithKey(t, "ci", "secret"))
	mux := http.NewServeMux()
	c.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/workflows/welcome", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var def models.WorkflowApiResponse
	if err := json.NewDecoder(rec.Body).Decode(&def); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(def.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %+v", def.Steps)
	}
	if def.Steps[1].Variants == nil || len(def.Steps[1].Variants) != 2 {
		t.Fatalf("expected variants on step 2, got %+v", def.Steps[1])
	}
}

func TestHandleGetWorkflowByIdNotFound(t *testing.T) {
	c := NewWorkflowsController(testCatalog(t), apiClientRepoWithKey(t, "ci", "secret"))
	mux := http.NewServeMux()
	c.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/workflows/missing", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
