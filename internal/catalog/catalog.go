// Package catalog holds the read-only workflow definitions the engine
// interprets. Definitions are validated once at load; after that the catalog
// is immutable and safe for unsynchronized concurrent reads.
package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

type Catalog struct {
	workflows []*domain.WorkflowDefinition
	byID      map[string]*domain.WorkflowDefinition
	byTrigger map[domain.TriggerEvent][]*domain.WorkflowDefinition
}

// New validates the given definitions and builds the lookup indexes. A
// malformed definition is a configuration error: the caller is expected to
// treat a non-nil error as fatal at startup.
func New(defs []*domain.WorkflowDefinition) (*Catalog, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	c := &Catalog{
		workflows: make([]*domain.WorkflowDefinition, 0, len(defs)),
		byID:      make(map[string]*domain.WorkflowDefinition, len(defs)),
		byTrigger: make(map[domain.TriggerEvent][]*domain.WorkflowDefinition),
	}

	for _, def := range defs {
		if err := validate.Struct(def); err != nil {
			return nil, fmt.Errorf("workflow %q: %w", def.ID, err)
		}
		if err := validateSteps(def); err != nil {
			return nil, err
		}
		if !def.Trigger.Known() {
			return nil, fmt.Errorf("workflow %q: unknown trigger event %q", def.ID, def.Trigger)
		}
		if _, exists := c.byID[def.ID]; exists {
			return nil, fmt.Errorf("duplicate workflow id %q", def.ID)
		}
		c.workflows = append(c.workflows, def)
		c.byID[def.ID] = def
		c.byTrigger[def.Trigger] = append(c.byTrigger[def.Trigger], def)
	}

	return c, nil
}

// Step numbers must be contiguous starting at 1 so delay chaining from the
// previous step is always well defined.
func validateSteps(def *domain.WorkflowDefinition) error {
	for i := range def.Steps {
		if def.Steps[i].StepNumber != i+1 {
			return fmt.Errorf("workflow %q: step numbers must be contiguous starting at 1, got %d at position %d",
				def.ID, def.Steps[i].StepNumber, i+1)
		}
	}
	return nil
}

// FindByTrigger returns all active workflows for the event, in definition order.
func (c *Catalog) FindByTrigger(event domain.TriggerEvent) []*domain.WorkflowDefinition {
	var matches []*domain.WorkflowDefinition
	for _, def := range c.byTrigger[event] {
		if def.Active {
			matches = append(matches, def)
		}
	}
	return matches
}

// Get returns the workflow with the given id, or nil.
func (c *Catalog) Get(workflowID string) *domain.WorkflowDefinition {
	return c.byID[workflowID]
}

// GetStep returns the step definition for the given workflow and 1-based step
// number.
func (c *Catalog) GetStep(workflowID string, stepNumber int) (*domain.StepDefinition, error) {
	def := c.byID[workflowID]
	if def == nil {
		return nil, fmt.Errorf("workflow not found: %s", workflowID)
	}
	step := def.Step(stepNumber)
	if step == nil {
		return nil, fmt.Errorf("workflow %s has no step %d", workflowID, stepNumber)
	}
	return step, nil
}

// All returns every definition, in load order.
func (c *Catalog) All() []*domain.WorkflowDefinition {
	return c.workflows
}
