package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

func validDef(id string) *domain.WorkflowDefinition {
	return &domain.WorkflowDefinition{
		ID:      id,
		Name:    "Test " + id,
		Trigger: domain.TriggerSignup,
		Active:  true,
		Steps: []domain.StepDefinition{
			{StepNumber: 1, TemplateID: "t1"},
			{StepNumber: 2, DelayDays: 2, TemplateID: "t2"},
		},
	}
}

func TestNewRejectsNonContiguousSteps(t *testing.T) {
	def := validDef("wf")
	def.Steps[1].StepNumber = 5

	_, err := New([]*domain.WorkflowDefinition{def})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contiguous")
}

func TestNewRejectsUnknownTrigger(t *testing.T) {
	def := validDef("wf")
	def.Trigger = "user_blinked"

	_, err := New([]*domain.WorkflowDefinition{def})
	require.Error(t, err)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New([]*domain.WorkflowDefinition{validDef("wf"), validDef("wf")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRejectsMissingFields(t *testing.T) {
	def := validDef("wf")
	def.Steps[0].TemplateID = ""

	_, err := New([]*domain.WorkflowDefinition{def})
	require.Error(t, err)

	def = validDef("wf")
	def.Steps = nil
	_, err = New([]*domain.WorkflowDefinition{def})
	require.Error(t, err)
}

func TestFindByTriggerFiltersInactiveAndKeepsOrder(t *testing.T) {
	first := validDef("first")
	inactive := validDef("inactive")
	inactive.Active = false
	second := validDef("second")
	other := validDef("other")
	other.Trigger = domain.TriggerTrialEnding

	cat, err := New([]*domain.WorkflowDefinition{first, inactive, second, other})
	require.NoError(t, err)

	matches := cat.FindByTrigger(domain.TriggerSignup)
	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].ID)
	assert.Equal(t, "second", matches[1].ID)

	assert.Empty(t, cat.FindByTrigger(domain.TriggerInactivity7Days))
}

func TestGetAndGetStep(t *testing.T) {
	cat, err := New([]*domain.WorkflowDefinition{validDef("wf")})
	require.NoError(t, err)

	assert.NotNil(t, cat.Get("wf"))
	assert.Nil(t, cat.Get("missing"))

	step, err := cat.GetStep("wf", 2)
	require.NoError(t, err)
	assert.Equal(t, "t2", step.TemplateID)

	_, err = cat.GetStep("wf", 3)
	require.Error(t, err)
	_, err = cat.GetStep("missing", 1)
	require.Error(t, err)
}

func TestBuiltinCatalogIsValid(t *testing.T) {
	cat, err := New(Builtin())
	require.NoError(t, err)
	assert.NotEmpty(t, cat.All())

	// Every known trigger should start at least one built-in workflow.
	for _, event := range domain.KnownTriggerEvents() {
		assert.NotEmpty(t, cat.FindByTrigger(event), "no workflow for trigger %s", event)
	}
}
