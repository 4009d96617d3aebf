package domain

// TriggerEvent is a named lifecycle occurrence that causes enrollment evaluation.
type TriggerEvent string

const (
	TriggerSignup            TriggerEvent = "signup"
	TriggerInactivity7Days   TriggerEvent = "inactivity_7_days"
	TriggerInactivity14Days  TriggerEvent = "inactivity_14_days"
	TriggerTrialEnding       TriggerEvent = "trial_ending"
	TriggerSubscriptionStart TriggerEvent = "subscription_start"
)

// KnownTriggerEvents lists the fixed set of trigger events the engine accepts.
func KnownTriggerEvents() []TriggerEvent {
	return []TriggerEvent{
		TriggerSignup,
		TriggerInactivity7Days,
		TriggerInactivity14Days,
		TriggerTrialEnding,
		TriggerSubscriptionStart,
	}
}

func (e TriggerEvent) Known() bool {
	for _, k := range KnownTriggerEvents() {
		if e == k {
			return true
		}
	}
	return false
}

// WorkflowDefinition is a read-only workflow description loaded once at startup.
// Definitions are plain data interpreted by the engine, no behaviour lives here.
type WorkflowDefinition struct {
	ID              string           `json:"id" validate:"required"`
	Name            string           `json:"name" validate:"required"`
	Trigger         TriggerEvent     `json:"trigger" validate:"required"`
	Active          bool             `json:"active"`
	Steps           []StepDefinition `json:"steps" validate:"required,min=1,dive"`
	TargetSegments  []string         `json:"target_segments,omitempty"`
	ExcludeSegments []string         `json:"exclude_segments,omitempty"`
}

// Step returns the step with the given 1-based number, or nil if the workflow
// has no such step.
func (w *WorkflowDefinition) Step(number int) *StepDefinition {
	for i := range w.Steps {
		if w.Steps[i].StepNumber == number {
			return &w.Steps[i]
		}
	}
	return nil
}

func (w *WorkflowDefinition) LastStepNumber() int {
	last := 0
	for i := range w.Steps {
		if w.Steps[i].StepNumber > last {
			last = w.Steps[i].StepNumber
		}
	}
	return last
}

// StepDefinition is one scheduled message within a workflow. The delay is
// measured from enrollment for step 1 and from the previous step's send time
// for every later step.
type StepDefinition struct {
	StepNumber int         `json:"step_number" validate:"required,min=1"`
	DelayDays  int         `json:"delay_days" validate:"min=0"`
	DelayHours int         `json:"delay_hours" validate:"min=0"`
	TemplateID string      `json:"template_id" validate:"required"`
	Conditions []Condition `json:"conditions,omitempty" validate:"dive"`
	Variants   []string    `json:"variants,omitempty"`
}

type ConditionKind string

const (
	ConditionSegment            ConditionKind = "segment"
	ConditionProfileField       ConditionKind = "profileField"
	ConditionEngagementScore    ConditionKind = "engagementScore"
	ConditionSubscriptionStatus ConditionKind = "subscriptionStatus"
)

type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "notEquals"
	OperatorGreaterThan ConditionOperator = "greaterThan"
	OperatorLessThan    ConditionOperator = "lessThan"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "notContains"
)

// Condition is a pure predicate evaluated against externally supplied user
// data. Field is only consulted for the profileField kind.
type Condition struct {
	Kind     ConditionKind     `json:"kind" validate:"required"`
	Field    string            `json:"field,omitempty"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Value    any               `json:"value"`
}
