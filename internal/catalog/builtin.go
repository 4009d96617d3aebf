package catalog

import "github.com/dripware/dripflow/pkg/dripflow/domain"

// Builtin returns the stock lifecycle workflows. Deployments can pass their
// own definitions to dripflow.Start instead; these cover the usual consumer
// funnel out of the box.
func Builtin() []*domain.WorkflowDefinition {
	return []*domain.WorkflowDefinition{
		{
			ID:      "welcome",
			Name:    "Welcome Series",
			Trigger: domain.TriggerSignup,
			Active:  true,
			Steps: []domain.StepDefinition{
				{StepNumber: 1, DelayDays: 0, TemplateID: "welcome_hello"},
				{StepNumber: 2, DelayDays: 3, TemplateID: "welcome_tips"},
				{StepNumber: 3, DelayDays: 7, TemplateID: "welcome_checkin",
					Conditions: []domain.Condition{
						{Kind: domain.ConditionEngagementScore, Operator: domain.OperatorLessThan, Value: 0.8},
					}},
			},
		},
		{
			ID:              "reengagement_7d",
			Name:            "Re-engagement (7 days idle)",
			Trigger:         domain.TriggerInactivity7Days,
			Active:          true,
			TargetSegments:  []string{"all_users"},
			ExcludeSegments: []string{"highly_engaged"},
			Steps: []domain.StepDefinition{
				{StepNumber: 1, DelayDays: 0, TemplateID: "reengage_miss_you",
					Conditions: []domain.Condition{
						{Kind: domain.ConditionEngagementScore, Operator: domain.OperatorLessThan, Value: 0.3},
					}},
				{StepNumber: 2, DelayDays: 4, TemplateID: "reengage_whats_new"},
			},
		},
		{
			ID:              "reengagement_14d",
			Name:            "Re-engagement (14 days idle)",
			Trigger:         domain.TriggerInactivity14Days,
			Active:          true,
			TargetSegments:  []string{"all_users"},
			ExcludeSegments: []string{"highly_engaged"},
			Steps: []domain.StepDefinition{
				{StepNumber: 1, DelayDays: 0, TemplateID: "reengage_last_call",
					Variants: []string{"reengage_last_call_a", "reengage_last_call_b"}},
			},
		},
		{
			ID:      "trial_conversion",
			Name:    "Trial Conversion",
			Trigger: domain.TriggerTrialEnding,
			Active:  true,
			Steps: []domain.StepDefinition{
				{StepNumber: 1, DelayDays: 0, TemplateID: "trial_ending_soon",
					Conditions: []domain.Condition{
						{Kind: domain.ConditionSubscriptionStatus, Operator: domain.OperatorEquals, Value: "trialing"},
					}},
				{StepNumber: 2, DelayDays: 2, TemplateID: "trial_offer",
					Variants: []string{"trial_offer_a", "trial_offer_b"},
					Conditions: []domain.Condition{
						{Kind: domain.ConditionSubscriptionStatus, Operator: domain.OperatorEquals, Value: "trialing"},
					}},
			},
		},
		{
			ID:      "retention",
			Name:    "Subscriber Retention",
			Trigger: domain.TriggerSubscriptionStart,
			Active:  true,
			Steps: []domain.StepDefinition{
				{StepNumber: 1, DelayDays: 0, TemplateID: "retention_thanks"},
				{StepNumber: 2, DelayDays: 14, TemplateID: "retention_feature_tour"},
				{StepNumber: 3, DelayDays: 30, TemplateID: "retention_checkin",
					Conditions: []domain.Condition{
						{Kind: domain.ConditionSegment, Operator: domain.OperatorNotContains, Value: "power_users"},
					}},
			},
		},
	}
}
