package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// Evaluator decides segment eligibility and step conditions. It never mutates
// anything; operands come from the injected providers.
type Evaluator struct {
	profiles ProfileProvider
	scorer   ScoreProvider
}

func NewEvaluator(profiles ProfileProvider, scorer ScoreProvider) *Evaluator {
	return &Evaluator{profiles: profiles, scorer: scorer}
}

// IsEligible returns true iff the user's segments intersect the workflow's
// target segments (or the target set is empty) and are disjoint from its
// exclude segments (or the exclude set is empty).
func (e *Evaluator) IsEligible(userSegments map[string]struct{}, wf *domain.WorkflowDefinition) bool {
	if len(wf.TargetSegments) > 0 && !intersects(userSegments, wf.TargetSegments) {
		return false
	}
	if len(wf.ExcludeSegments) > 0 && intersects(userSegments, wf.ExcludeSegments) {
		return false
	}
	return true
}

func intersects(set map[string]struct{}, tags []string) bool {
	for _, tag := range tags {
		if _, ok := set[tag]; ok {
			return true
		}
	}
	return false
}

// CheckConditions is the AND-conjunction over all conditions. An unknown
// condition kind evaluates to true: a condition type this build does not know
// about must never block an otherwise-ready send. A provider lookup failure
// evaluates to false so the step is re-tried on a later tick instead of being
// sent on unverified data.
func (e *Evaluator) CheckConditions(ctx context.Context, userID string, conditions []domain.Condition) bool {
	for i := range conditions {
		if !e.checkCondition(ctx, userID, &conditions[i]) {
			return false
		}
	}
	return true
}

func (e *Evaluator) checkCondition(ctx context.Context, userID string, cond *domain.Condition) bool {
	var operand any

	switch cond.Kind {
	case domain.ConditionSegment:
		segments, err := e.profiles.GetUserSegments(ctx, userID)
		if err != nil {
			slog.Warn("Segment lookup failed during condition check", "user_id", userID, "error", err)
			return false
		}
		list := make([]string, 0, len(segments))
		for s := range segments {
			list = append(list, s)
		}
		operand = list
	case domain.ConditionProfileField:
		value, err := e.profiles.GetProfileField(ctx, userID, cond.Field)
		if err != nil {
			slog.Warn("Profile field lookup failed during condition check", "user_id", userID, "field", cond.Field, "error", err)
			return false
		}
		operand = value
	case domain.ConditionEngagementScore:
		score, err := e.scorer.Score(ctx, userID)
		if err != nil {
			slog.Warn("Engagement score lookup failed during condition check", "user_id", userID, "error", err)
			return false
		}
		operand = score
	case domain.ConditionSubscriptionStatus:
		status, err := e.profiles.GetSubscriptionStatus(ctx, userID)
		if err != nil {
			slog.Warn("Subscription status lookup failed during condition check", "user_id", userID, "error", err)
			return false
		}
		operand = status
	default:
		// Fail-open: an unrecognised kind never blocks a send.
		slog.Warn("Unknown condition kind, treating as satisfied", "kind", cond.Kind)
		return true
	}

	return applyOperator(operand, cond.Operator, cond.Value)
}

// applyOperator compares the resolved operand against the condition value.
// Incompatible operand/operator combinations evaluate to false, they never
// raise.
func applyOperator(operand any, op domain.ConditionOperator, value any) bool {
	switch op {
	case domain.OperatorEquals:
		return looseEquals(operand, value)
	case domain.OperatorNotEquals:
		return !looseEquals(operand, value)
	case domain.OperatorGreaterThan:
		a, aok := asFloat(operand)
		b, bok := asFloat(value)
		return aok && bok && a > b
	case domain.OperatorLessThan:
		a, aok := asFloat(operand)
		b, bok := asFloat(value)
		return aok && bok && a < b
	case domain.OperatorContains:
		return containsValue(operand, value)
	case domain.OperatorNotContains:
		return !containsValue(operand, value)
	default:
		return false
	}
}

// looseEquals compares numerically when both sides are numeric, otherwise by
// string form when both sides are scalars.
func looseEquals(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	as, aok := asScalarString(a)
	bs, bok := asScalarString(b)
	return aok && bok && as == bs
}

// containsValue applies membership for list operands and substring matching
// for scalar string operands.
func containsValue(operand, value any) bool {
	needle, ok := asScalarString(value)
	if !ok {
		return false
	}
	switch list := operand.(type) {
	case []string:
		for _, item := range list {
			if item == needle {
				return true
			}
		}
		return false
	case []any:
		for _, item := range list {
			if s, ok := asScalarString(item); ok && s == needle {
				return true
			}
		}
		return false
	}
	if s, ok := asScalarString(operand); ok {
		return strings.Contains(s, needle)
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asScalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return fmt.Sprintf("%t", s), true
	case float64, float32, int, int32, int64:
		return fmt.Sprint(s), true
	}
	return "", false
}
