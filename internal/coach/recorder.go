package coach

import (
	"context"
	"encoding/json"

	"fitsymphony/internal/state"
)

// Recorder appends to the per-user audit trail. *audit.Log implements it.
type Recorder interface {
	Record(ctx context.Context, userID, agent, action, reason string, payload map[string]any) (state.LogEntry, error)
}

// Agent names as they appear in the audit trail.
const (
	agentProfile         = "ProfileAgent"
	agentWorkout         = "WorkoutAgent"
	agentNutrition       = "NutritionAgent"
	agentFeedback        = "FeedbackAgent"
	agentCoordinator     = "CoordinatorAgent"
	agentRules           = "DynamicRuleGenerator"
	agentProgress        = "ProgressAgent"
	agentWearable        = "WearableAgent"
	agentGamification    = "GamificationAgent"
	agentAsk             = "AskAgent"
	agentScoring         = "Scoring"
	agentPersonalization = "PersonalizationAdapter"
	agentOrchestrator    = "Orchestrator"
)

// toPayload converts a result value into the JSON-shaped map stored in
// audit entries.
func toPayload(v interface{}) map[string]any {
	if m, ok := jsonValue(v).(map[string]any); ok {
		return m
	}
	return map[string]any{"value": jsonValue(v)}
}

// jsonValue round-trips v through JSON so audit payloads hold plain maps,
// slices and numbers whatever the store backend.
func jsonValue(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return err.Error()
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return string(raw)
	}
	return out
}
