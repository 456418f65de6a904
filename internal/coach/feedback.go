package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fitsymphony/internal/llm"

	"go.uber.org/zap"
)

// Adjustment is what the feedback interpreter extracts from free text.
// Workout and Nutrition carry optional machine-readable hints.
type Adjustment struct {
	WorkoutAdjustment   string         `json:"workout_adjustment"`
	NutritionAdjustment string         `json:"nutrition_adjustment"`
	Reason              string         `json:"reason"`
	Workout             *WorkoutHint   `json:"workout,omitempty"`
	Nutrition           *NutritionHint `json:"nutrition,omitempty"`
}

type WorkoutHint struct {
	DeltaSets int `json:"delta_sets"`
}

type NutritionHint struct {
	Swap string `json:"swap"`
}

// DeltaSets returns the requested change in sets, 0 if none.
func (a Adjustment) DeltaSets() int {
	if a.Workout == nil {
		return 0
	}
	return a.Workout.DeltaSets
}

func (a Adjustment) Swap() string {
	if a.Nutrition == nil {
		return ""
	}
	return strings.TrimSpace(a.Nutrition.Swap)
}

// FallbackAdjustment is used whenever the reply cannot be obtained or parsed.
func FallbackAdjustment() Adjustment {
	return Adjustment{
		WorkoutAdjustment:   "decrease intensity",
		NutritionAdjustment: "",
		Reason:              "parsed fallback",
	}
}

type InterpretationKind string

const (
	InterpretationParsed   InterpretationKind = "parsed"
	InterpretationFallback InterpretationKind = "fallback"
)

// Interpretation is either a parsed Adjustment or the fallback together with
// the error that caused it.
type Interpretation struct {
	Kind       InterpretationKind
	Adjustment Adjustment
	Err        error
}

func (i Interpretation) IsFallback() bool {
	return i.Kind == InterpretationFallback
}

const feedbackPrompt = `You are a fitness AI assistant.
Given the user's feedback on their workout or diet, extract:
- workout_adjustment: describe changes like "increase sets" or "reduce intensity"
- nutrition_adjustment: describe food preference or swap
- reason: short justification
- workout: {"delta_sets": integer between -2 and 2} when the number of sets should change
- nutrition: {"swap": "short food swap"} when a food should be replaced
Respond ONLY in valid JSON.

User feedback: %q`

var errEmptyAdjustment = errors.New("reply has no adjustment fields")

type FeedbackInterpreter struct {
	llm    llm.Service
	audit  Recorder
	logger *zap.Logger
}

func NewFeedbackInterpreter(svc llm.Service, audit Recorder, logger *zap.Logger) *FeedbackInterpreter {
	if svc == nil {
		svc = llm.Unavailable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackInterpreter{llm: svc, audit: audit, logger: logger.Named("feedback")}
}

// Interpret never fails on the completion service; the only error returned
// comes from recording the audit entry.
func (f *FeedbackInterpreter) Interpret(ctx context.Context, userID, text string) (Interpretation, error) {
	result := Interpretation{Kind: InterpretationParsed}

	var adj Adjustment
	err := f.llm.GenerateJSON(ctx, fmt.Sprintf(feedbackPrompt, text), &adj)
	if err == nil && adj.WorkoutAdjustment == "" && adj.NutritionAdjustment == "" && adj.Reason == "" {
		err = errEmptyAdjustment
	}
	if err != nil {
		err = &ExternalServiceError{Service: "feedback interpretation", Err: err}
		f.logger.Warn("using fallback adjustment", zap.String("user_id", userID), zap.Error(err))
		result = Interpretation{Kind: InterpretationFallback, Adjustment: FallbackAdjustment(), Err: err}
	} else {
		result.Adjustment = adj
	}

	_, aerr := f.audit.Record(ctx, userID, agentFeedback, "llm_feedback_parse", result.Adjustment.Reason, toPayload(result.Adjustment))
	return result, aerr
}
