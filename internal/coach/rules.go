package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fitsymphony/internal/llm"
	"fitsymphony/internal/state"

	"go.uber.org/zap"
)

const DefaultRules = "default safety: limit overtraining; ensure hydration"

const rulesPrompt = `You are a rule generator for a personalized fitness system.
Based on the user's profile and feedback summary,
create concise rule adjustments or safety guidelines.

Profile:
%s

Feedback Summary:
%s

Output as plain text rules.`

type RuleSet struct {
	Rules    string `json:"rules"`
	Fallback bool   `json:"fallback"`
}

type RuleGenerator struct {
	llm    llm.Service
	audit  Recorder
	logger *zap.Logger
}

func NewRuleGenerator(svc llm.Service, audit Recorder, logger *zap.Logger) *RuleGenerator {
	if svc == nil {
		svc = llm.Unavailable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleGenerator{llm: svc, audit: audit, logger: logger.Named("rules")}
}

// Generate asks for adaptive rules. The text is passed through unchecked;
// any failure, including an empty reply, yields DefaultRules.
func (g *RuleGenerator) Generate(ctx context.Context, userID string, profile state.Profile, feedbackSummary string) (RuleSet, error) {
	profileJSON, _ := json.MarshalIndent(profile, "", "  ")

	text, err := g.llm.GenerateText(ctx, fmt.Sprintf(rulesPrompt, profileJSON, feedbackSummary))
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		err = &ExternalServiceError{Service: "rule generation", Err: err}
		g.logger.Warn("using default rules", zap.String("user_id", userID), zap.Error(err))
		_, aerr := g.audit.Record(ctx, userID, agentRules, "error", "", map[string]any{"error": err.Error()})
		return RuleSet{Rules: DefaultRules, Fallback: true}, aerr
	}

	_, aerr := g.audit.Record(ctx, userID, agentRules, "rule_generation", "", map[string]any{"rules": text})
	return RuleSet{Rules: text}, aerr
}
