package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fitsymphony/internal/audit"
	"fitsymphony/internal/llm"
	"fitsymphony/internal/state"

	"go.uber.org/zap"
)

const askPrompt = `You are an explainable fitness assistant.
You have access to:
- user plans (workout + meals)
- agent logs (actions + reasons)
- rules that affected these plans

Answer the user's question in simple, supportive, and factual tone.
If the answer cannot be found, say "I don't have enough data to answer that."

USER QUESTION:
%s

USER STATE DATA:
%s

Your answer:`

const askContextLogs = 10

type askContext struct {
	Plans      state.Plans      `json:"plans"`
	RecentLogs []state.LogEntry `json:"recent_logs"`
	Rules      string           `json:"rules"`
}

// AskAgent answers questions about the user's plans and history.
type AskAgent struct {
	store  state.Store
	llm    llm.Service
	audit  Recorder
	logger *zap.Logger
}

func NewAskAgent(store state.Store, svc llm.Service, audit Recorder, logger *zap.Logger) *AskAgent {
	if svc == nil {
		svc = llm.Unavailable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AskAgent{store: store, llm: svc, audit: audit, logger: logger.Named("ask")}
}

func (a *AskAgent) Answer(ctx context.Context, userID, question string) (string, error) {
	st, err := a.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(askContext{
		Plans:      st.Plans,
		RecentLogs: audit.Recent(st.Logs, askContextLogs),
		Rules:      st.Rules,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode ask context: %w", err)
	}

	answer, err := a.llm.GenerateText(ctx, fmt.Sprintf(askPrompt, question, data))
	if err != nil {
		a.logger.Warn("answer failed", zap.String("user_id", userID),
			zap.Error(&ExternalServiceError{Service: "question answering", Err: err}))
		answer = fmt.Sprintf("Sorry, I couldn't process that: %v", err)
	}
	answer = strings.TrimSpace(answer)

	_, err = a.audit.Record(ctx, userID, agentAsk, "answer_question", question, map[string]any{"response": answer})
	return answer, err
}
