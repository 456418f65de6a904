package coach

import (
	"context"
	"errors"
	"testing"

	"fitsymphony/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskAgent_Answer(t *testing.T) {
	store := state.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, state.SetRules(ctx, store, "u1", "no running on bad knees"))
	svc := &fakeLLM{text: "\n  Because your knee constraint removed jump rope.  "}
	a := NewAskAgent(store, svc, newAudit(store), nil)

	answer, err := a.Answer(ctx, "u1", "why no jump rope?")
	require.NoError(t, err)
	assert.Equal(t, "Because your knee constraint removed jump rope.", answer)
	assert.Contains(t, svc.lastPrompt(), "why no jump rope?")
	assert.Contains(t, svc.lastPrompt(), "no running on bad knees")

	st, _ := store.Get(ctx, "u1")
	entries := logsBy(st, agentAsk, "answer_question")
	require.Len(t, entries, 1)
	assert.Equal(t, "why no jump rope?", entries[0].Reason)
	assert.Equal(t, answer, entries[0].Payload["response"])
}

func TestAskAgent_Fallback(t *testing.T) {
	store := state.NewMemoryStore()
	a := NewAskAgent(store, &fakeLLM{err: errors.New("llm down")}, newAudit(store), nil)

	answer, err := a.Answer(context.Background(), "u1", "what now?")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I couldn't process that: llm down", answer)
}

func TestAskAgent_ContextHasOnlyRecentLogs(t *testing.T) {
	store := state.NewMemoryStore()
	rec := newAudit(store)
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		_, err := rec.Record(ctx, "u1", "Test", "old_action", "", nil)
		require.NoError(t, err)
	}
	_, err := rec.Record(ctx, "u1", "Test", "newest_action", "", nil)
	require.NoError(t, err)

	svc := &fakeLLM{text: "ok"}
	a := NewAskAgent(store, svc, rec, nil)
	_, err = a.Answer(ctx, "u1", "q")
	require.NoError(t, err)
	assert.Contains(t, svc.lastPrompt(), "newest_action")
	assert.Equal(t, 9, countOccurrences(svc.lastPrompt(), "old_action"))
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
