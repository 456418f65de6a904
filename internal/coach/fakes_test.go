package coach

import (
	"context"
	"sync"
	"testing"
	"time"

	"fitsymphony/internal/audit"
	"fitsymphony/internal/llm"
	"fitsymphony/internal/state"
	"fitsymphony/internal/tools"
)

var fixedNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// fakeLLM answers every prompt with canned replies.
type fakeLLM struct {
	mu      sync.Mutex
	json    string
	text    string
	err     error
	prompts []string
}

func (f *fakeLLM) record(prompt string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, target interface{}) error {
	f.record(prompt)
	if f.err != nil {
		return f.err
	}
	return llm.ParseStructured(f.json, target)
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	f.record(prompt)
	return f.text, f.err
}

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeNutrition struct {
	fail map[string]error
}

func (f *fakeNutrition) Lookup(_ context.Context, query string) (tools.NutritionInfo, error) {
	if err, ok := f.fail[query]; ok {
		return nil, err
	}
	return tools.NutritionInfo{{"name": query, "calories": 120.5}}, nil
}

func newAudit(store state.Store) *audit.Log {
	return audit.New(store, 0, nil, nil)
}

func newTestOrchestrator(t *testing.T, chat llm.Service) (*Orchestrator, *state.MemoryStore) {
	t.Helper()
	store := state.NewMemoryStore()
	o := New(Deps{
		Store:     store,
		Audit:     newAudit(store),
		Nutrition: &fakeNutrition{},
		Chat:      chat,
		Now:       clock,
	})
	return o, store
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func logsBy(st *state.UserState, agent, action string) []state.LogEntry {
	var out []state.LogEntry
	for _, l := range st.Logs {
		if l.Agent == agent && l.Action == action {
			out = append(out, l)
		}
	}
	return out
}
