package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]interface{}
		wantErr bool
	}{
		{name: "bare", input: `{"a": 1}`, want: map[string]interface{}{"a": float64(1)}},
		{name: "json fence", input: "Here you go:\n```json\n{\"a\": 2}\n```\nthanks", want: map[string]interface{}{"a": float64(2)}},
		{name: "plain fence", input: "```\n{\"a\": 3}\n```", want: map[string]interface{}{"a": float64(3)}},
		{name: "empty", input: "  ", wantErr: true},
		{name: "not json", input: "I am not sure", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			err := ParseStructured(tt.input, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnavailable(t *testing.T) {
	var svc Service = Unavailable{}
	_, err := svc.GenerateText(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
	var out map[string]interface{}
	assert.ErrorIs(t, svc.GenerateJSON(context.Background(), "hi", &out), ErrNotConfigured)
}

func TestAdapter_GenerateJSONAndText(t *testing.T) {
	var lastPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &lastPayload)
		content := "plain answer"
		msgs := lastPayload["messages"].([]interface{})
		if len(msgs) == 2 {
			content = "```json\n{\"calorie_target\": 1800}\n```"
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": content}}},
		})
	}))
	defer srv.Close()

	m := NewManager(DefaultConfig(), nil, nil)
	defer m.Stop()
	a := NewAdapter(NewClient(m, PriorityCritical, 5*time.Second), srv.URL, "test-model", 0.7)

	var out struct {
		CalorieTarget int `json:"calorie_target"`
	}
	require.NoError(t, a.GenerateJSON(context.Background(), "parse this", &out))
	assert.Equal(t, 1800, out.CalorieTarget)
	assert.Equal(t, "test-model", lastPayload["model"])
	assert.Equal(t, 0.3, lastPayload["temperature"])

	text, err := a.GenerateText(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "plain answer", text)
	assert.Equal(t, 0.7, lastPayload["temperature"])
}

func TestAdapter_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	m := NewManager(DefaultConfig(), nil, nil)
	defer m.Stop()
	a := NewAdapter(NewClient(m, PriorityBackground, 5*time.Second), srv.URL, "m", 0.5)

	_, err := a.GenerateText(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
