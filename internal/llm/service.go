package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Service is the text-completion collaborator used by the coaching agents:
// a prompt goes in, text (or JSON decoded into target) comes out, and any
// call may fail.
type Service interface {
	GenerateJSON(ctx context.Context, prompt string, target interface{}) error
	GenerateText(ctx context.Context, prompt string) (string, error)
}

var ErrNotConfigured = errors.New("text completion service not configured")

// Unavailable is the Service used when no completion endpoint is configured.
// Every call fails, so agents fall back to their defaults.
type Unavailable struct{}

func (Unavailable) GenerateJSON(context.Context, string, interface{}) error {
	return ErrNotConfigured
}

func (Unavailable) GenerateText(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

// Adapter implements Service on top of an OpenAI-compatible
// /v1/chat/completions endpoint reached through the queue Client.
type Adapter struct {
	Client      *Client
	URL         string
	Model       string
	Temperature float64
}

func NewAdapter(client *Client, url, model string, temperature float64) *Adapter {
	return &Adapter{Client: client, URL: url, Model: model, Temperature: temperature}
}

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *Adapter) complete(ctx context.Context, messages []map[string]string, temperature float64) (string, error) {
	payload := map[string]interface{}{
		"model":       a.Model,
		"messages":    messages,
		"temperature": temperature,
	}
	respBody, err := a.Client.Call(ctx, a.URL, payload)
	if err != nil {
		return "", fmt.Errorf("llm call failed: %w", err)
	}

	var resp chatCompletion
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal llm response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from llm")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateJSON sends a prompt and parses the JSON reply into target.
func (a *Adapter) GenerateJSON(ctx context.Context, prompt string, target interface{}) error {
	content, err := a.complete(ctx, []map[string]string{
		{"role": "system", "content": "You are a fitness coaching assistant. Output only valid JSON."},
		{"role": "user", "content": prompt},
	}, 0.3)
	if err != nil {
		return err
	}
	return ParseStructured(content, target)
}

func (a *Adapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	return a.complete(ctx, []map[string]string{
		{"role": "user", "content": prompt},
	}, a.Temperature)
}

// ParseStructured extracts JSON from a reply that may be wrapped in a
// markdown code fence.
func ParseStructured(response string, target interface{}) error {
	body := response
	if idx := strings.Index(body, "```json"); idx != -1 {
		body = body[idx+len("```json"):]
	} else if idx := strings.Index(body, "```"); idx != -1 {
		body = body[idx+len("```"):]
	}
	if idx := strings.Index(body, "```"); idx != -1 {
		body = body[:idx]
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return fmt.Errorf("empty structured response")
	}
	return json.Unmarshal([]byte(body), target)
}
