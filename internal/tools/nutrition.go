package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fact is one nutrition record exactly as the lookup API returned it
// (name, calories, protein_g, ...). Error markers carry a single "error" key.
type Fact map[string]any

// NutritionInfo is the result of one lookup: the API's records verbatim, or
// a single error marker.
type NutritionInfo []Fact

// ErrorInfo builds the error marker attached to a meal when a lookup fails.
func ErrorInfo(err error) NutritionInfo {
	return NutritionInfo{{"error": err.Error()}}
}

// Err returns the error marker text, or "" for a successful lookup.
func (n NutritionInfo) Err() string {
	if len(n) == 1 {
		if msg, ok := n[0]["error"].(string); ok {
			return msg
		}
	}
	return ""
}

func (n NutritionInfo) Clone() NutritionInfo {
	if n == nil {
		return nil
	}
	out := make(NutritionInfo, 0, len(n))
	for _, f := range n {
		cp := make(Fact, len(f))
		for k, v := range f {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// NutritionLookup resolves a free-text food query to nutrition records.
type NutritionLookup interface {
	Lookup(ctx context.Context, query string) (NutritionInfo, error)
}

// NutritionClient talks to an api-ninjas compatible nutrition endpoint.
type NutritionClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	breaker    *CircuitBreaker
}

// NewNutritionClient creates a new nutrition API client
func NewNutritionClient(baseURL, apiKey string, timeout time.Duration, breaker *CircuitBreaker) *NutritionClient {
	return &NutritionClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
	}
}

// Lookup queries the nutrition API for a food description.
func (c *NutritionClient) Lookup(ctx context.Context, query string) (NutritionInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty nutrition query")
	}
	if c.breaker == nil {
		return c.lookup(ctx, query)
	}
	var info NutritionInfo
	err := c.breaker.Call(func() error {
		var err error
		info, err = c.lookup(ctx, query)
		return err
	})
	return info, err
}

func (c *NutritionClient) lookup(ctx context.Context, query string) (NutritionInfo, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nutrition request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info NutritionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if info == nil {
		info = NutritionInfo{}
	}
	return info, nil
}
