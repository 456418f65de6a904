package llm

import "time"

// Config controls queue behavior
type Config struct {
	MaxConcurrent int // Total concurrent completion requests

	CriticalQueueSize   int // interactive calls (ask_ai, feedback)
	BackgroundQueueSize int // rule generation

	CriticalTimeout   time.Duration
	BackgroundTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent:       2,
		CriticalQueueSize:   20,
		BackgroundQueueSize: 100,
		CriticalTimeout:     60 * time.Second,
		BackgroundTimeout:   90 * time.Second,
	}
}
