package llm

import (
	"context"
	"time"
)

// Priority levels (just 2)
type Priority int

const (
	PriorityCritical   Priority = 0 // answers the user is waiting on
	PriorityBackground Priority = 1 // everything else
)

func (p Priority) String() string {
	if p == PriorityCritical {
		return "critical"
	}
	return "background"
}

// Request encapsulates one completion call
type Request struct {
	ID       string
	Priority Priority
	Context  context.Context

	URL     string
	Payload map[string]interface{}

	ResponseCh chan<- *Response
	ErrorCh    chan<- error

	SubmitTime time.Time
	Timeout    time.Duration
}

// Response encapsulates the raw HTTP reply
type Response struct {
	StatusCode int
	Body       []byte
}

// Metrics tracks queue performance
type Metrics struct {
	CriticalEnqueued    int64          `json:"critical_enqueued"`
	CriticalProcessed   int64          `json:"critical_processed"`
	CriticalDropped     int64          `json:"critical_dropped"`
	BackgroundEnqueued  int64          `json:"background_enqueued"`
	BackgroundProcessed int64          `json:"background_processed"`
	BackgroundDropped   int64          `json:"background_dropped"`
	CurrentQueueDepth   map[string]int `json:"current_queue_depth"`
}
