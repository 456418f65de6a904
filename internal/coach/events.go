package coach

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"fitsymphony/internal/state"
)

// Event names accepted on the wire.
const (
	EventCreateProfile  = "create_profile"
	EventGeneratePlan   = "generate_plan"
	EventSubmitFeedback = "submit_feedback"
	EventLogProgress    = "log_progress"
	EventGetProgress    = "get_progress"
	EventIngestWearable = "ingest_wearable"
	EventGetBadges      = "get_badges"
	EventGetMetrics     = "get_metrics"
	EventAskAI          = "ask_ai"
)

var SupportedEvents = []string{
	EventCreateProfile,
	EventGeneratePlan,
	EventSubmitFeedback,
	EventLogProgress,
	EventGetProgress,
	EventIngestWearable,
	EventGetBadges,
	EventGetMetrics,
	EventAskAI,
}

// Event is the closed set of requests the orchestrator handles. Only types
// in this package implement it.
type Event interface {
	Name() string
	event()
}

type CreateProfile struct {
	Profile state.Profile `json:"profile"`
}

type GeneratePlan struct {
	Days    *int           `json:"days,omitempty"`
	Profile *state.Profile `json:"profile,omitempty"`
}

type SubmitFeedback struct {
	FeedbackText string `json:"feedback_text"`
}

type LogProgress struct {
	state.ProgressEntry
}

type GetProgress struct{}

type IngestWearable struct {
	Metrics state.Metrics `json:"metrics"`
}

type GetBadges struct{}

type GetMetrics struct{}

type AskAI struct {
	Question string `json:"question"`
}

func (CreateProfile) Name() string  { return EventCreateProfile }
func (GeneratePlan) Name() string   { return EventGeneratePlan }
func (SubmitFeedback) Name() string { return EventSubmitFeedback }
func (LogProgress) Name() string    { return EventLogProgress }
func (GetProgress) Name() string    { return EventGetProgress }
func (IngestWearable) Name() string { return EventIngestWearable }
func (GetBadges) Name() string      { return EventGetBadges }
func (GetMetrics) Name() string     { return EventGetMetrics }
func (AskAI) Name() string          { return EventAskAI }

func (CreateProfile) event()  {}
func (GeneratePlan) event()   {}
func (SubmitFeedback) event() {}
func (LogProgress) event()    {}
func (GetProgress) event()    {}
func (IngestWearable) event() {}
func (GetBadges) event()      {}
func (GetMetrics) event()     {}
func (AskAI) event()          {}

// UnsupportedEventError names the rejected event and lists the valid ones.
type UnsupportedEventError struct {
	Name string
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("unsupported event %q. Supported: %s", e.Name, strings.Join(SupportedEvents, ", "))
}

// ParseEvent builds a typed event from its wire name and JSON payload.
// create_profile accepts the profile either nested under "profile" or as
// the payload itself; ingest_wearable takes the payload as the metrics.
func ParseEvent(name string, raw json.RawMessage) (Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = json.RawMessage("{}")
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case EventCreateProfile:
		var wrapper struct {
			Profile *state.Profile `json:"profile"`
		}
		if err := decodePayload(name, raw, &wrapper); err != nil {
			return nil, err
		}
		if wrapper.Profile != nil {
			return CreateProfile{Profile: *wrapper.Profile}, nil
		}
		var p state.Profile
		if err := decodePayload(name, raw, &p); err != nil {
			return nil, err
		}
		return CreateProfile{Profile: p}, nil
	case EventGeneratePlan:
		return decodeEvent[GeneratePlan](name, raw)
	case EventSubmitFeedback:
		return decodeEvent[SubmitFeedback](name, raw)
	case EventLogProgress:
		return decodeEvent[LogProgress](name, raw)
	case EventGetProgress:
		return GetProgress{}, nil
	case EventIngestWearable:
		var m state.Metrics
		if err := decodePayload(name, raw, &m); err != nil {
			return nil, err
		}
		return IngestWearable{Metrics: m}, nil
	case EventGetBadges:
		return GetBadges{}, nil
	case EventGetMetrics:
		return GetMetrics{}, nil
	case EventAskAI:
		return decodeEvent[AskAI](name, raw)
	}
	return nil, &UnsupportedEventError{Name: name}
}

func decodePayload(name string, raw json.RawMessage, target interface{}) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return invalidf("invalid %s payload: %v", name, err)
	}
	return nil
}

func decodeEvent[E Event](name string, raw json.RawMessage) (Event, error) {
	var ev E
	if err := decodePayload(name, raw, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}
