package coach

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"fitsymphony/internal/state"
)

type WearableIngestor struct {
	store state.Store
	audit Recorder
}

func NewWearableIngestor(store state.Store, audit Recorder) *WearableIngestor {
	return &WearableIngestor{store: store, audit: audit}
}

// Ingest appends a raw reading. Only emptiness is checked.
func (w *WearableIngestor) Ingest(ctx context.Context, userID string, metrics state.Metrics) error {
	if len(metrics) == 0 {
		return invalidf("wearable metrics required")
	}
	if err := state.AppendWearable(ctx, w.store, userID, metrics); err != nil {
		return err
	}
	_, err := w.audit.Record(ctx, userID, agentWearable, "ingest_metrics", "", metrics.Clone())
	return err
}

// LatestSignal returns the most recent reading, or an empty map.
func (w *WearableIngestor) LatestSignal(ctx context.Context, userID string) (state.Metrics, error) {
	st, err := w.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(st.Wearables) == 0 {
		return state.Metrics{}, nil
	}
	return st.Wearables[len(st.Wearables)-1], nil
}

// Signal is the part of a wearable reading that planning looks at.
type Signal struct {
	HRAvg      float64
	SleepHours float64
}

// SignalFrom reads hr_avg (default 0) and sleep_hours (default 7).
func SignalFrom(m state.Metrics) Signal {
	return Signal{
		HRAvg:      metricOr(m, "hr_avg", 0),
		SleepHours: metricOr(m, "sleep_hours", 7),
	}
}

// Fatigued is true for a high average heart rate or short sleep.
func (s Signal) Fatigued() bool {
	return s.HRAvg >= 100 || s.SleepHours < 6
}

// metricNumber reads a numeric field that may have arrived as a JSON number,
// a Go number or a numeric string.
func metricNumber(m state.Metrics, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func metricOr(m state.Metrics, key string, def float64) float64 {
	if v, ok := metricNumber(m, key); ok {
		return v
	}
	return def
}
