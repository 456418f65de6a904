package coach

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"fitsymphony/internal/state"
)

const noProgressMessage = "No progress yet"

// Summary averages the progress history. Averages are nil when no entry
// carries the field.
type Summary struct {
	Count             int      `json:"count"`
	AvgWeight         *float64 `json:"avg_weight"`
	AvgWorkoutMinutes *float64 `json:"avg_workout_minutes"`
	AvgKcalsBurned    *float64 `json:"avg_kcals_burned"`
	Message           string   `json:"message,omitempty"`
}

// MarshalJSON emits only count and message for an empty history.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.Count == 0 {
		return json.Marshal(struct {
			Count   int    `json:"count"`
			Message string `json:"message"`
		}{0, s.Message})
	}
	type plain Summary
	return json.Marshal(plain(s))
}

func Summarize(entries []state.ProgressEntry) Summary {
	if len(entries) == 0 {
		return Summary{Count: 0, Message: noProgressMessage}
	}
	var weights, minutes, kcals []float64
	for _, e := range entries {
		if e.WeightKg != nil {
			weights = append(weights, *e.WeightKg)
		}
		if e.WorkoutMinutes != nil {
			minutes = append(minutes, float64(*e.WorkoutMinutes))
		}
		if e.KcalsBurned != nil {
			kcals = append(kcals, float64(*e.KcalsBurned))
		}
	}
	return Summary{
		Count:             len(entries),
		AvgWeight:         mean(weights, 2),
		AvgWorkoutMinutes: mean(minutes, 1),
		AvgKcalsBurned:    mean(kcals, 1),
	}
}

func mean(vals []float64, places int) *float64 {
	if len(vals) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	m := round(sum/float64(len(vals)), places)
	return &m
}

type ProgressTracker struct {
	store state.Store
	audit Recorder
	now   func() time.Time
}

func NewProgressTracker(store state.Store, audit Recorder, now func() time.Time) *ProgressTracker {
	if now == nil {
		now = time.Now
	}
	return &ProgressTracker{store: store, audit: audit, now: now}
}

// Log validates and appends an entry. A missing date becomes today (UTC).
// It returns the entry as stored.
func (t *ProgressTracker) Log(ctx context.Context, userID string, entry state.ProgressEntry) (state.ProgressEntry, error) {
	if entry.WeightKg != nil && *entry.WeightKg < 0 {
		return entry, invalidf("weight_kg must not be negative")
	}
	if entry.WorkoutMinutes != nil && *entry.WorkoutMinutes < 0 {
		return entry, invalidf("workout_minutes must not be negative")
	}
	if entry.KcalsBurned != nil && *entry.KcalsBurned < 0 {
		return entry, invalidf("kcals_burned must not be negative")
	}
	if entry.Date == nil || strings.TrimSpace(*entry.Date) == "" {
		today := t.now().UTC().Format("2006-01-02")
		entry.Date = &today
	} else if _, ok := parseISODate(*entry.Date); !ok {
		return entry, invalidf("date %q is not an ISO date", *entry.Date)
	}

	if err := state.AppendProgress(ctx, t.store, userID, entry); err != nil {
		return entry, err
	}
	_, err := t.audit.Record(ctx, userID, agentProgress, "log_progress", "", toPayload(entry))
	return entry, err
}

func (t *ProgressTracker) Summarize(ctx context.Context, userID string) (Summary, error) {
	st, err := t.store.Get(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	summary := Summarize(st.Progress)
	if summary.Count > 0 {
		if _, err := t.audit.Record(ctx, userID, agentProgress, "summarize", "", toPayload(summary)); err != nil {
			return summary, err
		}
	}
	return summary, nil
}
