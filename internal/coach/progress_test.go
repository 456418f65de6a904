package coach

import (
	"context"
	"encoding/json"
	"testing"

	"fitsymphony/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, Summary{Count: 0, Message: "No progress yet"}, s)
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 0, "message": "No progress yet"}`, string(raw))

	s = Summarize([]state.ProgressEntry{
		{WeightKg: floatPtr(80.123), WorkoutMinutes: intPtr(30)},
		{WeightKg: floatPtr(79.5), KcalsBurned: intPtr(301)},
		{WorkoutMinutes: intPtr(45), KcalsBurned: intPtr(300)},
	})
	assert.Equal(t, 3, s.Count)
	require.NotNil(t, s.AvgWeight)
	assert.Equal(t, 79.81, *s.AvgWeight)
	assert.Equal(t, 37.5, *s.AvgWorkoutMinutes)
	assert.Equal(t, 300.5, *s.AvgKcalsBurned)

	raw, err = json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 3, "avg_weight": 79.81, "avg_workout_minutes": 37.5, "avg_kcals_burned": 300.5}`, string(raw))
}

func TestProgressTracker_Log(t *testing.T) {
	store := state.NewMemoryStore()
	tr := NewProgressTracker(store, newAudit(store), clock)
	ctx := context.Background()

	entry, err := tr.Log(ctx, "u1", state.ProgressEntry{WeightKg: floatPtr(70)})
	require.NoError(t, err)
	require.NotNil(t, entry.Date)
	assert.Equal(t, "2025-10-15", *entry.Date)

	_, err = tr.Log(ctx, "u1", state.ProgressEntry{Date: strPtr("2025-10-01T08:00:00")})
	require.NoError(t, err)

	_, err = tr.Log(ctx, "u1", state.ProgressEntry{Date: strPtr("yesterday")})
	assert.True(t, IsValidation(err))
	_, err = tr.Log(ctx, "u1", state.ProgressEntry{WorkoutMinutes: intPtr(-5)})
	assert.True(t, IsValidation(err))

	st, _ := store.Get(ctx, "u1")
	assert.Len(t, st.Progress, 2)
	assert.Len(t, logsBy(st, agentProgress, "log_progress"), 2)
}

func TestProgressTracker_SummarizeLogsOnlyWhenNonEmpty(t *testing.T) {
	store := state.NewMemoryStore()
	tr := NewProgressTracker(store, newAudit(store), clock)
	ctx := context.Background()

	_, err := tr.Summarize(ctx, "u1")
	require.NoError(t, err)
	st, _ := store.Get(ctx, "u1")
	assert.Empty(t, logsBy(st, agentProgress, "summarize"))

	_, err = tr.Log(ctx, "u1", state.ProgressEntry{})
	require.NoError(t, err)
	_, err = tr.Summarize(ctx, "u1")
	require.NoError(t, err)
	st, _ = store.Get(ctx, "u1")
	assert.Len(t, logsBy(st, agentProgress, "summarize"), 1)
}
