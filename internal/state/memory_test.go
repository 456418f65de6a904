package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LazyInit(t *testing.T) {
	s := NewMemoryStore()
	st, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)

	assert.Nil(t, st.Profile)
	assert.NotNil(t, st.Plans.Workout)
	assert.NotNil(t, st.Plans.Nutrition)
	assert.Empty(t, st.Progress)
	assert.Empty(t, st.Wearables)
	assert.Empty(t, st.Badges)
	assert.Empty(t, st.Logs)
	assert.Equal(t, 1, s.Users())
}

func TestMemoryStore_EmptyUserID(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestMemoryStore_ProfileReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	first := Profile{Name: "A", Age: 30, Goal: "fat_loss", Level: "beginner", Constraints: []string{"knee injury"}}
	second := Profile{Name: "B", Age: 41, Goal: "endurance", Level: "advanced"}

	require.NoError(t, SetProfile(ctx, s, "u1", first))
	require.NoError(t, SetProfile(ctx, s, "u1", second))

	st, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, st.Profile)
	if diff := cmp.Diff(second.Clone(), *st.Profile); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, SetPlans(ctx, s, "u1", Plans{Workout: []DayPlan{{Day: 1, Exercises: []string{"Yoga"}, Sets: 2}}}))

	st, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	st.Plans.Workout[0].Exercises[0] = "Mutated"
	st.Plans.Workout[0].Sets = 5

	again, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Yoga", again.Plans.Workout[0].Exercises[0])
	assert.Equal(t, 2, again.Plans.Workout[0].Sets)
}

func TestMemoryStore_GetCopiesNestedValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, AppendWearable(ctx, s, "u1", Metrics{
		"hr_avg": 80.0,
		"zones":  map[string]any{"peak": 12.0},
		"laps":   []any{map[string]any{"km": 1.0}},
	}))
	require.NoError(t, AppendLog(ctx, s, "u1", LogEntry{
		ID:      "e1",
		Agent:   "NutritionAgent",
		Action:  "generate_meal_plan",
		Payload: map[string]any{"meals": []any{map[string]any{"item": "Oats"}}},
	}, 0))

	st, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	st.Wearables[0]["zones"].(map[string]any)["peak"] = 99.0
	st.Wearables[0]["laps"].([]any)[0].(map[string]any)["km"] = 42.0
	st.Logs[0].Payload["meals"].([]any)[0].(map[string]any)["item"] = "Mutated"

	again, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 12.0, again.Wearables[0]["zones"].(map[string]any)["peak"])
	assert.Equal(t, 1.0, again.Wearables[0]["laps"].([]any)[0].(map[string]any)["km"])
	assert.Equal(t, "Oats", again.Logs[0].Payload["meals"].([]any)[0].(map[string]any)["item"])
}

func TestMemoryStore_UpdateErrorDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("boom")
	err := s.Update(ctx, "u1", func(st *UserState) error {
		st.Rules = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	st, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, st.Rules)
}

func TestAwardBadge_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	b := Badge{Name: "Step Master", EarnedAt: "2026-01-01T00:00:00Z", Reason: "steps"}

	added, err := AwardBadge(ctx, s, "u1", b)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = AwardBadge(ctx, s, "u1", b)
	require.NoError(t, err)
	assert.False(t, added)

	st, _ := s.Get(ctx, "u1")
	assert.Len(t, st.Badges, 1)
}

func TestAppendLog_RingBuffer(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, AppendLog(ctx, s, "u1", LogEntry{ID: fmt.Sprint(i)}, 3))
	}
	st, _ := s.Get(ctx, "u1")
	require.Len(t, st.Logs, 3)
	assert.Equal(t, "2", st.Logs[0].ID)
	assert.Equal(t, "4", st.Logs[2].ID)
}

func TestAppendLog_Unbounded(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, AppendLog(ctx, s, "u1", LogEntry{ID: fmt.Sprint(i)}, 0))
	}
	st, _ := s.Get(ctx, "u1")
	assert.Len(t, st.Logs, 5)
}

func TestMemoryStore_ConcurrentUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		user := fmt.Sprintf("user-%d", u)
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = AppendWearable(ctx, s, user, Metrics{"steps": 1000})
			}()
		}
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		st, err := s.Get(ctx, fmt.Sprintf("user-%d", u))
		require.NoError(t, err)
		assert.Len(t, st.Wearables, 25)
	}
}
