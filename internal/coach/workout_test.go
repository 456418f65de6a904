package coach

import (
	"context"
	"testing"

	"fitsymphony/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGoal(t *testing.T) {
	for _, g := range []string{"Fat Loss", "fat-loss", "fat_loss", "  FAT LOSS "} {
		assert.Equal(t, goalFatLoss, normalizeGoal(g), g)
	}
	assert.Equal(t, goalGeneralFitness, normalizeGoal("General Fitness"))
}

func TestWorkoutPlanner_Generate(t *testing.T) {
	store := state.NewMemoryStore()
	p := NewWorkoutPlanner(newAudit(store))
	ctx := context.Background()

	plan, err := p.Generate(ctx, "u1", state.Profile{Goal: "Muscle Gain", Level: "Advanced"}, 4)
	require.NoError(t, err)
	require.Len(t, plan, 4)
	for i, d := range plan {
		assert.Equal(t, i+1, d.Day)
		assert.Equal(t, []string{"Squats", "Deadlifts", "Bench Press"}, d.Exercises)
		assert.Equal(t, 4, d.Sets)
	}

	// days do not share exercise slices
	plan[0].Exercises[0] = "changed"
	assert.Equal(t, "Squats", plan[1].Exercises[0])

	st, _ := store.Get(ctx, "u1")
	entries := logsBy(st, agentWorkout, "generate_plan")
	require.Len(t, entries, 1)
	assert.Equal(t, 4, entries[0].Payload["days"])
}

func TestWorkoutPlanner_DefaultsAndLevels(t *testing.T) {
	p := NewWorkoutPlanner(newAudit(state.NewMemoryStore()))
	ctx := context.Background()

	plan, err := p.Generate(ctx, "u1", state.Profile{Goal: "juggling", Level: "expert"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Yoga", "Brisk Walk", "Bodyweight Circuit"}, plan[0].Exercises)
	assert.Equal(t, 2, plan[0].Sets)

	plan, err = p.Generate(ctx, "u1", state.Profile{Goal: "endurance", Level: "intermediate"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, plan[0].Sets)
}

func TestWorkoutPlanner_KneeConstraint(t *testing.T) {
	p := NewWorkoutPlanner(newAudit(state.NewMemoryStore()))
	plan, err := p.Generate(context.Background(), "u1", state.Profile{
		Goal:        "fat_loss",
		Level:       "beginner",
		Constraints: []string{"Old KNEE injury"},
	}, 3)
	require.NoError(t, err)
	for _, d := range plan {
		assert.NotContains(t, d.Exercises, "Jump Rope")
		assert.NotContains(t, d.Exercises, "Mountain Climbers")
		assert.Contains(t, d.Exercises, lowImpactExercise)
		assert.LessOrEqual(t, len(d.Exercises), exercisesPerDay)
	}
}

func TestWorkoutPlanner_SubstituteAddedWhenMissing(t *testing.T) {
	p := NewWorkoutPlanner(newAudit(state.NewMemoryStore()))
	plan, err := p.Generate(context.Background(), "u1", state.Profile{
		Goal:        "general fitness",
		Constraints: []string{"injury"},
	}, 1)
	require.NoError(t, err)
	// the substitute is appended after the template, so the first three stay
	assert.Equal(t, []string{"Yoga", "Brisk Walk", "Bodyweight Circuit"}, plan[0].Exercises)
}
