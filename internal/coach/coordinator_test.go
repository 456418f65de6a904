package coach

import (
	"context"
	"testing"

	"fitsymphony/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_Resolve(t *testing.T) {
	store := state.NewMemoryStore()
	c := NewCoordinator(newAudit(store))
	ctx := context.Background()

	workout := []state.DayPlan{
		{Day: 1, Exercises: []string{"Jump Rope", "Mountain Climbers", "Core Planks"}, Sets: 2},
		{Day: 2, Exercises: []string{"Cycling (Low Impact)", "Jump Rope"}, Sets: 2},
	}
	meals := []state.MealEntry{{Day: 1, Item: "boiled eggs"}}

	res, err := c.Resolve(ctx, "u1", state.Profile{Constraints: []string{"knee injury"}}, workout, meals)
	require.NoError(t, err)
	assert.Equal(t, reasonLowImpact, res.Reason)
	assert.Equal(t, []string{"Core Planks", "Cycling (Low Impact)"}, res.Workout[0].Exercises)
	assert.Equal(t, []string{"Cycling (Low Impact)"}, res.Workout[1].Exercises)
	assert.Equal(t, meals[0].Item, res.Meals[0].Item)

	// input is left untouched
	assert.Equal(t, "Jump Rope", workout[0].Exercises[0])

	st, _ := store.Get(ctx, "u1")
	entries := logsBy(st, agentCoordinator, "resolve_conflicts")
	require.Len(t, entries, 1)
	assert.Equal(t, reasonLowImpact, entries[0].Reason)
}

func TestCoordinator_NoConstraint(t *testing.T) {
	c := NewCoordinator(newAudit(state.NewMemoryStore()))
	workout := []state.DayPlan{{Day: 1, Exercises: []string{"Jump Rope"}, Sets: 2}}

	res, err := c.Resolve(context.Background(), "u1", state.Profile{Constraints: []string{"vegetarian"}}, workout, nil)
	require.NoError(t, err)
	assert.Equal(t, reasonOK, res.Reason)
	assert.Equal(t, []string{"Jump Rope"}, res.Workout[0].Exercises)
}
