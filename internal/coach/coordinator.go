package coach

import (
	"context"

	"fitsymphony/internal/state"
)

const (
	reasonOK        = "ok"
	reasonLowImpact = "enforced low-impact due to injury/knee constraint"
)

type Resolution struct {
	Workout []state.DayPlan
	Meals   []state.MealEntry
	Reason  string
}

// Coordinator applies safety overrides to a generated workout/meal pair.
type Coordinator struct {
	audit Recorder
}

func NewCoordinator(audit Recorder) *Coordinator {
	return &Coordinator{audit: audit}
}

func (c *Coordinator) Resolve(ctx context.Context, userID string, profile state.Profile, workout []state.DayPlan, meals []state.MealEntry) (Resolution, error) {
	plans := state.Plans{Workout: workout, Nutrition: meals}.Clone()
	res := Resolution{Workout: plans.Workout, Meals: plans.Nutrition, Reason: reasonOK}

	if hasSafetyConstraint(profile.Constraints) {
		for i := range res.Workout {
			res.Workout[i].Exercises = lowImpactOnly(res.Workout[i].Exercises)
		}
		res.Reason = reasonLowImpact
	}

	_, err := c.audit.Record(ctx, userID, agentCoordinator, "resolve_conflicts", res.Reason, map[string]any{
		"days": len(res.Workout),
	})
	return res, err
}
