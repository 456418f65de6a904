package coach

import (
	"context"
	"strings"

	"fitsymphony/internal/state"
)

const (
	goalFatLoss        = "fat_loss"
	goalMuscleGain     = "muscle_gain"
	goalEndurance      = "endurance"
	goalGeneralFitness = "general_fitness"

	lowImpactExercise = "Cycling (Low Impact)"
	exercisesPerDay   = 3
)

var workoutTemplates = map[string][]string{
	goalFatLoss:        {"Jump Rope", "Mountain Climbers", "Cycling (Low Impact)", "Core Planks"},
	goalMuscleGain:     {"Squats", "Deadlifts", "Bench Press", "Rows", "Overhead Press"},
	goalEndurance:      {"Cycling", "Jogging", "Rowing", "Swimming", "Elliptical"},
	goalGeneralFitness: {"Yoga", "Brisk Walk", "Bodyweight Circuit", "Stretching", "Core Stability"},
}

var highImpactExercises = []string{"Jump Rope", "Mountain Climbers"}

var levelVolume = map[string]int{
	"beginner":     2,
	"intermediate": 3,
	"advanced":     4,
}

// normalizeGoal maps "Fat Loss", "fat-loss" and "fat_loss" to the same key.
func normalizeGoal(goal string) string {
	g := strings.ToLower(strings.TrimSpace(goal))
	g = strings.NewReplacer(" ", "_", "-", "_").Replace(g)
	return g
}

func volumeFor(level string) int {
	if v, ok := levelVolume[strings.ToLower(strings.TrimSpace(level))]; ok {
		return v
	}
	return 2
}

// hasSafetyConstraint reports whether any constraint mentions an injury or
// the knee.
func hasSafetyConstraint(constraints []string) bool {
	for _, c := range constraints {
		c = strings.ToLower(c)
		if strings.Contains(c, "injury") || strings.Contains(c, "knee") {
			return true
		}
	}
	return false
}

func isHighImpact(exercise string) bool {
	for _, h := range highImpactExercises {
		if strings.Contains(exercise, h) {
			return true
		}
	}
	return false
}

// lowImpactOnly drops high-impact exercises and makes sure the low-impact
// cycling substitute is present.
func lowImpactOnly(exercises []string) []string {
	out := make([]string, 0, len(exercises)+1)
	hasSubstitute := false
	for _, ex := range exercises {
		if isHighImpact(ex) {
			continue
		}
		if ex == lowImpactExercise {
			hasSubstitute = true
		}
		out = append(out, ex)
	}
	if !hasSubstitute {
		out = append(out, lowImpactExercise)
	}
	return out
}

type WorkoutPlanner struct {
	audit Recorder
}

func NewWorkoutPlanner(audit Recorder) *WorkoutPlanner {
	return &WorkoutPlanner{audit: audit}
}

// Generate expands the goal template into days entries. Every day gets the
// first three exercises of the (filtered) template.
func (p *WorkoutPlanner) Generate(ctx context.Context, userID string, profile state.Profile, days int) ([]state.DayPlan, error) {
	base, ok := workoutTemplates[normalizeGoal(profile.Goal)]
	if !ok {
		base = workoutTemplates[goalGeneralFitness]
	}
	base = append([]string{}, base...)
	if hasSafetyConstraint(profile.Constraints) {
		base = lowImpactOnly(base)
	}
	if len(base) > exercisesPerDay {
		base = base[:exercisesPerDay]
	}
	volume := volumeFor(profile.Level)

	plan := make([]state.DayPlan, 0, days)
	for d := 0; d < days; d++ {
		plan = append(plan, state.DayPlan{
			Day:       d + 1,
			Exercises: append([]string{}, base...),
			Sets:      volume,
			Notes:     "",
		})
	}

	_, err := p.audit.Record(ctx, userID, agentWorkout, "generate_plan", "", map[string]any{
		"goal":  profile.Goal,
		"level": profile.Level,
		"days":  days,
	})
	return plan, err
}
