package coach

import (
	"context"
	"errors"
	"strings"

	"fitsymphony/internal/state"
	"fitsymphony/internal/tools"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var mealTemplates = map[string][]string{
	goalFatLoss:    {"grilled chicken salad", "oatmeal with fruits", "boiled eggs"},
	goalMuscleGain: {"chicken breast rice", "protein shake", "scrambled eggs"},
}

var defaultMeals = []string{"vegetable curry", "dal rice", "fruit smoothie"}

var errNoNutritionLookup = errors.New("nutrition lookup not configured")

type NutritionPlanner struct {
	lookup tools.NutritionLookup
	audit  Recorder
	logger *zap.Logger
}

func NewNutritionPlanner(lookup tools.NutritionLookup, audit Recorder, logger *zap.Logger) *NutritionPlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NutritionPlanner{lookup: lookup, audit: audit, logger: logger.Named("nutrition")}
}

// fetch never fails: a lookup error becomes an error marker.
func (p *NutritionPlanner) fetch(ctx context.Context, query string) tools.NutritionInfo {
	if p.lookup == nil {
		return tools.ErrorInfo(errNoNutritionLookup)
	}
	info, err := p.lookup.Lookup(ctx, query)
	if err != nil {
		err = &ExternalServiceError{Service: "nutrition", Err: err}
		p.logger.Warn("lookup failed", zap.String("query", query), zap.Error(err))
		return tools.ErrorInfo(err)
	}
	return info
}

// Generate picks up to days meals for the goal and attaches one lookup
// result to each. The templates hold three meals, so more days still yields
// three entries.
func (p *NutritionPlanner) Generate(ctx context.Context, userID string, profile state.Profile, days int) ([]state.MealEntry, error) {
	items, ok := mealTemplates[normalizeGoal(profile.Goal)]
	if !ok {
		items = defaultMeals
	}
	if days < len(items) {
		items = items[:max(days, 0)]
	}

	meals := make([]state.MealEntry, len(items))
	var g errgroup.Group
	for i, food := range items {
		g.Go(func() error {
			meals[i] = state.MealEntry{
				Day:           i + 1,
				Item:          food,
				NutritionInfo: p.fetch(ctx, food),
			}
			return nil
		})
	}
	_ = g.Wait()

	_, err := p.audit.Record(ctx, userID, agentNutrition, "generate_meal_plan", "", map[string]any{
		"meals": jsonValue(meals),
	})
	return meals, err
}

// Adjust runs one ad-hoc lookup, independent of the stored plan.
func (p *NutritionPlanner) Adjust(ctx context.Context, userID, query string) (tools.NutritionInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidf("query is required")
	}
	info := p.fetch(ctx, query)
	_, err := p.audit.Record(ctx, userID, agentNutrition, "adjust_meal", "", map[string]any{
		"query":     query,
		"nutrition": jsonValue(info),
	})
	return info, err
}
