package coach

import (
	"context"
	"strings"
	"time"

	"fitsymphony/internal/state"
)

const (
	badgeConsistency = "Consistency Star"
	badgeCalories    = "Calorie Controller"
	badgeSteps       = "Step Master"
)

// dateLayouts are the ISO forms accepted for progress dates. Values without
// a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type GamificationEvaluator struct {
	store state.Store
	audit Recorder
	now   func() time.Time
}

func NewGamificationEvaluator(store state.Store, audit Recorder, now func() time.Time) *GamificationEvaluator {
	if now == nil {
		now = time.Now
	}
	return &GamificationEvaluator{store: store, audit: audit, now: now}
}

type badgeRule struct {
	name   string
	reason string
	earned func(st *state.UserState, now time.Time) bool
}

var badgeRules = []badgeRule{
	{badgeConsistency, "4+ logs this week", consistencyEarned},
	{badgeCalories, "Avg burn ≥ 300 kcals", caloriesEarned},
	{badgeSteps, "Avg steps ≥ 8k (last 3)", stepsEarned},
}

func consistencyEarned(st *state.UserState, now time.Time) bool {
	cutoff := now.AddDate(0, 0, -7)
	recent := 0
	for _, p := range st.Progress {
		if p.Date == nil {
			continue
		}
		if t, ok := parseISODate(*p.Date); ok && !t.Before(cutoff) {
			recent++
		}
	}
	return recent >= 4
}

func caloriesEarned(st *state.UserState, _ time.Time) bool {
	total, n := 0, 0
	for _, p := range st.Progress {
		if p.KcalsBurned != nil {
			total += *p.KcalsBurned
			n++
		}
	}
	return n > 0 && float64(total)/float64(n) >= 300
}

func stepsEarned(st *state.UserState, _ time.Time) bool {
	if len(st.Wearables) < 3 {
		return false
	}
	sum := 0.0
	for _, w := range st.Wearables[len(st.Wearables)-3:] {
		sum += metricOr(w, "steps", 0)
	}
	return sum/3 >= 8000
}

// Evaluate awards every badge whose rule holds and returns the full badge
// set. Badges already held are never awarded twice.
func (g *GamificationEvaluator) Evaluate(ctx context.Context, userID string) ([]state.Badge, error) {
	st, err := g.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := g.now().UTC()

	for _, rule := range badgeRules {
		if st.HasBadge(rule.name) || !rule.earned(st, now) {
			continue
		}
		added, err := state.AwardBadge(ctx, g.store, userID, state.Badge{
			Name:     rule.name,
			EarnedAt: now.Format(time.RFC3339),
			Reason:   rule.reason,
		})
		if err != nil {
			return nil, err
		}
		if added {
			if _, err := g.audit.Record(ctx, userID, agentGamification, "badge_awarded", rule.reason, map[string]any{"badge": rule.name}); err != nil {
				return nil, err
			}
		}
	}

	st, err = g.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st.Badges, nil
}
