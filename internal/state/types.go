package state

import (
	"fitsymphony/internal/tools"
)

// Profile is the user's coaching profile. It is always replaced as a whole.
type Profile struct {
	Name        string   `json:"name"`
	Age         int      `json:"age"`
	Goal        string   `json:"goal"`
	Level       string   `json:"level"`
	Preferences []string `json:"preferences"`
	Constraints []string `json:"constraints"`
}

// DayPlan is one day of the workout plan.
type DayPlan struct {
	Day       int      `json:"day"`
	Exercises []string `json:"exercises"`
	Sets      int      `json:"sets"`
	Notes     string   `json:"notes"`
}

// MealEntry is one day of the meal plan.
type MealEntry struct {
	Day           int                 `json:"day"`
	Item          string              `json:"item"`
	NutritionInfo tools.NutritionInfo `json:"nutrition_info"`
	Notes         string              `json:"notes,omitempty"`
}

type Plans struct {
	Workout   []DayPlan   `json:"workout"`
	Nutrition []MealEntry `json:"nutrition"`
}

// ProgressEntry is a single self-reported progress log. Absent fields stay nil.
type ProgressEntry struct {
	Date           *string  `json:"date"`
	WeightKg       *float64 `json:"weight_kg"`
	WorkoutMinutes *int     `json:"workout_minutes"`
	KcalsBurned    *int     `json:"kcals_burned"`
	Notes          *string  `json:"notes"`
}

// Metrics is a raw wearable reading (hr_avg, sleep_hours, steps, ...).
type Metrics map[string]any

type Badge struct {
	Name     string `json:"name"`
	EarnedAt string `json:"earned_at"`
	Reason   string `json:"reason"`
}

// LogEntry is one audit record. Entries are never modified after append.
type LogEntry struct {
	ID        string         `json:"id"`
	Timestamp int64          `json:"ts"`
	Agent     string         `json:"agent"`
	Action    string         `json:"action"`
	Reason    string         `json:"reason"`
	Payload   map[string]any `json:"payload"`
}

// UserState is everything stored for one user.
type UserState struct {
	Profile   *Profile        `json:"profile"`
	Plans     Plans           `json:"plans"`
	Rules     string          `json:"rules"`
	Progress  []ProgressEntry `json:"progress"`
	Wearables []Metrics       `json:"wearables"`
	Badges    []Badge         `json:"badges"`
	Logs      []LogEntry      `json:"logs"`
}

// NewUserState returns the empty state a user starts with.
func NewUserState() *UserState {
	return &UserState{
		Plans: Plans{
			Workout:   []DayPlan{},
			Nutrition: []MealEntry{},
		},
		Progress:  []ProgressEntry{},
		Wearables: []Metrics{},
		Badges:    []Badge{},
		Logs:      []LogEntry{},
	}
}

// HasBadge reports whether a badge with the given name was already awarded.
func (s *UserState) HasBadge(name string) bool {
	for _, b := range s.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never share slices with the store.
func (s *UserState) Clone() *UserState {
	out := NewUserState()
	if s.Profile != nil {
		p := s.Profile.Clone()
		out.Profile = &p
	}
	out.Plans = s.Plans.Clone()
	out.Rules = s.Rules
	out.Progress = append(out.Progress, s.Progress...)
	for _, m := range s.Wearables {
		out.Wearables = append(out.Wearables, m.Clone())
	}
	out.Badges = append(out.Badges, s.Badges...)
	for _, e := range s.Logs {
		e.Payload = cloneMap(e.Payload)
		out.Logs = append(out.Logs, e)
	}
	return out
}

// IsZero reports whether no profile field is set.
func (p Profile) IsZero() bool {
	return p.Name == "" && p.Age == 0 && p.Goal == "" && p.Level == "" &&
		len(p.Preferences) == 0 && len(p.Constraints) == 0
}

func (p Profile) Clone() Profile {
	p.Preferences = append([]string{}, p.Preferences...)
	p.Constraints = append([]string{}, p.Constraints...)
	return p
}

func (p Plans) Clone() Plans {
	out := Plans{
		Workout:   make([]DayPlan, 0, len(p.Workout)),
		Nutrition: make([]MealEntry, 0, len(p.Nutrition)),
	}
	for _, d := range p.Workout {
		d.Exercises = append([]string{}, d.Exercises...)
		out.Workout = append(out.Workout, d)
	}
	for _, m := range p.Nutrition {
		m.NutritionInfo = m.NutritionInfo.Clone()
		out.Nutrition = append(out.Nutrition, m)
	}
	return out
}

func (m Metrics) Clone() Metrics {
	return Metrics(cloneMap(m))
}

// cloneMap copies in and every nested map or slice it holds.
func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Metrics:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = cloneMap(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
