package coach

import (
	"context"
	"math"

	"fitsymphony/internal/state"
)

const (
	scoreWindow   = 7
	targetMinutes = 30
	minSets       = 1
	maxSets       = 5
)

// AdherenceScore blends how often the user trained in their last seven
// logs with how many of those sessions reached 30 minutes. Result is in
// [0,100], rounded to one decimal.
func AdherenceScore(entries []state.ProgressEntry) float64 {
	if len(entries) > scoreWindow {
		entries = entries[len(entries)-scoreWindow:]
	}
	var mins []int
	for _, e := range entries {
		if e.WorkoutMinutes != nil {
			mins = append(mins, *e.WorkoutMinutes)
		}
	}
	if len(mins) == 0 {
		return 0
	}

	hits := 0
	for _, m := range mins {
		if m >= targetMinutes {
			hits++
		}
	}
	hitRatio := float64(hits) / float64(len(mins))
	freq := math.Min(float64(len(mins))/scoreWindow, 1)
	return round(50*hitRatio+50*freq, 1)
}

// AutoTuneSets moves the set count one step based on adherence and fatigue.
func AutoTuneSets(current int, score float64, fatigue bool) int {
	sets := current
	switch {
	case fatigue:
		sets--
	case score >= 80:
		sets++
	case score <= 40:
		sets--
	}
	return clampSets(sets)
}

func clampSets(n int) int {
	if n < minSets {
		return minSets
	}
	if n > maxSets {
		return maxSets
	}
	return n
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Scorer computes the adherence score from stored progress.
type Scorer struct {
	store state.Store
	audit Recorder
}

func NewScorer(store state.Store, audit Recorder) *Scorer {
	return &Scorer{store: store, audit: audit}
}

func (s *Scorer) Score(ctx context.Context, userID string) (float64, error) {
	st, err := s.store.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	score := AdherenceScore(st.Progress)
	if score > 0 {
		if _, err := s.audit.Record(ctx, userID, agentScoring, "adherence_score", "", map[string]any{"score": score}); err != nil {
			return 0, err
		}
	}
	return score, nil
}
