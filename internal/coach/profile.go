package coach

import (
	"context"
	"strings"

	"fitsymphony/internal/state"
)

const (
	minAge = 12
	maxAge = 100
)

// ValidateProfile checks required fields and the age range and returns the
// profile with names trimmed and nil lists replaced by empty ones.
func ValidateProfile(p state.Profile) (state.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Goal = strings.TrimSpace(p.Goal)
	p.Level = strings.TrimSpace(p.Level)
	switch {
	case p.Name == "":
		return p, invalidf("profile.name is required")
	case p.Goal == "":
		return p, invalidf("profile.goal is required")
	case p.Level == "":
		return p, invalidf("profile.level is required")
	case p.Age < minAge || p.Age > maxAge:
		return p, invalidf("profile.age must be between %d and %d, got %d", minAge, maxAge, p.Age)
	}
	if p.Preferences == nil {
		p.Preferences = []string{}
	}
	if p.Constraints == nil {
		p.Constraints = []string{}
	}
	return p, nil
}

// ProfileStore validates and replaces user profiles.
type ProfileStore struct {
	store state.Store
	audit Recorder
}

func NewProfileStore(store state.Store, audit Recorder) *ProfileStore {
	return &ProfileStore{store: store, audit: audit}
}

// Upsert replaces the whole profile; fields are never merged.
func (s *ProfileStore) Upsert(ctx context.Context, userID string, p state.Profile) (state.Profile, error) {
	p, err := ValidateProfile(p)
	if err != nil {
		return p, err
	}
	if err := state.SetProfile(ctx, s.store, userID, p); err != nil {
		return p, err
	}
	_, err = s.audit.Record(ctx, userID, agentProfile, "upsert_profile", "", toPayload(p))
	return p, err
}

// Get returns the stored profile or nil.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*state.Profile, error) {
	st, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st.Profile, nil
}
