package state

import (
	"context"
	"errors"
)

// DefaultMaxLogEntries bounds the per-user audit trail when no limit is configured.
const DefaultMaxLogEntries = 1000

var ErrEmptyUserID = errors.New("user id is required")

// Store owns all per-user data. Get returns a private copy; Update runs fn
// with exclusive access to one user's state and commits only if fn succeeds.
type Store interface {
	Get(ctx context.Context, userID string) (*UserState, error)
	Update(ctx context.Context, userID string, fn func(*UserState) error) error
}

// SetProfile replaces the stored profile.
func SetProfile(ctx context.Context, s Store, userID string, p Profile) error {
	return s.Update(ctx, userID, func(st *UserState) error {
		cp := p.Clone()
		st.Profile = &cp
		return nil
	})
}

// SetPlans overwrites both plans.
func SetPlans(ctx context.Context, s Store, userID string, plans Plans) error {
	return s.Update(ctx, userID, func(st *UserState) error {
		st.Plans = plans.Clone()
		return nil
	})
}

func SetRules(ctx context.Context, s Store, userID, rules string) error {
	return s.Update(ctx, userID, func(st *UserState) error {
		st.Rules = rules
		return nil
	})
}

func AppendProgress(ctx context.Context, s Store, userID string, e ProgressEntry) error {
	return s.Update(ctx, userID, func(st *UserState) error {
		st.Progress = append(st.Progress, e)
		return nil
	})
}

func AppendWearable(ctx context.Context, s Store, userID string, m Metrics) error {
	return s.Update(ctx, userID, func(st *UserState) error {
		st.Wearables = append(st.Wearables, m.Clone())
		return nil
	})
}

// AppendLog adds an audit entry, keeping at most max entries (0 = unbounded).
func AppendLog(ctx context.Context, s Store, userID string, e LogEntry, max int) error {
	return s.Update(ctx, userID, func(st *UserState) error {
		st.Logs = append(st.Logs, e)
		if max > 0 && len(st.Logs) > max {
			st.Logs = append([]LogEntry{}, st.Logs[len(st.Logs)-max:]...)
		}
		return nil
	})
}

// AwardBadge appends b unless a badge with the same name exists.
// It reports whether the badge was added.
func AwardBadge(ctx context.Context, s Store, userID string, b Badge) (bool, error) {
	added := false
	err := s.Update(ctx, userID, func(st *UserState) error {
		if st.HasBadge(b.Name) {
			return nil
		}
		st.Badges = append(st.Badges, b)
		added = true
		return nil
	})
	return added, err
}
