package audit

import (
	"context"
	"time"

	"fitsymphony/internal/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives every audit entry after it is stored, e.g. to forward it
// to a message bus for long-term retention.
type Sink interface {
	Publish(ctx context.Context, userID string, entry state.LogEntry) error
}

// Log appends agent actions to the per-user audit trail.
type Log struct {
	store      state.Store
	sink       Sink
	maxEntries int
	logger     *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates an audit log over store keeping at most maxEntries per user
// (0 = unbounded). sink may be nil.
func New(store state.Store, maxEntries int, sink Sink, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{
		store:      store,
		sink:       sink,
		maxEntries: maxEntries,
		logger:     logger.Named("audit"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Record stores one entry. Sink failures are logged and dropped; only a
// store failure is returned.
func (l *Log) Record(ctx context.Context, userID, agent, action, reason string, payload map[string]any) (state.LogEntry, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	entry := state.LogEntry{
		ID:        l.newID(),
		Timestamp: l.now().Unix(),
		Agent:     agent,
		Action:    action,
		Reason:    reason,
		Payload:   payload,
	}
	if err := state.AppendLog(ctx, l.store, userID, entry, l.maxEntries); err != nil {
		l.logger.Error("append failed",
			zap.String("user_id", userID),
			zap.String("agent", agent),
			zap.String("action", action),
			zap.Error(err))
		return entry, err
	}
	l.logger.Debug("recorded",
		zap.String("user_id", userID),
		zap.String("agent", agent),
		zap.String("action", action))

	if l.sink != nil {
		if err := l.sink.Publish(ctx, userID, entry); err != nil {
			l.logger.Warn("sink publish failed", zap.String("entry_id", entry.ID), zap.Error(err))
		}
	}
	return entry, nil
}

// Recent returns the last n entries for a user, oldest first.
func Recent(logs []state.LogEntry, n int) []state.LogEntry {
	if n <= 0 || len(logs) <= n {
		return logs
	}
	return logs[len(logs)-n:]
}
