package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fitsymphony/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []state.LogEntry
	err     error
}

func (s *recordingSink) Publish(_ context.Context, _ string, e state.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

func newTestLog(store state.Store, max int, sink Sink) *Log {
	l := New(store, max, sink, nil)
	n := 0
	l.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	l.now = func() time.Time { return time.Unix(1700000000, 0) }
	return l
}

func TestRecord_AppendsEntry(t *testing.T) {
	store := state.NewMemoryStore()
	sink := &recordingSink{}
	l := newTestLog(store, 0, sink)

	e, err := l.Record(context.Background(), "u1", "WorkoutAgent", "generate_plan", "beginner", map[string]any{"days": 3})
	require.NoError(t, err)
	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, int64(1700000000), e.Timestamp)

	st, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, st.Logs, 1)
	assert.Equal(t, "WorkoutAgent", st.Logs[0].Agent)
	assert.Equal(t, 3, st.Logs[0].Payload["days"])
	assert.Len(t, sink.entries, 1)
}

func TestRecord_NilPayloadBecomesEmpty(t *testing.T) {
	l := newTestLog(state.NewMemoryStore(), 0, nil)
	e, err := l.Record(context.Background(), "u1", "A", "b", "", nil)
	require.NoError(t, err)
	assert.NotNil(t, e.Payload)
}

func TestRecord_SinkErrorIgnored(t *testing.T) {
	store := state.NewMemoryStore()
	l := newTestLog(store, 0, &recordingSink{err: errors.New("bus down")})

	_, err := l.Record(context.Background(), "u1", "A", "b", "", nil)
	require.NoError(t, err)
	st, _ := store.Get(context.Background(), "u1")
	assert.Len(t, st.Logs, 1)
}

func TestRecord_RetentionDropsOldest(t *testing.T) {
	store := state.NewMemoryStore()
	l := newTestLog(store, 3, nil)
	for i := 0; i < 5; i++ {
		_, err := l.Record(context.Background(), "u1", "A", fmt.Sprintf("act-%d", i), "", nil)
		require.NoError(t, err)
	}
	st, _ := store.Get(context.Background(), "u1")
	require.Len(t, st.Logs, 3)
	assert.Equal(t, "act-2", st.Logs[0].Action)
	assert.Equal(t, "act-4", st.Logs[2].Action)
}

func TestRecord_EmptyUser(t *testing.T) {
	l := newTestLog(state.NewMemoryStore(), 0, nil)
	_, err := l.Record(context.Background(), "", "A", "b", "", nil)
	assert.ErrorIs(t, err, state.ErrEmptyUserID)
}

func TestRecent(t *testing.T) {
	logs := []state.LogEntry{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	assert.Len(t, Recent(logs, 10), 3)
	got := Recent(logs, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Len(t, Recent(logs, 0), 3)
}
