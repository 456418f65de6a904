package state

import (
	"context"
	"sync"
)

type userSlot struct {
	mu    sync.Mutex
	state *UserState
}

// MemoryStore keeps user state in process memory. Each user has its own
// lock, so requests for different users never block each other.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userSlot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*userSlot)}
}

func (m *MemoryStore) slot(userID string) *userSlot {
	m.mu.RLock()
	s, ok := m.users[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.users[userID]; ok {
		return s
	}
	s = &userSlot{state: NewUserState()}
	m.users[userID] = s
	return s
}

func (m *MemoryStore) Get(ctx context.Context, userID string) (*UserState, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := m.slot(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, userID string, fn func(*UserState) error) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s := m.slot(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.Clone()
	if err := fn(work); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Users returns the number of users seen so far.
func (m *MemoryStore) Users() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
