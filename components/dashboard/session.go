package dashboard

import (
	"context"
	"sync"
	"time"
)

// SessionState is the per-browser state shared between renders.
type SessionState struct {
	Question   string        `json:"question,omitempty"`
	AIResponse *ChatResponse `json:"ai_response,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// HasAIResponse reports whether stage one of the visualization flow succeeded.
func (s SessionState) HasAIResponse() bool {
	return s.AIResponse != nil && s.AIResponse.ID != ""
}

// SessionStore keeps SessionState per viewer.
type SessionStore interface {
	Load(ctx context.Context, viewer ViewerContext) (SessionState, error)
	Save(ctx context.Context, viewer ViewerContext, state SessionState) error
	Delete(ctx context.Context, viewer ViewerContext) error
}

// InMemorySessionStore provides a concurrency-safe default store. Sessions
// idle for longer than the TTL are dropped on access.
type InMemorySessionStore struct {
	ttl  time.Duration
	now  func() time.Time
	mu   sync.RWMutex
	data map[string]SessionState
}

// NewInMemorySessionStore creates an empty session store. A non-positive
// TTL keeps sessions until they are deleted.
func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	return &InMemorySessionStore{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[string]SessionState),
	}
}

// Load returns the stored state or an empty one.
func (s *InMemorySessionStore) Load(_ context.Context, viewer ViewerContext) (SessionState, error) {
	if viewer.SessionID == "" {
		return SessionState{}, nil
	}
	s.mu.RLock()
	state, ok := s.data[viewer.SessionID]
	s.mu.RUnlock()
	if !ok {
		return SessionState{}, nil
	}
	if s.expired(state) {
		s.mu.Lock()
		delete(s.data, viewer.SessionID)
		s.mu.Unlock()
		return SessionState{}, nil
	}
	return state, nil
}

// Save persists state for a viewer.
func (s *InMemorySessionStore) Save(_ context.Context, viewer ViewerContext, state SessionState) error {
	if viewer.SessionID == "" {
		return errMissingSession
	}
	state.UpdatedAt = s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[viewer.SessionID] = state
	return nil
}

// Delete drops the viewer's state.
func (s *InMemorySessionStore) Delete(_ context.Context, viewer ViewerContext) error {
	if viewer.SessionID == "" {
		return errMissingSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, viewer.SessionID)
	return nil
}

func (s *InMemorySessionStore) expired(state SessionState) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(state.UpdatedAt) > s.ttl
}
