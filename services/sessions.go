package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"audionav/logging"
	"audionav/metrics"
	"audionav/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SnapshotPublisher receives the snapshots of every session.
type SnapshotPublisher interface {
	PublishState(sessionID string, seq uint64, state types.BrowserState)
	CloseSession(sessionID string)
}

// NavigatorFactory builds a navigator for a new session.
type NavigatorFactory func(opts ...NavigatorOption) *Navigator

// Session is one browsing session with its own navigator.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	*Navigator `json:"-"`
}

// SessionManager owns the open browsing sessions.
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	factory   NavigatorFactory
	publisher SnapshotPublisher
}

// NewSessionManager creates a manager. publisher may be nil.
func NewSessionManager(factory NavigatorFactory, publisher SnapshotPublisher) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		factory:   factory,
		publisher: publisher,
	}
}

// Create opens a session and runs its initial volume discovery.
func (m *SessionManager) Create(ctx context.Context) *Session {
	id := uuid.New().String()

	var opts []NavigatorOption
	if m.publisher != nil {
		publisher := m.publisher
		opts = append(opts, WithListener(func(seq uint64, state types.BrowserState) {
			publisher.PublishState(id, seq, state)
		}))
	}

	session := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Navigator: m.factory(opts...),
	}

	m.mu.Lock()
	m.sessions[id] = session
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.SetSessionsActive(count)
	logging.WithContext(ctx).Info("session opened", zap.String("session", id))

	session.Init(ctx)
	return session
}

// Get retrieves a session by ID
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, exists := m.sessions[id]
	return session, exists
}

// List returns all sessions, oldest first.
func (m *SessionManager) List() []*Session {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// Close removes a session. It reports whether the session existed.
func (m *SessionManager) Close(ctx context.Context, id string) bool {
	m.mu.Lock()
	_, exists := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if !exists {
		return false
	}

	metrics.SetSessionsActive(count)
	if m.publisher != nil {
		m.publisher.CloseSession(id)
	}
	logging.WithContext(ctx).Info("session closed", zap.String("session", id))
	return true
}
