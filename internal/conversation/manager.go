package conversation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager keeps the live sessions of every channel keyed by session id.
type Manager struct {
	responder Responder
	cfg       Config
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty registry. Every session it creates shares r and
// cfg.
func NewManager(r Responder, cfg Config) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		responder: r,
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "session_manager"),
		sessions:  make(map[string]*Session),
	}
}

// Create starts a new session with a random id.
func (m *Manager) Create() *Session {
	s := NewSession(uuid.NewString(), m.responder, m.cfg)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Debug("Session created", "session_id", s.ID())
	return s
}

// Get returns the session with the given id or ErrSessionNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetOrCreate returns the session stored under id, creating it when missing.
// The boolean reports whether a new session was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, false
	}
	s = NewSession(id, m.responder, m.cfg)
	m.sessions[id] = s
	m.logger.Debug("Session created", "session_id", id)
	return s, true
}

// Dispose removes the session and cancels its pending replies.
func (m *Manager) Dispose(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Dispose()
	return nil
}

// SweepIdle disposes every session whose last activity is older than maxIdle
// and that has no reply pending. It returns the number of disposed sessions.
func (m *Manager) SweepIdle(maxIdle time.Duration) int {
	cutoff := m.cfg.Clock.Now().Add(-maxIdle)

	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.Pending() == 0 && s.LastActivity().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Dispose()
	}
	if len(idle) > 0 {
		m.logger.Info("Idle sessions disposed", "count", len(idle), "max_idle", maxIdle)
	}
	return len(idle)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close disposes every session. It is used on shutdown.
func (m *Manager) Close() int {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Dispose()
	}
	return len(all)
}
