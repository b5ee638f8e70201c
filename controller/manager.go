package controller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/wayang/inference"
	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned for unknown or malformed session IDs.
var ErrSessionNotFound = errors.New("session not found")

// ErrTooManySessions is returned by Create when the session cap is reached.
var ErrTooManySessions = errors.New("too many live sessions")

// Manager tracks the live sessions of the HTTP server.
type Manager struct {
	predictor inference.Predictor
	opts      Options

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a manager whose sessions share predictor and opts.
func NewManager(predictor inference.Predictor, opts Options) *Manager {
	return &Manager{
		predictor: predictor,
		opts:      opts,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Create opens a session. An empty name selects the configured default model.
//
// When MaxSessions is reached, idle sessions are swept first; if none expired
// ErrTooManySessions is returned.
func (m *Manager) Create(name model.Name) (*Session, error) {
	opts := m.opts
	if name != "" {
		opts.Model = name
	}
	s, err := NewSession(m.predictor, opts)
	if err != nil {
		return nil, err
	}

	if m.opts.MaxSessions > 0 && m.Len() >= m.opts.MaxSessions {
		m.Sweep(time.Now())
	}

	m.mu.Lock()
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.opts.Metrics.SessionOpened()
	logger.Info("live", "session %s opened with %s", s.ID, s.Model())
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Delete closes the session with the given ID.
func (m *Manager) Delete(id string) error {
	key, err := uuid.Parse(id)
	if err != nil {
		return ErrSessionNotFound
	}

	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	m.opts.Metrics.SessionClosed()
	logger.Info("live", "session %s closed after %d frames", s.ID, s.Frames())
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than IdleTimeout as of now.
//
// Returns:
//   - int: The number of sessions closed.
func (m *Manager) Sweep(now time.Time) int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.opts.IdleTimeout {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.opts.Metrics.SessionExpired()
		logger.Info("live", "session %s expired after %d frames", s.ID, s.Frames())
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is canceled.
func (m *Manager) Run(ctx context.Context) {
	if m.opts.IdleTimeout <= 0 {
		return
	}
	interval := max(m.opts.IdleTimeout/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}
