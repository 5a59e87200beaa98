package session

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"studyvault-backend/internal/engine"
	"studyvault-backend/internal/logger"
)

// EngineFactory builds a fresh study engine for a new session.
type EngineFactory func() *engine.StudyEngine

type entry struct {
	engine   *engine.StudyEngine
	lastSeen time.Time
}

// Manager owns one StudyEngine per session id. Engines hold the session's
// memory index and chat history, so they live exactly as long as the session:
// idle sessions past the TTL are collected by a scheduled sweep.
type Manager struct {
	factory   EngineFactory
	ttl       time.Duration
	scheduler *gocron.Scheduler

	mu       sync.RWMutex
	sessions map[string]*entry
}

func NewManager(factory EngineFactory, ttl time.Duration) *Manager {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &Manager{
		factory:   factory,
		ttl:       ttl,
		scheduler: s,
		sessions:  make(map[string]*entry),
	}
}

// Start begins the background cleanup sweep.
func (m *Manager) Start() error {
	interval := m.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	if _, err := m.scheduler.Every(interval).Tag("session-cleanup").Do(m.Cleanup); err != nil {
		return err
	}
	m.scheduler.StartAsync()
	return nil
}

// Stop halts the cleanup sweep.
func (m *Manager) Stop() {
	m.scheduler.Stop()
}

// NewSession issues a session id and its engine.
func (m *Manager) NewSession() string {
	id := uuid.New().String()

	m.mu.Lock()
	m.sessions[id] = &entry{engine: m.factory(), lastSeen: time.Now()}
	m.mu.Unlock()

	logger.Debug("Session created", "session_id", id)
	return id
}

// Engine returns the engine for id, creating the session if the id is
// unknown (clients may persist ids across server restarts). Touches the
// session's idle timer.
func (m *Manager) Engine(id string) *engine.StudyEngine {
	m.mu.RLock()
	if e, ok := m.sessions[id]; ok {
		m.mu.RUnlock()
		m.touch(id)
		return e.engine
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = time.Now()
		return e.engine
	}

	e := &entry{engine: m.factory(), lastSeen: time.Now()}
	m.sessions[id] = e
	logger.Debug("Session restored", "session_id", id)
	return e.engine
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup drops sessions idle past the TTL.
func (m *Manager) Cleanup() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	removed := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	m.mu.Unlock()

	if removed > 0 {
		logger.Info("Idle sessions evicted", "count", removed)
	}
}

func (m *Manager) touch(id string) {
	m.mu.Lock()
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = time.Now()
	}
	m.mu.Unlock()
}
