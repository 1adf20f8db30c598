// ABOUTME: In-memory session store with TTL cleanup and capacity limits
// ABOUTME: Thread-safe storage for the models currently open in the editor

package editor

import (
	"sync"
	"time"

	"github.com/2389-research/galton/model"
)

// DefaultMaxSessions caps concurrently open models before the oldest is evicted.
const DefaultMaxSessions = 100

// DefaultSessionTTL is how long an idle session survives between cleanups.
const DefaultSessionTTL = time.Hour

type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	ttl         time.Duration
}

// NewStore creates a new session store
func NewStore(maxSessions int, ttl time.Duration) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		ttl:         ttl,
	}
}

// Create opens a session for an already parsed model. At capacity the
// least recently accessed session is evicted first.
func (s *Store) Create(m *model.Model) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSessions {
		var oldestID string
		var oldestTime time.Time
		for id, sess := range s.sessions {
			if oldestTime.IsZero() || sess.LastAccess.Before(oldestTime) {
				oldestID = id
				oldestTime = sess.LastAccess
			}
		}
		delete(s.sessions, oldestID)
	}

	sess := newSession(m)
	s.sessions[sess.ID] = sess
	return sess
}

// Get retrieves a session by ID and updates its LastAccess time
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	sess.LastAccess = time.Now()
	return sess, true
}

// Remove closes a session and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup removes sessions older than TTL
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.LastAccess.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// StartCleanup launches a background goroutine that runs Cleanup on the
// given interval. The returned function stops it.
func (s *Store) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}
