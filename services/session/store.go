package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tailortalk/models"
	"tailortalk/utils"
)

// Session holds one conversation's state. History lives only in process
// memory; restarting the server starts every conversation over.
//
// The embedded mutex serializes turns on the same session: a handler
// locks the session for the full duration of a turn so concurrent
// requests with the same ID cannot interleave half-updated histories.
type Session struct {
	sync.Mutex

	ID         string
	History    []models.Turn
	CreatedAt  time.Time
	lastActive time.Time
}

// Store tracks live sessions by ID.
type Store interface {
	// GetOrCreate returns the session for id, creating it when missing.
	// An empty id mints a fresh session with a new UUID. The second
	// return reports whether the session was created by this call.
	GetOrCreate(id string) (*Session, bool)

	// Get returns the session for id if it exists.
	Get(id string) (*Session, bool)

	// Delete removes the session for id, reporting whether it existed.
	Delete(id string) bool

	// Len returns the number of live sessions.
	Len() int

	// Stop halts the expiry janitor.
	Stop()
}

// DefaultStore implements Store with an in-memory map and a background
// janitor that drops sessions idle for longer than the TTL.
type DefaultStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	ttl      time.Duration
	janitor  *time.Ticker
	done     chan struct{}
}

func NewDefaultStore(ttl time.Duration) *DefaultStore {
	s := &DefaultStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		janitor:  time.NewTicker(10 * time.Minute),
		done:     make(chan struct{}),
	}
	go s.reapExpired()
	return s
}

func (s *DefaultStore) GetOrCreate(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			sess.lastActive = time.Now()
			return sess, false
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now()
	sess := &Session{
		ID:         id,
		CreatedAt:  now,
		lastActive: now,
	}
	s.sessions[id] = sess
	utils.ActiveSessions.Set(float64(len(s.sessions)))
	return sess, true
}

func (s *DefaultStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if ok {
		sess.lastActive = time.Now()
	}
	return sess, ok
}

func (s *DefaultStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	utils.ActiveSessions.Set(float64(len(s.sessions)))
	return true
}

func (s *DefaultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// reapExpired periodically removes sessions idle past the TTL.
func (s *DefaultStore) reapExpired() {
	for {
		select {
		case <-s.janitor.C:
			if expired := s.sweep(time.Now()); expired > 0 {
				utils.GetLogger().Info("Cleaned up expired sessions", zap.Int("count", expired))
			}
		case <-s.done:
			return
		}
	}
}

// sweep drops sessions idle past the TTL and returns how many went.
func (s *DefaultStore) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastActive) > s.ttl {
			delete(s.sessions, id)
			expired++
		}
	}
	utils.ActiveSessions.Set(float64(len(s.sessions)))
	return expired
}

// Stop halts the janitor goroutine. Safe to call once.
func (s *DefaultStore) Stop() {
	s.janitor.Stop()
	close(s.done)
}
