package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ops-agent/internal/domain"
)

const (
	defaultSessionTTL  = 30 * time.Minute
	maxTranscriptTurns = 200
)

type sessionEntry struct {
	mu       sync.Mutex
	state    *domain.SessionState
	lastSeen time.Time
}

// SessionRegistry keeps conversation state in memory for the lifetime of the
// process. Sessions idle for longer than the TTL are dropped.
type SessionRegistry struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*sessionEntry
}

func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionRegistry{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Acquire returns the session for id, creating it if it does not exist or
// has expired. An empty id starts a new session with a generated id. The
// session is locked until release is called.
func (r *SessionRegistry) Acquire(id string) (state *domain.SessionState, release func()) {
	r.mu.Lock()
	now := r.now()
	r.sweepLocked(now)
	if id == "" {
		id = newUUID()
	}
	e, ok := r.sessions[id]
	if !ok {
		e = &sessionEntry{state: domain.NewSessionState(id)}
		r.sessions[id] = e
	}
	e.lastSeen = now
	r.mu.Unlock()

	e.mu.Lock()
	return e.state, func() {
		trimTranscript(e.state)
		e.mu.Unlock()
	}
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

func (r *SessionRegistry) sweepLocked(now time.Time) int {
	removed := 0
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func trimTranscript(s *domain.SessionState) {
	if n := len(s.Transcript); n > maxTranscriptTurns {
		s.Transcript = append([]domain.ConversationTurn(nil), s.Transcript[n-maxTranscriptTurns:]...)
	}
}

var newUUID = func() string {
	return uuid.NewString()
}
