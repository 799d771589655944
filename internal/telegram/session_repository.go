package telegram

import (
	"sync"
	"time"
)

// Session tracks a user's most recent analysis so follow-up commands can
// reference it without triggering a new adapter invocation.
type Session struct {
	UserID     string
	AnalysisID string
	DishTitle  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// SessionRepository provides access to per-user session state. One active
// session per user; writes replace the previous one.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionRepository creates a SessionRepository with the given session
// lifetime.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Put records the user's latest analysis, replacing any previous session.
func (sr *SessionRepository) Put(userID, analysisID, dishTitle string) {
	now := time.Now()
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.sessions[userID] = &Session{
		UserID:     userID,
		AnalysisID: analysisID,
		DishTitle:  dishTitle,
		CreatedAt:  now,
		ExpiresAt:  now.Add(sr.ttl),
	}
}

// GetActive retrieves the user's session if it has not expired.
func (sr *SessionRepository) GetActive(userID string, now time.Time) (*Session, bool) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	session, ok := sr.sessions[userID]
	if !ok || now.After(session.ExpiresAt) {
		return nil, false
	}
	return session, true
}

// Delete removes the user's session.
func (sr *SessionRepository) Delete(userID string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	delete(sr.sessions, userID)
}

// CleanupExpired removes all expired sessions and returns how many were
// dropped.
func (sr *SessionRepository) CleanupExpired(now time.Time) int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	removed := 0
	for userID, session := range sr.sessions {
		if now.After(session.ExpiresAt) {
			delete(sr.sessions, userID)
			removed++
		}
	}
	return removed
}
