// Package session keeps the mapping from opaque tokens to logged-in users.
// The store is shared by every connection goroutine, so all operations are
// guarded by a mutex. Sessions live in memory only: they disappear when the
// process exits, and immediately when Delete is called at logout.
package session

import (
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticket-server/internal/utils"
)

// User is the identity snapshot bound to a token at login time.
type User struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type entry struct {
	user      User
	createdAt time.Time
}

// Store maps tokens to users. TTL bounds how long a token stays valid;
// zero means tokens never expire (the historical behaviour).
type Store struct {
	mu     sync.RWMutex
	ttl    time.Duration
	tokens map[string]entry
}

// New returns an empty store. ttl <= 0 disables expiry.
func New(ttl time.Duration) *Store {
	return &Store{ttl: ttl, tokens: make(map[string]entry)}
}

// Create registers a new session for the user and returns its token:
// 128 bits of secure randomness rendered as 32 hex characters, so
// collisions are statistically impossible.
func (s *Store) Create(u User) (string, error) {
	token, err := utils.RandomHex(16)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.tokens[token] = entry{user: u, createdAt: time.Now()}
	s.mu.Unlock()
	return token, nil
}

// Lookup resolves a token to its user. Expired tokens are dropped lazily
// and reported as absent.
func (s *Store) Lookup(token string) (User, bool) {
	s.mu.RLock()
	e, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return User{}, false
	}
	if s.ttl > 0 && time.Since(e.createdAt) > s.ttl {
		s.Delete(token)
		return User{}, false
	}
	return e.user, true
}

// Delete removes a session. Deleting an unknown token is a no-op.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// Len reports the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
