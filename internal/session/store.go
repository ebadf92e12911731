// Package session keeps each UI session's state in memory, isolated from
// every other session, and evicts sessions that have been idle too long.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned for an unknown or expired session ID.
var ErrNotFound = errors.New("session not found")

// Store maps session IDs to their state.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*State
}

// NewStore returns an empty store whose sessions expire after ttl without
// access.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*State),
	}
}

// Create starts a new session.
func (s *Store) Create() *State {
	id := uuid.NewString()
	st := newState(id, s.now())

	s.mu.Lock()
	s.sessions[id] = st
	s.mu.Unlock()

	return st
}

// Get returns the session and marks it as used.
func (s *Store) Get(id string) (*State, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok || s.expired(st, now) {
		return nil, ErrNotFound
	}
	st.lastSeen = now
	return st, nil
}

// Delete ends a session. Unknown IDs are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions, expired ones included until the
// next sweep.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, st := range s.sessions {
		if s.expired(st, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps at the given interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				lg.Debug("Expired sessions removed", zap.Int("count", n), zap.Int("live", s.Len()))
			}
		}
	}
}

// expired must be called with s.mu held.
func (s *Store) expired(st *State, now time.Time) bool {
	return s.ttl > 0 && now.Sub(st.lastSeen) > s.ttl
}
