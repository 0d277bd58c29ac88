// Package principal answers the single question the auth gate asks of the
// user database: does this principal still exist. A token must never be
// taken as proof of current existence.
package principal

import (
	"context"
	"sync"
)

// Store looks up principal existence. The lookup is the only blocking I/O
// on the authentication path and must honor ctx cancellation.
type Store interface {
	Exists(ctx context.Context, principalID string) (bool, error)
}

// Static is a fixed in-memory principal set for wiring examples and tests.
type Static struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewStatic returns a Static store seeded with ids.
func NewStatic(ids ...string) *Static {
	s := &Static{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Add registers a principal id.
func (s *Static) Add(id string) {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
}

// Remove deletes a principal id, simulating external account deletion.
func (s *Static) Remove(id string) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

func (s *Static) Exists(_ context.Context, principalID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[principalID]
	return ok, nil
}
