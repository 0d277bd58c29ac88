package revoke

import (
	"context"
	"sync"
	"time"
)

// purgeEvery bounds how often a write triggers a full scan for expired
// records. Lookups never pay the scan cost.
const purgeEvery = 256

type record struct {
	principalID string
	expiresAt   time.Time
}

// Memory is a process-wide in-memory [Store]. Construct it once at service
// startup; entries decay via their own expiry. If the service runs as
// multiple instances, use the Redis or Postgres store instead.
type Memory struct {
	mu      sync.RWMutex
	records map[string]record
	writes  int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]record)}
}

// Revoke records tokenID as dishonored until expiresAt. Expired records are
// opportunistically purged on every purgeEvery-th write.
func (m *Memory) Revoke(_ context.Context, tokenID, principalID string, expiresAt time.Time) error {
	now := time.Now()
	if !expiresAt.After(now) {
		return ErrExpiryInPast
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[tokenID]; !ok {
		m.records[tokenID] = record{principalID: principalID, expiresAt: expiresAt}
	}
	m.writes++
	if m.writes%purgeEvery == 0 {
		m.purgeLocked(now)
	}
	return nil
}

// IsRevoked reports whether tokenID holds an unexpired revocation record.
// An expired record reads as not revoked; the token fails verification
// independently anyway.
func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	rec, ok := m.records[tokenID]
	m.mu.RUnlock()

	return ok && rec.expiresAt.After(time.Now()), nil
}

// Sweep removes all expired records and returns how many were purged.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purgeLocked(time.Now())
}

// StartSweeper runs Sweep every interval until ctx is done. Purging is an
// optimization, not a correctness requirement, so the sweeper is optional.
func (m *Memory) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// Len returns the number of records currently held, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Memory) purgeLocked(now time.Time) int {
	purged := 0
	for id, rec := range m.records {
		if !rec.expiresAt.After(now) {
			delete(m.records, id)
			purged++
		}
	}
	return purged
}
