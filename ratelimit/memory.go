package ratelimit

import (
	"context"
	"sync"
	"time"
)

// evictEvery bounds how often a consume triggers a scan for dead entries.
const evictEvery = 512

type entry struct {
	points       int
	windowEnd    time.Time
	blockedUntil time.Time
}

// Memory is a process-wide in-memory [Limiter]. All consumption for a key
// happens under one lock, so increment-then-check is atomic per key.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*entry
	consumes int
}

// NewMemory returns an empty in-memory limiter.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*entry)}
}

// Consume spends one point from the (tier, key) budget.
func (m *Memory) Consume(_ context.Context, tier Tier, key string) (Result, error) {
	now := time.Now()
	mapKey := tier.Name + "\x00" + key

	m.mu.Lock()
	defer m.mu.Unlock()

	m.consumes++
	if m.consumes%evictEvery == 0 {
		m.evictLocked(now)
	}

	e, ok := m.entries[mapKey]
	if !ok {
		e = &entry{}
		m.entries[mapKey] = e
	}

	if e.blockedUntil.After(now) {
		return blockedResult(e.blockedUntil, now), nil
	}

	if !e.windowEnd.After(now) {
		e.points = 0
		e.windowEnd = now.Add(tier.Window)
	}

	e.points++
	if e.points > tier.Points {
		// Deterrent policy: the block replaces the window entirely.
		e.blockedUntil = now.Add(tier.Block)
		return blockedResult(e.blockedUntil, now), nil
	}

	return Result{
		Allowed:   true,
		Remaining: tier.Points - e.points,
		ResetAt:   e.windowEnd,
	}, nil
}

func blockedResult(until, now time.Time) Result {
	return Result{
		Allowed:    false,
		Remaining:  0,
		ResetAt:    until,
		RetryAfter: until.Sub(now),
	}
}

func (m *Memory) evictLocked(now time.Time) {
	for k, e := range m.entries {
		if !e.windowEnd.After(now) && !e.blockedUntil.After(now) {
			delete(m.entries, k)
		}
	}
}
