package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a single-process limiter keeping the request timestamps of every
// identity. Old entries are purged lazily on each call; Sweep drops identities
// whose window became empty.
type Memory struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
	requests map[string][]time.Time
}

func NewMemory(limit int, window time.Duration, opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		limit:    limit,
		window:   window,
		now:      o.now,
		requests: make(map[string][]time.Time),
	}
}

func (m *Memory) Check(_ context.Context, identity string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	used := len(m.purge(identity, now))
	return newInfo(used, m.limit, now, m.window), nil
}

func (m *Memory) Record(_ context.Context, identity string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	entries := m.purge(identity, now)
	if len(entries) >= m.limit {
		return false, nil
	}
	m.requests[identity] = append(entries, now)
	return true, nil
}

func (m *Memory) Reset(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, identity)
	return nil
}

func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	st := Stats{TotalIdentities: len(m.requests), Limit: m.limit}
	for id := range m.requests {
		n := len(m.purge(id, now))
		st.TotalRequests += n
		if n > 0 {
			st.ActiveIdentities++
		}
	}
	return st, nil
}

// Sweep removes identities without requests in the current window and
// returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id := range m.requests {
		if len(m.purge(id, now)) == 0 {
			delete(m.requests, id)
			removed++
		}
	}
	return removed
}

// purge must be called with mu held.
func (m *Memory) purge(identity string, now time.Time) []time.Time {
	entries, ok := m.requests[identity]
	if !ok {
		return nil
	}
	cutoff := now.Add(-m.window)
	kept := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.requests[identity] = kept
	return kept
}
