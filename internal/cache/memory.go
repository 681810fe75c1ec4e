package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type entry struct {
	value   decimal.Decimal
	expires time.Time
}

// Memory is an in-process Store
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key if it has not expired
func (m *Memory) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return decimal.Zero, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expires.Equal(e.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return decimal.Zero, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key. A ttl <= 0 never expires.
func (m *Memory) Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet evicted
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
