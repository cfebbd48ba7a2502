// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Store increments a keyed counter that expires at the end of its window and
// returns the count after the increment. Implementations shared by several
// server instances must perform the increment atomically.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
}

// Limiter allows at most Limit attempts per key in each fixed window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

func NewLimiter(s Store, limit int, window time.Duration) (*Limiter, error) {
	if s == nil {
		return nil, errors.New("ratelimit: store is required")
	}
	if limit < 1 {
		return nil, errors.New("ratelimit: limit must be at least 1")
	}
	if window <= 0 {
		return nil, errors.New("ratelimit: window must be positive")
	}
	return &Limiter{store: s, limit: limit, window: window}, nil
}

// Allow counts one attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return false, err
	}
	return n <= l.limit, nil
}

// Sweeper is implemented by stores that can drop expired counters.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// RunSweeper drops expired counters once per window until ctx is done. It
// returns at once if the store keeps nothing to sweep.
func (l *Limiter) RunSweeper(ctx context.Context) {
	sw, ok := l.store.(Sweeper)
	if !ok {
		return
	}

	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sw.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("rate limit sweep failed", "error", err)
				}
				continue
			}
			if n > 0 {
				slog.Debug("rate limit counters expired", "count", n)
			}
		}
	}
}

// MemoryStore keeps counters in process memory. It is only correct for a
// single server instance; use TarantoolStore when running more than one.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = memoryEntry{expiresAt: now.Add(window)}
	}
	e.count++
	m.entries[key] = e
	return e.count, nil
}

// Sweep deletes counters whose window has ended and returns how many.
func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for k, v := range m.entries {
		if !now.Before(v.expiresAt) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}
