package tokenguard

import (
	"context"
	"sync"
	"time"
)

// Guard is an in-memory implementation of tokenguard.Guard.
// It is safe for concurrent use. Entries are pruned lazily on Consume.
type Guard struct {
	mu  sync.Mutex
	m   map[string]time.Time
	now func() time.Time
}

func NewGuard() *Guard {
	return &Guard{
		m:   make(map[string]time.Time),
		now: time.Now,
	}
}

// NewGuardWithNow exists for deterministic expiry tests.
func NewGuardWithNow(now func() time.Time) *Guard {
	g := NewGuard()
	g.now = now
	return g
}

func (g *Guard) Consume(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for t, exp := range g.m {
		if now.After(exp) {
			delete(g.m, t)
		}
	}

	if _, ok := g.m[token]; ok {
		return false, nil
	}
	g.m[token] = now.Add(ttl)
	return true, nil
}
