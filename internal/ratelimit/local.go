package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type localEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// Local is a per-key token bucket pool. Idle buckets are swept lazily.
type Local struct {
	mu        sync.Mutex
	m         map[string]*localEntry
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLocal allows perMinute requests per key per minute, with bursts up to perMinute.
func NewLocal(perMinute int) *Local {
	return &Local{
		m:     make(map[string]*localEntry),
		limit: rate.Every(time.Minute / time.Duration(perMinute)),
		burst: perMinute,
		ttl:   10 * time.Minute,
		now:   time.Now,
	}
}

func (p *Local) Allow(_ context.Context, key string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Sub(p.lastSweep) > p.ttl {
		for k, e := range p.m {
			if now.Sub(e.lastSeen) > p.ttl {
				delete(p.m, k)
			}
		}
		p.lastSweep = now
	}

	e, ok := p.m[key]
	if !ok {
		e = &localEntry{l: rate.NewLimiter(p.limit, p.burst)}
		p.m[key] = e
	}
	e.lastSeen = now
	return e.l.AllowN(now, 1), nil
}

func (p *Local) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}
