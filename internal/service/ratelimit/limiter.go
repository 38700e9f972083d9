package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*rate.Limiter
	capacity int
	refill   rate.Limit // tokens per second
	now      func() time.Time
}

// New allows bursts of capacity requests per key, refilled at refillPerSec.
func New(capacity, refillPerSec float64) *Limiter {
	return &Limiter{
		m:        make(map[string]*rate.Limiter),
		capacity: max(1, int(capacity)),
		refill:   rate.Limit(refillPerSec),
		now:      time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.m[key]
	if !ok {
		b = rate.NewLimiter(l.refill, l.capacity)
		l.m[key] = b
	}
	l.mu.Unlock()
	return b.AllowN(l.now(), 1)
}
