// Package ratelimiter throttles API callers with one token bucket per
// client key (user id or remote address).
package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an unused client bucket is kept.
const DefaultIdleTTL = 10 * time.Minute

// RateLimiter keeps a token bucket per client key.
//
// Each key gets requestsPerSecond sustained and burst immediate requests.
// Buckets unused for longer than the idle TTL are dropped, which resets
// the client to a full bucket.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastPrune time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter granting each key requestsPerSecond sustained and
// burst immediate requests. requestsPerSecond = 0 disables limiting. A zero
// burst is raised to 1 so that a limited key can make progress at all.
func New(requestsPerSecond, burst uint) *RateLimiter {
	r := &RateLimiter{
		limit:   rate.Inf,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	if requestsPerSecond > 0 {
		r.limit = rate.Limit(requestsPerSecond)
		r.burst = int(max(burst, 1))
	}
	return r
}

// Enabled reports whether the limiter restricts anything.
func (r *RateLimiter) Enabled() bool {
	return r.limit != rate.Inf
}

// Allow reports whether key may make a request now, consuming a token if so.
func (r *RateLimiter) Allow(key string) bool {
	if !r.Enabled() {
		return true
	}
	now := r.now()
	return r.bucketFor(key, now).AllowN(now, 1)
}

// Blocked reports whether key has no token left, without consuming one.
// Keys never seen are not blocked and no bucket is created for them.
func (r *RateLimiter) Blocked(key string) bool {
	if !r.Enabled() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		return false
	}
	return b.limiter.TokensAt(r.now()) < 1
}

// Len returns the number of tracked keys.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

func (r *RateLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastPrune) >= r.idleTTL {
		for k, b := range r.buckets {
			if now.Sub(b.lastSeen) >= r.idleTTL {
				delete(r.buckets, k)
			}
		}
		r.lastPrune = now
	}

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}
