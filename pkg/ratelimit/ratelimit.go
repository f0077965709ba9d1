package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting
type RateLimiter interface {
	// Allow checks if the request is allowed for the given key and limit
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit defines the rate limit rule
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RedisRateLimiter implements RateLimiter using Redis, shared by all replicas
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter creates a new RedisRateLimiter
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
	}
}

// Allow checks if the request is allowed
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}

// DefaultIdleTTL is how long an unused local bucket is kept
const DefaultIdleTTL = 10 * time.Minute

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	// refill is the time an empty bucket needs to become full again
	refill time.Duration
}

// LocalRateLimiter implements RateLimiter with an in-process token bucket per key.
// Buckets idle for longer than both the idle TTL and their refill time are evicted,
// since a fresh bucket would behave the same way.
type LocalRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*localBucket
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalRateLimiter creates a new LocalRateLimiter with DefaultIdleTTL
func NewLocalRateLimiter() *LocalRateLimiter {
	return NewLocalRateLimiterWithIdleTTL(DefaultIdleTTL)
}

// NewLocalRateLimiterWithIdleTTL creates a LocalRateLimiter that evicts buckets idle for idleTTL
func NewLocalRateLimiterWithIdleTTL(idleTTL time.Duration) *LocalRateLimiter {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &LocalRateLimiter{
		buckets: make(map[string]*localBucket),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow checks if the request is allowed
func (l *LocalRateLimiter) Allow(_ context.Context, key string, limit Limit) (*Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 || limit.Burst <= 0 {
		return nil, fmt.Errorf("invalid rate limit: %+v", limit)
	}
	every := rate.Every(limit.Period / time.Duration(limit.Rate))
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{
			limiter: rate.NewLimiter(every, limit.Burst),
			refill:  time.Duration(float64(limit.Burst) / float64(every) * float64(time.Second)),
		}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	lim := b.limiter
	res := &Result{Allowed: lim.AllowN(now, 1)}
	tokens := lim.TokensAt(now)
	res.Remaining = int(math.Max(0, math.Floor(tokens)))
	if !res.Allowed {
		missing := 1 - tokens
		res.RetryAfter = time.Duration(missing / float64(every) * float64(time.Second))
	}
	res.ResetAfter = time.Duration((float64(limit.Burst) - tokens) / float64(every) * float64(time.Second))
	return res, nil
}

// Len returns the number of live buckets
func (l *LocalRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep must be called with l.mu held
func (l *LocalRateLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if idle := now.Sub(b.lastSeen); idle > l.idleTTL && idle > b.refill {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
