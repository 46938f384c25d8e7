package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]*tokenBucket
	maxKeys int
}

type tokenBucket struct {
	tokens     float64
	capacity   float64
	lastRefill time.Time
}

type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
}

func NewMemoryLimiter(cfg MemoryLimiterConfig) Limiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &memoryLimiter{
		now:     cfg.Now,
		buckets: make(map[string]*tokenBucket),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window <= 0 {
		window = time.Second
	}
	now := m.now()
	capacity := float64(limit)
	refillPerSecond := capacity / window.Seconds()

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.buckets[key]
	switch {
	case !ok:
		if len(m.buckets) >= m.maxKeys {
			m.evictFull(now, window)
		}
		if len(m.buckets) >= m.maxKeys {
			return Decision{}, errors.New("ratelimit: capacity exceeded")
		}
		bucket = &tokenBucket{tokens: capacity, capacity: capacity, lastRefill: now}
		m.buckets[key] = bucket
	default:
		bucket.capacity = capacity
		if elapsed := now.Sub(bucket.lastRefill).Seconds(); elapsed > 0 {
			bucket.tokens = minFloat(capacity, bucket.tokens+elapsed*refillPerSecond)
			bucket.lastRefill = now
		}
	}

	if bucket.tokens < 1 {
		return Decision{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   now.Add(secondsUntil(1-bucket.tokens, refillPerSecond)),
		}, nil
	}

	bucket.tokens--
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: int(bucket.tokens),
		ResetAt:   now.Add(secondsUntil(capacity-bucket.tokens, refillPerSecond)),
	}, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func secondsUntil(tokensNeeded, refillPerSecond float64) time.Duration {
	if refillPerSecond <= 0 || tokensNeeded <= 0 {
		return 0
	}
	return time.Duration(tokensNeeded / refillPerSecond * float64(time.Second))
}

func (m *memoryLimiter) evictFull(now time.Time, window time.Duration) {
	for key, bucket := range m.buckets {
		if bucket.tokens >= bucket.capacity && now.Sub(bucket.lastRefill) >= window {
			delete(m.buckets, key)
		}
	}
}
