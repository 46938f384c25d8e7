package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	client *redis.Client
	now    func() time.Time
	seq    uint64
}

var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local member = ARGV[2]
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])
local score = tonumber(ARGV[5])

redis.call("ZREMRANGEBYSCORE", key, "-inf", window_start)
local count = redis.call("ZCARD", key)
if count < limit then
  redis.call("ZADD", key, score, member)
  redis.call("PEXPIRE", key, window_ms)
  return {1, count + 1}
end
return {0, count}
`)

func NewRedisLimiter(addr, password string, db int, now func() time.Time) (Limiter, error) {
	if addr == "" {
		return nil, errors.New("ratelimit: redis addr is required")
	}
	if now == nil {
		now = time.Now
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisLimiter{client: client, now: now}, nil
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window <= 0 {
		window = time.Second
	}

	now := r.now()
	nowMillis := now.UnixMilli()
	windowStart := nowMillis - window.Milliseconds()
	member := fmt.Sprintf("%d-%d", nowMillis, atomic.AddUint64(&r.seq, 1))

	raw, err := slidingWindowScript.Run(ctx, r.client, []string{key},
		windowStart, member, limit, window.Milliseconds(), nowMillis).Result()
	if err != nil {
		return Decision{}, err
	}
	values, ok := raw.([]any)
	if !ok || len(values) < 2 {
		return Decision{}, errors.New("ratelimit: unexpected redis response")
	}
	admitted, ok := values[0].(int64)
	if !ok {
		return Decision{}, errors.New("ratelimit: invalid redis admission response")
	}
	count, ok := values[1].(int64)
	if !ok {
		return Decision{}, errors.New("ratelimit: invalid redis counter response")
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   admitted == 1,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}, nil
}
