package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/aquascene/waitlist/internal/entity"
	"github.com/redis/go-redis/v9"
)

// RedisConfig is used when the limiter backend is "redis".
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// fixedWindow returns {allowed, count, pttl}. Rejected attempts are not counted.
var fixedWindow = redis.NewScript(`
local c = tonumber(redis.call('GET', KEYS[1]) or '0')
if c >= tonumber(ARGV[2]) then
  return {0, c, redis.call('PTTL', KEYS[1])}
end
c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {1, c, redis.call('PTTL', KEYS[1])}
`)

// RedisLimiter is a fixed window limiter shared by every process pointing at
// the same redis. Window expiry is delegated to key TTLs.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	prefix string
	window time.Duration
	max    int
}

// NewRedisLimiter wraps an existing client.
func NewRedisLimiter(rdb redis.UniversalClient, prefix string, window time.Duration, max int) *RedisLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultRequests
	}
	if prefix == "" {
		prefix = "waitlist:ratelimit:"
	}
	return &RedisLimiter{
		rdb:    rdb,
		prefix: prefix,
		window: window,
		max:    max,
	}
}

// Check implements the same contract as Limiter.Check.
func (rl *RedisLimiter) Check(ctx context.Context, key string) (entity.Decision, error) {
	d := entity.Decision{Limit: rl.max, Window: rl.window}

	res, err := fixedWindow.Run(ctx, rl.rdb, []string{rl.prefix + key}, rl.window.Milliseconds(), rl.max).Int64Slice()
	if err != nil {
		return d, fmt.Errorf("can't run rate limit script: %w", err)
	}
	if len(res) != 3 {
		return d, fmt.Errorf("unexpected rate limit script result: %v", res)
	}

	allowed, count, pttl := res[0] == 1, int(res[1]), time.Duration(res[2])*time.Millisecond
	if !allowed {
		if pttl <= 0 {
			pttl = rl.window
		}
		d.RetryAfter = retryAfter(pttl)
		return d, nil
	}

	d.Allowed = true
	d.Remaining = rl.max - count
	return d, nil
}

// Close closes the underlying client.
func (rl *RedisLimiter) Close() error {
	return rl.rdb.Close()
}
