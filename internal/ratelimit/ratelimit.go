package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/aquascene/waitlist/internal/entity"
)

const (
	DefaultRequests = 5
	DefaultWindow   = time.Hour

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds the limiter settings.
type Config struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	Backend  string        `mapstructure:"backend"`
	Redis    RedisConfig   `mapstructure:"redis"`
}

// Limiter implements a simple in-memory fixed window rate limiter.
// Windows of idle clients are kept for the process lifetime.
type Limiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	window   time.Duration
	max      int
	now      func() time.Time
}

type counter struct {
	count   int
	resetAt time.Time
}

// NewLimiter creates a new rate limiter with the specified window and max requests
func NewLimiter(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultRequests
	}
	return &Limiter{
		counters: make(map[string]*counter),
		window:   window,
		max:      max,
		now:      time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check consumes one attempt for key if the current window still has room.
// A rejected attempt does not increment the counter.
func (l *Limiter) Check(_ context.Context, key string) (entity.Decision, error) {
	return l.check(key), nil
}

func (l *Limiter) check(key string) entity.Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	d := entity.Decision{Limit: l.max, Window: l.window}

	c, exists := l.counters[key]
	if !exists || now.After(c.resetAt) {
		l.counters[key] = &counter{
			count:   1,
			resetAt: now.Add(l.window),
		}
		d.Allowed = true
		d.Remaining = l.max - 1
		return d
	}

	if c.count >= l.max {
		d.RetryAfter = retryAfter(c.resetAt.Sub(now))
		return d
	}

	c.count++
	d.Allowed = true
	d.Remaining = l.max - c.count
	return d
}

// Allow checks if a request for the given key is allowed
func (l *Limiter) Allow(key string) bool {
	return l.check(key).Allowed
}

// GetRemaining returns the number of remaining requests for the given key
func (l *Limiter) GetRemaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.counters[key]
	if !exists || l.now().After(c.resetAt) {
		return l.max
	}

	remaining := l.max - c.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// retryAfter rounds up to whole seconds, never below one second.
func retryAfter(d time.Duration) time.Duration {
	secs := math.Ceil(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}
