// Package ratelimit throttles clients with token buckets from
// golang.org/x/time/rate.
package ratelimit

import (
	"math"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ryanbekhen/arus"
)

// Config holds the configuration settings for rate limiting, such as requests per duration, burst size, and expiration time.
type Config struct {
	Requests  int           // Max requests per duration
	Burst     int           // Burst size, defaults to Requests
	Duration  time.Duration // Duration window (e.g., 1 minute)
	ExpiresIn time.Duration // Visitor entry expiration

	// KeyFunc identifies the client. Default: the client IP.
	KeyFunc func(c *arus.Ctx) string
}

// DefaultConfig returns a Config object with default rate limiting settings:
// 1 request per second and a 1-hour expiration time.
func DefaultConfig() Config {
	return Config{
		Requests:  1,
		Burst:     1,
		Duration:  time.Second,
		ExpiresIn: time.Hour,
		KeyFunc:   func(c *arus.Ctx) string { return c.IP() },
	}
}

// ErrLimiter is the default HTTP error returned when a client exceeds the rate limit.
var ErrLimiter = arus.NewHttpError(arus.StatusTooManyRequests, "limit reached")

// visitor represents a client with a rate limiter and the last recorded activity time.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks one token bucket per client key.
type Limiter struct {
	cfg      Config
	interval time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a Limiter and starts its janitor, which removes
// visitors idle for longer than ExpiresIn.
func NewLimiter(config ...Config) *Limiter {
	cfg := DefaultConfig()
	if len(config) > 0 {
		c := config[0]
		if c.Requests > 0 {
			cfg.Requests = c.Requests
		}
		if c.Duration > 0 {
			cfg.Duration = c.Duration
		}
		if c.ExpiresIn > 0 {
			cfg.ExpiresIn = c.ExpiresIn
		}
		if c.KeyFunc != nil {
			cfg.KeyFunc = c.KeyFunc
		}
		cfg.Burst = c.Burst
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Requests
	}

	l := &Limiter{
		cfg:      cfg,
		interval: cfg.Duration / time.Duration(cfg.Requests),
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
	}
	go l.janitor()
	return l
}

// New creates rate limiting middleware with its own visitor table.
func New(config ...Config) arus.Handler {
	return NewLimiter(config...).Handler()
}

// Handler returns the middleware. A client over its limit gets ErrLimiter
// and a Retry-After header.
func (l *Limiter) Handler() arus.Handler {
	return func(c *arus.Ctx) error {
		r := l.visitor(l.cfg.KeyFunc(c)).Reserve()
		wait := l.interval
		if r.OK() {
			wait = r.Delay()
			if wait == 0 {
				return c.Next()
			}
			r.Cancel()
		}
		c.Set(arus.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		return ErrLimiter
	}
}

// Allow reports whether the client identified by key may proceed now.
func (l *Limiter) Allow(key string) bool {
	return l.visitor(key).Allow()
}

func (l *Limiter) visitor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.interval), l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Len returns the number of tracked visitors.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *Limiter) janitor() {
	// Use a shorter cleanup interval for short expiration times
	interval := time.Minute
	if l.cfg.ExpiresIn < time.Minute {
		interval = l.cfg.ExpiresIn / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.cfg.ExpiresIn {
			delete(l.visitors, key)
		}
	}
}

// Stop ends the janitor goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
