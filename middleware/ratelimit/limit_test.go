package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"

	"github.com/ryanbekhen/arus"
)

func newApp(l *Limiter) *arus.Server {
	app := arus.New(arus.Config{DisableStartupMessage: true})
	app.Use(l.Handler())
	app.GET("/", func(c *arus.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func get(app *arus.Server, ip string) *http.Response {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", ip)
	req.Header.Set("Accept", "application/json")
	return app.Test(req)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Requests)
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, time.Second, cfg.Duration)
	assert.Equal(t, time.Hour, cfg.ExpiresIn)
	assert.NotNil(t, cfg.KeyFunc)
}

func TestRateLimit(t *testing.T) {
	assert := assert.New(t)
	l := NewLimiter(Config{Requests: 5, Burst: 1, Duration: time.Second, ExpiresIn: time.Minute})
	defer l.Stop()
	app := newApp(l)

	assert.Equal(http.StatusOK, get(app, "127.0.0.1").StatusCode, "first request is allowed")

	resp := get(app, "127.0.0.1")
	assert.Equal(http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal("1", resp.Header.Get("Retry-After"))

	var body [512]byte
	n, _ := resp.Body.Read(body[:])
	v, err := fastjson.ParseBytes(body[:n])
	require.NoError(t, err)
	assert.Equal("TOO_MANY_REQUESTS", string(v.GetStringBytes("error", "code")))
	assert.Equal("limit reached", string(v.GetStringBytes("error", "message")))

	assert.Equal(http.StatusOK, get(app, "192.168.1.1").StatusCode, "other clients have their own bucket")

	// 5 requests per second refill one token every 200ms.
	time.Sleep(250 * time.Millisecond)
	assert.Equal(http.StatusOK, get(app, "127.0.0.1").StatusCode, "tokens refill")
}

func TestBurst(t *testing.T) {
	l := NewLimiter(Config{Requests: 1, Burst: 3, Duration: time.Minute, ExpiresIn: time.Minute})
	defer l.Stop()
	app := newApp(l)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(app, "10.0.0.1").StatusCode, "request %d", i)
	}
	resp := get(app, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestCustomKeyFunc(t *testing.T) {
	l := NewLimiter(Config{
		Requests: 1,
		Duration: time.Minute,
		KeyFunc:  func(c *arus.Ctx) string { return c.Get("X-API-Key") },
	})
	defer l.Stop()
	app := newApp(l)

	send := func(key, ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", key)
		req.Header.Set("X-Forwarded-For", ip)
		return app.Test(req).StatusCode
	}

	assert.Equal(t, http.StatusOK, send("a", "1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("a", "2.2.2.2"), "same key from another IP")
	assert.Equal(t, http.StatusOK, send("b", "1.1.1.1"))
}

func TestInstancesAreIndependent(t *testing.T) {
	a := NewLimiter(Config{Requests: 1, Duration: time.Minute})
	b := NewLimiter(Config{Requests: 1, Duration: time.Minute})
	defer a.Stop()
	defer b.Stop()

	assert.True(t, a.Allow("k"))
	assert.False(t, a.Allow("k"))
	assert.True(t, b.Allow("k"))
}

func TestCleanup(t *testing.T) {
	l := NewLimiter(Config{Requests: 1, Duration: time.Second, ExpiresIn: time.Minute})
	defer l.Stop()

	l.Allow("old")
	l.Allow("new")
	l.mu.Lock()
	l.visitors["old"].lastSeen = time.Now().Add(-2 * time.Minute)
	l.mu.Unlock()

	l.cleanup(time.Now())
	assert.Equal(t, 1, l.Len())
}

func TestJanitor(t *testing.T) {
	l := NewLimiter(Config{Requests: 1, Duration: time.Second, ExpiresIn: 20 * time.Millisecond})
	defer l.Stop()

	l.Allow("k")
	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 10*time.Millisecond)
	l.Stop()
}
