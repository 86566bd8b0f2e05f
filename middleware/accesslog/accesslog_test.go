package accesslog

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ryanbekhen/arus"
	"github.com/ryanbekhen/arus/log"
)

func newApp(cfg Config) *arus.Server {
	app := arus.New(arus.Config{DisableStartupMessage: true})
	app.Use(New(cfg))
	app.GET("/ok", func(c *arus.Ctx) error {
		return c.SendString("hello")
	})
	app.GET("/users/:id", func(c *arus.Ctx) error {
		return c.SendString(c.Param("id"))
	})
	app.GET("/missing", func(c *arus.Ctx) error {
		return arus.NewHttpError(arus.StatusNotFound, "no such thing")
	})
	app.GET("/boom", func(c *arus.Ctx) error {
		return errors.New("database unavailable")
	})
	return app
}

// TestDefaultConfig tests the DefaultConfig function
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "${time} | ${status} | ${latency_human} | ${method} ${path} | ${error}", config.Format)
	assert.Equal(t, "2006-01-02 15:04:05", config.TimeFormat)
}

func TestLogsSuccessAtInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	app := newApp(Config{
		Format: "${status} ${method} ${path} ${route} ${query} ${bytes_out} ${user_agent}",
		Logger: log.New(buf, log.DebugLevel),
	})

	req := httptest.NewRequest(http.MethodGet, "/users/7?x=1", nil)
	req.Header.Set("User-Agent", "test-agent")
	resp := app.Test(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out := buf.String()
	assert.Contains(t, out, "| INFO | 200 GET /users/7 /users/:id x=1 1 test-agent")
}

func TestLevelByStatusClass(t *testing.T) {
	tests := []struct {
		path  string
		level string
		error string
	}{
		{"/ok", "| INFO |", ""},
		{"/missing", "| WARN |", "no such thing"},
		{"/nowhere", "| WARN |", ""},
		{"/boom", "| ERROR |", "database unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf := &bytes.Buffer{}
			app := newApp(Config{Format: "${status} ${path} ${error}", Logger: log.New(buf, log.InfoLevel)})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", "application/json")
			app.Test(req)

			out := buf.String()
			assert.Contains(t, out, tt.level)
			assert.Contains(t, out, tt.path)
			if tt.error != "" {
				assert.Contains(t, out, "error: "+tt.error)
			}
		})
	}
}

func TestFilteredLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	app := newApp(Config{Logger: log.New(buf, log.ErrorLevel)})

	app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Empty(t, buf.String(), "info lines are filtered at error level")
}

func TestFormatLatency(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("500ns", formatLatency(500*time.Nanosecond))
	assert.Equal("1.50µs", formatLatency(1500*time.Nanosecond))
	assert.Equal("2.00ms", formatLatency(2*time.Millisecond))
	assert.Equal("1.25s", formatLatency(1250*time.Millisecond))
}
