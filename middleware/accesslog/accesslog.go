// Package accesslog logs one line per request once the pipeline below it
// has finished.
package accesslog

import (
	"strconv"
	"strings"
	"time"

	"github.com/ryanbekhen/arus"
	"github.com/ryanbekhen/arus/log"
)

// Config represents the configuration for the AccessLog middleware.
type Config struct {
	// Format is the format string for the access log.
	// Available placeholders:
	// - ${remote_ip} - the client's IP address
	// - ${method} - the HTTP method
	// - ${path} - the request path
	// - ${route} - the matched route template, empty when nothing matched
	// - ${status} - the HTTP status code
	// - ${latency} - the request latency
	// - ${latency_human} - the request latency in human-readable format
	// - ${bytes_in} - the number of bytes received
	// - ${bytes_out} - the number of bytes in the response body
	// - ${user_agent} - the User-Agent header
	// - ${referer} - the Referer header
	// - ${time} - the current time formatted with TimeFormat
	// - ${query} - the URL query string
	// - ${error} - the error message if an error occurred during request processing
	Format string

	// TimeFormat formats ${time}. Default: "2006-01-02 15:04:05"
	TimeFormat string

	// Logger receives the access lines. Default: log.GetLogger()
	Logger log.ILogger
}

// DefaultConfig returns the default configuration for the AccessLog middleware.
func DefaultConfig() Config {
	return Config{
		Format:     "${time} | ${status} | ${latency_human} | ${method} ${path} | ${error}",
		TimeFormat: "2006-01-02 15:04:05",
	}
}

// New returns a middleware that logs HTTP requests.
// If no config is provided, it uses the default config.
// If multiple configs are provided, only the first one is used.
func New(config ...Config) arus.Handler {
	cfg := DefaultConfig()
	if len(config) > 0 {
		c := config[0]
		if c.Format != "" {
			cfg.Format = c.Format
		}
		if c.TimeFormat != "" {
			cfg.TimeFormat = c.TimeFormat
		}
		cfg.Logger = c.Logger
	}

	return func(c *arus.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		if err == nil {
			err = c.Err()
		}

		logger := cfg.Logger
		if logger == nil {
			logger = log.GetLogger()
		}

		status := c.Response.StatusCode()
		msg := format(cfg, c, status, latency, err)

		var event log.IEvent
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		if err != nil {
			event = event.Err(err)
		}
		event.Msg(msg)

		return err
	}
}

func format(cfg Config, c *arus.Ctx, status int, latency time.Duration, err error) string {
	req := c.Request

	route := ""
	if r := c.Route(); r != nil {
		route = r.Path
	}
	errText := ""
	if err != nil {
		errText = "error: " + err.Error()
	}
	query := ""
	if i := strings.IndexByte(req.OriginalURL, '?'); i >= 0 {
		query = req.OriginalURL[i+1:]
	}

	r := strings.NewReplacer(
		"${remote_ip}", req.IP(),
		"${method}", req.Method,
		"${path}", req.Path,
		"${route}", route,
		"${status}", strconv.Itoa(status),
		"${latency}", latency.String(),
		"${latency_human}", formatLatency(latency),
		"${bytes_in}", strconv.Itoa(len(req.Body)),
		"${bytes_out}", strconv.Itoa(len(c.Response.Body())),
		"${user_agent}", req.UserAgent(),
		"${referer}", req.Get(arus.HeaderReferer),
		"${time}", time.Now().Format(cfg.TimeFormat),
		"${query}", query,
		"${error}", errText,
	)
	return r.Replace(cfg.Format)
}

// formatLatency formats a duration in a human-readable way with appropriate units (ns, µs, ms, s)
func formatLatency(d time.Duration) string {
	if d < time.Microsecond {
		return strconv.FormatInt(d.Nanoseconds(), 10) + "ns"
	}
	if d < time.Millisecond {
		return strconv.FormatFloat(float64(d.Nanoseconds())/float64(time.Microsecond), 'f', 2, 64) + "µs"
	}
	if d < time.Second {
		return strconv.FormatFloat(float64(d.Nanoseconds())/float64(time.Millisecond), 'f', 2, 64) + "ms"
	}
	return strconv.FormatFloat(float64(d.Nanoseconds())/float64(time.Second), 'f', 2, 64) + "s"
}
