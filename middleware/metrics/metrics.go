// Package metrics records Prometheus request metrics and exposes them
// through a handler.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryanbekhen/arus"
)

// unmatchedRoute labels requests that matched no route.
const unmatchedRoute = "unmatched"

// Config represents the configuration for the Metrics middleware.
type Config struct {
	// Namespace and Subsystem prefix metric names. Default: "arus", "http"
	Namespace string
	Subsystem string

	// Buckets are the latency histogram buckets in seconds.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registerer receives the collectors. Default: prometheus.DefaultRegisterer
	Registerer prometheus.Registerer

	// Skip, when it returns true, leaves the request unrecorded.
	Skip func(c *arus.Ctx) bool
}

// DefaultConfig returns the default configuration for the Metrics middleware.
func DefaultConfig() Config {
	return Config{
		Namespace:  "arus",
		Subsystem:  "http",
		Buckets:    prometheus.DefBuckets,
		Registerer: prometheus.DefaultRegisterer,
	}
}

// Metrics holds the request collectors.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	BytesOut *prometheus.CounterVec
	InFlight prometheus.Gauge
	skip     func(c *arus.Ctx) bool
}

// NewMetrics creates the collectors and registers them. Collectors already
// registered under the same names are reused.
func NewMetrics(config ...Config) (*Metrics, error) {
	cfg := DefaultConfig()
	if len(config) > 0 {
		c := config[0]
		if c.Namespace != "" {
			cfg.Namespace = c.Namespace
		}
		if c.Subsystem != "" {
			cfg.Subsystem = c.Subsystem
		}
		if len(c.Buckets) > 0 {
			cfg.Buckets = c.Buckets
		}
		if c.Registerer != nil {
			cfg.Registerer = c.Registerer
		}
		cfg.Skip = c.Skip
	}

	labels := []string{"method", "route", "status"}
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "requests_total",
			Help:      "Count of requests handled, by method, route and status",
		}, labels),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Histogram of request durations, by method, route and status",
			Buckets:   cfg.Buckets,
		}, labels),
		BytesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "response_bytes_total",
			Help:      "Count of response body bytes, by method, route and status",
		}, labels),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "requests_in_flight",
			Help:      "Number of requests being handled",
		}),
		skip: cfg.Skip,
	}

	var err error
	if m.Requests, err = register(cfg.Registerer, m.Requests); err != nil {
		return nil, err
	}
	if m.Duration, err = register(cfg.Registerer, m.Duration); err != nil {
		return nil, err
	}
	if m.BytesOut, err = register(cfg.Registerer, m.BytesOut); err != nil {
		return nil, err
	}
	if m.InFlight, err = register(cfg.Registerer, m.InFlight); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// New returns the metrics middleware. It panics when the collectors cannot
// be registered.
func New(config ...Config) arus.Handler {
	m, err := NewMetrics(config...)
	if err != nil {
		panic(err)
	}
	return m.Handler()
}

// Handler returns the recording middleware. The route label is the
// matched route template, so parameterized paths share one series.
func (m *Metrics) Handler() arus.Handler {
	return func(c *arus.Ctx) error {
		if m.skip != nil && m.skip(c) {
			return c.Next()
		}

		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		err := c.Next()

		route := unmatchedRoute
		if r := c.Route(); r != nil {
			route = r.Path
		}
		labels := prometheus.Labels{
			"method": c.Method(),
			"route":  route,
			"status": strconv.Itoa(c.Response.StatusCode()),
		}
		m.Requests.With(labels).Inc()
		m.Duration.With(labels).Observe(time.Since(start).Seconds())
		m.BytesOut.With(labels).Add(float64(len(c.Response.Body())))
		return err
	}
}

// Handler exposes the metrics gathered by g in the Prometheus text
// format. A nil g serves prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) arus.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return arus.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
