package arus

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar overrides Config.Env when set.
const EnvVar = "ARUS_ENV"

// Config represents server configuration options.
type Config struct {
	// Env is the environment mode, "development" or "production". In
	// production, error responses never carry internal messages or stacks.
	Env string `yaml:"env"`

	// Addr is the address Listen uses when called with an empty address.
	Addr string `yaml:"addr"`

	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// Multicore runs one event loop per CPU in the gnet transport.
	Multicore bool `yaml:"multicore"`

	// DisableStartupMessage determines whether to print the startup message when the server starts.
	DisableStartupMessage bool `yaml:"disable_startup_message"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFile sends logs to a rotating file instead of the console.
	LogFile string `yaml:"log_file"`

	// Views is a glob of html/template files loaded into a TemplateRenderer
	// when Renderer is nil.
	Views string `yaml:"views"`

	// ErrorHandler, if set, runs before any handler registered with OnError.
	ErrorHandler ErrorHandler `yaml:"-"`

	// Renderer renders templates for Ctx.Render.
	Renderer Renderer `yaml:"-"`
}

// DefaultConfig returns a default server configuration with pre-configured timeouts
// and other settings suitable for most applications.
// The default configuration includes:
// - Env: development
// - Addr: :3000
// - ReadTimeout: 5 seconds
// - WriteTimeout: 10 seconds
// - IdleTimeout: 15 seconds
// - Multicore: true
// - LogLevel: info
func DefaultConfig() Config {
	return Config{
		Env:          EnvDevelopment,
		Addr:         ":3000",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
		Multicore:    true,
		LogLevel:     "info",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Durations use Go
// syntax ("5s"). ARUS_ENV, when set, overrides the env key.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("arus: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("arus: parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if env := os.Getenv(EnvVar); env != "" {
		c.Env = env
	}
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	switch strings.ToLower(c.Env) {
	case "", EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("arus: unknown env %q, want %q or %q", c.Env, EnvDevelopment, EnvProduction)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("arus: timeouts must not be negative")
	}
	return nil
}

// Production reports whether the configuration runs in production mode.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}
