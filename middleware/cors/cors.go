// Package cors implements Cross-Origin Resource Sharing.
package cors

import (
	"strconv"
	"strings"

	"github.com/ryanbekhen/arus"
)

// Config represents the configuration for the CORS middleware.
type Config struct {
	// AllowOrigins is a comma-separated list of origins a cross-domain request can be executed from.
	// If the special "*" value is present, all origins will be allowed.
	// Default value is "*"
	AllowOrigins string

	// AllowMethods is a comma-separated list of methods the client is allowed to use with
	// cross-domain requests. Default value is simple methods (GET, POST, PUT, DELETE, HEAD, OPTIONS, PATCH)
	AllowMethods string

	// AllowHeaders is a comma-separated list of non-simple headers the client is allowed to use with
	// cross-domain requests. When empty the requested headers are mirrored.
	AllowHeaders string

	// ExposeHeaders indicates which headers are safe to expose to the API of a CORS
	// API specification as a comma-separated list. Default value is ""
	ExposeHeaders string

	// AllowCredentials indicates whether the request can include user credentials like
	// cookies, HTTP authentication or client side SSL certificates. Default value is false
	AllowCredentials bool

	// MaxAge indicates how long (in seconds) the results of a preflight request
	// can be cached. Default value is 0 which stands for no max age.
	MaxAge int
}

const (
	wildcard       = "*"
	trueValue      = "true"
	defaultMethods = "GET,POST,PUT,DELETE,HEAD,OPTIONS,PATCH"
)

// DefaultConfig returns the default configuration for the CORS middleware.
func DefaultConfig() Config {
	return Config{
		AllowOrigins: wildcard,
		AllowMethods: defaultMethods,
	}
}

// New returns a middleware that handles CORS. Preflight requests are
// answered with 204 and end the pipeline.
// If no config is provided, it uses the default config.
// If multiple configs are provided, only the first one is used.
func New(config ...Config) arus.Handler {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
		if cfg.AllowOrigins == "" {
			cfg.AllowOrigins = wildcard
		}
		if cfg.AllowMethods == "" {
			cfg.AllowMethods = defaultMethods
		}
	}

	var maxAge string
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	allowAll := false
	origins := make(map[string]struct{})
	for _, origin := range strings.Split(cfg.AllowOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin == wildcard {
			allowAll = true
		}
		origins[origin] = struct{}{}
	}

	return func(c *arus.Ctx) error {
		origin := c.Get(arus.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}

		allowed := allowAll
		if !allowed {
			_, allowed = origins[origin]
		}

		// Credentials cannot be combined with a literal "*", so the origin
		// is echoed instead.
		switch {
		case allowAll && !cfg.AllowCredentials:
			c.Set(arus.HeaderAccessControlAllowOrigin, wildcard)
		case allowed:
			c.Set(arus.HeaderAccessControlAllowOrigin, origin)
			c.Response.Vary(arus.HeaderOrigin)
		default:
			c.Response.Vary(arus.HeaderOrigin)
		}

		preflight := c.Method() == arus.MethodOptions &&
			c.Get(arus.HeaderAccessControlRequestMethod) != ""

		if !preflight {
			if allowed {
				if cfg.ExposeHeaders != "" {
					c.Set(arus.HeaderAccessControlExposeHeaders, cfg.ExposeHeaders)
				}
				if cfg.AllowCredentials {
					c.Set(arus.HeaderAccessControlAllowCredentials, trueValue)
				}
			}
			return c.Next()
		}

		if allowed {
			c.Set(arus.HeaderAccessControlAllowMethods, cfg.AllowMethods)
			if cfg.AllowHeaders != "" {
				c.Set(arus.HeaderAccessControlAllowHeaders, cfg.AllowHeaders)
			} else if requested := c.Get(arus.HeaderAccessControlRequestHeaders); requested != "" {
				c.Set(arus.HeaderAccessControlAllowHeaders, requested)
				c.Response.Vary(arus.HeaderAccessControlRequestHeaders)
			}
			if cfg.AllowCredentials {
				c.Set(arus.HeaderAccessControlAllowCredentials, trueValue)
			}
			if maxAge != "" {
				c.Set(arus.HeaderAccessControlMaxAge, maxAge)
			}
		}

		c.Status(arus.StatusNoContent)
		return c.Response.End()
	}
}
