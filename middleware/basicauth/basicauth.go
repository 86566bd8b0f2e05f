// Package basicauth guards routes with HTTP Basic authentication.
package basicauth

import (
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/ryanbekhen/arus"
)

// Config represents the configuration for the BasicAuth middleware.
type Config struct {
	// Users maps usernames to passwords.
	Users map[string]string

	// Authorizer, when set, decides instead of Users.
	Authorizer func(username, password string) bool

	// Realm is sent in the WWW-Authenticate challenge. Default: "Restricted"
	Realm string
}

// DefaultConfig returns the default configuration. It accepts no users.
func DefaultConfig() Config {
	return Config{
		Users: map[string]string{},
		Realm: "Restricted",
	}
}

// ErrUnauthorized is returned when basic authentication fails.
var ErrUnauthorized = arus.NewHttpError(arus.StatusUnauthorized, "Unauthorized")

// New creates a Basic authentication middleware. On success the username
// is stored in Request.User and the pipeline continues. On failure the
// challenge header is set and ErrUnauthorized is returned.
func New(config ...Config) arus.Handler {
	cfg := DefaultConfig()
	if len(config) > 0 {
		c := config[0]
		if c.Users != nil {
			cfg.Users = c.Users
		}
		if c.Realm != "" {
			cfg.Realm = c.Realm
		}
		cfg.Authorizer = c.Authorizer
	}
	if cfg.Authorizer == nil {
		users := cfg.Users
		cfg.Authorizer = func(username, password string) bool {
			expected, ok := users[username]
			// Compare anyway so a missing user costs the same as a wrong password.
			match := subtle.ConstantTimeCompare([]byte(password), []byte(expected)) == 1
			return ok && match
		}
	}
	challenge := "Basic realm=" + strconv.Quote(cfg.Realm)

	return func(c *arus.Ctx) error {
		username, password, ok := parseCredentials(c.Get(arus.HeaderAuthorization))
		if !ok || !cfg.Authorizer(username, password) {
			c.Set(arus.HeaderWWWAuthenticate, challenge)
			return ErrUnauthorized
		}
		c.Request.User = username
		return c.Next()
	}
}

// parseCredentials decodes a "Basic base64(user:pass)" header value.
func parseCredentials(header string) (string, string, bool) {
	const prefix = "Basic "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	return strings.Cut(string(decoded), ":")
}
