// Package session keeps per-client state in an arus.Storage, keyed by an
// id carried in a cookie, header or query parameter.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ryanbekhen/arus"
	"github.com/ryanbekhen/arus/internal/memory"
	"github.com/ryanbekhen/arus/log"
)

// Session represents a user session with identification, data storage, and expiration information.
// Values round-trip through JSON, so numbers read back as float64.
type Session struct {
	// ID is the unique identifier for the session
	ID string `json:"id"`

	// Values stores session data as key-value pairs
	Values map[string]any `json:"values"`

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is the timestamp when the session will expire
	ExpiresAt time.Time `json:"expires_at"`

	fresh     bool
	modified  bool
	destroyed bool
	pinned    bool
	staleID   string
}

// Config represents the configuration for the Session middleware.
type Config struct {
	// Expiration is the duration after which the session will expire
	Expiration time.Duration

	// KeyLookup is the format of where to look for the session ID
	// Format: "source:name" where source can be "cookie", "header", or "query"
	// Example: "cookie:session_id"
	KeyLookup string

	// KeyGenerator is a function that generates a new session ID
	// If nil, a random UUID v4 is used
	KeyGenerator func() string

	// Secret signs session ids with nacl/auth. Ids with a bad signature are
	// ignored. Empty disables signing.
	Secret string

	// Cookie attributes, used when KeyLookup reads a cookie.
	Path     string
	Domain   string
	Secure   bool
	SameSite string

	// Storage is the storage backend for sessions
	// If nil, an in-memory storage will be used
	Storage arus.Storage

	// Prefix namespaces session keys in Storage. Default: "session:"
	Prefix string

	// Logger receives persistence failures. Default: log.GetLogger()
	Logger log.ILogger
}

// DefaultConfig returns the default configuration for the Session middleware.
func DefaultConfig() Config {
	return Config{
		Expiration:   24 * time.Hour,
		KeyLookup:    "cookie:session_id",
		KeyGenerator: UUIDv4,
		Path:         "/",
		SameSite:     arus.SameSiteLax,
		Prefix:       "session:",
	}
}

// ErrInvalidKeyLookup is returned by NewStore for a malformed KeyLookup.
var ErrInvalidKeyLookup = errors.New("session: KeyLookup must be cookie:<name>, header:<name> or query:<name>")

// Store loads and persists sessions.
type Store struct {
	cfg    Config
	source string
	name   string
	signer *signer

	// owned is the in-memory storage NewStore created, if any.
	owned *memory.Storage
}

// NewStore creates a session store. When no Storage is configured an
// in-memory one is used; Close stops its cleanup goroutine.
func NewStore(config ...Config) (*Store, error) {
	cfg := DefaultConfig()
	if len(config) > 0 {
		c := config[0]
		if c.Expiration > 0 {
			cfg.Expiration = c.Expiration
		}
		if c.KeyLookup != "" {
			cfg.KeyLookup = c.KeyLookup
		}
		if c.KeyGenerator != nil {
			cfg.KeyGenerator = c.KeyGenerator
		}
		if c.Path != "" {
			cfg.Path = c.Path
		}
		if c.SameSite != "" {
			cfg.SameSite = c.SameSite
		}
		if c.Prefix != "" {
			cfg.Prefix = c.Prefix
		}
		cfg.Secret = c.Secret
		cfg.Domain = c.Domain
		cfg.Secure = c.Secure
		cfg.Storage = c.Storage
		cfg.Logger = c.Logger
	}

	source, name, ok := strings.Cut(cfg.KeyLookup, ":")
	if !ok || name == "" {
		return nil, ErrInvalidKeyLookup
	}
	switch source {
	case "cookie", "header", "query":
	default:
		return nil, ErrInvalidKeyLookup
	}

	var owned *memory.Storage
	if cfg.Storage == nil {
		owned = memory.New(5 * time.Minute)
		cfg.Storage = owned
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger()
	}

	s := &Store{cfg: cfg, source: source, name: name, owned: owned}
	if cfg.Secret != "" {
		s.signer = newSigner(cfg.Secret)
	}
	return s, nil
}

// Close releases the in-memory storage created by NewStore. A Storage
// passed in the config belongs to the caller and is left open. Close is
// safe to call more than once.
func (s *Store) Close() error {
	if s.owned == nil {
		return nil
	}
	return s.owned.Close()
}

// New creates the session middleware. It panics on an invalid
// configuration, like route registration does. Use NewStore instead when
// the default in-memory storage has to be closed.
func New(config ...Config) arus.Handler {
	s, err := NewStore(config...)
	if err != nil {
		panic(err)
	}
	return s.Handler()
}

// Handler returns the middleware. The session is attached to
// Request.Session before the rest of the pipeline runs, and persisted
// right before the response is sent.
func (s *Store) Handler() arus.Handler {
	return func(c *arus.Ctx) error {
		sess, err := s.Get(c)
		if err != nil {
			return err
		}
		c.Request.Session = sess

		ctx := c.Context()
		c.Response.OnSend(func(res *arus.Response) {
			if err := s.commit(ctx, res, sess); err != nil {
				s.cfg.Logger.Error().Err(err).Str("session", sess.ID).Msg("failed to save session")
			}
		})
		return c.Next()
	}
}

// Get loads the session named by the request, or starts a fresh one when
// the id is missing, forged or expired.
func (s *Store) Get(c *arus.Ctx) (*Session, error) {
	if id := s.lookup(c); id != "" {
		sess, err := s.load(c.Context(), id)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return sess, nil
		}
	}
	return s.create(), nil
}

func (s *Store) lookup(c *arus.Ctx) string {
	var raw string
	switch s.source {
	case "cookie":
		raw = c.Cookie(s.name)
	case "header":
		raw = c.Get(s.name)
	case "query":
		raw = c.Query(s.name)
	}
	if raw == "" {
		return ""
	}
	if s.signer == nil {
		return raw
	}
	id, ok := s.signer.verify(raw)
	if !ok {
		s.cfg.Logger.Debug().Str("ip", c.IP()).Msg("rejecting session id with a bad signature")
		return ""
	}
	return id
}

func (s *Store) load(ctx context.Context, id string) (*Session, error) {
	data, err := s.cfg.Storage.Get(ctx, s.cfg.Prefix+id)
	if errors.Is(err, arus.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sess := &Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		s.cfg.Logger.Warn().Err(err).Str("session", id).Msg("discarding undecodable session")
		return nil, nil
	}
	if sess.ID != id || time.Now().After(sess.ExpiresAt) {
		_ = s.cfg.Storage.Delete(ctx, s.cfg.Prefix+id)
		return nil, nil
	}
	if sess.Values == nil {
		sess.Values = map[string]any{}
	}
	return sess, nil
}

func (s *Store) create() *Session {
	now := time.Now()
	return &Session{
		ID:        s.cfg.KeyGenerator(),
		Values:    map[string]any{},
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Expiration),
		fresh:     true,
	}
}

// commit persists sess and writes the cookie. Fresh sessions nobody wrote
// to are dropped, so anonymous traffic does not fill the storage.
func (s *Store) commit(ctx context.Context, res *arus.Response, sess *Session) error {
	if sess.staleID != "" {
		if err := s.cfg.Storage.Delete(ctx, s.cfg.Prefix+sess.staleID); err != nil {
			return err
		}
	}

	if sess.destroyed {
		if s.source == "cookie" {
			res.ClearCookie(s.name, s.cookieOptions(-1)...)
		}
		if sess.fresh {
			return nil
		}
		return s.cfg.Storage.Delete(ctx, s.cfg.Prefix+sess.ID)
	}

	if sess.fresh && !sess.modified {
		return nil
	}

	if !sess.pinned {
		sess.ExpiresAt = time.Now().Add(s.cfg.Expiration)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return s.cfg.Storage.Delete(ctx, s.cfg.Prefix+sess.ID)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := s.cfg.Storage.Set(ctx, s.cfg.Prefix+sess.ID, data, ttl); err != nil {
		return err
	}

	if s.source == "cookie" {
		value := sess.ID
		if s.signer != nil {
			value = s.signer.sign(sess.ID)
		}
		res.SetCookie(s.name, value, s.cookieOptions(int(ttl.Seconds()))...)
	}
	return nil
}

func (s *Store) cookieOptions(maxAge int) []arus.CookieOption {
	opts := []arus.CookieOption{
		arus.WithPath(s.cfg.Path),
		arus.WithSecure(s.cfg.Secure),
		arus.WithSameSite(s.cfg.SameSite),
	}
	if s.cfg.Domain != "" {
		opts = append(opts, arus.WithDomain(s.cfg.Domain))
	}
	if maxAge > 0 {
		opts = append(opts, arus.WithMaxAge(maxAge))
	}
	return opts
}

// Reset removes every session from the storage.
func (s *Store) Reset(ctx context.Context) error {
	return s.cfg.Storage.Clear(ctx)
}

// FromCtx returns the session attached by the middleware, or nil.
func FromCtx(c *arus.Ctx) *Session {
	sess, _ := c.Request.Session.(*Session)
	return sess
}

// UUIDv4 generates a random UUID v4 string.
func UUIDv4() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// Set stores a value in the session with the specified key.
func (s *Session) Set(key string, value any) {
	s.Values[key] = value
	s.modified = true
}

// Get retrieves a value from the session by its key.
// If the key doesn't exist, it returns nil.
func (s *Session) Get(key string) any {
	return s.Values[key]
}

// Delete removes a value from the session by its key.
func (s *Session) Delete(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.modified = true
	}
}

// Clear removes all values from the session.
func (s *Session) Clear() {
	s.Values = map[string]any{}
	s.modified = true
}

// Keys returns all keys in the session.
func (s *Session) Keys() []string {
	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	return keys
}

// Fresh reports whether the session was created by this request.
func (s *Session) Fresh() bool {
	return s.fresh
}

// Destroy clears the session. It is removed from the storage and its
// cookie is expired when the response is sent.
func (s *Session) Destroy() {
	s.Values = map[string]any{}
	s.destroyed = true
}

// Regenerate moves the session to a new id, typically after login.
func (s *Session) Regenerate(generate func() string) {
	if generate == nil {
		generate = UUIDv4
	}
	if !s.fresh && s.staleID == "" {
		s.staleID = s.ID
	}
	s.ID = generate()
	s.modified = true
}

// SetExpiry sets a specific expiration time for the session. Without it
// every save extends the session by Config.Expiration.
func (s *Session) SetExpiry(expiry time.Duration) {
	s.ExpiresAt = time.Now().Add(expiry)
	s.modified = true
	s.pinned = true
}
