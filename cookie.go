package arus

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SameSite values accepted by Cookie.SameSite.
const (
	SameSiteLax    = "Lax"
	SameSiteStrict = "Strict"
	SameSiteNone   = "None"
)

// Cookie represents an HTTP cookie as sent in the Set-Cookie header of an HTTP response.
type Cookie struct {
	Name     string    `json:"name"`      // The name of the cookie
	Value    string    `json:"value"`     // The value of the cookie, percent-encoded on write
	Path     string    `json:"path"`      // Specifies a URL path which is allowed to receive the cookie
	Domain   string    `json:"domain"`    // Specifies the domain which is allowed to receive the cookie
	MaxAge   int       `json:"max_age"`   // Seconds until expiry; negative deletes the cookie now
	Expires  time.Time `json:"expires"`   // The expiration date of the cookie
	Secure   bool      `json:"secure"`    // Only transmit over HTTPS
	HTTPOnly bool      `json:"http_only"` // Hide the cookie from scripts
	SameSite string    `json:"same_site"` // Controls whether or not a cookie is sent with cross-site requests
}

// String returns the serialized cookie as it would appear in the Set-Cookie
// header. Attributes are written in a fixed order:
// name=value; Max-Age; Expires; Path; Domain; Secure; HttpOnly; SameSite.
func (c *Cookie) String() string {
	var b strings.Builder

	b.WriteString(c.Name)
	b.WriteString("=")
	b.WriteString(url.PathEscape(c.Value))

	if c.MaxAge > 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	} else if c.MaxAge < 0 {
		b.WriteString("; Max-Age=0")
	}

	if !c.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(TimeFormat))
	}

	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}

	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}

	if c.Secure {
		b.WriteString("; Secure")
	}

	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}

	if c.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(c.SameSite)
	}

	return b.String()
}

// TimeFormat is the time format used in HTTP headers such as Expires and Last-Modified.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

var epoch = time.Unix(0, 0)

// CookieOption adjusts a cookie created by Response.SetCookie.
type CookieOption func(*Cookie)

// WithMaxAge sets Max-Age in seconds.
func WithMaxAge(seconds int) CookieOption {
	return func(c *Cookie) { c.MaxAge = seconds }
}

// WithExpires sets the Expires attribute.
func WithExpires(t time.Time) CookieOption {
	return func(c *Cookie) { c.Expires = t }
}

// WithPath sets the Path attribute.
func WithPath(path string) CookieOption {
	return func(c *Cookie) { c.Path = path }
}

// WithDomain sets the Domain attribute.
func WithDomain(domain string) CookieOption {
	return func(c *Cookie) { c.Domain = domain }
}

// WithSecure sets the Secure flag.
func WithSecure(secure bool) CookieOption {
	return func(c *Cookie) { c.Secure = secure }
}

// WithHTTPOnly overrides the HttpOnly default.
func WithHTTPOnly(httpOnly bool) CookieOption {
	return func(c *Cookie) { c.HTTPOnly = httpOnly }
}

// WithSameSite overrides the SameSite default. An empty value omits the attribute.
func WithSameSite(sameSite string) CookieOption {
	return func(c *Cookie) { c.SameSite = sameSite }
}

// newCookie builds a cookie with the defaults applied by Response.SetCookie:
// HttpOnly and SameSite=Lax.
func newCookie(name, value string, opts ...CookieOption) *Cookie {
	c := &Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: SameSiteLax,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// parseCookies parses the cookie header and returns a map of cookie name to value.
// Values are percent-decoded; empty parts and malformed cookies are skipped.
func parseCookies(cookieHeader string) map[string]string {
	cookies := make(map[string]string)
	parts := strings.Split(cookieHeader, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			continue
		}
		value := strings.Trim(kv[1], `"`)
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		if _, exists := cookies[kv[0]]; !exists {
			cookies[kv[0]] = value
		}
	}
	return cookies
}
