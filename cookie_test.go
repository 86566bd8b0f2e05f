package arus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCookieString(t *testing.T) {
	expires := time.Date(2030, time.March, 4, 5, 6, 7, 0, time.FixedZone("WIB", 7*3600))
	testCases := []struct {
		name   string
		cookie *Cookie
		want   string
	}{
		{
			name:   "bare",
			cookie: &Cookie{Name: "a", Value: "1"},
			want:   "a=1",
		},
		{
			name: "every attribute",
			cookie: &Cookie{
				Name:     "session",
				Value:    "abc",
				MaxAge:   3600,
				Expires:  expires,
				Path:     "/app",
				Domain:   "example.com",
				Secure:   true,
				HTTPOnly: true,
				SameSite: SameSiteStrict,
			},
			want: "session=abc; Max-Age=3600; Expires=Sun, 03 Mar 2030 22:06:07 GMT; Path=/app; Domain=example.com; Secure; HttpOnly; SameSite=Strict",
		},
		{
			name:   "negative max age",
			cookie: &Cookie{Name: "gone", MaxAge: -1},
			want:   "gone=; Max-Age=0",
		},
		{
			name:   "escaped value",
			cookie: &Cookie{Name: "msg", Value: "hello world;x"},
			want:   "msg=hello%20world%3Bx",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cookie.String())
		})
	}
}

func TestNewCookieDefaults(t *testing.T) {
	c := newCookie("a", "1")
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HTTPOnly)
	assert.Equal(t, SameSiteLax, c.SameSite)

	c = newCookie("a", "1",
		WithPath("/x"),
		WithDomain("example.org"),
		WithSecure(true),
		WithHTTPOnly(false),
		WithSameSite(""),
		WithMaxAge(60),
	)
	assert.Equal(t, "a=1; Max-Age=60; Path=/x; Domain=example.org; Secure", c.String())
}

func TestCookieRoundTrip(t *testing.T) {
	value := "name=ada & co; 50%"
	c := &Cookie{Name: "pref", Value: value}
	parsed := parseCookies(c.String())
	assert.Equal(t, value, parsed["pref"])
}
