package arus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompilePattern(t *testing.T) {
	assert := assert.New(t)

	p := compilePattern("/users/:id/files/:name")
	assert.Equal([]string{"id", "name"}, p.paramNames)
	assert.False(p.hasWildcard)
	assert.False(p.static)

	p = compilePattern("/files/*")
	assert.Equal([]string{"*"}, p.paramNames)
	assert.True(p.hasWildcard)

	p = compilePattern("about")
	assert.True(p.static)
	assert.Equal("/about", p.template)

	p = compilePattern("")
	assert.Equal("/", p.template)
}

func TestPatternMatch(t *testing.T) {
	testCases := []struct {
		template string
		path     string
		match    bool
		params   map[string]string
	}{
		{"/", "/", true, nil},
		{"/", "/x", false, nil},
		{"/users", "/users", true, nil},
		{"/users", "/Users", false, nil},
		{"/users", "/users/1", false, nil},
		{"/users/:id", "/users/42", true, map[string]string{"id": "42"}},
		{"/users/:id", "/users", false, nil},
		{"/users/:id", "/users/42/posts", false, nil},
		{"/users/:id/posts/:post", "/users/7/posts/hello", true, map[string]string{"id": "7", "post": "hello"}},
		{"/files/*", "/files/a/b/c.txt", true, map[string]string{"*": "a/b/c.txt"}},
		{"/files/*", "/files", true, map[string]string{"*": ""}},
		{"/files/*", "/filesystem", false, nil},
		{"/a/*/z", "/a/b/c/z", true, map[string]string{"*": "b/c"}},
		{"/v1.0/:id", "/v1.0/3", true, map[string]string{"id": "3"}},
		{"/v1.0/:id", "/v1x0/3", false, nil},
		{"/search/(x)/:q", "/search/(x)/go", true, map[string]string{"q": "go"}},
	}

	for _, tc := range testCases {
		params, ok := compilePattern(tc.template).match(tc.path)
		assert.Equal(t, tc.match, ok, "%s against %s", tc.template, tc.path)
		if tc.params != nil {
			assert.Equal(t, tc.params, params, "%s against %s", tc.template, tc.path)
		}
		if !ok {
			assert.Nil(t, params)
		}
	}
}

func TestPatternMatchDeterministic(t *testing.T) {
	p := compilePattern("/users/:id")
	first, _ := p.match("/users/1")
	second, _ := p.match("/users/1")
	assert.Equal(t, first, second)

	first["id"] = "changed"
	third, _ := p.match("/users/1")
	assert.Equal(t, "1", third["id"])
}

func TestSplitSegments(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitSegments("/a//b/"))
	assert.Empty(t, splitSegments("/"))
}

func TestRouteTableFirstMatchWins(t *testing.T) {
	assert := assert.New(t)
	noop := func(c *Ctx) error { return nil }

	r := NewRouter()
	r.GET("/users/:id", noop)
	r.GET("/users/me", noop)
	r.ALL("/any", noop)
	table := r.Build().Routes()

	route, params := table.Lookup(MethodGet, "/users/me")
	if assert.NotNil(route) {
		assert.Equal("/users/:id", route.Path)
	}
	assert.Equal("me", params["id"])

	route, _ = table.Lookup(MethodPost, "/users/me")
	assert.Nil(route)

	for _, m := range []string{MethodGet, MethodPost, MethodDelete} {
		route, _ = table.Lookup(m, "/any")
		assert.NotNil(route, m)
	}
	assert.Equal(3, table.Len())
}

func TestRouteIntrospection(t *testing.T) {
	r := NewRouter()
	r.GET("/files/:bucket/*", func(c *Ctx) error { return nil })

	routes := r.Routes()
	if assert.Len(t, routes, 1) {
		assert.Equal(t, []string{"bucket", "*"}, routes[0].ParamNames())
		assert.True(t, routes[0].HasWildcard())
		assert.Equal(t, MethodGet, routes[0].Method)
	}
}
