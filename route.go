package arus

// Route is a compiled route. Routes are created by the Router and never
// modified once the dispatcher is built.
type Route struct {
	Method   string
	Path     string
	Handlers []Handler

	pattern *pattern
}

// ParamNames returns the parameter names in template order. A wildcard
// appears as "*".
func (r *Route) ParamNames() []string {
	names := make([]string, len(r.pattern.paramNames))
	copy(names, r.pattern.paramNames)
	return names
}

// HasWildcard reports whether the route ends in a "*" segment.
func (r *Route) HasWildcard() bool {
	return r.pattern.hasWildcard
}

// matchesMethod reports whether the route accepts the request method.
func (r *Route) matchesMethod(method string) bool {
	return r.Method == method || r.Method == MethodAll
}

// RouteTable is the ordered, read-only list of routes consulted after the
// middleware pipeline. Order is significant: the first registered route that
// matches wins, so "/users/:id" registered before "/users/me" shadows it.
type RouteTable struct {
	routes []*Route
}

// Lookup scans the table in registration order and returns the first route
// whose method and pattern match, together with its captured parameters.
func (t RouteTable) Lookup(method, path string) (*Route, map[string]string) {
	for _, route := range t.routes {
		if !route.matchesMethod(method) {
			continue
		}
		if params, ok := route.pattern.match(path); ok {
			return route, params
		}
	}
	return nil, nil
}

// Routes returns a copy of the registered routes.
func (t RouteTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i, r := range t.routes {
		out[i] = *r
	}
	return out
}

// Len returns the number of routes.
func (t RouteTable) Len() int {
	return len(t.routes)
}
