package arus

// Group registers routes under a common prefix. Handlers given to the
// group run before each route's own handlers.
type Group struct {
	prefix   string
	router   *Router
	handlers []Handler
}

// Group creates a new route group with the given prefix.
func (r *Router) Group(prefix string, handlers ...Handler) *Group {
	return &Group{
		prefix:   cleanPattern(prefix),
		router:   r,
		handlers: handlers,
	}
}

// Prefix returns the group's full prefix.
func (g *Group) Prefix() string {
	return g.prefix
}

// Use registers middleware scoped to the group prefix in the router's
// pipeline, so it also runs for unmatched paths under the prefix.
func (g *Group) Use(handlers ...any) *Group {
	g.router.Use(append([]any{g.prefix}, handlers...)...)
	return g
}

// Handle registers a new route with the given pattern and method.
func (g *Group) Handle(pattern, method string, handlers ...Handler) *Group {
	chain := make([]Handler, 0, len(g.handlers)+len(handlers))
	chain = append(chain, g.handlers...)
	chain = append(chain, handlers...)
	g.router.Handle(joinPath(g.prefix, pattern), method, chain...)
	return g
}

// GET registers a new route with the GET method.
func (g *Group) GET(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodGet, handlers...)
}

// HEAD registers a new route with the HEAD method.
func (g *Group) HEAD(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodHead, handlers...)
}

// POST registers a new route with the POST method.
func (g *Group) POST(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodPost, handlers...)
}

// PUT registers a new route with the PUT method.
func (g *Group) PUT(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodPut, handlers...)
}

// DELETE registers a new route with the DELETE method.
func (g *Group) DELETE(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodDelete, handlers...)
}

// CONNECT registers a new route with the CONNECT method.
func (g *Group) CONNECT(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodConnect, handlers...)
}

// OPTIONS registers a new route with the OPTIONS method.
func (g *Group) OPTIONS(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodOptions, handlers...)
}

// TRACE registers a new route with the TRACE method.
func (g *Group) TRACE(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodTrace, handlers...)
}

// PATCH registers a new route with the PATCH method.
func (g *Group) PATCH(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodPatch, handlers...)
}

// ALL registers a route that matches every method.
func (g *Group) ALL(pattern string, handlers ...Handler) *Group {
	return g.Handle(pattern, MethodAll, handlers...)
}

// Group creates a sub-group. The parent's handlers run before the
// sub-group's.
func (g *Group) Group(prefix string, handlers ...Handler) *Group {
	chain := make([]Handler, 0, len(g.handlers)+len(handlers))
	chain = append(chain, g.handlers...)
	chain = append(chain, handlers...)
	return &Group{
		prefix:   joinPath(g.prefix, prefix),
		router:   g.router,
		handlers: chain,
	}
}
