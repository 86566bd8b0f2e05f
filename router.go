package arus

import (
	"fmt"
	"strings"
	"sync"
)

// Router accumulates routes, middleware and error handlers during setup.
// Build turns it into an immutable Dispatcher; registering anything after
// that panics with ErrRouterFrozen.
type Router struct {
	mu            sync.Mutex
	routes        []*Route
	entries       []middlewareEntry
	errorHandlers []ErrorHandler
	notFound      Handler
	frozen        bool
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{}
}

func (r *Router) checkFrozen() {
	if r.frozen {
		panic(ErrRouterFrozen)
	}
}

// Use appends middleware to the pipeline. An optional leading string
// scopes the middleware to paths starting with that prefix; without it,
// or with "*", the middleware is global. Handlers may be a Handler, a
// func(*Ctx) error or a func(*Ctx).
//
//	r.Use(logger)
//	r.Use("/admin", requireAdmin, audit)
func (r *Router) Use(args ...any) *Router {
	prefix := globalPrefix
	if len(args) > 0 {
		if p, ok := args[0].(string); ok {
			prefix = cleanPrefix(p)
			args = args[1:]
		}
	}
	if len(args) == 0 {
		panic("arus: Use requires at least one handler")
	}
	handlers := mustHandlers(args)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFrozen()
	for _, h := range handlers {
		r.entries = append(r.entries, middlewareEntry{prefix: prefix, handler: h})
	}
	return r
}

// Handle registers a route for method and pattern. The handlers form the
// route's own chain and advance with c.Next().
func (r *Router) Handle(pattern, method string, handlers ...Handler) *Router {
	if len(handlers) == 0 {
		panic(fmt.Sprintf("arus: route %s %s has no handlers", method, pattern))
	}
	for i, h := range handlers {
		if h == nil {
			panic(fmt.Sprintf("arus: route %s %s has a nil handler at position %d", method, pattern, i))
		}
	}
	pattern = cleanPattern(pattern)
	route := &Route{
		Method:   strings.ToUpper(method),
		Path:     pattern,
		Handlers: handlers,
		pattern:  compilePattern(pattern),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFrozen()
	r.routes = append(r.routes, route)
	return r
}

// GET registers a new route with the GET method.
func (r *Router) GET(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodGet, handlers...)
}

// HEAD registers a new route with the HEAD method.
func (r *Router) HEAD(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodHead, handlers...)
}

// POST registers a new route with the POST method.
func (r *Router) POST(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodPost, handlers...)
}

// PUT registers a new route with the PUT method.
func (r *Router) PUT(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodPut, handlers...)
}

// DELETE registers a new route with the DELETE method.
func (r *Router) DELETE(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodDelete, handlers...)
}

// CONNECT registers a new route with the CONNECT method.
func (r *Router) CONNECT(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodConnect, handlers...)
}

// OPTIONS registers a new route with the OPTIONS method.
func (r *Router) OPTIONS(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodOptions, handlers...)
}

// TRACE registers a new route with the TRACE method.
func (r *Router) TRACE(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodTrace, handlers...)
}

// PATCH registers a new route with the PATCH method.
func (r *Router) PATCH(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodPatch, handlers...)
}

// ALL registers a route that matches every method.
func (r *Router) ALL(pattern string, handlers ...Handler) *Router {
	return r.Handle(pattern, MethodAll, handlers...)
}

// OnError registers an error handler. Error handlers run in registration
// order before the default classifier.
func (r *Router) OnError(h ErrorHandler) *Router {
	if h == nil {
		panic("arus: nil error handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFrozen()
	r.errorHandlers = append(r.errorHandlers, h)
	return r
}

// NotFound replaces the default 404 response for requests no route
// matches.
func (r *Router) NotFound(h Handler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFrozen()
	r.notFound = h
	return r
}

// Routes returns the routes registered so far.
func (r *Router) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RouteTable{routes: r.routes}.Routes()
}

// Build freezes the router and returns a Dispatcher over a snapshot of its
// routes, middleware and error handlers.
func (r *Router) Build(opts ...DispatcherOption) *Dispatcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true

	routes := make([]*Route, len(r.routes))
	copy(routes, r.routes)
	entries := make([]middlewareEntry, len(r.entries))
	copy(entries, r.entries)
	errorHandlers := make([]ErrorHandler, len(r.errorHandlers))
	copy(errorHandlers, r.errorHandlers)

	return newDispatcher(
		RouteTable{routes: routes},
		Pipeline{entries: entries},
		errorHandlers,
		r.notFound,
		opts...,
	)
}

// Frozen reports whether Build has been called.
func (r *Router) Frozen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frozen
}

// cleanPattern gives a route template a leading slash and drops a trailing
// one, matching how request paths are normalized.
func cleanPattern(pattern string) string {
	if pattern == "" || pattern[0] != '/' {
		pattern = "/" + pattern
	}
	return normalizePath(pattern)
}

// cleanPrefix normalizes a middleware prefix. "*" stays global.
func cleanPrefix(prefix string) string {
	if prefix == globalPrefix {
		return prefix
	}
	return cleanPattern(prefix)
}

// joinPath joins a group prefix and a pattern.
func joinPath(prefix, pattern string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if pattern == "" || pattern == "/" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	if pattern[0] != '/' {
		pattern = "/" + pattern
	}
	return prefix + pattern
}
