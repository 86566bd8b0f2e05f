package arus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/ryanbekhen/arus/log"
)

// Server ties a Router to the transports. Routes and middleware are
// registered on the server during setup; the first request (or Listen)
// freezes them into a Dispatcher.
type Server struct {
	config    Config
	router    *Router
	logger    log.ILogger
	logCloser io.Closer

	once       sync.Once
	dispatcher *Dispatcher

	mu        sync.Mutex
	transport *transport
}

// New creates a new server with the given configuration.
// This is the main entry point for creating an arus server instance.
//
// Parameters:
//   - config: The server configuration (use DefaultConfig() for sensible defaults)
//
// Returns:
//   - A new Server instance ready to be configured with routes and middleware
func New(config ...Config) *Server {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	cfg.applyEnv()

	logger, closer := newLogger(cfg)
	s := &Server{
		config:    cfg,
		router:    NewRouter(),
		logger:    logger,
		logCloser: closer,
	}
	if cfg.ErrorHandler != nil {
		s.router.OnError(cfg.ErrorHandler)
	}
	return s
}

// Config returns the server configuration.
func (s *Server) Config() Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() log.ILogger {
	return s.logger
}

// SetLogger replaces the server logger. It has no effect once the
// dispatcher is built.
func (s *Server) SetLogger(l log.ILogger) {
	if l != nil {
		s.logger = l
	}
}

// Router returns the underlying router.
func (s *Server) Router() *Router {
	return s.router
}

// Dispatcher builds the dispatcher on first use and returns it. Routes
// registered afterwards panic with ErrRouterFrozen.
func (s *Server) Dispatcher() *Dispatcher {
	s.once.Do(func() {
		s.dispatcher = s.router.Build(
			WithLogger(s.logger),
			WithProduction(s.config.Production()),
			WithRenderer(s.renderer()),
		)
	})
	return s.dispatcher
}

func (s *Server) renderer() Renderer {
	if s.config.Renderer != nil {
		return s.config.Renderer
	}
	if s.config.Views == "" {
		return nil
	}
	r, err := NewTemplateRenderer(s.config.Views)
	if err != nil {
		s.logger.Error().Err(err).Str("views", s.config.Views).Msg("failed to load templates")
		return nil
	}
	return r
}

// Test dispatches req in memory and returns the recorded response.
func (s *Server) Test(req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec.Result()
}

// Listen serves HTTP/1.1 on addr with the event-loop transport. An empty
// addr falls back to Config.Addr. Listen blocks until Shutdown.
func (s *Server) Listen(addr string) error {
	if addr == "" {
		addr = s.config.Addr
	}
	if addr == "" {
		addr = ":3000"
	}

	d := s.Dispatcher()
	if !s.config.DisableStartupMessage {
		displayStartupMessage(s.logger, addr, s.config, d.Routes().Len())
	}

	t := newTransport(s, addr)
	s.mu.Lock()
	s.transport = t
	s.mu.Unlock()
	return t.run()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()

	var err error
	if t != nil {
		err = t.stop(ctx)
	}
	if s.logCloser != nil {
		if cerr := s.logCloser.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Use adds middleware to the pipeline. See Router.Use.
func (s *Server) Use(args ...any) *Server {
	s.router.Use(args...)
	return s
}

// Handle registers a new route with the given pattern and method.
func (s *Server) Handle(pattern, method string, handlers ...Handler) *Server {
	s.router.Handle(pattern, method, handlers...)
	return s
}

// GET registers a new route with the GET method.
func (s *Server) GET(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodGet, handlers...)
}

// HEAD registers a new route with the HEAD method.
func (s *Server) HEAD(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodHead, handlers...)
}

// POST registers a new route with the POST method.
func (s *Server) POST(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodPost, handlers...)
}

// PUT registers a new route with the PUT method.
func (s *Server) PUT(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodPut, handlers...)
}

// DELETE registers a new route with the DELETE method.
func (s *Server) DELETE(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodDelete, handlers...)
}

// CONNECT registers a new route with the CONNECT method.
func (s *Server) CONNECT(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodConnect, handlers...)
}

// OPTIONS registers a new route with the OPTIONS method.
func (s *Server) OPTIONS(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodOptions, handlers...)
}

// TRACE registers a new route with the TRACE method.
func (s *Server) TRACE(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodTrace, handlers...)
}

// PATCH registers a new route with the PATCH method.
func (s *Server) PATCH(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodPatch, handlers...)
}

// ALL registers a route that matches every method.
func (s *Server) ALL(pattern string, handlers ...Handler) *Server {
	return s.Handle(pattern, MethodAll, handlers...)
}

// Group creates a new route group with the given prefix.
func (s *Server) Group(prefix string, handlers ...Handler) *Group {
	return s.router.Group(prefix, handlers...)
}

// OnError registers an error handler.
func (s *Server) OnError(h ErrorHandler) *Server {
	s.router.OnError(h)
	return s
}

// NotFound replaces the default 404 response.
func (s *Server) NotFound(h Handler) *Server {
	s.router.NotFound(h)
	return s
}
