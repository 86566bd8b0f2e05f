package arus

import (
	"github.com/go-stack/stack"

	"github.com/ryanbekhen/arus/internal/pool"
	"github.com/ryanbekhen/arus/log"
)

// Dispatcher processes requests against an immutable route table and
// middleware pipeline. It is produced by Router.Build and is safe for
// concurrent use: every Dispatch works on its own Request, Response and
// Ctx.
type Dispatcher struct {
	routes        RouteTable
	pipeline      Pipeline
	errorHandlers []ErrorHandler
	notFound      Handler

	logger     log.ILogger
	production bool
	renderer   Renderer

	ctxPool *pool.Pool[*Ctx]
}

// DispatcherOption configures a Dispatcher at build time.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for unhandled failures and debug traces.
func WithLogger(l log.ILogger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithProduction hides failure details from clients when enabled.
func WithProduction(production bool) DispatcherOption {
	return func(d *Dispatcher) { d.production = production }
}

// WithRenderer sets the Renderer used by Response.Render.
func WithRenderer(r Renderer) DispatcherOption {
	return func(d *Dispatcher) { d.renderer = r }
}

func newDispatcher(routes RouteTable, pipeline Pipeline, errorHandlers []ErrorHandler, notFound Handler, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		routes:        routes,
		pipeline:      pipeline,
		errorHandlers: errorHandlers,
		notFound:      notFound,
		logger:        log.GetLogger(),
		ctxPool:       pool.New(func() *Ctx { return &Ctx{} }, (*Ctx).reset),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Routes returns the route table.
func (d *Dispatcher) Routes() RouteTable {
	return d.routes
}

// Pipeline returns the middleware pipeline.
func (d *Dispatcher) Pipeline() Pipeline {
	return d.pipeline
}

// Production reports whether failure details are hidden from clients.
func (d *Dispatcher) Production() bool {
	return d.production
}

// Dispatch runs req through the pipeline and the route table and returns
// the finalized response. Failures never escape: they are classified and
// rendered into the response. The caller owns the returned Response and
// should Release it once written.
func (d *Dispatcher) Dispatch(req *Request) (res *Response) {
	res = NewResponse()
	res.renderer = d.renderer
	req.Path = normalizePath(req.Path)
	if req.Params == nil {
		req.Params = map[string]string{}
	}

	c := d.ctxPool.Get()
	c.Request = req
	c.Response = res
	c.dispatcher = d
	defer d.ctxPool.Put(c)
	defer d.recoverDispatch(c)

	_ = c.Next()

	if !res.Sent() {
		d.logger.Debug().
			Str("method", req.Method).
			Str("path", req.Path).
			Int("status", res.StatusCode()).
			Msg("no handler sent a response, finalizing")
		if err := res.End(); err != nil {
			c.fail(err)
		}
	}
	return res
}

// recoverDispatch stops a panic raised outside handler protection and
// answers with a plain 500 when nothing was sent yet.
func (d *Dispatcher) recoverDispatch(c *Ctx) {
	v := recover()
	if v == nil {
		return
	}
	err := newPanicError(v, stack.Trace().TrimRuntime())
	d.logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.Path).
		Msg("panic during dispatch")

	res := c.Response
	if res.Sent() {
		return
	}
	res.onSend = nil
	res.header = make(Header)
	_ = res.Status(StatusInternalServerError).
		Type("text").
		Send([]byte(StatusText(StatusInternalServerError)))
}

// normalizePath strips a single trailing slash from paths longer than one
// character. "/" is left as is.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		return path[:len(path)-1]
	}
	return path
}
