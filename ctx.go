package arus

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

type ctxState uint8

const (
	stateMiddleware ctxState = iota
	stateHandlers
	stateDone
)

// Ctx carries one request through the pipeline. It holds the Request, the
// Response and the cursor that Next advances. A Ctx is only valid until
// the dispatch that created it returns.
type Ctx struct {
	Request  *Request
	Response *Response

	dispatcher *Dispatcher
	route      *Route
	state      ctxState
	index      int
	err        error
	locals     map[string]any
}

func (c *Ctx) reset() {
	c.Request = nil
	c.Response = nil
	c.dispatcher = nil
	c.route = nil
	c.state = stateMiddleware
	c.index = 0
	c.err = nil
	for k := range c.locals {
		delete(c.locals, k)
	}
}

// Next runs the next stage of the pipeline: the next middleware whose
// prefix matches the path, then route matching, then the next handler of
// the matched route. Once the response has been sent Next does nothing.
//
// The returned error is the failure of the downstream stage, already
// handled by the error handlers. Middleware may return it unchanged.
func (c *Ctx) Next() error {
	if c.Response.Sent() {
		return nil
	}

	switch c.state {
	case stateMiddleware:
		entries := c.dispatcher.pipeline.entries
		for c.index < len(entries) {
			entry := entries[c.index]
			c.index++
			if entry.matches(c.Request.Path) {
				return c.runEntry(entry)
			}
		}
		return c.matchRoute()
	case stateHandlers:
		if c.index >= len(c.route.Handlers) {
			return nil
		}
		h := c.route.Handlers[c.index]
		c.index++
		return c.invoke(h)
	}
	return nil
}

// runEntry invokes a middleware entry with Request.BasePath set to its
// prefix, restoring the previous value on the way out.
func (c *Ctx) runEntry(entry middlewareEntry) error {
	prev := c.Request.BasePath
	c.Request.BasePath = entry.basePath()
	defer func() { c.Request.BasePath = prev }()
	return c.invoke(entry.handler)
}

func (c *Ctx) matchRoute() error {
	c.state = stateHandlers
	c.index = 0

	req := c.Request
	prev := req.BasePath
	req.BasePath = ""
	defer func() { req.BasePath = prev }()

	route, params := c.dispatcher.routes.Lookup(req.Method, req.Path)
	if route == nil && req.Method == MethodHead {
		route, params = c.dispatcher.routes.Lookup(MethodGet, req.Path)
	}
	if route == nil {
		c.state = stateDone
		if c.dispatcher.notFound != nil {
			return c.invoke(c.dispatcher.notFound)
		}
		c.dispatcher.renderNotFound(c)
		return nil
	}

	c.route = route
	if params == nil {
		params = map[string]string{}
	}
	req.Params = params
	return c.Next()
}

// invoke calls h with panic protection and routes a failure to the error
// handlers.
func (c *Ctx) invoke(h Handler) error {
	err := safeCall(h, c)
	if err != nil {
		c.fail(err)
	}
	return err
}

// fail hands err to the error handlers unless a response already went out,
// in which case the failure is dropped. The pipeline is closed first, so
// Next called from an error handler runs nothing.
func (c *Ctx) fail(err error) {
	if c.Response.Sent() {
		// The same failure bubbling back up through middleware is expected.
		if c.err == nil || !errors.Is(err, c.err) {
			c.dispatcher.logger.Debug().
				Err(err).
				Str("method", c.Request.Method).
				Str("path", c.Request.Path).
				Msg("dropping failure after response was sent")
		}
		return
	}
	c.state = stateDone
	c.err = err
	c.dispatcher.handleError(c, err)
}

// Err returns the failure being handled, if any.
func (c *Ctx) Err() error {
	return c.err
}

// Route returns the matched route, or nil before routing and on 404.
func (c *Ctx) Route() *Route {
	return c.route
}

// Context returns the request context.
func (c *Ctx) Context() context.Context {
	return c.Request.Context()
}

// Locals reads a per-request value, or stores one when value is given.
func (c *Ctx) Locals(key string, value ...any) any {
	if len(value) == 0 {
		return c.locals[key]
	}
	if c.locals == nil {
		c.locals = make(map[string]any)
	}
	c.locals[key] = value[0]
	return value[0]
}

// Method returns the request method.
func (c *Ctx) Method() string {
	return c.Request.Method
}

// Path returns the normalized request path.
func (c *Ctx) Path() string {
	return c.Request.Path
}

// IP returns the client IP.
func (c *Ctx) IP() string {
	return c.Request.IP()
}

// Get returns a request header.
func (c *Ctx) Get(key string) string {
	return c.Request.Get(key)
}

// Param looks name up in route params, query and body, in that order.
func (c *Ctx) Param(name string) string {
	return c.Request.Param(name)
}

// Query returns the first query value for key.
func (c *Ctx) Query(key string) string {
	return c.Request.Query.Get(key)
}

// Cookie returns a request cookie value.
func (c *Ctx) Cookie(name string) string {
	return c.Request.Cookie(name)
}

// BindJSON decodes the request body into v.
func (c *Ctx) BindJSON(v any) error {
	return c.Request.BindJSON(v)
}

// Accepts returns the offer preferred by the client.
func (c *Ctx) Accepts(offers ...string) string {
	return c.Request.Accepts(offers...)
}

// Status sets the response status.
func (c *Ctx) Status(code int) *Ctx {
	c.Response.Status(code)
	return c
}

// Set sets a response header.
func (c *Ctx) Set(key, value string) *Ctx {
	c.Response.Set(key, value)
	return c
}

// Type sets the response Content-Type.
func (c *Ctx) Type(t string) *Ctx {
	c.Response.Type(t)
	return c
}

// SetCookie queues a response cookie.
func (c *Ctx) SetCookie(name, value string, opts ...CookieOption) *Ctx {
	c.Response.SetCookie(name, value, opts...)
	return c
}

// ClearCookie expires a cookie on the client.
func (c *Ctx) ClearCookie(name string, opts ...CookieOption) *Ctx {
	c.Response.ClearCookie(name, opts...)
	return c
}

// Send sends body.
func (c *Ctx) Send(body []byte) error {
	return c.Response.Send(body)
}

// SendString sends s as text.
func (c *Ctx) SendString(s string) error {
	return c.Response.SendString(s)
}

// SendStatus sends the status with its reason phrase.
func (c *Ctx) SendStatus(code int) error {
	return c.Response.SendStatus(code)
}

// JSON sends v encoded as JSON.
func (c *Ctx) JSON(v any) error {
	return c.Response.JSON(v)
}

// HTML sends s as HTML.
func (c *Ctx) HTML(s string) error {
	return c.Response.HTML(s)
}

// Render renders a template through the configured Renderer.
func (c *Ctx) Render(name string, data any) error {
	return c.Response.Render(name, data)
}

// Redirect redirects to location, with 302 unless a status is given.
func (c *Ctx) Redirect(location string, status ...int) error {
	return c.Response.Redirect(location, status...)
}

// Download sends the file as an attachment.
func (c *Ctx) Download(path string, filename ...string) error {
	name := filepath.Base(path)
	if len(filename) > 0 && filename[0] != "" {
		name = filename[0]
	}
	c.Response.Attachment(name)
	return c.SendFile(path)
}

// SendFile sends the file at path and honors the request's Range header:
// one range yields 206 with Content-Range, several yield a
// multipart/byteranges body and an unsatisfiable header yields 416.
func (c *Ctx) SendFile(path string) error {
	res := c.Response
	if res.Sent() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewHttpErrorWithError(StatusNotFound, "", err)
		}
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return NewHttpError(StatusNotFound, "")
	}

	size := info.Size()
	contentType := res.Get(HeaderContentType)
	if contentType == "" {
		contentType = MimeType(filepath.Ext(path))
	}
	res.Set(HeaderAcceptRanges, "bytes")
	res.Set(HeaderLastModified, info.ModTime().UTC().Format(TimeFormat))

	if c.Request.Header.Get(HeaderRange) == "" || size == 0 {
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		res.Set(HeaderContentType, contentType)
		return res.Send(data)
	}

	ranges := c.Request.Range(size)
	switch len(ranges) {
	case 0:
		res.Status(StatusRequestedRangeNotSatisfiable)
		res.Set(HeaderContentRange, "bytes */"+strconv.FormatInt(size, 10))
		return res.Send(nil)
	case 1:
		r := ranges[0]
		data := make([]byte, r.Length())
		if _, err := f.ReadAt(data, r.Start); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		res.Status(StatusPartialContent)
		res.Set(HeaderContentType, contentType)
		res.Set(HeaderContentRange, r.contentRange(size))
		return res.Send(data)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	mw := multipart.NewWriter(buf)
	for _, r := range ranges {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			HeaderContentType:  {contentType},
			HeaderContentRange: {r.contentRange(size)},
		})
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, io.NewSectionReader(f, r.Start, r.Length())); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	res.Status(StatusPartialContent)
	res.Set(HeaderContentType, "multipart/byteranges; boundary="+mw.Boundary())
	return res.Send(buf.B)
}
