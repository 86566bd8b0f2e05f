package arus

import (
	"encoding/xml"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/valyala/bytebufferpool"
)

// Response accumulates status, headers, cookies and body for one request.
// Send latches it: from then on every mutator is a no-op, so the first
// writer wins.
type Response struct {
	header   Header
	status   int
	cookies  []*Cookie
	body     *bytebufferpool.ByteBuffer
	sent     bool
	onSend   []func(*Response)
	renderer Renderer
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{
		header: make(Header),
		status: StatusOK,
		body:   bytebufferpool.Get(),
	}
}

// Sent reports whether the response has been finalized.
func (r *Response) Sent() bool {
	return r.sent
}

// Status sets the status code.
func (r *Response) Status(code int) *Response {
	if !r.sent {
		r.status = code
	}
	return r
}

// StatusCode returns the status code.
func (r *Response) StatusCode() int {
	return r.status
}

// Set replaces a header value.
func (r *Response) Set(key, value string) *Response {
	if !r.sent {
		r.header.Set(key, value)
	}
	return r
}

// Append adds a header value, keeping existing ones.
func (r *Response) Append(key, value string) *Response {
	if !r.sent {
		r.header.Add(key, value)
	}
	return r
}

// Del removes a header.
func (r *Response) Del(key string) *Response {
	if !r.sent {
		r.header.Del(key)
	}
	return r
}

// Get returns the first value of a response header.
func (r *Response) Get(key string) string {
	return r.header.Get(key)
}

// Values returns a copy of every value of a response header.
func (r *Response) Values(key string) []string {
	return append([]string(nil), r.header.Values(key)...)
}

// Headers returns a copy of the header fields. Changes to the copy do not
// reach the response.
func (r *Response) Headers() Header {
	return r.header.Clone()
}

// Type sets Content-Type. It accepts the shorthands json, html, text and
// xml, a file extension such as ".png", or a full MIME type.
func (r *Response) Type(t string) *Response {
	return r.Set(HeaderContentType, resolveType(t))
}

// Vary adds fields to the Vary header, skipping ones already present.
func (r *Response) Vary(fields ...string) *Response {
	if r.sent {
		return r
	}
	existing := r.header.Get(HeaderVary)
	for _, field := range fields {
		present := false
		for _, v := range strings.Split(existing, ",") {
			if strings.EqualFold(strings.TrimSpace(v), field) {
				present = true
				break
			}
		}
		if present {
			continue
		}
		if existing == "" {
			existing = field
		} else {
			existing += ", " + field
		}
	}
	if existing != "" {
		r.header.Set(HeaderVary, existing)
	}
	return r
}

// Cookie queues a cookie for the Set-Cookie header.
func (r *Response) Cookie(c *Cookie) *Response {
	if !r.sent && c != nil {
		r.cookies = append(r.cookies, c)
	}
	return r
}

// SetCookie queues a cookie with HttpOnly and SameSite=Lax defaults that the
// options may override.
func (r *Response) SetCookie(name, value string, opts ...CookieOption) *Response {
	return r.Cookie(newCookie(name, value, opts...))
}

// ClearCookie queues an expired cookie so the client removes it.
func (r *Response) ClearCookie(name string, opts ...CookieOption) *Response {
	opts = append([]CookieOption{WithMaxAge(-1), WithExpires(epoch)}, opts...)
	return r.SetCookie(name, "", opts...)
}

// Cookies returns the cookies queued so far.
func (r *Response) Cookies() []*Cookie {
	return r.cookies
}

// OnSend registers a hook that runs inside Send, before cookies are flushed
// and the response latches. Hooks may rewrite the body and headers. Each
// hook runs at most once: a hook that panics makes Send return a
// *PanicError and leaves the response unsent.
func (r *Response) OnSend(fn func(*Response)) *Response {
	if !r.sent && fn != nil {
		r.onSend = append(r.onSend, fn)
	}
	return r
}

// SetBody replaces the body without sending.
func (r *Response) SetBody(body []byte) *Response {
	if !r.sent {
		r.body.Reset()
		_, _ = r.body.Write(body)
	}
	return r
}

// Body returns the accumulated body.
func (r *Response) Body() []byte {
	if r.body == nil {
		return nil
	}
	return r.body.B
}

// Send sets the body and finalizes the response.
func (r *Response) Send(body []byte) error {
	if r.sent {
		return nil
	}
	r.SetBody(body)
	if len(body) > 0 && r.header.Get(HeaderContentType) == "" {
		r.header.Set(HeaderContentType, MIMEOctetStream)
	}
	return r.finalize()
}

// finalize runs the OnSend hooks, flushes cookies and latches. The hook
// list is consumed up front so a retry after a failed hook sends plainly.
func (r *Response) finalize() error {
	hooks := r.onSend
	r.onSend = nil
	for _, fn := range hooks {
		if err := safeHook(fn, r); err != nil {
			return err
		}
	}
	for _, c := range r.cookies {
		r.header.Add(HeaderSetCookie, c.String())
	}
	r.cookies = nil
	r.sent = true
	return nil
}

// SendString sends s, defaulting Content-Type to text/plain.
func (r *Response) SendString(s string) error {
	if r.sent {
		return nil
	}
	if r.header.Get(HeaderContentType) == "" {
		r.header.Set(HeaderContentType, MIMETextPlainCharsetUTF8)
	}
	return r.Send([]byte(s))
}

// SendStatus sets the status and sends its reason phrase.
func (r *Response) SendStatus(code int) error {
	return r.Status(code).SendString(StatusText(code))
}

// Text sends s as text/plain.
func (r *Response) Text(s string) error {
	return r.Type("text").Send([]byte(s))
}

// HTML sends s as text/html.
func (r *Response) HTML(s string) error {
	return r.Type("html").Send([]byte(s))
}

// JSON encodes v and sends it as application/json.
func (r *Response) JSON(v any) error {
	if r.sent {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Type("json").Send(b)
}

// XML encodes v and sends it as application/xml.
func (r *Response) XML(v any) error {
	if r.sent {
		return nil
	}
	b, err := xml.Marshal(v)
	if err != nil {
		return err
	}
	return r.Type("xml").Send(append([]byte(xml.Header), b...))
}

// End finalizes the response with whatever body has accumulated.
func (r *Response) End() error {
	if r.sent {
		return nil
	}
	return r.finalize()
}

// Redirect sets Location and sends an empty body. The status defaults to
// 302 Found.
func (r *Response) Redirect(location string, status ...int) error {
	if r.sent {
		return nil
	}
	code := StatusFound
	if len(status) > 0 {
		code = status[0]
	}
	r.Status(code).Set(HeaderLocation, location)
	return r.Send(nil)
}

// SendFile reads the file at path and sends it with a Content-Type derived
// from its extension. A missing file is a 404 HttpError.
func (r *Response) SendFile(path string) error {
	if r.sent {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewHttpErrorWithError(StatusNotFound, "", err)
		}
		return err
	}
	if r.header.Get(HeaderContentType) == "" {
		r.header.Set(HeaderContentType, MimeType(filepath.Ext(path)))
	}
	return r.Send(data)
}

// Attachment marks the response as a download, optionally naming the file.
func (r *Response) Attachment(filename ...string) *Response {
	if len(filename) == 0 || filename[0] == "" {
		return r.Set(HeaderContentDisposition, "attachment")
	}
	name := filepath.Base(filename[0])
	r.Type(filepath.Ext(name))
	return r.Set(HeaderContentDisposition, "attachment; filename="+strconv.Quote(name))
}

// Render executes the named template with data through the configured
// Renderer and sends the result as HTML. Renderer failures are returned
// as is and leave the response untouched.
func (r *Response) Render(name string, data any) error {
	if r.sent {
		return nil
	}
	if r.renderer == nil {
		return ErrNoRenderer
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := r.renderer.Render(buf, name, data); err != nil {
		return err
	}
	if r.header.Get(HeaderContentType) == "" {
		r.header.Set(HeaderContentType, MIMETextHTMLCharsetUTF8)
	}
	return r.Send(buf.B)
}

// Release returns the body buffer to the pool. The response must not be
// used afterwards.
func (r *Response) Release() {
	if r.body != nil {
		bytebufferpool.Put(r.body)
		r.body = nil
	}
}
