package arus

import (
	"bytes"
	"net/http"

	"github.com/valyala/bytebufferpool"
)

// responseWriter records what a net/http handler writes so it can be
// replayed into a Response.
type responseWriter struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        *bytebufferpool.ByteBuffer
}

func newResponseWriter() *responseWriter {
	return &responseWriter{
		header: make(http.Header),
		status: StatusOK,
		body:   bytebufferpool.Get(),
	}
}

// Header returns the header map that will be sent by WriteHeader.
func (w *responseWriter) Header() http.Header {
	return w.header
}

// Write records body bytes, sending an implicit 200 first.
func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(StatusOK)
	}
	return w.body.Write(b)
}

// WriteHeader records the status code. Only the first call counts.
func (w *responseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.status = statusCode
	w.wroteHeader = true
}

// Flush implements http.Flusher. Output is buffered until the handler
// returns, so there is nothing to do.
func (w *responseWriter) Flush() {}

// replay copies the recorded response into res and sends it.
func (w *responseWriter) replay(res *Response) error {
	defer bytebufferpool.Put(w.body)
	for k, values := range w.header {
		if k == HeaderContentLength {
			continue
		}
		res.Del(k)
		for _, v := range values {
			res.Append(k, v)
		}
	}
	if w.header.Get(HeaderContentType) == "" && w.body.Len() > 0 {
		res.Set(HeaderContentType, http.DetectContentType(w.body.B))
	}
	res.Status(w.status)
	return res.Send(w.body.B)
}

// toHTTP rebuilds a net/http request from the Request.
func (r *Request) toHTTP() (*http.Request, error) {
	hr, err := http.NewRequestWithContext(r.Context(), r.Method, r.OriginalURL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	hr.Header = http.Header(r.Header.Clone())
	hr.RequestURI = r.OriginalURL
	hr.RemoteAddr = r.RemoteAddr
	hr.Host = r.Host
	hr.ContentLength = int64(len(r.Body))
	return hr, nil
}

// HTTPHandler mounts a net/http handler, such as promhttp.Handler(), as an
// arus Handler. The handler's output becomes the response.
func HTTPHandler(h http.Handler) Handler {
	return func(c *Ctx) error {
		hr, err := c.Request.toHTTP()
		if err != nil {
			return NewHttpErrorWithError(StatusBadRequest, "", err)
		}
		w := newResponseWriter()
		h.ServeHTTP(w, hr)
		return w.replay(c.Response)
	}
}

// HTTPHandlerFunc is HTTPHandler for a plain function.
func HTTPHandlerFunc(f http.HandlerFunc) Handler {
	return HTTPHandler(f)
}
