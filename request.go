package arus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// maxMultipartMemory bounds the memory used when parsing multipart forms.
const maxMultipartMemory = 32 << 20

// Request is the read-mostly view of one incoming request. It is owned by a
// single dispatch and never shared between requests.
type Request struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	Method string

	// Path is the percent-decoded request path, normalized by the dispatcher.
	Path string

	// OriginalURL is the unmodified request target as sent by the client.
	OriginalURL string

	// Header contains the request header fields.
	Header Header

	// Query holds the parsed query string.
	Query url.Values

	// Params holds route parameters once a route has matched.
	Params map[string]string

	// Body is the raw request body.
	Body []byte

	// BasePath is the prefix of the prefix-scoped middleware currently running.
	BasePath string

	// RemoteAddr is the network address that sent the request.
	RemoteAddr string

	// Host is the host the request was addressed to.
	Host string

	// TLS reports whether the request arrived over TLS.
	TLS bool

	// Session and User are attached by session and auth middleware before
	// routing. The core only reads them.
	Session any
	User    any

	ctx context.Context

	jsonParsed bool
	jsonValue  any
	jsonErr    error

	formParsed bool
	formValue  url.Values
	formErr    error

	cookies map[string]string
}

// NewRequest builds a Request from the transport bundle: method, request
// target, headers and body.
func NewRequest(method, target string, header Header, body []byte) (*Request, error) {
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return nil, fmt.Errorf("arus: invalid request target %q: %w", target, err)
	}
	if header == nil {
		header = make(Header)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	return &Request{
		Method:      strings.ToUpper(method),
		Path:        path,
		OriginalURL: target,
		Header:      header,
		Query:       u.Query(),
		Params:      map[string]string{},
		Body:        body,
		Host:        header.Get(HeaderHost),
		ctx:         context.Background(),
	}, nil
}

// requestFromHTTP converts a net/http request, reading its body.
func requestFromHTTP(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			return nil, err
		}
		body = b
	}

	target := r.RequestURI
	if target == "" {
		target = r.URL.RequestURI()
	}

	req, err := NewRequest(r.Method, target, headerFrom(r.Header), body)
	if err != nil {
		return nil, err
	}
	req.RemoteAddr = r.RemoteAddr
	req.Host = r.Host
	req.TLS = r.TLS != nil
	req.ctx = r.Context()
	return req, nil
}

// Context returns the request's context.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext sets the request's context.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("nil context")
	}
	r.ctx = ctx
	return r
}

// Get returns the first value of a request header. Lookup is case-insensitive.
func (r *Request) Get(key string) string {
	return r.Header.Get(key)
}

// UserAgent returns the client's User-Agent header.
func (r *Request) UserAgent() string {
	return r.Header.Get(HeaderUserAgent)
}

// IP returns the client IP. The order of precedence is the first
// X-Forwarded-For entry, X-Real-Ip, then RemoteAddr.
func (r *Request) IP() string {
	if xff := r.Header.Get(HeaderXForwardedFor); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			xff = xff[:i]
		}
		if ip := strings.TrimSpace(xff); ip != "" {
			return ip
		}
	}

	if xrip := r.Header.Get(HeaderXRealIP); xrip != "" {
		return xrip
	}

	if r.RemoteAddr != "" {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil {
			return ip
		}
		return r.RemoteAddr
	}

	return ""
}

// Protocol returns "http" or "https", honoring proxy headers first.
func (r *Request) Protocol() string {
	if proto := r.Header.Get(HeaderXForwardedProto); proto != "" {
		if i := strings.IndexByte(proto, ','); i > 0 {
			proto = proto[:i]
		}
		return strings.ToLower(strings.TrimSpace(proto))
	}
	if r.Header.Get("X-Forwarded-Ssl") == "on" || r.Header.Get("Front-End-Https") == "on" {
		return "https"
	}
	if r.TLS {
		return "https"
	}
	return "http"
}

// Secure reports whether the request was made over https.
func (r *Request) Secure() bool {
	return r.Protocol() == "https"
}

// Hostname returns the host the client addressed, honoring X-Forwarded-Host.
func (r *Request) Hostname() string {
	if host := r.Header.Get(HeaderXForwardedHost); host != "" {
		return host
	}
	return r.Host
}

// XHR reports whether the request was issued by XMLHttpRequest.
func (r *Request) XHR() bool {
	return strings.EqualFold(r.Header.Get(HeaderXRequestedWith), "XMLHttpRequest")
}

// JSON parses the body as JSON once and caches the result, including a
// parse error. An empty body yields (nil, nil).
func (r *Request) JSON() (any, error) {
	if r.jsonParsed {
		return r.jsonValue, r.jsonErr
	}
	r.jsonParsed = true

	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(r.Body, &r.jsonValue); err != nil {
		r.jsonValue = nil
		r.jsonErr = NewHttpErrorWithError(StatusBadRequest, "Invalid JSON body", err)
	}
	return r.jsonValue, r.jsonErr
}

// BindJSON decodes the body into v. Unlike JSON, the result is not cached.
func (r *Request) BindJSON(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return NewHttpError(StatusBadRequest, "Request body is empty")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return NewHttpErrorWithError(StatusBadRequest, "Invalid JSON body", err)
	}
	return nil
}

// Form parses an urlencoded or multipart body once and caches the values.
// Bodies of other types yield an empty set.
func (r *Request) Form() (url.Values, error) {
	if r.formParsed {
		return r.formValue, r.formErr
	}
	r.formParsed = true
	r.formValue = url.Values{}

	mediaType, params, err := mime.ParseMediaType(r.Header.Get(HeaderContentType))
	if err != nil {
		return r.formValue, nil
	}

	switch mediaType {
	case MIMEApplicationForm:
		values, err := url.ParseQuery(string(r.Body))
		if err != nil {
			r.formErr = NewHttpErrorWithError(StatusBadRequest, "Invalid form body", err)
			return r.formValue, r.formErr
		}
		r.formValue = values
	case MIMEMultipartForm:
		boundary := params["boundary"]
		if boundary == "" {
			r.formErr = NewHttpError(StatusBadRequest, "Missing multipart boundary")
			return r.formValue, r.formErr
		}
		form, err := multipart.NewReader(bytes.NewReader(r.Body), boundary).ReadForm(maxMultipartMemory)
		if err != nil {
			r.formErr = NewHttpErrorWithError(StatusBadRequest, "Invalid multipart body", err)
			return r.formValue, r.formErr
		}
		for k, vv := range form.Value {
			r.formValue[k] = vv
		}
		_ = form.RemoveAll()
	}
	return r.formValue, r.formErr
}

// Cookies parses the Cookie header once and returns name to value.
func (r *Request) Cookies() map[string]string {
	if r.cookies == nil {
		r.cookies = parseCookies(strings.Join(r.Header.Values(HeaderCookie), "; "))
	}
	return r.cookies
}

// Cookie returns the value of the named cookie, or "".
func (r *Request) Cookie(name string) string {
	return r.Cookies()[name]
}

// Param looks a name up in route params, then the query string, then the
// parsed body (a JSON object field or a form field).
func (r *Request) Param(name string) string {
	if v, ok := r.Params[name]; ok {
		return v
	}
	if r.Query != nil {
		if vv, ok := r.Query[name]; ok && len(vv) > 0 {
			return vv[0]
		}
	}
	return r.bodyParam(name)
}

func (r *Request) bodyParam(name string) string {
	if len(r.Body) == 0 {
		return ""
	}

	switch {
	case r.Is("json") != "":
		v, err := r.JSON()
		if err != nil {
			return ""
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		field, ok := obj[name]
		if !ok || field == nil {
			return ""
		}
		if s, ok := field.(string); ok {
			return s
		}
		b, err := json.Marshal(field)
		if err != nil {
			return ""
		}
		return string(b)
	case r.Is("form", MIMEMultipartForm) != "":
		form, err := r.Form()
		if err != nil {
			return ""
		}
		return form.Get(name)
	}
	return ""
}
