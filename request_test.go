package arus

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	assert := assert.New(t)

	req, err := NewRequest("get", "/search/caf%C3%A9?q=go&q=rust&page=2", Header{"Host": {"example.com"}}, nil)
	require.NoError(t, err)
	assert.Equal(MethodGet, req.Method)
	assert.Equal("/search/café", req.Path)
	assert.Equal("/search/caf%C3%A9?q=go&q=rust&page=2", req.OriginalURL)
	assert.Equal([]string{"go", "rust"}, req.Query["q"])
	assert.Equal("example.com", req.Host)
	assert.NotNil(req.Params)
	assert.NotNil(req.Context())

	_, err = NewRequest(MethodGet, "::not a uri", nil, nil)
	assert.Error(err)
}

func TestRequestIP(t *testing.T) {
	testCases := []struct {
		name   string
		header Header
		remote string
		want   string
	}{
		{"forwarded first entry", Header{"X-Forwarded-For": {"203.0.113.7, 10.0.0.1"}, "X-Real-Ip": {"10.0.0.2"}}, "10.0.0.3:1234", "203.0.113.7"},
		{"real ip", Header{"X-Real-Ip": {"10.0.0.2"}}, "10.0.0.3:1234", "10.0.0.2"},
		{"remote addr", Header{}, "10.0.0.3:1234", "10.0.0.3"},
		{"remote without port", Header{}, "10.0.0.3", "10.0.0.3"},
		{"nothing", Header{}, "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := &Request{Header: tc.header, RemoteAddr: tc.remote}
			assert.Equal(t, tc.want, req.IP())
		})
	}
}

func TestRequestProtocol(t *testing.T) {
	req := &Request{Header: Header{}}
	assert.Equal(t, "http", req.Protocol())
	assert.False(t, req.Secure())

	req.TLS = true
	assert.Equal(t, "https", req.Protocol())

	req = &Request{Header: Header{"X-Forwarded-Proto": {"HTTPS, http"}}}
	assert.Equal(t, "https", req.Protocol())
	assert.True(t, req.Secure())

	req = &Request{Header: Header{"X-Forwarded-Host": {"public.example"}}, Host: "internal:8080"}
	assert.Equal(t, "public.example", req.Hostname())

	req = &Request{Header: Header{"X-Requested-With": {"xmlhttprequest"}}}
	assert.True(t, req.XHR())
}

func TestRequestJSONMemoized(t *testing.T) {
	req, err := NewRequest(MethodPost, "/", Header{"Content-Type": {"application/json"}}, []byte(`{"name":"ada","age":36}`))
	require.NoError(t, err)

	v, err := req.JSON()
	require.NoError(t, err)
	obj := v.(map[string]any)
	assert.Equal(t, "ada", obj["name"])

	// The parsed value is cached, so later body edits are not seen.
	req.Body = []byte(`{"name":"grace"}`)
	v, _ = req.JSON()
	assert.Equal(t, "ada", v.(map[string]any)["name"])

	req, _ = NewRequest(MethodPost, "/", nil, []byte(`{broken`))
	_, err = req.JSON()
	var httpErr *HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, StatusBadRequest, httpErr.Status)

	req, _ = NewRequest(MethodPost, "/", nil, nil)
	v, err = req.JSON()
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestRequestBindJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req, _ := NewRequest(MethodPost, "/", nil, []byte(`{"name":"ada"}`))
	require.NoError(t, req.BindJSON(&dst))
	assert.Equal(t, "ada", dst.Name)

	req, _ = NewRequest(MethodPost, "/", nil, nil)
	assert.Error(t, req.BindJSON(&dst))
}

func TestRequestForm(t *testing.T) {
	req, _ := NewRequest(MethodPost, "/", Header{"Content-Type": {MIMEApplicationForm}}, []byte("a=1&b=two&b=three"))
	form, err := req.Form()
	require.NoError(t, err)
	assert.Equal(t, "1", form.Get("a"))
	assert.Equal(t, []string{"two", "three"}, form["b"])

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "hello"))
	require.NoError(t, mw.Close())
	req, _ = NewRequest(MethodPost, "/", Header{"Content-Type": {mw.FormDataContentType()}}, body.Bytes())
	form, err = req.Form()
	require.NoError(t, err)
	assert.Equal(t, "hello", form.Get("title"))

	req, _ = NewRequest(MethodPost, "/", Header{"Content-Type": {"text/plain"}}, []byte("a=1"))
	form, err = req.Form()
	assert.NoError(t, err)
	assert.Empty(t, form)
}

func TestRequestCookies(t *testing.T) {
	req, _ := NewRequest(MethodGet, "/", Header{"Cookie": {`a=1; b="quoted"; c=hello%20world; a=2; broken; =x`}}, nil)
	assert.Equal(t, map[string]string{"a": "1", "b": "quoted", "c": "hello world"}, req.Cookies())
	assert.Equal(t, "hello world", req.Cookie("c"))
	assert.Equal(t, "", req.Cookie("missing"))
}

func TestRequestParamPrecedence(t *testing.T) {
	req, _ := NewRequest(MethodPost, "/?id=query&q=search",
		Header{"Content-Type": {"application/json"}},
		[]byte(`{"id":"body","q":"body","n":5,"nested":{"k":"v"},"nil":null}`))
	req.Params = map[string]string{"id": "route"}

	assert.Equal(t, "route", req.Param("id"))
	assert.Equal(t, "search", req.Param("q"))
	assert.Equal(t, "5", req.Param("n"))
	assert.Equal(t, `{"k":"v"}`, req.Param("nested"))
	assert.Equal(t, "", req.Param("nil"))
	assert.Equal(t, "", req.Param("missing"))

	req, _ = NewRequest(MethodPost, "/", Header{"Content-Type": {MIMEApplicationForm}}, []byte("name=ada"))
	assert.Equal(t, "ada", req.Param("name"))
}

func TestAccepts(t *testing.T) {
	testCases := []struct {
		accept string
		offers []string
		want   string
	}{
		{"", []string{"json", "html"}, "json"},
		{"text/html", []string{"json", "html"}, "html"},
		{"application/json, text/html", []string{"html", "json"}, "html"},
		{"text/html;q=0.5, application/json", []string{"html", "json"}, "json"},
		{"*/*", []string{"xml", "json"}, "xml"},
		{"text/*", []string{"json", "text"}, "text"},
		{"image/png", []string{"json", "html"}, ""},
		{"text/html;q=0, */*", []string{"html", "json"}, "json"},
		{"application/xml", []string{"application/json", "application/xml"}, "application/xml"},
	}
	for _, tc := range testCases {
		req := &Request{Header: Header{"Accept": {tc.accept}}}
		assert.Equal(t, tc.want, req.Accepts(tc.offers...), "Accept %q offers %v", tc.accept, tc.offers)
	}

	req := &Request{Header: Header{}}
	assert.Equal(t, "", req.Accepts())
	assert.False(t, req.AcceptsHTML())
}

func TestIs(t *testing.T) {
	req := &Request{Header: Header{"Content-Type": {"application/json; charset=utf-8"}}}
	assert.Equal(t, "json", req.Is("json"))
	assert.Equal(t, "application/*", req.Is("html", "application/*"))
	assert.Equal(t, "", req.Is("html"))

	req = &Request{Header: Header{"Content-Type": {"application/vnd.api+json"}}}
	assert.Equal(t, "json", req.Is("json"))

	req = &Request{Header: Header{}}
	assert.Equal(t, "", req.Is("json"))
}

func TestRange(t *testing.T) {
	testCases := []struct {
		header string
		want   []ByteRange
	}{
		{"", nil},
		{"bytes=0-4", []ByteRange{{0, 4}}},
		{"bytes=5-", []ByteRange{{5, 9}}},
		{"bytes=-3", []ByteRange{{7, 9}}},
		{"bytes=-30", []ByteRange{{0, 9}}},
		{"bytes=8-100", []ByteRange{{8, 9}}},
		{"bytes=6-7, 0-1", []ByteRange{{0, 1}, {6, 7}}},
		{"bytes=0-4,3-6", nil},
		{"bytes=10-", nil},
		{"bytes=5-2", nil},
		{"bytes=a-b", nil},
		{"bytes=-0", nil},
		{"items=0-1", nil},
		{"bytes=0-1,", nil},
	}
	for _, tc := range testCases {
		req := &Request{Header: Header{}}
		if tc.header != "" {
			req.Header.Set("Range", tc.header)
		}
		assert.Equal(t, tc.want, req.Range(10), "Range %q", tc.header)
	}

	assert.Equal(t, int64(4), ByteRange{Start: 2, End: 5}.Length())
	assert.Equal(t, "bytes 2-5/10", ByteRange{Start: 2, End: 5}.contentRange(10))
}
