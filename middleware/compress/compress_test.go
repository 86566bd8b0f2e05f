package compress

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanbekhen/arus"
)

var payload = strings.Repeat("arus compresses repetitive payloads well. ", 100)

func newApp(cfg ...Config) *arus.Server {
	app := arus.New(arus.Config{DisableStartupMessage: true})
	app.Use(New(cfg...))
	app.GET("/text", func(c *arus.Ctx) error {
		return c.SendString(payload)
	})
	app.GET("/small", func(c *arus.Ctx) error {
		return c.SendString("tiny")
	})
	app.GET("/png", func(c *arus.Ctx) error {
		return c.Type("png").Send([]byte(payload))
	})
	app.GET("/encoded", func(c *arus.Ctx) error {
		c.Set(arus.HeaderContentEncoding, "identity")
		return c.SendString(payload)
	})
	app.GET("/error", func(c *arus.Ctx) error {
		return arus.NewHttpError(arus.StatusBadRequest, payload)
	})
	return app
}

func request(app *arus.Server, path, acceptEncoding string) (*http.Response, []byte) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	resp := app.Test(req)
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func decode(t *testing.T, encoding string, body []byte) string {
	t.Helper()
	var r io.Reader
	switch encoding {
	case EncodingBrotli:
		r = brotli.NewReader(bytes.NewReader(body))
	case EncodingZstd:
		zr, err := zstd.NewReader(bytes.NewReader(body))
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	case EncodingGzip:
		gr, err := gzip.NewReader(bytes.NewReader(body))
		require.NoError(t, err)
		r = gr
	default:
		return string(body)
	}
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1024, cfg.MinLength)
	assert.Equal(t, []string{"br", "zstd", "gzip"}, cfg.Encodings)
}

func TestNegotiate(t *testing.T) {
	offers := []string{EncodingBrotli, EncodingZstd, EncodingGzip}
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"gzip", "gzip"},
		{"gzip, br", "br"},
		{"gzip, zstd", "zstd"},
		{"br;q=0.5, gzip", "gzip"},
		{"br;q=0, gzip;q=0.1", "gzip"},
		{"*", "br"},
		{"*;q=0.1, gzip;q=0.9", "gzip"},
		{"identity", ""},
		{"GZIP", "gzip"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Negotiate(tt.header, offers), tt.header)
	}
}

func TestCompressesWithEachEncoding(t *testing.T) {
	app := newApp()
	for _, enc := range []string{EncodingBrotli, EncodingZstd, EncodingGzip} {
		t.Run(enc, func(t *testing.T) {
			resp, body := request(app, "/text", enc)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, enc, resp.Header.Get("Content-Encoding"))
			assert.Equal(t, "Accept-Encoding", resp.Header.Get("Vary"))
			assert.Less(t, len(body), len(payload))
			assert.Equal(t, payload, decode(t, enc, body))
		})
	}
}

func TestLevels(t *testing.T) {
	for _, level := range []Level{LevelBestSpeed, LevelBestCompression} {
		app := newApp(Config{Level: level})
		resp, body := request(app, "/text", "gzip")
		assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
		assert.Equal(t, payload, decode(t, EncodingGzip, body))
	}
}

func TestSkipped(t *testing.T) {
	app := newApp()
	tests := []struct {
		name   string
		path   string
		accept string
		vary   bool
	}{
		{"no header", "/text", "", true},
		{"below min length", "/small", "gzip", true},
		{"already compressed media", "/png", "gzip", false},
		{"existing encoding", "/encoded", "gzip", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := request(app, tt.path, tt.accept)
			enc := resp.Header.Get("Content-Encoding")
			assert.True(t, enc == "" || enc == "identity", enc)
			assert.Equal(t, tt.vary, resp.Header.Get("Vary") != "")
		})
	}
}

func TestCompressesErrorResponses(t *testing.T) {
	resp, body := request(newApp(), "/error", "gzip")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	assert.Contains(t, decode(t, EncodingGzip, body), `"code":"BAD_REQUEST"`)
}

func TestSkipFunc(t *testing.T) {
	app := newApp(Config{Skip: func(c *arus.Ctx) bool { return c.Path() == "/text" }})
	resp, body := request(app, "/text", "gzip")
	assert.Empty(t, resp.Header.Get("Content-Encoding"))
	assert.Equal(t, payload, string(body))
}
