// Package compress encodes response bodies with brotli, zstd or gzip,
// negotiated from Accept-Encoding.
package compress

import (
	"io"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/bytebufferpool"

	"github.com/ryanbekhen/arus"
)

// Level selects a speed/size trade-off, mapped onto each encoder's scale.
type Level int

const (
	LevelDefault Level = iota
	LevelBestSpeed
	LevelBestCompression
)

// Encodings understood by the middleware, in preference order.
const (
	EncodingBrotli = "br"
	EncodingZstd   = "zstd"
	EncodingGzip   = "gzip"
)

// Config represents the configuration for the Compress middleware.
type Config struct {
	// Level is the compression level. Default: LevelDefault
	Level Level

	// MinLength is the smallest body worth compressing. Default: 1024
	MinLength int

	// Encodings lists the offered encodings by preference.
	// Default: br, zstd, gzip
	Encodings []string

	// Skip, when it returns true, leaves the response untouched.
	Skip func(c *arus.Ctx) bool
}

// DefaultConfig returns the default configuration for the Compress middleware.
func DefaultConfig() Config {
	return Config{
		Level:     LevelDefault,
		MinLength: 1024,
		Encodings: []string{EncodingBrotli, EncodingZstd, EncodingGzip},
	}
}

// New returns a middleware that compresses the response body when it is
// sent. Bodies below MinLength, bodies that already carry a
// Content-Encoding, partial content and media that is compressed already
// are sent as is.
func New(config ...Config) arus.Handler {
	cfg := DefaultConfig()
	if len(config) > 0 {
		c := config[0]
		cfg.Level = c.Level
		if c.MinLength > 0 {
			cfg.MinLength = c.MinLength
		}
		if len(c.Encodings) > 0 {
			cfg.Encodings = c.Encodings
		}
		cfg.Skip = c.Skip
	}

	return func(c *arus.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}
		encoding := Negotiate(c.Get(arus.HeaderAcceptEncoding), cfg.Encodings)
		head := c.Method() == arus.MethodHead

		c.Response.OnSend(func(res *arus.Response) {
			if res.Get(arus.HeaderContentEncoding) != "" || !compressible(res) {
				return
			}
			res.Vary(arus.HeaderAcceptEncoding)
			body := res.Body()
			if encoding == "" || head || len(body) < cfg.MinLength {
				return
			}

			buf := bytebufferpool.Get()
			defer bytebufferpool.Put(buf)
			if err := encode(buf, encoding, cfg.Level, body); err != nil {
				return
			}
			if buf.Len() >= len(body) {
				return
			}
			res.SetBody(buf.B)
			res.Set(arus.HeaderContentEncoding, encoding)
			res.Del(arus.HeaderContentLength)
		})
		return c.Next()
	}
}

func compressible(res *arus.Response) bool {
	switch status := res.StatusCode(); {
	case status < 200, status == arus.StatusNoContent, status == arus.StatusNotModified,
		status == arus.StatusPartialContent:
		return false
	}
	ct := res.Get(arus.HeaderContentType)
	for _, prefix := range []string{"image/", "video/", "audio/", "application/zip", "application/gzip", "application/x-gzip", "font/woff"} {
		if strings.HasPrefix(ct, prefix) {
			return strings.HasPrefix(ct, "image/svg")
		}
	}
	return true
}

// Negotiate picks the first offer the Accept-Encoding header allows with
// the highest quality. It returns "" when nothing is acceptable or the
// header is absent.
func Negotiate(header string, offers []string) string {
	if header == "" {
		return ""
	}
	weights := map[string]float64{}
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		q := 1.0
		for _, p := range strings.Split(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.TrimSpace(k) == "q" {
				if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					q = f
				}
			}
		}
		weights[name] = q
	}

	best, bestQ := "", 0.0
	for _, offer := range offers {
		q, ok := weights[offer]
		if !ok {
			q, ok = weights["*"]
		}
		if ok && q > bestQ {
			best, bestQ = offer, q
		}
	}
	return best
}

func encode(w io.Writer, encoding string, level Level, body []byte) error {
	var enc io.WriteCloser
	switch encoding {
	case EncodingBrotli:
		l := brotli.DefaultCompression
		switch level {
		case LevelBestSpeed:
			l = brotli.BestSpeed
		case LevelBestCompression:
			l = brotli.BestCompression
		}
		enc = brotli.NewWriterLevel(w, l)
	case EncodingZstd:
		l := zstd.SpeedDefault
		switch level {
		case LevelBestSpeed:
			l = zstd.SpeedFastest
		case LevelBestCompression:
			l = zstd.SpeedBestCompression
		}
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(l))
		if err != nil {
			return err
		}
		enc = zw
	case EncodingGzip:
		l := gzip.DefaultCompression
		switch level {
		case LevelBestSpeed:
			l = gzip.BestSpeed
		case LevelBestCompression:
			l = gzip.BestCompression
		}
		gw, err := gzip.NewWriterLevel(w, l)
		if err != nil {
			return err
		}
		enc = gw
	default:
		return arus.NewHttpError(arus.StatusNotAcceptable, "unsupported encoding "+encoding)
	}

	if _, err := enc.Write(body); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
