// Package httpparser frames HTTP/1.1 requests out of a connection buffer and
// serializes responses for the arus event-loop transport.
package httpparser

import (
	"bufio"
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/evanphx/wildcat"

	"github.com/ryanbekhen/arus/internal/pool"
)

var (
	headerEnd = []byte("\r\n\r\n")
	lastChunk = []byte("0\r\n\r\n")

	contentLengthBytes    = []byte("Content-Length")
	transferEncodingBytes = []byte("Transfer-Encoding")
)

// Error variables for HTTP parsing
var (
	// ErrIncomplete is returned when the buffer does not yet hold a whole
	// request. The caller should wait for more data.
	ErrIncomplete = errors.New("httpparser: incomplete request")
	// ErrInvalidChunk is returned when a chunk in a chunked request is invalid
	ErrInvalidChunk = errors.New("httpparser: invalid chunk")
	// ErrBodyTooLarge is returned when a declared body exceeds MaxBodySize.
	ErrBodyTooLarge = errors.New("httpparser: body too large")
)

// MaxBodySize bounds request bodies accepted by Parse.
const MaxBodySize = 4 << 20

// Header represents HTTP headers.
type Header map[string][]string

// Codec parses requests and buffers responses for one connection.
type Codec struct {
	Parser        *wildcat.HTTPParser
	ContentLength int
	Buf           []byte
}

var codecs = pool.New(func() *Codec {
	return &Codec{
		Parser:        wildcat.NewHTTPParser(),
		ContentLength: -1,
	}
}, (*Codec).Reset)

// NewCodec returns a pooled codec.
func NewCodec() *Codec {
	return codecs.Get()
}

// ReleaseCodec returns a codec to the pool.
func ReleaseCodec(hc *Codec) {
	codecs.Put(hc)
}

// Parse frames the first request in data. It returns the number of bytes
// the request occupies and its decoded body. ErrIncomplete means data ends
// mid-request.
func (hc *Codec) Parse(data []byte) (int, []byte, error) {
	hc.ResetParser()

	end := bytes.Index(data, headerEnd)
	if end == -1 {
		return 0, nil, ErrIncomplete
	}
	bodyStart := end + len(headerEnd)
	if _, err := hc.Parser.Parse(data[:bodyStart]); err != nil {
		return 0, nil, err
	}

	if te := hc.Parser.FindHeader(transferEncodingBytes); te != nil &&
		strings.Contains(strings.ToLower(string(te)), "chunked") {
		idx := bytes.Index(data[bodyStart:], lastChunk)
		if idx == -1 {
			if len(data)-bodyStart > MaxBodySize {
				return 0, nil, ErrBodyTooLarge
			}
			return 0, nil, ErrIncomplete
		}
		bodyEnd := bodyStart + idx + len(lastChunk)
		body, err := decodeChunked(data[bodyStart:bodyEnd])
		if err != nil {
			return 0, nil, err
		}
		return bodyEnd, body, nil
	}

	contentLength := hc.GetContentLength()
	if contentLength <= 0 {
		return bodyStart, nil, nil
	}
	if contentLength > MaxBodySize {
		return 0, nil, ErrBodyTooLarge
	}
	bodyEnd := bodyStart + contentLength
	if len(data) < bodyEnd {
		return 0, nil, ErrIncomplete
	}
	return bodyEnd, data[bodyStart:bodyEnd], nil
}

// decodeChunked decodes a complete chunked body including the last chunk.
func decodeChunked(data []byte) ([]byte, error) {
	var out []byte
	i := 0
	for i < len(data) {
		lineEnd := bytes.Index(data[i:], []byte("\r\n"))
		if lineEnd == -1 {
			return nil, ErrInvalidChunk
		}
		line := data[i : i+lineEnd]
		if semi := bytes.IndexByte(line, ';'); semi >= 0 {
			line = line[:semi]
		}
		size, err := strconv.ParseInt(string(bytes.TrimSpace(line)), 16, 64)
		if err != nil || size < 0 {
			return nil, ErrInvalidChunk
		}
		i += lineEnd + 2
		if size == 0 {
			return out, nil
		}
		if int64(len(data)-i) < size+2 {
			return nil, ErrInvalidChunk
		}
		out = append(out, data[i:i+int(size)]...)
		i += int(size)
		if data[i] != '\r' || data[i+1] != '\n' {
			return nil, ErrInvalidChunk
		}
		i += 2
	}
	return nil, ErrInvalidChunk
}

// GetContentLength gets the content length from the HTTP headers.
func (hc *Codec) GetContentLength() int {
	if hc.ContentLength != -1 {
		return hc.ContentLength
	}
	val := hc.Parser.FindHeader(contentLengthBytes)
	if val == nil {
		return -1
	}
	n, err := strconv.Atoi(string(bytes.TrimSpace(val)))
	if err != nil || n < 0 {
		return -1
	}
	hc.ContentLength = n
	return n
}

// ResetParser forgets the cached content length of the previous request.
func (hc *Codec) ResetParser() {
	hc.ContentLength = -1
}

// Reset resets the HTTP codec.
func (hc *Codec) Reset() {
	hc.ResetParser()
	hc.Buf = hc.Buf[:0]
	if hc.Parser == nil {
		hc.Parser = wildcat.NewHTTPParser()
	}
}

var readers = pool.New(func() *bufio.Reader {
	return bufio.NewReaderSize(nil, 4096)
}, func(r *bufio.Reader) { r.Reset(nil) })

// ReadRequest parses the request line and headers of a framed request.
// The body is left to the caller, which already holds it from Parse.
func ReadRequest(frame []byte) (*http.Request, error) {
	r := readers.Get()
	r.Reset(bytes.NewReader(frame))
	defer readers.Put(r)
	req, err := http.ReadRequest(r)
	if err != nil {
		return nil, err
	}
	req.Body = http.NoBody
	return req, nil
}

// Date header caching to avoid formatting the time on every response.
var (
	dateMu         sync.Mutex
	cachedDate     []byte
	lastDateUpdate int64
)

func dateHeader() []byte {
	now := time.Now()
	dateMu.Lock()
	defer dateMu.Unlock()
	if now.Unix() != lastDateUpdate || cachedDate == nil {
		cachedDate = now.UTC().AppendFormat(cachedDate[:0], http.TimeFormat)
		lastDateUpdate = now.Unix()
	}
	return cachedDate
}

// WriteResponse appends a serialized response to the codec buffer. Several
// pipelined responses may accumulate before the buffer is flushed. With
// omitBody the Content-Length still describes body but no bytes follow.
func (hc *Codec) WriteResponse(statusCode int, header Header, body []byte, omitBody bool) {
	buf := hc.Buf
	buf = append(buf, "HTTP/1.1 "...)
	buf = strconv.AppendInt(buf, int64(statusCode), 10)
	buf = append(buf, ' ')
	buf = append(buf, http.StatusText(statusCode)...)
	buf = append(buf, "\r\nDate: "...)
	buf = append(buf, dateHeader()...)
	buf = append(buf, "\r\n"...)

	for k, values := range header {
		if k == "Content-Length" {
			continue
		}
		for _, v := range values {
			buf = append(buf, k...)
			buf = append(buf, ": "...)
			buf = appendSanitized(buf, v)
			buf = append(buf, "\r\n"...)
		}
	}

	buf = append(buf, "Content-Length: "...)
	buf = strconv.AppendInt(buf, int64(len(body)), 10)
	buf = append(buf, "\r\n\r\n"...)
	if !omitBody {
		buf = append(buf, body...)
	}
	hc.Buf = buf
}

// appendSanitized appends a header value with CR and LF replaced by spaces.
func appendSanitized(buf []byte, v string) []byte {
	for i := 0; i < len(v); i++ {
		if c := v[i]; c == '\r' || c == '\n' {
			buf = append(buf, ' ')
		} else {
			buf = append(buf, c)
		}
	}
	return buf
}
