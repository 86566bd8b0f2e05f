package arus

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/panjf2000/gnet/v2"

	"github.com/ryanbekhen/arus/internal/httpparser"
	"github.com/ryanbekhen/arus/log"
)

// gnetLogger forwards gnet's own logging to the server logger.
type gnetLogger struct {
	logger log.ILogger
}

func (l gnetLogger) Debugf(format string, args ...interface{}) { l.logger.Debug().Msgf(format, args...) }
func (l gnetLogger) Infof(format string, args ...interface{})  { l.logger.Debug().Msgf(format, args...) }
func (l gnetLogger) Warnf(format string, args ...interface{})  { l.logger.Warn().Msgf(format, args...) }
func (l gnetLogger) Errorf(format string, args ...interface{}) { l.logger.Error().Msgf(format, args...) }
func (l gnetLogger) Fatalf(format string, args ...interface{}) { l.logger.Fatal().Msgf(format, args...) }

// transport is the gnet event handler. Each request is dispatched to
// completion inside the event loop that read it.
type transport struct {
	gnet.BuiltinEventEngine

	server *Server
	addr   string

	mu  sync.Mutex
	eng gnet.Engine
	up  bool
}

func newTransport(s *Server, addr string) *transport {
	if !strings.Contains(addr, "://") {
		addr = "tcp://" + addr
	}
	return &transport{server: s, addr: addr}
}

func (t *transport) run() error {
	cfg := t.server.config
	opts := []gnet.Option{
		gnet.WithMulticore(cfg.Multicore),
		gnet.WithReuseAddr(true),
		gnet.WithReusePort(true),
		gnet.WithLogger(gnetLogger{logger: t.server.logger}),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
	}
	if cfg.IdleTimeout > 0 {
		opts = append(opts, gnet.WithTCPKeepAlive(cfg.IdleTimeout))
	}
	return gnet.Run(t, t.addr, opts...)
}

func (t *transport) stop(ctx context.Context) error {
	t.mu.Lock()
	eng, up := t.eng, t.up
	t.mu.Unlock()
	if !up {
		return nil
	}
	return eng.Stop(ctx)
}

func (t *transport) OnBoot(eng gnet.Engine) gnet.Action {
	t.mu.Lock()
	t.eng = eng
	t.up = true
	t.mu.Unlock()
	t.server.logger.Debug().Str("addr", t.addr).Msg("event loop started")
	return gnet.None
}

func (t *transport) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	c.SetContext(httpparser.NewCodec())
	return nil, gnet.None
}

func (t *transport) OnClose(c gnet.Conn, err error) gnet.Action {
	if hc, ok := c.Context().(*httpparser.Codec); ok && hc != nil {
		httpparser.ReleaseCodec(hc)
	}
	return gnet.None
}

func (t *transport) OnTraffic(c gnet.Conn) gnet.Action {
	hc := c.Context().(*httpparser.Codec)
	buf, _ := c.Peek(-1)
	d := t.server.Dispatcher()

	action := gnet.None
	processed := 0
	for processed < len(buf) {
		n, body, err := hc.Parse(buf[processed:])
		if errors.Is(err, httpparser.ErrIncomplete) {
			break
		}
		if err != nil {
			t.reject(hc, err)
			action = gnet.Close
			processed = len(buf)
			break
		}

		frame := buf[processed : processed+n]
		processed += n

		httpReq, err := httpparser.ReadRequest(frame)
		if err != nil {
			t.reject(hc, err)
			action = gnet.Close
			processed = len(buf)
			break
		}

		// The connection buffer is reused after Discard, so the body is copied.
		var reqBody []byte
		if len(body) > 0 {
			reqBody = append([]byte(nil), body...)
		}
		req, err := NewRequest(httpReq.Method, httpReq.RequestURI, headerFrom(httpReq.Header), reqBody)
		if err != nil {
			t.reject(hc, err)
			action = gnet.Close
			processed = len(buf)
			break
		}
		req.Host = httpReq.Host
		if addr := c.RemoteAddr(); addr != nil {
			req.RemoteAddr = addr.String()
		}

		res := d.Dispatch(req)
		header := res.Headers()
		header.Set(HeaderServer, "arus")
		status := res.StatusCode()
		var out []byte
		if bodyAllowed(status) {
			out = res.Body()
		}
		hc.WriteResponse(status, httpparser.Header(header), out, req.Method == MethodHead)
		res.Release()

		if httpReq.Close {
			action = gnet.Close
			break
		}
	}

	if len(hc.Buf) > 0 {
		_, _ = c.Write(hc.Buf)
		hc.Buf = hc.Buf[:0]
	}
	if processed > 0 {
		_, _ = c.Discard(processed)
	}
	return action
}

// reject answers an unparseable request with 400 and logs it at debug.
func (t *transport) reject(hc *httpparser.Codec, err error) {
	t.server.logger.Debug().Err(err).Msg("rejecting malformed request")
	status := StatusBadRequest
	if errors.Is(err, httpparser.ErrBodyTooLarge) {
		status = StatusRequestEntityTooLarge
	}
	hc.WriteResponse(status, httpparser.Header{
		HeaderContentType: {MIMETextPlainCharsetUTF8},
		"Connection":      {"close"},
	}, []byte(StatusText(status)), false)
}
