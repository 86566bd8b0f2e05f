package arus

import (
	"net/http"
	"strconv"
)

// ServeHTTP lets a Server run under net/http. The body is omitted for HEAD
// requests while Content-Length still reflects it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromHTTP(r)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejecting malformed request")
		http.Error(w, StatusText(StatusBadRequest), StatusBadRequest)
		return
	}

	res := s.Dispatcher().Dispatch(req)
	defer res.Release()
	writeResponse(w, req.Method, res)
}

func writeResponse(w http.ResponseWriter, method string, res *Response) {
	header := w.Header()
	for k, values := range res.Headers() {
		header[k] = values
	}
	body := res.Body()
	status := res.StatusCode()
	if bodyAllowed(status) {
		header.Set(HeaderContentLength, strconv.Itoa(len(body)))
	} else {
		body = nil
	}

	w.WriteHeader(status)
	if method != MethodHead && len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// bodyAllowed reports whether a response with status may carry a body.
func bodyAllowed(status int) bool {
	return status >= 200 && status != StatusNoContent && status != StatusNotModified
}
