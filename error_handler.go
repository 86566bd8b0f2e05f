package arus

import (
	"errors"
	"html/template"

	"github.com/valyala/bytebufferpool"
)

const (
	codeValidation = "VALIDATION_ERROR"
	codeInternal   = "INTERNAL_ERROR"
)

type errorBody struct {
	Status  int                 `json:"status"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Details map[string][]string `json:"details,omitempty"`
	Detail  string              `json:"detail,omitempty"`
	Stack   string              `json:"stack,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type notFoundBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

type errorPage struct {
	Status  int
	Title   string
	Message string
	Code    string
	Detail  string
	Stack   string
}

var errorPageTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Status}} {{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:4rem auto;max-width:48rem;color:#222}
h1{font-size:2rem;margin-bottom:.25rem}
.code{color:#888;font-family:monospace}
pre{background:#f6f6f6;padding:1rem;overflow:auto;font-size:.8rem}
</style>
</head>
<body>
<h1>{{.Status}} {{.Title}}</h1>
<p class="message">{{.Message}}</p>
{{if .Code}}<p class="code">{{.Code}}</p>{{end}}
{{if .Detail}}<p class="detail">{{.Detail}}</p>{{end}}
{{if .Stack}}<pre class="stack">{{.Stack}}</pre>{{end}}
</body>
</html>
`))

// handleError runs the registered error handlers in order and falls back
// to the default classifier when none of them sends a response.
func (d *Dispatcher) handleError(c *Ctx, err error) {
	for _, h := range d.errorHandlers {
		next, panicked := safeCallError(h, c, err)
		if panicked != nil {
			d.logger.Error().
				Err(panicked).
				Str("path", c.Request.Path).
				Msg("error handler panicked")
		}
		if c.Response.Sent() {
			return
		}
		if next != nil {
			err = next
		}
	}
	d.classify(c, err)
}

// classify renders err by kind: validation failures as 422 JSON, HttpError
// with its own status, anything else as 500.
func (d *Dispatcher) classify(c *Ctx, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		d.sendJSONError(c, errorBody{
			Status:  StatusUnprocessableEntity,
			Message: "Validation failed",
			Code:    codeValidation,
			Details: validationErr.Fields,
		})
		return
	}

	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		status := httpErr.Status
		if status < 400 || status > 599 {
			status = StatusInternalServerError
		}
		if status >= StatusInternalServerError {
			d.logger.Error().
				Err(err).
				Str("method", c.Request.Method).
				Str("path", c.Request.Path).
				Int("status", status).
				Msg("request failed")
		}
		body := errorBody{Status: status, Message: httpErr.Message, Code: httpErr.Code}
		if body.Code == "" {
			body.Code = statusCode(status)
		}
		if !d.production && httpErr.Err != nil {
			body.Detail = httpErr.Err.Error()
			var tracer stackTracer
			if errors.As(httpErr.Err, &tracer) {
				body.Stack = tracer.StackTrace()
			}
		}
		d.sendError(c, body)
		return
	}

	d.logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.Path).
		Msg("unhandled error")

	body := errorBody{
		Status:  StatusInternalServerError,
		Message: StatusText(StatusInternalServerError),
		Code:    codeInternal,
	}
	if !d.production {
		body.Message = err.Error()
		var tracer stackTracer
		if errors.As(err, &tracer) {
			body.Stack = tracer.StackTrace()
		}
	}
	d.sendError(c, body)
}

// sendError picks HTML or JSON by content negotiation.
func (d *Dispatcher) sendError(c *Ctx, body errorBody) {
	if c.Request.AcceptsHTML() {
		d.sendErrorPage(c, errorPage{
			Status:  body.Status,
			Title:   StatusText(body.Status),
			Message: body.Message,
			Code:    body.Code,
			Detail:  body.Detail,
			Stack:   body.Stack,
		})
		return
	}
	d.sendJSONError(c, body)
}

func (d *Dispatcher) sendJSONError(c *Ctx, body errorBody) {
	res := c.Response
	res.Status(body.Status)
	if err := res.JSON(errorEnvelope{Error: body}); err != nil {
		d.logger.Error().Err(err).Msg("failed to send error response")
		_ = res.Type("text").Send([]byte(body.Message))
	}
}

func (d *Dispatcher) sendErrorPage(c *Ctx, page errorPage) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	res := c.Response
	res.Status(page.Status)
	if err := errorPageTemplate.Execute(buf, page); err != nil {
		d.logger.Error().Err(err).Msg("failed to render error page")
		_ = res.Type("text").Send([]byte(page.Message))
		return
	}
	if err := res.Type("html").Send(buf.B); err != nil {
		d.logger.Error().Err(err).Msg("failed to send error page")
		_ = res.Send(buf.B)
	}
}

// renderNotFound answers a request no route matched.
func (d *Dispatcher) renderNotFound(c *Ctx) {
	req := c.Request
	if req.AcceptsHTML() {
		d.sendErrorPage(c, errorPage{
			Status:  StatusNotFound,
			Title:   StatusText(StatusNotFound),
			Message: "Cannot " + req.Method + " " + req.Path,
		})
		return
	}
	c.Response.Status(StatusNotFound)
	_ = c.Response.JSON(notFoundBody{
		Error:  StatusText(StatusNotFound),
		Status: StatusNotFound,
		Method: req.Method,
		Path:   req.Path,
	})
}
