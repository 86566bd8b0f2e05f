package arus

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-stack/stack"
)

var (
	// ErrRouterFrozen is the panic value raised when a route or middleware is
	// registered after the dispatcher has been built.
	ErrRouterFrozen = errors.New("arus: router is frozen, register routes before serving")

	// ErrNoRenderer is returned by Render when no Renderer is configured.
	ErrNoRenderer = errors.New("arus: no renderer configured")
)

// HttpError is a structured HTTP failure: an explicit status, a message safe
// to show to clients and a machine-readable code.
type HttpError struct {
	Status  int    // HTTP status code
	Message string // Client-facing message
	Code    string // Machine-readable code, e.g. "FORBIDDEN"
	Err     error  // Original error, if any
}

// Error implements the error interface.
func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error, if any.
func (e *HttpError) Unwrap() error {
	return e.Err
}

// NewHttpError creates an HttpError whose code is derived from the status,
// e.g. 403 -> "FORBIDDEN". An empty message falls back to the status text.
func NewHttpError(status int, message string) *HttpError {
	if message == "" {
		message = StatusText(status)
	}
	return &HttpError{
		Status:  status,
		Message: message,
		Code:    statusCode(status),
	}
}

// NewHttpErrorWithCode creates an HttpError with an explicit code.
func NewHttpErrorWithCode(status int, message, code string) *HttpError {
	e := NewHttpError(status, message)
	if code != "" {
		e.Code = code
	}
	return e
}

// NewHttpErrorWithError creates an HttpError wrapping err.
func NewHttpErrorWithError(status int, message string, err error) *HttpError {
	e := NewHttpError(status, message)
	e.Err = err
	return e
}

// ValidationError carries per-field validation messages. It is always
// reported to clients as 422 Unprocessable Entity.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a ValidationError from a field map.
func NewValidationError(fields map[string][]string) *ValidationError {
	if fields == nil {
		fields = map[string][]string{}
	}
	return &ValidationError{Fields: fields}
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("validation failed")
	for i, k := range keys {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(" ")
		b.WriteString(strings.Join(e.Fields[k], ", "))
	}
	return b.String()
}

// PanicError is a panic recovered from a handler or an OnSend hook.
type PanicError struct {
	Value any
	Stack stack.CallStack
}

func newPanicError(v any, cs stack.CallStack) *PanicError {
	return &PanicError{Value: v, Stack: cs}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// StackTrace renders the captured stack, one frame per line.
func (e *PanicError) StackTrace() string {
	var b strings.Builder
	for _, call := range e.Stack {
		fmt.Fprintf(&b, "%n\n\t%+v\n", call, call)
	}
	return b.String()
}

// stackTracer is implemented by failures that carry a stack trace.
type stackTracer interface {
	StackTrace() string
}
