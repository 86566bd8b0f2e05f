package arus

import (
	"fmt"

	"github.com/go-stack/stack"
)

// Handler handles a request. Middleware and route handlers share this
// signature. A handler advances the chain by calling c.Next(); returning a
// non-nil error stops the chain and hands the error to the error handlers.
type Handler func(c *Ctx) error

// ErrorHandler is consulted when a handler fails. It may send a response
// itself, in which case the default classifier is skipped. Returning a
// non-nil error replaces the failure seen by later error handlers and the
// default classifier.
type ErrorHandler func(c *Ctx, err error) error

// toHandler converts the accepted handler shapes into a Handler.
func toHandler(h any) (Handler, bool) {
	switch fn := h.(type) {
	case Handler:
		return fn, fn != nil
	case func(*Ctx) error:
		return fn, fn != nil
	case func(*Ctx):
		if fn == nil {
			return nil, false
		}
		return func(c *Ctx) error {
			fn(c)
			return nil
		}, true
	default:
		return nil, false
	}
}

// safeCall runs h and turns a panic into a *PanicError carrying the stack of
// the panicking goroutine.
func safeCall(h Handler, c *Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r, stack.Trace().TrimRuntime())
		}
	}()
	return h(c)
}

// safeCallError runs an ErrorHandler with the same panic protection.
func safeCallError(h ErrorHandler, c *Ctx, failure error) (err error, panicked error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure
			panicked = newPanicError(r, stack.Trace().TrimRuntime())
		}
	}()
	return h(c, failure), nil
}

// safeHook runs an OnSend hook with the same panic protection.
func safeHook(fn func(*Response), r *Response) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = newPanicError(v, stack.Trace().TrimRuntime())
		}
	}()
	fn(r)
	return nil
}

// mustHandlers converts and validates handler arguments at registration time.
func mustHandlers(args []any) []Handler {
	handlers := make([]Handler, 0, len(args))
	for _, a := range args {
		h, ok := toHandler(a)
		if !ok {
			panic(fmt.Sprintf("arus: handler must be a func(*arus.Ctx) error, got %T", a))
		}
		handlers = append(handlers, h)
	}
	return handlers
}
