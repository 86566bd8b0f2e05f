package arus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStatusText tests the StatusText function
func TestStatusText(t *testing.T) {
	testCases := []struct {
		code int
		text string
	}{
		{StatusOK, "OK"},
		{StatusCreated, "Created"},
		{StatusNoContent, "No Content"},
		{StatusPartialContent, "Partial Content"},
		{StatusMovedPermanently, "Moved Permanently"},
		{StatusFound, "Found"},
		{StatusBadRequest, "Bad Request"},
		{StatusUnauthorized, "Unauthorized"},
		{StatusForbidden, "Forbidden"},
		{StatusNotFound, "Not Found"},
		{StatusMethodNotAllowed, "Method Not Allowed"},
		{StatusUnprocessableEntity, "Unprocessable Entity"},
		{StatusTooManyRequests, "Too Many Requests"},
		{StatusInternalServerError, "Internal Server Error"},
		{StatusServiceUnavailable, "Service Unavailable"},
		{999, "Unknown Status Code"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.text, StatusText(tc.code), "StatusText(%d) returned incorrect value", tc.code)
	}
}

// TestStatusTextEdgeCases tests codes outside the table
func TestStatusTextEdgeCases(t *testing.T) {
	assert.Equal(t, "Unknown Status Code", StatusText(-1))
	assert.Equal(t, "Unknown Status Code", StatusText(0))
	assert.Equal(t, "Unknown Status Code", StatusText(306))
	assert.Equal(t, "Unknown Status Code", StatusText(512))
}

// TestStatusCode tests the machine-readable codes used in error envelopes
func TestStatusCode(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST", statusCode(StatusBadRequest))
	assert.Equal(t, "FORBIDDEN", statusCode(StatusForbidden))
	assert.Equal(t, "NOT_FOUND", statusCode(StatusNotFound))
	assert.Equal(t, "IM_A_TEAPOT", statusCode(StatusTeapot))
	assert.Equal(t, "TOO_MANY_REQUESTS", statusCode(StatusTooManyRequests))
	assert.Equal(t, "NON_AUTHORITATIVE_INFORMATION", statusCode(StatusNonAuthoritativeInfo))
	assert.Equal(t, "HTTP_ERROR", statusCode(999))
}

// TestHTTPMethods tests that all HTTP methods are defined correctly
func TestHTTPMethods(t *testing.T) {
	assert.Equal(t, "GET", MethodGet)
	assert.Equal(t, "POST", MethodPost)
	assert.Equal(t, "PUT", MethodPut)
	assert.Equal(t, "DELETE", MethodDelete)
	assert.Equal(t, "PATCH", MethodPatch)
	assert.Equal(t, "HEAD", MethodHead)
	assert.Equal(t, "OPTIONS", MethodOptions)
	assert.Equal(t, "CONNECT", MethodConnect)
	assert.Equal(t, "TRACE", MethodTrace)
	assert.Equal(t, "ALL", MethodAll)
}
