// Copyright 2025 The Reroute Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reroute

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Context carries one HTTP request through the handler chain: the request
// and response objects, the parameters extracted by the matched pattern, and
// the request-scoped logger.
//
// ⚠️ THREAD SAFETY: Context is NOT thread-safe. It is bound to a single
// request and must only be touched by the goroutine handling that request.
//
// ⚠️ MEMORY SAFETY: Contexts are pooled and reused. Do not retain a Context
// beyond the handler's lifetime; copy the data you need before starting
// goroutines.
//
// Parameter storage is hybrid: the first eight named parameters live in
// fixed arrays, additional ones overflow to a map. Positional captures (from
// unnamed groups) live in a separate slice.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter

	handlers []HandlerFunc
	router   *Router

	index      int32
	paramCount int32

	paramKeys   [8]string
	paramValues [8]string

	// Params overflows the arrays for routes with many named groups.
	Params map[string]string

	positional   []string
	routePattern string
	logger       *slog.Logger

	aborted bool
	errors  []error
}

// HandlerFunc is the signature for route handlers and middleware.
//
// Example middleware:
//
//	func Timer() reroute.HandlerFunc {
//	    return func(c *reroute.Context) {
//	        start := time.Now()
//	        c.Next()
//	        c.Logger().Debug("handled", "took", time.Since(start))
//	    }
//	}
type HandlerFunc func(*Context)

// NewContext creates a context outside the pooled request flow.
// Primarily useful for testing handlers directly.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		Request:  r,
		Response: w,
		index:    -1,
		logger:   noopLogger,
	}
}

// Next executes the next handler in the chain. Middleware calls Next to
// continue; not calling it stops the chain after the middleware returns.
func (c *Context) Next() {
	c.index++
	handlersLen := int32(len(c.handlers))

	if c.router != nil && c.router.checkCancellation {
		for c.index < handlersLen {
			if c.aborted {
				return
			}
			// Skip remaining handlers once the request context is canceled.
			if err := c.Request.Context().Err(); err != nil {
				return
			}
			c.handlers[c.index](c)
			c.index++
		}
	} else {
		for c.index < handlersLen {
			if c.aborted {
				return
			}
			c.handlers[c.index](c)
			c.index++
		}
	}
}

// Abort stops the chain from executing any further handlers.
// Handlers that already ran are unaffected.
func (c *Context) Abort() {
	c.aborted = true
}

// IsAborted reports whether the handler chain has been aborted.
func (c *Context) IsAborted() bool {
	return c.aborted
}

// Param returns the value captured by the named group, or "" when the
// pattern has no such group.
//
//	r.Handle(`^users/(?P<id>\d+)/$`, func(c *reroute.Context) {
//	    id := c.Param("id")
//	    ...
//	})
func (c *Context) Param(key string) string {
	for i := int32(0); i < c.paramCount; i++ {
		if c.paramKeys[i] == key {
			return c.paramValues[i]
		}
	}

	return c.Params[key]
}

// Positional returns the value captured by the i-th unnamed group,
// or "" when out of range.
func (c *Context) Positional(i int) string {
	if i < 0 || i >= len(c.positional) {
		return ""
	}

	return c.positional[i]
}

// PositionalCount returns the number of unnamed captures.
func (c *Context) PositionalCount() int {
	return len(c.positional)
}

// ParamCount returns the number of named parameters held in array storage.
func (c *Context) ParamCount() int32 {
	return c.paramCount
}

// setParam stores a named parameter, overflowing to the map past the arrays.
func (c *Context) setParam(key, value string) {
	if c.paramCount < maxInlineParams {
		c.paramKeys[c.paramCount] = key
		c.paramValues[c.paramCount] = value
		c.paramCount++

		return
	}
	if c.Params == nil {
		c.Params = make(map[string]string, 4)
	}
	c.Params[key] = value
}

// Query returns the URL query parameter value for the given key.
func (c *Context) Query(key string) string {
	return c.Request.URL.Query().Get(key)
}

// QueryDefault returns the query parameter value, or defaultValue when absent.
func (c *Context) QueryDefault(key, defaultValue string) string {
	if v := c.Query(key); v != "" {
		return v
	}

	return defaultValue
}

// Header sets a response header.
func (c *Context) Header(key, value string) {
	c.Response.Header().Set(key, value)
}

// Status writes the HTTP status code without a body.
func (c *Context) Status(code int) {
	c.Response.WriteHeader(code)
}

// JSON sends a JSON response with the given status code.
// The value is encoded to a buffer first so an encoding failure never leaves
// a half-written response.
func (c *Context) JSON(code int, obj any) error {
	var buf strings.Builder
	buf.Grow(256)

	if err := json.NewEncoder(&buf).Encode(obj); err != nil {
		return fmt.Errorf("JSON encoding failed for type %T: %w", obj, err)
	}

	if c.Response == nil {
		return ErrContextResponseNil
	}
	c.Response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.writeHeaderOnce(code)

	_, writeErr := c.Response.Write([]byte(buf.String()))

	return writeErr
}

// String sends a plain text response with the given status code.
func (c *Context) String(code int, value string) error {
	c.Response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.writeHeaderOnce(code)

	_, err := c.Response.Write([]byte(value))

	return err
}

// Stringf sends a formatted plain text response.
func (c *Context) Stringf(code int, format string, values ...any) error {
	return c.String(code, fmt.Sprintf(format, values...))
}

// HTML sends an HTML response with the given status code.
func (c *Context) HTML(code int, html string) error {
	c.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.writeHeaderOnce(code)

	_, err := c.Response.Write([]byte(html))

	return err
}

// Data sends raw bytes with an explicit content type.
func (c *Context) Data(code int, contentType string, data []byte) error {
	if contentType != "" {
		c.Response.Header().Set("Content-Type", contentType)
	}
	c.writeHeaderOnce(code)

	_, err := c.Response.Write(data)

	return err
}

// NoContent sends a 204 response without a body.
func (c *Context) NoContent() {
	c.Status(http.StatusNoContent)
}

// Redirect sends an HTTP redirect to the given location.
func (c *Context) Redirect(code int, location string) {
	http.Redirect(c.Response, c.Request, location, code)
}

// ServeFile serves the named file as the response.
func (c *Context) ServeFile(filepath string) {
	http.ServeFile(c.Response, c.Request, filepath)
}

// NotFound sends the default 404 response.
func (c *Context) NotFound() {
	http.NotFound(c.Response, c.Request)
}

// MethodNotAllowed sends a 405 response advertising the allowed methods.
func (c *Context) MethodNotAllowed(allowed []string) {
	c.Response.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(c.Response, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// writeHeaderOnce writes the status code unless headers were already sent.
func (c *Context) writeHeaderOnce(code int) {
	if rw, ok := c.Response.(*responseWriter); ok {
		if !rw.Written() {
			c.Response.WriteHeader(code)
		}

		return
	}
	c.Response.WriteHeader(code)
}

// Error records an error against the request. Collected errors can be
// inspected by later middleware (access logging, recovery).
func (c *Context) Error(err error) {
	if err == nil {
		return
	}
	c.errors = append(c.errors, err)
}

// Errors returns the errors recorded during this request.
func (c *Context) Errors() []error {
	return c.errors
}

// HasErrors reports whether any error was recorded.
func (c *Context) HasErrors() bool {
	return len(c.errors) > 0
}

// Logger returns the request-scoped logger. Without an observability
// recorder this is a no-op logger, so handlers can log unconditionally.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		return noopLogger
	}

	return c.logger
}

// RoutePattern returns the matched route's pattern source, or a sentinel
// like "_not_found" when no route matched.
func (c *Context) RoutePattern() string {
	return c.routePattern
}

// RequestContext returns the request's context.
func (c *Context) RequestContext() context.Context {
	return c.Request.Context()
}

// Span returns the current OpenTelemetry span from the request context.
// Returns a no-op span when tracing is not active.
func (c *Context) Span() trace.Span {
	return trace.SpanFromContext(c.Request.Context())
}

// reset clears the context for reuse from the pool.
func (c *Context) reset() {
	c.Request = nil
	c.Response = nil
	c.handlers = nil
	c.router = nil
	c.index = -1
	c.paramCount = 0
	c.positional = c.positional[:0]
	c.routePattern = ""
	c.logger = nil
	c.aborted = false
	c.errors = nil
	if len(c.Params) > 0 {
		clear(c.Params)
	}
}
