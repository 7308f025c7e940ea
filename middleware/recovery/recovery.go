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

// Package recovery provides middleware that recovers from panics in HTTP
// handlers, preventing server crashes and returning proper error responses.
package recovery

import (
	"log/slog"
	"net/http"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/reroute-dev/reroute"
)

// Option configures the recovery middleware.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	handler    func(c *reroute.Context, err any)
	stackTrace bool
	stackSize  int
}

func defaultConfig() *config {
	return &config{
		logger:     slog.Default(),
		handler:    defaultHandler,
		stackTrace: true,
		stackSize:  4 << 10,
	}
}

func defaultHandler(c *reroute.Context, _ any) {
	c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "Internal server error",
		"code":  "INTERNAL_ERROR",
	})
}

// New returns a middleware that recovers from panics in downstream handlers.
// The panic value and a stack trace are logged, the active span (if any) is
// marked as errored, and a 500 response is sent via the configured handler.
//
// http.ErrAbortHandler is re-panicked so the server's connection abort
// mechanism keeps working.
//
// Example:
//
//	r := reroute.MustNew()
//	r.Use(recovery.New())
func New(opts ...Option) reroute.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *reroute.Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			var stack []byte
			if cfg.stackTrace {
				stack = make([]byte, cfg.stackSize)
				stack = stack[:runtime.Stack(stack, false)]
			}

			if cfg.logger != nil {
				cfg.logger.Error("panic recovered",
					slog.Any("panic", err),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(stack)),
				)
			}

			if span := c.Span(); span.SpanContext().IsValid() {
				span.SetStatus(codes.Error, "panic recovered")
				span.SetAttributes(attribute.String("panic.value", describe(err)))
			}

			c.Abort()
			cfg.handler(c, err)
		}()

		c.Next()
	}
}

func describe(err any) string {
	if e, ok := err.(error); ok {
		return e.Error()
	}
	if s, ok := err.(string); ok {
		return s
	}

	return "unknown panic"
}
