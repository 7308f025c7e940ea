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

// Package accesslog provides middleware for structured HTTP access logging
// with slog. For metrics and traces alongside access logs, prefer the
// telemetry package; this middleware is the lightweight option when logging
// is all that is needed.
package accesslog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/reroute-dev/reroute"
)

// Option configures the accesslog middleware.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	excludePaths map[string]bool
}

func defaultConfig() *config {
	return &config{
		logger:       slog.Default(),
		excludePaths: make(map[string]bool),
	}
}

// WithLogger sets the logger used for access log lines.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	r.Use(accesslog.New(accesslog.WithLogger(logger)))
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithExcludePaths excludes exact request paths from logging.
// Health checks are the typical use.
//
// Example:
//
//	accesslog.New(accesslog.WithExcludePaths("/healthz", "/readyz"))
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.excludePaths[p] = true
		}
	}
}

// New returns a middleware that logs one line per request with method,
// path, matched route pattern, status, response size, and duration.
//
// Status and size are read from the router's response writer; when a
// different writer is in place the status defaults to 200 and size to 0.
//
// Example:
//
//	r := reroute.MustNew()
//	r.Use(accesslog.New(accesslog.WithLogger(slog.Default())))
func New(opts ...Option) reroute.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *reroute.Context) {
		if cfg.logger == nil || cfg.excludePaths[c.Request.URL.Path] {
			c.Next()

			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := http.StatusOK
		var size int64
		if info, ok := c.Response.(reroute.ResponseInfo); ok {
			status = info.StatusCode()
			size = info.Size()
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		cfg.logger.LogAttrs(c.RequestContext(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", c.RoutePattern()),
			slog.Int("status", status),
			slog.Int64("size", size),
			slog.Duration("duration", duration),
		)
	}
}
