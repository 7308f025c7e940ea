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

// Package requestid provides middleware that attaches a unique request ID
// to each request for log correlation and distributed tracing.
package requestid

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/reroute-dev/reroute"
)

type contextKey struct{}

// Option configures the requestid middleware.
type Option func(*config)

type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
}

func defaultConfig() *config {
	return &config{
		headerName:    "X-Request-ID",
		generator:     generateUUIDv7,
		allowClientID: true,
	}
}

// generateUUIDv7 generates a UUID v7 string for request IDs.
// UUID v7 is time-ordered and lexicographically sortable (RFC 9562).
func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ulidEntropy is a thread-safe entropy source for ULID generation with
// monotonic ordering within the same millisecond.
var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

func generateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// New returns a middleware that adds a unique request ID to each request.
//
// The middleware checks the configured header for a client-supplied ID,
// generates one when absent or disallowed, sets it on the response header,
// and stores it in the request context for retrieval with Get.
//
// Basic usage (UUID v7 by default):
//
//	r := reroute.MustNew()
//	r.Use(requestid.New())
//
// Using ULID (shorter, 26 characters):
//
//	r.Use(requestid.New(requestid.WithULID()))
//
// Custom header name:
//
//	r.Use(requestid.New(requestid.WithHeader("X-Correlation-ID")))
func New(opts ...Option) reroute.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *reroute.Context) {
		var requestID string

		if cfg.allowClientID {
			requestID = c.Request.Header.Get(cfg.headerName)
		}
		if requestID == "" {
			requestID = cfg.generator()
		}

		c.Response.Header().Set(cfg.headerName, requestID)

		ctx := context.WithValue(c.Request.Context(), contextKey{}, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Get retrieves the request ID from the context.
// Returns an empty string if no request ID has been set.
//
// Example:
//
//	func handler(c *reroute.Context) {
//	    c.Logger().Info("processing", "request_id", requestid.Get(c))
//	}
func Get(c *reroute.Context) string {
	if requestID, ok := c.Request.Context().Value(contextKey{}).(string); ok {
		return requestID
	}

	return ""
}

// WithHeader sets the header name used for the request ID.
// Default: "X-Request-ID"
func WithHeader(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.headerName = name
		}
	}
}

// WithGenerator sets a custom request ID generator.
func WithGenerator(generator func() string) Option {
	return func(cfg *config) {
		if generator != nil {
			cfg.generator = generator
		}
	}
}

// WithULID switches request ID generation to ULIDs, which are time-ordered
// and more compact than UUIDs (26 characters).
func WithULID() Option {
	return func(cfg *config) {
		cfg.generator = generateULID
	}
}

// WithAllowClientID controls whether client-supplied request IDs are
// trusted. Default: true
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) {
		cfg.allowClientID = allow
	}
}
