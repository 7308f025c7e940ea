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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reroute-dev/reroute/pattern"
)

// noopLogger is a singleton no-op logger used when no observability is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns the singleton no-op logger.
// This is used by implementations of ObservabilityRecorder when logging is disabled.
func NoopLogger() *slog.Logger {
	return noopLogger
}

// Option defines functional options for router configuration.
type Option func(*Router)

// Router holds an ordered table of regex routes and dispatches HTTP requests
// to the first route whose pattern matches the request path.
//
// The table is mutable between New and Freeze; the first served request
// freezes it implicitly. After freeze the Router is immutable and safe for
// concurrent use without synchronization.
//
// The route table is a plain value: construct one per server, hand it to the
// serving layer, compose several with Mount. Nothing is registered globally.
//
// Example:
//
//	r := reroute.MustNew()
//	r.Handle(`^users/(?P<id>\d+)/$`, func(c *reroute.Context) {
//	    c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
//	})
//	http.ListenAndServe(":8080", r)
type Router struct {
	mu          sync.RWMutex // protects routes and namedRoutes before freeze
	routes      []*Route     // registration order is dispatch order
	namedRoutes map[string]*Route

	middleware   []HandlerFunc // global middleware, composed into chains at freeze
	middlewareMu sync.RWMutex

	observability ObservabilityRecorder
	diagnostics   DiagnosticHandler

	frozen        atomic.Bool
	freezeOnce    sync.Once
	routeSnapshot []*Route // immutable slice built at freeze time

	noRouteHandler HandlerFunc  // nil means http.NotFound
	noRouteMutex   sync.RWMutex

	checkCancellation bool
	enableH2C         bool
	serverTimeouts    *serverTimeouts

	server   *http.Server
	serverMu sync.Mutex
}

// serverTimeouts holds HTTP server timeout configuration.
type serverTimeouts struct {
	readHeader time.Duration
	read       time.Duration
	write      time.Duration
	idle       time.Duration
}

// maxInlineParams is the number of named parameters stored in the context's
// fixed arrays before overflowing to a map.
const maxInlineParams = 8

// New creates a router with optional configuration.
//
// The returned router is ready for registration. Configuration is validated
// immediately rather than at serve time; an invalid option set is returned
// as an error wrapping ErrConfiguration.
//
// For a version that panics instead of returning an error, use MustNew.
//
// Example:
//
//	r, err := reroute.New(
//	    reroute.WithServerTimeouts(10*time.Second, 30*time.Second, 60*time.Second, 120*time.Second),
//	)
//	if err != nil {
//	    log.Fatalf("invalid router configuration: %v", err)
//	}
func New(opts ...Option) (*Router, error) {
	r := &Router{
		checkCancellation: true,
		namedRoutes:       make(map[string]*Route),
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return r, nil
}

// MustNew creates a router and panics if configuration is invalid.
// Convenience wrapper around New for startup code where configuration errors
// should fail immediately.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("reroute.MustNew: %v", err))
	}

	return r
}

// validate checks the router configuration for common errors.
func (r *Router) validate() error {
	if t := r.serverTimeouts; t != nil {
		if t.readHeader <= 0 || t.read <= 0 || t.write <= 0 || t.idle <= 0 {
			return ErrServerTimeoutInvalid
		}
	}

	return nil
}

// Register appends a route to the table. Routes dispatch in registration
// order; an earlier pattern that also matches shadows this one.
//
// name may be empty. A non-empty name must be unique and enables reverse
// lookup via URLFor.
//
// Errors wrap ErrConfiguration: invalid regex, duplicate name, registration
// after freeze.
func (r *Router) Register(pat, name string, handlers ...HandlerFunc) (*Route, error) {
	p, err := pattern.Compile(pat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return nil, fmt.Errorf("%w: %w: cannot register %q", ErrConfiguration, ErrRoutesFrozen, pat)
	}
	if name != "" {
		if _, exists := r.namedRoutes[name]; exists {
			return nil, fmt.Errorf("%w: %w: %q", ErrConfiguration, ErrDuplicateRouteName, name)
		}
	}

	rt := &Route{
		router:   r,
		pattern:  p,
		raw:      pat,
		name:     name,
		handlers: handlers,
	}
	r.routes = append(r.routes, rt)
	if name != "" {
		r.namedRoutes[name] = rt
	}

	if name != "" && !p.Reversible() {
		r.emit(DiagNotReversible, "named route cannot be reversed; URLFor will fail", map[string]any{
			"pattern": pat,
			"name":    name,
		})
	}
	if n := len(p.Groups()); n > maxInlineParams {
		r.emit(DiagHighParamCount, "route has many capture groups; overflow parameters use map storage", map[string]any{
			"pattern": pat,
			"groups":  n,
		})
	}
	r.emit(DiagRouteRegistered, "route registered", map[string]any{"pattern": pat, "name": name})

	return rt, nil
}

// Handle is the fluent form of Register. It panics on misuse, which keeps
// static route tables terse:
//
//	r.Handle(`^posts/(?P<post_id>\d+)/$`, showPost).Name("post_detail")
func (r *Router) Handle(pat string, handlers ...HandlerFunc) *Route {
	rt, err := r.Register(pat, "", handlers...)
	if err != nil {
		panic(fmt.Sprintf("reroute: %v", err))
	}

	return rt
}

// setRouteName names a route after registration (the fluent Name path).
func (r *Router) setRouteName(rt *Route, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return fmt.Errorf("%w: %w: cannot name %q", ErrConfiguration, ErrRoutesFrozen, rt.raw)
	}
	if name == "" {
		return nil
	}
	if existing, exists := r.namedRoutes[name]; exists && existing != rt {
		return fmt.Errorf("%w: %w: %q", ErrConfiguration, ErrDuplicateRouteName, name)
	}
	if rt.name != "" {
		delete(r.namedRoutes, rt.name)
	}
	rt.name = name
	r.namedRoutes[name] = rt

	return nil
}

// Use adds global middleware executed before every route's handlers.
// Middleware is composed into the per-route chains at freeze time, so Use
// panics once the router is frozen.
func (r *Router) Use(middleware ...HandlerFunc) {
	if r.frozen.Load() {
		panic(fmt.Sprintf("reroute: cannot add middleware: %v", ErrRoutesFrozen))
	}

	r.middlewareMu.Lock()
	defer r.middlewareMu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// Resolve matches path against the route table in registration order and
// returns the first match with its extracted parameters. The path's leading
// slash is stripped before matching, so `^$` resolves "/".
//
// Resolve is method-agnostic: it answers "which route owns this path",
// leaving method enforcement to the serving layer.
//
// Returns an error wrapping ErrNotFound when nothing matches.
func (r *Router) Resolve(path string) (*Match, error) {
	p := strings.TrimPrefix(path, "/")

	for _, rt := range r.routeList() {
		if caps, ok := rt.pattern.Match(p); ok {
			return &Match{Route: rt, Named: caps.Named, Positional: caps.Positional}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
}

// routeList returns the table to scan: the immutable snapshot when frozen,
// otherwise a copy taken under the lock.
func (r *Router) routeList() []*Route {
	if r.frozen.Load() {
		return r.routeSnapshot
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Route(nil), r.routes...)
}

// Freeze makes the route table immutable and composes the final handler
// chains (global middleware + route handlers). Serving calls Freeze on the
// first request; calling it earlier during startup moves the composition
// cost out of the request path. Freeze is idempotent.
func (r *Router) Freeze() {
	r.freezeOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.middlewareMu.RLock()
		mw := append([]HandlerFunc(nil), r.middleware...)
		r.middlewareMu.RUnlock()

		for _, rt := range r.routes {
			rt.chain = make([]HandlerFunc, 0, len(mw)+len(rt.handlers))
			rt.chain = append(rt.chain, mw...)
			rt.chain = append(rt.chain, rt.handlers...)
		}

		r.routeSnapshot = append([]*Route(nil), r.routes...)
		r.frozen.Store(true)
	})
}

// Frozen reports whether the route table is immutable.
func (r *Router) Frozen() bool {
	return r.frozen.Load()
}

// NoRoute sets a custom handler for requests that match no route,
// replacing the default http.NotFound response. Pass nil to restore the
// default.
//
// Example:
//
//	r.NoRoute(func(c *reroute.Context) {
//	    c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
//	})
func (r *Router) NoRoute(handler HandlerFunc) {
	r.noRouteMutex.Lock()
	defer r.noRouteMutex.Unlock()
	r.noRouteHandler = handler
}

// SetObservabilityRecorder sets the observability recorder for metrics,
// tracing, and access logging. Pass nil to disable. Typically configured
// once at startup, before serving begins.
func (r *Router) SetObservabilityRecorder(recorder ObservabilityRecorder) {
	r.observability = recorder
}

// emit sends a diagnostic event if a handler is configured.
func (r *Router) emit(kind DiagnosticKind, message string, fields map[string]any) {
	if r.diagnostics != nil {
		r.diagnostics.OnDiagnostic(DiagnosticEvent{
			Kind:    kind,
			Message: message,
			Fields:  fields,
		})
	}
}
