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
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/reroute-dev/reroute/pattern"
)

// Sentinel route templates reported to observability when no real route
// handled the request.
const (
	templateNotFound         = "_not_found"
	templateMethodNotAllowed = "_method_not_allowed"
)

// ServeHTTP implements http.Handler.
//
// The first request freezes the route table, making configuration and
// serving mutually exclusive phases; registration afterwards fails.
//
// For each request:
//  1. Observability lifecycle starts (context enrichment, writer wrapping).
//  2. The path, leading slash stripped, is scanned against the table in
//     registration order; the first pattern match wins.
//  3. If the matched route restricts methods and the request method is not
//     among them, a 405 with an Allow header is returned.
//  4. Otherwise a pooled context is filled with the extracted parameters
//     and the composed handler chain runs.
//  5. No match runs the NoRoute handler (default http.NotFound).
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Freeze()

	ctx := req.Context()
	var obsState any

	if r.observability != nil {
		var enrichedCtx context.Context
		enrichedCtx, obsState = r.observability.OnRequestStart(ctx, req)

		// Only attach the enriched context if it actually changed.
		if enrichedCtx != ctx {
			ctx = enrichedCtx
			req = req.WithContext(ctx)
		}
		if obsState != nil {
			w = r.observability.WrapResponseWriter(w, obsState)
		}
	}

	path := strings.TrimPrefix(req.URL.Path, "/")

	for _, rt := range r.routeSnapshot {
		caps, ok := rt.pattern.Match(path)
		if !ok {
			continue
		}
		if !rt.allowsMethod(req.Method) {
			r.handleMethodNotAllowed(w, req, rt, obsState)

			return
		}
		r.serveRoute(w, req, rt, caps, obsState)

		return
	}

	r.handleNotFound(w, req, obsState)
}

// serveRoute executes the matched route's handler chain on a pooled context.
func (r *Router) serveRoute(w http.ResponseWriter, req *http.Request, rt *Route, caps pattern.Captures, obsState any) {
	ctx := req.Context()

	var logger *slog.Logger
	if r.observability != nil {
		logger = r.observability.BuildRequestLogger(ctx, req, rt.raw)
	} else {
		logger = noopLogger
	}

	c := getContextFromGlobalPool()
	c.Request = req
	c.Response = w
	c.router = r
	c.handlers = rt.chain
	c.routePattern = rt.raw
	c.logger = logger
	c.index = -1
	for k, v := range caps.Named {
		c.setParam(k, v)
	}
	c.positional = append(c.positional, caps.Positional...)

	c.Next()

	releaseGlobalContext(c)

	if obsState != nil {
		r.observability.OnRequestEnd(ctx, obsState, w, rt.raw)
	}
}

// handleMethodNotAllowed answers 405 for a path that matched a route whose
// method set excludes the request method.
func (r *Router) handleMethodNotAllowed(w http.ResponseWriter, req *http.Request, rt *Route, obsState any) {
	w.Header().Set("Allow", rt.allow)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)

	if obsState != nil {
		r.observability.OnRequestEnd(req.Context(), obsState, w, templateMethodNotAllowed)
	}
}

// handleNotFound answers requests that matched no route, via the NoRoute
// handler when one is set.
func (r *Router) handleNotFound(w http.ResponseWriter, req *http.Request, obsState any) {
	r.noRouteMutex.RLock()
	handler := r.noRouteHandler
	r.noRouteMutex.RUnlock()

	var logger *slog.Logger
	if r.observability != nil {
		logger = r.observability.BuildRequestLogger(req.Context(), req, templateNotFound)
	} else {
		logger = noopLogger
	}

	if handler == nil {
		http.NotFound(w, req)
	} else {
		c := getContextFromGlobalPool()
		c.Request = req
		c.Response = w
		c.router = r
		c.handlers = []HandlerFunc{handler}
		c.routePattern = templateNotFound
		c.logger = logger
		c.index = -1

		c.Next()

		releaseGlobalContext(c)
	}

	if obsState != nil {
		r.observability.OnRequestEnd(req.Context(), obsState, w, templateNotFound)
	}
}

// Serve starts the HTTP server on the specified address, with H2C enabled
// when configured via WithH2C.
//
// This method follows the stdlib pattern: it blocks until the server exits.
// For graceful shutdown, call Shutdown from another goroutine.
//
// The server is configured with production-safe timeouts to prevent
// slowloris attacks and resource exhaustion.
//
// Example:
//
//	go func() {
//	    if err := r.Serve(":8080"); err != nil && err != http.ErrServerClosed {
//	        log.Fatal(err)
//	    }
//	}()
//
//	quit := make(chan os.Signal, 1)
//	signal.Notify(quit, os.Interrupt)
//	<-quit
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	r.Shutdown(ctx)
func (r *Router) Serve(addr string) error {
	h := http.Handler(r)

	if r.enableH2C {
		h = h2c.NewHandler(h, &http2.Server{})
		r.emit(DiagH2CEnabled, "H2C enabled; use only in dev or behind a trusted LB", nil)
	}

	timeouts := r.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}

	r.serverMu.Lock()
	r.server = srv
	r.serverMu.Unlock()

	return srv.ListenAndServe()
}

// ServeTLS starts the HTTPS server. HTTP/2 is automatically enabled via
// ALPN. Like Serve, it blocks until the server exits.
func (r *Router) ServeTLS(addr, certFile, keyFile string) error {
	timeouts := r.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}

	r.serverMu.Lock()
	r.server = srv
	r.serverMu.Unlock()

	return srv.ListenAndServeTLS(certFile, keyFile)
}

// Shutdown gracefully shuts down the server without interrupting active
// connections, following the http.Server.Shutdown pattern. Returns nil when
// no server is running.
func (r *Router) Shutdown(ctx context.Context) error {
	r.serverMu.Lock()
	srv := r.server
	r.server = nil
	r.serverMu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}
