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
)

// ObservabilityRecorder provides unified observability lifecycle hooks for
// HTTP requests. Implementations typically combine metrics collection,
// distributed tracing, and access logging; the telemetry package provides
// the production implementation.
//
// Lifecycle:
//  1. Router calls OnRequestStart(ctx, req) → (enrichedCtx, state).
//     The enriched context is always attached to the request; the opaque
//     state token is nil when the request should be excluded.
//  2. Router wraps the ResponseWriter only if state != nil.
//  3. Router calls BuildRequestLogger after routing to obtain the
//     request-scoped logger handed to handlers.
//  4. Handler chain executes.
//  5. Router calls OnRequestEnd(ctx, state, writer, routePattern) only if
//     state != nil. Implementations extract status and size from the writer
//     via ResponseInfo and record metrics, finish spans, and log access.
//
// Exclusion semantics: state == nil skips wrapping, OnRequestEnd, and all
// metrics/traces/logs, but context enrichment still applies so downstream
// calls from excluded paths keep trace propagation.
//
// routePattern is the matched route's pattern source, or a sentinel like
// "_not_found" or "_method_not_allowed". Implementations should label by
// pattern rather than raw path to avoid cardinality explosion.
//
// All methods must be safe for concurrent use.
type ObservabilityRecorder interface {
	// OnRequestStart is called before routing begins. Returns an enriched
	// context (e.g. carrying a server span) and an opaque state token, nil
	// to exclude the request from observability.
	OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any)

	// WrapResponseWriter wraps the writer to capture response metadata.
	// The wrapped writer should implement ResponseInfo. When state is nil
	// the original writer must be returned unchanged.
	WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter

	// BuildRequestLogger returns the request-scoped logger for handlers.
	// Called after routing so the logger can carry the route pattern.
	BuildRequestLogger(ctx context.Context, req *http.Request, routePattern string) *slog.Logger

	// OnRequestEnd is called after handling completes, only when state is
	// not nil. The writer is the (wrapped) ResponseWriter; type-assert to
	// ResponseInfo for status and size.
	OnRequestEnd(ctx context.Context, state any, writer http.ResponseWriter, routePattern string)
}

// ResponseInfo is implemented by response writers that track response
// metadata. OnRequestEnd implementations use it to extract status and size.
type ResponseInfo interface {
	StatusCode() int
	Size() int64
}
