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

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/reroute-dev/reroute"
)

// initializeInstruments creates the built-in HTTP metric instruments.
func (r *Recorder) initializeInstruments() error {
	var err error

	r.requestDuration, err = r.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	r.requestCount, err = r.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}

	r.activeRequests, err = r.meter.Int64UpDownCounter(
		"http_requests_active",
		metric.WithDescription("Number of HTTP requests currently being served"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active requests counter: %w", err)
	}

	r.responseSize, err = r.meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create response size histogram: %w", err)
	}

	r.errorCount, err = r.meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP error responses (status >= 400)"),
	)
	if err != nil {
		return fmt.Errorf("failed to create error counter: %w", err)
	}

	return nil
}

// requestState is the opaque per-request token handed back to OnRequestEnd.
type requestState struct {
	start  time.Time
	span   oteltrace.Span
	method string
	path   string
}

// propagator extracts incoming W3C trace context headers.
var propagator = propagation.TraceContext{}

// OnRequestStart begins observability for a request: starts the server span
// when tracing is enabled and increments the active request gauge. Returns
// a nil state for excluded paths.
func (r *Recorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if !r.enabled {
		return ctx, nil
	}

	ctx = propagator.Extract(ctx, propagation.HeaderCarrier(req.Header))

	if r.excluded(req.URL.Path) {
		return ctx, nil
	}

	state := &requestState{
		start:  time.Now(),
		method: req.Method,
		path:   req.URL.Path,
	}

	if r.tracer != nil {
		ctx, state.span = r.tracer.Start(ctx, req.Method+" "+req.URL.Path,
			oteltrace.WithSpanKind(oteltrace.SpanKindServer),
			oteltrace.WithAttributes(
				attribute.String("http.method", req.Method),
				attribute.String("http.target", req.URL.Path),
				attribute.String("http.scheme", schemeOf(req)),
				attribute.String("http.host", req.Host),
				attribute.String("http.user_agent", req.UserAgent()),
				r.serviceNameAttr,
				r.serviceVersionAttr,
			),
		)
	}

	if r.activeRequests != nil {
		r.activeRequests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("http.method", req.Method),
		))
	}

	return ctx, state
}

// WrapResponseWriter wraps the writer to capture status and size. Excluded
// requests (nil state) get the original writer back.
func (r *Recorder) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	if state == nil {
		return w
	}

	return reroute.NewResponseWriter(w)
}

// BuildRequestLogger returns the access logger enriched with request
// attributes, or the shared no-op logger when access logging is off.
func (r *Recorder) BuildRequestLogger(ctx context.Context, req *http.Request, routePattern string) *slog.Logger {
	if r.accessLogger == nil {
		return reroute.NoopLogger()
	}

	logger := r.accessLogger.With(
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.String("route", routePattern),
	)

	if span := oteltrace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		logger = logger.With(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}

	return logger
}

// OnRequestEnd records metrics, finishes the span, and writes the access log
// line. Metrics are labeled by route pattern, never raw path.
func (r *Recorder) OnRequestEnd(ctx context.Context, state any, writer http.ResponseWriter, routePattern string) {
	s, ok := state.(*requestState)
	if !ok || s == nil {
		return
	}

	duration := time.Since(s.start)

	status := http.StatusOK
	var size int64
	if info, okInfo := writer.(reroute.ResponseInfo); okInfo {
		status = info.StatusCode()
		size = info.Size()
	}

	attrs := metric.WithAttributes(
		attribute.String("http.method", s.method),
		attribute.String("http.route", routePattern),
		attribute.Int("http.status_code", status),
		attribute.String("http.status_class", statusClass(status)),
		r.serviceNameAttr,
		r.serviceVersionAttr,
	)

	if r.requestDuration != nil {
		r.requestDuration.Record(ctx, duration.Seconds(), attrs)
	}
	if r.requestCount != nil {
		r.requestCount.Add(ctx, 1, attrs)
	}
	if r.responseSize != nil {
		r.responseSize.Record(ctx, size, attrs)
	}
	if r.errorCount != nil && status >= http.StatusBadRequest {
		r.errorCount.Add(ctx, 1, attrs)
	}
	if r.activeRequests != nil {
		r.activeRequests.Add(ctx, -1, metric.WithAttributes(
			attribute.String("http.method", s.method),
		))
	}

	if s.span != nil {
		s.span.SetAttributes(
			attribute.String("http.route", routePattern),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.response_size", size),
		)
		if status >= http.StatusInternalServerError {
			s.span.SetStatus(codes.Error, http.StatusText(status))
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.End()
	}

	if r.accessLogger != nil {
		r.accessLogger.LogAttrs(ctx, levelFor(status), "request",
			slog.String("method", s.method),
			slog.String("path", s.path),
			slog.String("route", routePattern),
			slog.Int("status", status),
			slog.Int64("size", size),
			slog.Duration("duration", duration),
		)
	}
}

// statusClass buckets an HTTP status code ("2xx", "4xx", ...).
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

// levelFor maps a status code to an access log level.
func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func schemeOf(req *http.Request) string {
	if req.TLS != nil {
		return "https"
	}

	return "http"
}
