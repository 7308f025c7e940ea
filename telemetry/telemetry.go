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
	"strings"
	"sync"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/reroute-dev/reroute"
)

// Default histogram buckets, following OpenTelemetry semantic conventions.
var (
	// DefaultDurationBuckets are histogram boundaries for request duration in
	// seconds, covering sub-millisecond to 10 second responses.
	DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// DefaultSizeBuckets are histogram boundaries for response size in bytes,
	// covering 100B to 10MB.
	DefaultSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
)

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event represents an internal operational event from the telemetry package:
// export failures, server startup, configuration warnings.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events.
//
// Example:
//
//	telemetry.WithEventHandler(func(e telemetry.Event) {
//	    slog.Default().Info(e.Message, e.Args...)
//	})
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler that logs events to the given
// logger, or a no-op handler when logger is nil.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}

	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

// MetricsProvider selects the metrics export backend.
type MetricsProvider string

const (
	// PrometheusMetrics exposes a scrape endpoint (default).
	PrometheusMetrics MetricsProvider = "prometheus"
	// OTLPMetrics pushes metrics over OTLP HTTP.
	OTLPMetrics MetricsProvider = "otlp"
	// StdoutMetrics prints metrics to stdout (development/testing).
	StdoutMetrics MetricsProvider = "stdout"
)

// TraceProvider selects the trace export backend.
type TraceProvider string

const (
	// NoTraces disables span creation (default).
	NoTraces TraceProvider = ""
	// StdoutTraces prints spans to stdout (development/testing).
	StdoutTraces TraceProvider = "stdout"
	// OTLPTraces pushes spans over OTLP HTTP.
	OTLPTraces TraceProvider = "otlp"
)

// Recorder implements reroute.ObservabilityRecorder with OpenTelemetry
// metrics, tracing, and slog access logging. All methods are safe for
// concurrent use.
//
// By default the Recorder does NOT set the global OpenTelemetry providers;
// use WithGlobalProviders for global registration. This lets multiple
// Recorder instances coexist in the same process.
type Recorder struct {
	meter         metric.Meter
	meterProvider metric.MeterProvider

	tracer         oteltrace.Tracer
	tracerProvider *sdktrace.TracerProvider

	prometheusHandler  http.Handler
	prometheusRegistry *promclient.Registry
	metricsServer      *http.Server
	serverMutex        sync.Mutex

	eventHandler EventHandler
	accessLogger *slog.Logger

	// Built-in HTTP metrics, labeled by route pattern.
	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
	responseSize    metric.Int64Histogram
	errorCount      metric.Int64Counter

	durationBuckets []float64
	sizeBuckets     []float64

	excludePaths    map[string]bool
	excludePrefixes []string

	validationErrors []error

	exportInterval time.Duration

	serviceName    string
	serviceVersion string

	metricsProviderKind MetricsProvider
	traceProviderKind   TraceProvider
	otlpMetricsEndpoint string
	otlpTracesEndpoint  string
	metricsPort         string
	metricsPath         string

	serviceNameAttr    attribute.KeyValue
	serviceVersionAttr attribute.KeyValue

	tracesDeferred  atomic.Bool // OTLP trace exporter needs a context; deferred to Start
	isStarted       atomic.Bool
	isShuttingDown  atomic.Bool
	autoStartServer bool
	registerGlobal  bool
	enabled         bool
}

// New creates a Recorder with the given options.
// Returns an error if a provider fails to initialize; for a version that
// panics, use MustNew.
func New(opts ...Option) (*Recorder, error) {
	r := newDefaultRecorder()

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}
	if err := r.initializeProviders(); err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("telemetry.MustNew: %v", err))
	}

	return r
}

func newDefaultRecorder() *Recorder {
	r := &Recorder{
		enabled:             true,
		serviceName:         "reroute-service",
		serviceVersion:      "1.0.0",
		metricsProviderKind: PrometheusMetrics,
		traceProviderKind:   NoTraces,
		exportInterval:      30 * time.Second,
		metricsPort:         ":9090",
		metricsPath:         "/metrics",
		autoStartServer:     true,
		durationBuckets:     DefaultDurationBuckets,
		sizeBuckets:         DefaultSizeBuckets,
		excludePaths:        make(map[string]bool),
	}
	r.serviceNameAttr = attribute.String("service.name", r.serviceName)
	r.serviceVersionAttr = attribute.String("service.version", r.serviceVersion)

	return r
}

// validate checks that the configuration is consistent.
func (r *Recorder) validate() error {
	if len(r.validationErrors) > 0 {
		return fmt.Errorf("configuration errors: %v", r.validationErrors)
	}
	if r.serviceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if r.serviceVersion == "" {
		return fmt.Errorf("service version cannot be empty")
	}
	if r.exportInterval < time.Second {
		r.emitWarning("export interval is very low, may cause high CPU usage", "interval", r.exportInterval)
	}

	switch r.metricsProviderKind {
	case PrometheusMetrics:
		if r.metricsPort == "" || r.metricsPath == "" {
			return fmt.Errorf("metrics port and path cannot be empty for Prometheus provider")
		}
	case OTLPMetrics:
		if r.otlpMetricsEndpoint == "" {
			r.emitWarning("OTLP metrics endpoint not specified, using default", "default", "http://localhost:4318")
			r.otlpMetricsEndpoint = "http://localhost:4318"
		}
	case StdoutMetrics:
	default:
		return fmt.Errorf("unsupported metrics provider: %s", r.metricsProviderKind)
	}

	switch r.traceProviderKind {
	case NoTraces, StdoutTraces:
	case OTLPTraces:
		if r.otlpTracesEndpoint == "" {
			r.emitWarning("OTLP traces endpoint not specified, using default", "default", "http://localhost:4318")
			r.otlpTracesEndpoint = "http://localhost:4318"
		}
	default:
		return fmt.Errorf("unsupported trace provider: %s", r.traceProviderKind)
	}

	return nil
}

// Handler returns the Prometheus metrics http.Handler, for serving metrics
// on the application's own router when the dedicated server is disabled via
// WithoutMetricsServer.
func (r *Recorder) Handler() (http.Handler, error) {
	if !r.enabled {
		return nil, fmt.Errorf("telemetry not enabled")
	}
	if r.metricsProviderKind != PrometheusMetrics || r.prometheusHandler == nil {
		return nil, fmt.Errorf("handler only available with Prometheus provider, current provider: %s", r.metricsProviderKind)
	}

	return r.prometheusHandler, nil
}

// MetricsProvider returns the configured metrics provider.
func (r *Recorder) MetricsProvider() MetricsProvider {
	return r.metricsProviderKind
}

// ServerAddress returns the metrics server address, or "" when no dedicated
// server runs.
func (r *Recorder) ServerAddress() string {
	if !r.enabled || r.metricsProviderKind != PrometheusMetrics || !r.autoStartServer {
		return ""
	}

	return r.metricsPort
}

// Start starts deferred exporters and the dedicated metrics server.
// Idempotent; the context covers exporter connection establishment.
func (r *Recorder) Start(ctx context.Context) error {
	if !r.enabled {
		return nil
	}
	if !r.isStarted.CompareAndSwap(false, true) {
		return nil
	}

	if r.tracesDeferred.Load() {
		if err := r.initOTLPTraceProvider(ctx); err != nil {
			r.isStarted.Store(false)

			return fmt.Errorf("failed to initialize OTLP trace provider: %w", err)
		}
		r.tracesDeferred.Store(false)
	}

	if r.autoStartServer && r.metricsProviderKind == PrometheusMetrics {
		r.startMetricsServer()
	}

	return nil
}

// Shutdown flushes pending telemetry and stops the metrics server.
// Idempotent; call before the application exits so buffered exports are not
// lost.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.enabled {
		return nil
	}
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error

	if err := r.stopMetricsServer(ctx); err != nil {
		errs = append(errs, err)
	}

	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			r.emitWarning("metrics flush warning", "error", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if r.tracerProvider != nil {
		if err := r.tracerProvider.ForceFlush(ctx); err != nil {
			r.emitWarning("trace flush warning", "error", err)
		}
		if err := r.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	return nil
}

// ForceFlush immediately exports pending telemetry without shutting down.
// Useful at checkpoints for push-based providers; a no-op for Prometheus,
// which is scraped on demand.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if !r.enabled || r.isShuttingDown.Load() {
		return nil
	}

	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics force flush: %w", err)
		}
	}
	if r.tracerProvider != nil {
		if err := r.tracerProvider.ForceFlush(ctx); err != nil {
			return fmt.Errorf("traces force flush: %w", err)
		}
	}

	return nil
}

// IsEnabled reports whether telemetry is enabled.
func (r *Recorder) IsEnabled() bool {
	return r.enabled
}

// ServiceName returns the configured service name.
func (r *Recorder) ServiceName() string {
	return r.serviceName
}

// excluded reports whether a request path is excluded from observability.
func (r *Recorder) excluded(path string) bool {
	if r.excludePaths[path] {
		return true
	}
	for _, prefix := range r.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

func (r *Recorder) emitError(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventError, Message: msg, Args: args})
	}
}

func (r *Recorder) emitWarning(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventWarning, Message: msg, Args: args})
	}
}

func (r *Recorder) emitInfo(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventInfo, Message: msg, Args: args})
	}
}

func (r *Recorder) emitDebug(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
	}
}

var _ reroute.ObservabilityRecorder = (*Recorder)(nil)
