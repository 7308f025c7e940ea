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
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const scopeName = "github.com/reroute-dev/reroute/telemetry"

// initializeProviders initializes the metrics and trace providers.
// OTLP trace exporters need a context for connection establishment, so
// their initialization is deferred to Start.
func (r *Recorder) initializeProviders() error {
	var err error
	switch r.metricsProviderKind {
	case PrometheusMetrics:
		err = r.initPrometheusProvider()
	case OTLPMetrics:
		err = r.initOTLPMetricsProvider()
	case StdoutMetrics:
		err = r.initStdoutMetricsProvider()
	default:
		err = fmt.Errorf("unsupported metrics provider: %s", r.metricsProviderKind)
	}
	if err != nil {
		return err
	}

	switch r.traceProviderKind {
	case NoTraces:
		return nil
	case StdoutTraces:
		return r.initStdoutTraceProvider()
	case OTLPTraces:
		r.tracesDeferred.Store(true)

		return nil
	default:
		return fmt.Errorf("unsupported trace provider: %s", r.traceProviderKind)
	}
}

// initPrometheusProvider sets up the Prometheus exporter on a private
// registry so the recorder does not conflict with the process default.
func (r *Recorder) initPrometheusProvider() error {
	r.prometheusRegistry = promclient.NewRegistry()

	exporter, err := prometheus.New(
		prometheus.WithRegisterer(r.prometheusRegistry),
	)
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	r.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	r.prometheusHandler = promhttp.HandlerFor(
		r.prometheusRegistry,
		promhttp.HandlerOpts{},
	)

	if r.registerGlobal {
		otel.SetMeterProvider(r.meterProvider)
	}
	r.meter = r.meterProvider.Meter(scopeName)

	return r.initializeInstruments()
}

// initOTLPMetricsProvider sets up the OTLP HTTP metrics exporter with a
// periodic reader.
func (r *Recorder) initOTLPMetricsProvider() error {
	opts := []otlpmetrichttp.Option{}

	if endpoint, insecure := splitEndpoint(r.otlpMetricsEndpoint); endpoint != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(r.exportInterval),
	)
	r.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)

	if r.registerGlobal {
		otel.SetMeterProvider(r.meterProvider)
	}
	r.meter = r.meterProvider.Meter(scopeName)

	return r.initializeInstruments()
}

// initStdoutMetricsProvider sets up the stdout metrics exporter.
func (r *Recorder) initStdoutMetricsProvider() error {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return fmt.Errorf("failed to create stdout metrics exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(r.exportInterval),
	)
	r.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)

	if r.registerGlobal {
		otel.SetMeterProvider(r.meterProvider)
	}
	r.meter = r.meterProvider.Meter(scopeName)

	return r.initializeInstruments()
}

// initStdoutTraceProvider sets up the pretty-printing stdout span exporter.
func (r *Recorder) initStdoutTraceProvider() error {
	exporter, err := stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create stdout trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r.createResource()),
	)
	r.tracerProvider = tp
	r.tracer = tp.Tracer(scopeName)

	if r.registerGlobal {
		otel.SetTracerProvider(tp)
	}
	r.emitInfo("tracing initialized", "provider", "stdout", "service", r.serviceName)

	return nil
}

// initOTLPTraceProvider sets up the OTLP HTTP span exporter. Called from
// Start because the exporter needs a lifecycle context.
func (r *Recorder) initOTLPTraceProvider(ctx context.Context) error {
	opts := []otlptracehttp.Option{}

	if endpoint, insecure := splitEndpoint(r.otlpTracesEndpoint); endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r.createResource()),
	)
	r.tracerProvider = tp
	r.tracer = tp.Tracer(scopeName)

	if r.registerGlobal {
		otel.SetTracerProvider(tp)
	}
	r.emitInfo("tracing initialized", "provider", "otlp-http", "endpoint", r.otlpTracesEndpoint, "service", r.serviceName)

	return nil
}

// createResource builds the OpenTelemetry resource with service identity.
func (r *Recorder) createResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(r.serviceName),
		semconv.ServiceVersion(r.serviceVersion),
	)
}

// splitEndpoint turns an endpoint URL into host:port plus an insecure flag.
// The OTLP HTTP exporters take the endpoint without scheme or path.
func splitEndpoint(raw string) (endpoint string, insecure bool) {
	endpoint = raw
	if trimmed, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint = trimmed
		insecure = true
	} else if trimmedHTTPS, okHTTPS := strings.CutPrefix(endpoint, "https://"); okHTTPS {
		endpoint = trimmedHTTPS
	}
	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}

	return endpoint, insecure
}

// startMetricsServer starts a dedicated HTTP server for Prometheus scrapes.
func (r *Recorder) startMetricsServer() {
	if r.prometheusHandler == nil || r.isShuttingDown.Load() {
		return
	}

	actualPort, err := findAvailablePort(r.metricsPort)
	if err != nil {
		r.emitError("failed to find available port for metrics server", "error", err, "preferred_port", r.metricsPort)

		return
	}

	originalPort := r.metricsPort
	r.metricsPort = actualPort

	mux := http.NewServeMux()
	mux.Handle(r.metricsPath, r.prometheusHandler)

	server := &http.Server{
		Addr:         actualPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	r.serverMutex.Lock()
	r.metricsServer = server
	r.serverMutex.Unlock()

	metricsPath := r.metricsPath

	go func() {
		if actualPort != originalPort {
			r.emitWarning("metrics server using different port than requested",
				"actual_address", actualPort+metricsPath,
				"requested_port", originalPort)
		} else {
			r.emitInfo("metrics server starting", "address", actualPort+metricsPath)
		}

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.serverMutex.Lock()
			r.metricsServer = nil
			r.serverMutex.Unlock()
			r.emitError("metrics server error", "error", err)
		}
	}()
}

// stopMetricsServer stops the dedicated metrics server.
func (r *Recorder) stopMetricsServer(ctx context.Context) error {
	r.serverMutex.Lock()
	server := r.metricsServer
	r.metricsServer = nil
	r.serverMutex.Unlock()

	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		r.emitError("error shutting down metrics server", "error", err)

		return fmt.Errorf("metrics server shutdown: %w", err)
	}

	return nil
}

// findAvailablePort tries the preferred port first, then increments until a
// free one is found.
func findAvailablePort(preferredPort string) (string, error) {
	port := preferredPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	portNum, err := strconv.Atoi(strings.TrimPrefix(port, ":"))
	if err != nil {
		return "", fmt.Errorf("invalid port format: %s", preferredPort)
	}

	for i := 0; i < 100; i++ {
		testAddr := fmt.Sprintf(":%d", portNum+i)
		listener, err := net.Listen("tcp", testAddr)
		if err == nil {
			listener.Close()

			return testAddr, nil
		}
	}

	return "", fmt.Errorf("no available port found starting from %s", preferredPort)
}
