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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithServiceName sets the service name attached to all metrics and spans.
//
// Example:
//
//	telemetry.WithServiceName("blog-api")
func WithServiceName(name string) Option {
	return func(r *Recorder) {
		if name == "" {
			r.validationErrors = append(r.validationErrors, fmt.Errorf("service name cannot be empty"))

			return
		}
		r.serviceName = name
		r.serviceNameAttr = attribute.String("service.name", name)
	}
}

// WithServiceVersion sets the service version attached to all metrics and
// spans.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) {
		if version == "" {
			r.validationErrors = append(r.validationErrors, fmt.Errorf("service version cannot be empty"))

			return
		}
		r.serviceVersion = version
		r.serviceVersionAttr = attribute.String("service.version", version)
	}
}

// WithPrometheus selects the Prometheus metrics provider with a dedicated
// scrape server at the given port and path. This is the default provider at
// ":9090" and "/metrics".
//
// Example:
//
//	telemetry.WithPrometheus(":9090", "/metrics")
func WithPrometheus(port, path string) Option {
	return func(r *Recorder) {
		r.metricsProviderKind = PrometheusMetrics
		if port != "" {
			if !strings.HasPrefix(port, ":") {
				port = ":" + port
			}
			r.metricsPort = port
		}
		if path != "" {
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			r.metricsPath = path
		}
	}
}

// WithOTLP selects the OTLP HTTP metrics provider pushing to the given
// collector endpoint.
//
// Example:
//
//	telemetry.WithOTLP("http://localhost:4318")
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.metricsProviderKind = OTLPMetrics
		r.otlpMetricsEndpoint = endpoint
	}
}

// WithStdoutMetrics selects the stdout metrics provider, for development and
// testing.
func WithStdoutMetrics() Option {
	return func(r *Recorder) {
		r.metricsProviderKind = StdoutMetrics
	}
}

// WithStdoutTraces enables tracing with spans pretty-printed to stdout, for
// development and testing.
func WithStdoutTraces() Option {
	return func(r *Recorder) {
		r.traceProviderKind = StdoutTraces
	}
}

// WithOTLPTraces enables tracing with spans pushed over OTLP HTTP to the
// given collector endpoint. The exporter connects when Start is called.
//
// Example:
//
//	telemetry.WithOTLPTraces("http://localhost:4318")
func WithOTLPTraces(endpoint string) Option {
	return func(r *Recorder) {
		r.traceProviderKind = OTLPTraces
		r.otlpTracesEndpoint = endpoint
	}
}

// WithAccessLog enables per-request access logging to the given logger.
// The logger is also handed to handlers via Context.Logger, enriched with
// request attributes.
func WithAccessLog(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.accessLogger = logger
	}
}

// WithEventHandler sets the handler for internal operational events such as
// export failures and metrics server startup.
func WithEventHandler(handler EventHandler) Option {
	return func(r *Recorder) {
		r.eventHandler = handler
	}
}

// WithLogger routes internal operational events to a slog.Logger. Shorthand
// for WithEventHandler(DefaultEventHandler(logger)).
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.eventHandler = DefaultEventHandler(logger)
	}
}

// WithExportInterval sets the export interval for push-based metric
// providers (OTLP, stdout). Default is 30s.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) {
		if interval <= 0 {
			r.validationErrors = append(r.validationErrors, fmt.Errorf("export interval must be positive, got %v", interval))

			return
		}
		r.exportInterval = interval
	}
}

// WithExcludePaths excludes exact request paths from metrics, traces and
// access logs. Health checks are the typical use.
//
// Example:
//
//	telemetry.WithExcludePaths("/healthz", "/readyz")
func WithExcludePaths(paths ...string) Option {
	return func(r *Recorder) {
		for _, p := range paths {
			r.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes excludes request paths by prefix from metrics, traces
// and access logs.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(r *Recorder) {
		r.excludePrefixes = append(r.excludePrefixes, prefixes...)
	}
}

// WithGlobalProviders registers the recorder's meter and tracer providers as
// the process-wide OpenTelemetry defaults. Off by default so multiple
// recorders can coexist.
func WithGlobalProviders() Option {
	return func(r *Recorder) {
		r.registerGlobal = true
	}
}

// WithoutMetricsServer disables the dedicated metrics server. Use Handler to
// serve the scrape endpoint on the application's own router instead.
func WithoutMetricsServer() Option {
	return func(r *Recorder) {
		r.autoStartServer = false
	}
}

// WithDurationBuckets overrides the request duration histogram boundaries,
// in seconds.
func WithDurationBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) == 0 {
			r.validationErrors = append(r.validationErrors, fmt.Errorf("duration buckets cannot be empty"))

			return
		}
		r.durationBuckets = buckets
	}
}

// WithSizeBuckets overrides the response size histogram boundaries, in
// bytes.
func WithSizeBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) == 0 {
			r.validationErrors = append(r.validationErrors, fmt.Errorf("size buckets cannot be empty"))

			return
		}
		r.sizeBuckets = buckets
	}
}
