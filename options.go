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

import "time"

// WithDiagnostics sets a diagnostic handler for the router.
//
// Diagnostic events are optional informational events that may indicate
// configuration issues. The router functions correctly whether diagnostics
// are collected or not.
//
// Example:
//
//	handler := reroute.DiagnosticHandlerFunc(func(e reroute.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := reroute.MustNew(reroute.WithDiagnostics(handler))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(r *Router) {
		r.diagnostics = handler
	}
}

// WithObservability sets the observability recorder at construction time.
// Equivalent to calling SetObservabilityRecorder before serving.
func WithObservability(recorder ObservabilityRecorder) Option {
	return func(r *Router) {
		r.observability = recorder
	}
}

// WithH2C enables HTTP/2 Cleartext support.
//
// ⚠️ SECURITY WARNING: Only use in development or behind a trusted load
// balancer. DO NOT enable on public-facing servers without TLS.
//
// Example:
//
//	r := reroute.MustNew(reroute.WithH2C(true))
//	r.Serve(":8080")
func WithH2C(enable bool) Option {
	return func(r *Router) {
		r.enableH2C = enable
	}
}

// WithServerTimeouts configures HTTP server timeouts.
// These are critical for preventing slowloris attacks and resource exhaustion.
//
// Defaults (if not set):
//
//	ReadHeaderTimeout: 5s  - Time to read request headers
//	ReadTimeout:       15s - Time to read entire request
//	WriteTimeout:      30s - Time to write response
//	IdleTimeout:       60s - Keep-alive idle time
//
// All values must be positive or New fails validation.
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(r *Router) {
		r.serverTimeouts = &serverTimeouts{
			readHeader: readHeader,
			read:       read,
			write:      write,
			idle:       idle,
		}
	}
}

// defaultServerTimeouts returns default timeout configuration.
func defaultServerTimeouts() *serverTimeouts {
	return &serverTimeouts{
		readHeader: 5 * time.Second,
		read:       15 * time.Second,
		write:      30 * time.Second,
		idle:       60 * time.Second,
	}
}

// WithCancellationCheck enables or disables context cancellation checks
// between handlers. When enabled (the default), the router stops the chain
// once the request context is canceled, avoiding wasted work on timed-out
// requests.
func WithCancellationCheck(enabled bool) Option {
	return func(r *Router) {
		r.checkCancellation = enabled
	}
}

// WithoutCancellationCheck disables context cancellation checking in the
// handler chain. Equivalent to WithCancellationCheck(false); the "Without"
// prefix marks options that disable a default.
func WithoutCancellationCheck() Option {
	return func(r *Router) {
		r.checkCancellation = false
	}
}
