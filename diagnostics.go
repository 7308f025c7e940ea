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

// DiagnosticEvent represents a router diagnostic or anomaly. These are
// informational events that may indicate configuration issues; the router
// functions correctly whether they are collected or not.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any // Structured context
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	DiagHighParamCount  DiagnosticKind = "route_param_count_high"
	DiagH2CEnabled      DiagnosticKind = "h2c_enabled"
	DiagRouteRegistered DiagnosticKind = "route_registered"
	DiagNotReversible   DiagnosticKind = "route_not_reversible"
)

// DiagnosticHandler receives diagnostic events from the router.
// Implementations may log, emit metrics, or ignore them. If no handler is
// configured, diagnostics are silently dropped.
//
// Example with logging:
//
//	handler := reroute.DiagnosticHandlerFunc(func(e reroute.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := reroute.MustNew(reroute.WithDiagnostics(handler))
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}
