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

// Package telemetry is the production ObservabilityRecorder for reroute:
// OpenTelemetry metrics and tracing plus structured access logging, wired
// into the router's request lifecycle.
//
//	rec, err := telemetry.New(
//	    telemetry.WithServiceName("blog-api"),
//	    telemetry.WithPrometheus(":9090", "/metrics"),
//	    telemetry.WithStdoutTraces(),
//	    telemetry.WithAccessLog(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := reroute.MustNew(reroute.WithObservability(rec))
//
//	ctx := context.Background()
//	rec.Start(ctx)
//	defer rec.Shutdown(ctx)
//
// Built-in metrics are labeled by route pattern, never by raw path, so
// parameterized routes do not explode metric cardinality.
//
// By default the package does not touch the global OpenTelemetry providers;
// multiple recorders can coexist in one process. Use WithGlobalProviders to
// opt in to global registration.
package telemetry
