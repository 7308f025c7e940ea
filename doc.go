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

// Package reroute is an HTTP request router that dispatches on ordered
// regular-expression patterns with named capture groups and reverse lookup.
//
// Routes are tried in registration order and the first match wins. There is
// no specificity ranking, so the route table reads top to bottom exactly the
// way it dispatches. Patterns match the request path with its leading slash
// stripped:
//
//	r := reroute.MustNew()
//	r.Handle(`^$`, homeHandler).Name("home")
//	r.Handle(`^posts/(?P<post_id>\d+)/$`, postHandler).Name("post_detail")
//	http.ListenAndServe(":8080", r)
//
// Named capture groups become named parameters, unnamed groups become
// positional parameters:
//
//	func postHandler(c *reroute.Context) {
//	    id := c.Param("post_id")
//	    c.JSON(http.StatusOK, map[string]string{"post_id": id})
//	}
//
// Reverse lookup produces a concrete path from a route name and values,
// validating each value against its capture group:
//
//	path, err := r.URLFor("post_detail", 42) // "/posts/42/", nil
//
// The route table is an explicitly constructed value; there is no
// process-wide registry. A Router freezes on the first request (or via
// Freeze) and is then immutable and safe for concurrent resolution without
// locking.
//
// The router is an http.Handler. Middleware, route groups, subrouter
// mounting, static file serving, and the ObservabilityRecorder hook
// (implemented by the telemetry package) follow the same shape throughout:
// functional options at construction, explicit error returns, context
// pooling on the hot path.
package reroute
