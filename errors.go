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

import "errors"

var (
	// ErrConfiguration is the base error for route table misconfiguration:
	// invalid patterns, duplicate route names, registration after freeze, and
	// reverse-lookup argument mismatches. Check with errors.Is.
	ErrConfiguration = errors.New("router configuration error")

	// ErrNotFound indicates that no registered pattern matched the path.
	ErrNotFound = errors.New("no route matched")

	// ErrRoutesFrozen indicates an attempt to modify the route table after
	// it was frozen by Freeze or by the first served request.
	ErrRoutesFrozen = errors.New("routes are frozen")

	// ErrUnknownRoute indicates a reverse lookup for a name that was never
	// registered.
	ErrUnknownRoute = errors.New("unknown route name")

	// ErrDuplicateRouteName indicates that two routes were registered under
	// the same non-empty name.
	ErrDuplicateRouteName = errors.New("duplicate route name")

	// ErrContextResponseNil indicates that the context response is nil.
	ErrContextResponseNil = errors.New("context response is nil")

	// ErrResponseWriterNotHijacker indicates that the underlying
	// ResponseWriter does not implement http.Hijacker.
	ErrResponseWriterNotHijacker = errors.New("responseWriter does not implement http.Hijacker")

	// ErrServerTimeoutInvalid indicates that a server timeout value is not positive.
	ErrServerTimeoutInvalid = errors.New("server timeout must be positive")
)
