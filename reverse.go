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
	"fmt"
	"net/url"
)

// URLFor builds the concrete path for a named route by substituting args
// into the pattern's capture groups in order. Each value is formatted with
// fmt.Sprint and validated against its group's subexpression, so the result
// is guaranteed to resolve back to the same route.
//
//	r.Handle(`^posts/(?P<post_id>\d+)/$`, showPost).Name("post_detail")
//	path, err := r.URLFor("post_detail", 42) // "/posts/42/", nil
//
// Unknown name, argument-count mismatch, and values that fail their group's
// constraint all return an error wrapping ErrConfiguration.
func (r *Router) URLFor(name string, args ...any) (string, error) {
	rt, err := r.routeByName(name)
	if err != nil {
		return "", err
	}

	s, err := rt.pattern.Build(args...)
	if err != nil {
		return "", fmt.Errorf("%w: reverse of %q: %w", ErrConfiguration, name, err)
	}

	return "/" + s, nil
}

// URLForParams builds the path for a named route from named parameter values
// and appends an optional query string. All of the route's capture groups
// must be named.
//
//	path, err := r.URLForParams("post_detail",
//	    map[string]string{"post_id": "42"},
//	    url.Values{"page": {"2"}},
//	) // "/posts/42/?page=2", nil
func (r *Router) URLForParams(name string, params map[string]string, query url.Values) (string, error) {
	rt, err := r.routeByName(name)
	if err != nil {
		return "", err
	}

	s, err := rt.pattern.BuildParams(params)
	if err != nil {
		return "", fmt.Errorf("%w: reverse of %q: %w", ErrConfiguration, name, err)
	}

	path := "/" + s
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	return path, nil
}

// MustURLFor is like URLFor but panics on error. For templates and other
// call sites where a reverse failure is a programming error.
func (r *Router) MustURLFor(name string, args ...any) string {
	path, err := r.URLFor(name, args...)
	if err != nil {
		panic(fmt.Sprintf("reroute.MustURLFor: %v", err))
	}

	return path
}

// routeByName looks up a named route, locking only before freeze.
func (r *Router) routeByName(name string) (*Route, error) {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	rt, ok := r.namedRoutes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrConfiguration, ErrUnknownRoute, name)
	}

	return rt, nil
}
