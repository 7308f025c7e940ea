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
	"strings"

	"github.com/reroute-dev/reroute/pattern"
)

// Route is a single entry in the route table: a compiled pattern, the
// handler chain it dispatches to, and an optional name for reverse lookup.
//
// Routes are created by Register or Handle and configured fluently:
//
//	r.Handle(`^posts/(?P<post_id>\d+)/$`, showPost).
//	    Name("post_detail").
//	    Methods(http.MethodGet, http.MethodHead)
//
// A Route must not be modified after the router is frozen.
type Route struct {
	router   *Router
	pattern  *pattern.Pattern
	raw      string
	name     string
	handlers []HandlerFunc
	chain    []HandlerFunc // global middleware + handlers, composed at freeze
	methods  []string      // nil allows any method
	allow    string        // precomputed Allow header value
}

// Name registers the route under the given name for reverse lookup.
// Panics if the name is already taken or the router is frozen; for the
// error-returning form pass the name to Register instead.
func (rt *Route) Name(name string) *Route {
	if err := rt.router.setRouteName(rt, name); err != nil {
		panic(fmt.Sprintf("reroute: %v", err))
	}

	return rt
}

// Methods restricts the route to the given HTTP methods. Path matching stays
// method-agnostic; a request that matches the pattern with a method outside
// this set is answered with 405 and an Allow header. With no restriction the
// route accepts every method.
func (rt *Route) Methods(methods ...string) *Route {
	if rt.router.frozen.Load() {
		panic(fmt.Sprintf("reroute: cannot restrict methods on %q: %v", rt.raw, ErrRoutesFrozen))
	}

	rt.methods = rt.methods[:0]
	for _, m := range methods {
		rt.methods = append(rt.methods, strings.ToUpper(m))
	}
	rt.allow = strings.Join(rt.methods, ", ")

	return rt
}

// Pattern returns the route's pattern source.
func (rt *Route) Pattern() string {
	return rt.raw
}

// Handlers returns the route's handler chain as registered, without global
// middleware.
func (rt *Route) Handlers() []HandlerFunc {
	return rt.handlers
}

// allowsMethod reports whether the route accepts the given HTTP method.
func (rt *Route) allowsMethod(method string) bool {
	if len(rt.methods) == 0 {
		return true
	}
	for _, m := range rt.methods {
		if m == method {
			return true
		}
	}

	return false
}

// Match is the result of resolving a path against the route table.
// Named capture groups bind by name, unnamed groups bind by position.
type Match struct {
	Route      *Route
	Named      map[string]string
	Positional []string
}

// Handler returns the route's terminal handler, the last in its chain.
func (m *Match) Handler() HandlerFunc {
	if len(m.Route.handlers) == 0 {
		return nil
	}

	return m.Route.handlers[len(m.Route.handlers)-1]
}

// Param returns the named capture value, or "" when absent.
func (m *Match) Param(name string) string {
	return m.Named[name]
}

// RouteInfo describes a registered route for introspection.
type RouteInfo struct {
	Pattern string
	Name    string
	Methods []string
}

// Routes returns a snapshot of the route table in registration order.
func (r *Router) Routes() []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]RouteInfo, 0, len(r.routes))
	for _, rt := range r.routes {
		infos = append(infos, RouteInfo{
			Pattern: rt.raw,
			Name:    rt.name,
			Methods: append([]string(nil), rt.methods...),
		})
	}

	return infos
}
