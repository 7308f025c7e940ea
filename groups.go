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
)

// Group organizes related routes under a shared pattern prefix with shared
// middleware and an optional name prefix.
//
// The prefix is a regex fragment without anchors; a route registered through
// the group gets the pattern `^` + prefix + its own pattern (anchors
// stripped). Groups nest, concatenating prefixes.
//
// The final handler chain for a grouped route is:
// [global middleware...] + [group middleware...] + [route handlers...]
//
// Example:
//
//	api := r.Group(`api/`, authMiddleware)
//	api.Handle(`^users/(?P<id>\d+)/$`, getUser) // matches /api/users/7/
type Group struct {
	router     *Router
	prefix     string        // regex fragment, no anchors
	middleware []HandlerFunc // group-specific middleware
	namePrefix string        // applied to names registered through the group
}

// Group creates a route group under the given pattern prefix.
// Anchors on the prefix are stripped; a trailing slash in the prefix keeps
// grouped patterns readable (`api/` + `^users/$` → `^api/users/$`).
func (r *Router) Group(prefix string, middleware ...HandlerFunc) *Group {
	return &Group{
		router:     r,
		prefix:     trimAnchors(prefix),
		middleware: middleware,
	}
}

// Group creates a nested group, concatenating the pattern prefixes and
// inheriting this group's middleware and name prefix.
func (g *Group) Group(prefix string, middleware ...HandlerFunc) *Group {
	return &Group{
		router:     g.router,
		prefix:     g.prefix + trimAnchors(prefix),
		middleware: append(append([]HandlerFunc(nil), g.middleware...), middleware...),
		namePrefix: g.namePrefix,
	}
}

// Use adds middleware executed for all routes registered through this group
// after this call. Group middleware runs after global middleware and before
// the route handlers.
func (g *Group) Use(middleware ...HandlerFunc) {
	g.middleware = append(g.middleware, middleware...)
}

// SetNamePrefix sets a prefix applied to route names registered through the
// group, appended to any prefix inherited from parent groups. Returns the
// group for chaining.
//
//	api := r.Group(`api/`).SetNamePrefix("api.")
//	api.Register(`^users/$`, "users", listUsers) // name "api.users"
func (g *Group) SetNamePrefix(prefix string) *Group {
	g.namePrefix += prefix

	return g
}

// Register appends a route under the group's prefix. A non-empty name gets
// the group's name prefix. Errors wrap ErrConfiguration like
// Router.Register.
func (g *Group) Register(pat, name string, handlers ...HandlerFunc) (*Route, error) {
	if name != "" {
		name = g.namePrefix + name
	}

	chain := make([]HandlerFunc, 0, len(g.middleware)+len(handlers))
	chain = append(chain, g.middleware...)
	chain = append(chain, handlers...)

	return g.router.Register(g.joinPattern(pat), name, chain...)
}

// Handle is the fluent, panic-on-misuse form of Group.Register.
// Note that the fluent Route.Name does not apply the group's name prefix;
// pass the name to Register for prefixed names.
func (g *Group) Handle(pat string, handlers ...HandlerFunc) *Route {
	rt, err := g.Register(pat, "", handlers...)
	if err != nil {
		panic(fmt.Sprintf("reroute: %v", err))
	}

	return rt
}

// joinPattern prepends the group prefix to a route pattern, re-anchoring
// the result at the start.
func (g *Group) joinPattern(pat string) string {
	return "^" + g.prefix + strings.TrimPrefix(pat, "^")
}

// trimAnchors strips ^ and $ anchors from a prefix fragment.
func trimAnchors(s string) string {
	s = strings.TrimPrefix(s, "^")
	s = strings.TrimSuffix(s, "$")

	return s
}
