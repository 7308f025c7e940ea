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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_PrefixesPattern(t *testing.T) {
	t.Parallel()

	r := MustNew()
	api := r.Group(`api/`)
	api.Handle(`^users/(?P<id>\d+)/$`, func(c *Context) {
		c.String(http.StatusOK, "user "+c.Param("id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/7/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user 7", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/users/7/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "unprefixed path must not match")
}

func TestGroup_StripsAnchors(t *testing.T) {
	t.Parallel()

	r := MustNew()
	api := r.Group(`^api/$`)
	api.Handle(`^ping/$`, noop)

	m, err := r.Resolve("/api/ping/")
	require.NoError(t, err)
	assert.Equal(t, `^api/ping/$`, m.Route.Pattern())
}

func TestGroup_Nested(t *testing.T) {
	t.Parallel()

	r := MustNew()
	api := r.Group(`api/`)
	v1 := api.Group(`v1/`)
	v1.Handle(`^status/$`, func(c *Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "ok", w.Body.String())
}

func TestGroup_MiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	r := MustNew()
	r.Use(func(c *Context) {
		order = append(order, "global")
		c.Next()
	})

	api := r.Group(`api/`, func(c *Context) {
		order = append(order, "group")
		c.Next()
	})
	api.Handle(`^x/$`, func(_ *Context) {
		order = append(order, "handler")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/x/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"global", "group", "handler"}, order)
}

func TestGroup_MiddlewareDoesNotLeak(t *testing.T) {
	t.Parallel()

	groupMwRan := false
	r := MustNew()
	api := r.Group(`api/`, func(c *Context) {
		groupMwRan = true
		c.Next()
	})
	api.Handle(`^in/$`, noop)
	r.Handle(`^out/$`, noop)

	req := httptest.NewRequest(http.MethodGet, "/out/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, groupMwRan, "group middleware must not run for routes outside the group")
}

func TestGroup_NestedInheritsMiddleware(t *testing.T) {
	t.Parallel()

	var order []string
	r := MustNew()
	api := r.Group(`api/`, func(c *Context) {
		order = append(order, "api")
		c.Next()
	})
	admin := api.Group(`admin/`, func(c *Context) {
		order = append(order, "admin")
		c.Next()
	})
	admin.Handle(`^users/$`, func(_ *Context) {
		order = append(order, "handler")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"api", "admin", "handler"}, order)
}

func TestGroup_NamePrefix(t *testing.T) {
	t.Parallel()

	r := MustNew()
	api := r.Group(`api/`).SetNamePrefix("api.")

	_, err := api.Register(`^users/(?P<id>\d+)/$`, "user_detail", noop)
	require.NoError(t, err)

	path, err := r.URLFor("api.user_detail", 3)
	require.NoError(t, err)
	assert.Equal(t, "/api/users/3/", path)

	_, err = r.URLFor("user_detail", 3)
	assert.ErrorIs(t, err, ErrUnknownRoute)
}

func TestGroup_NestedNamePrefix(t *testing.T) {
	t.Parallel()

	r := MustNew()
	api := r.Group(`api/`).SetNamePrefix("api.")
	v1 := api.Group(`v1/`).SetNamePrefix("v1.")

	_, err := v1.Register(`^users/$`, "users", noop)
	require.NoError(t, err)

	path, err := r.URLFor("api.v1.users")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/users/", path)
}

func TestGroup_RegisterDuplicateName(t *testing.T) {
	t.Parallel()

	r := MustNew()
	api := r.Group(`api/`)

	_, err := api.Register(`^a/$`, "thing", noop)
	require.NoError(t, err)

	_, err = api.Register(`^b/$`, "thing", noop)
	assert.ErrorIs(t, err, ErrDuplicateRouteName)
}
