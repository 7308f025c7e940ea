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

func TestMount_Basic(t *testing.T) {
	t.Parallel()

	blog := MustNew()
	blog.Handle(`^(?P<post_id>\d+)/$`, func(c *Context) {
		c.String(http.StatusOK, "post "+c.Param("post_id"))
	})

	app := MustNew()
	require.NoError(t, app.Mount(`posts/`, blog))

	req := httptest.NewRequest(http.MethodGet, "/posts/1234/", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "post 1234", w.Body.String())
}

func TestMount_CarriesNames(t *testing.T) {
	t.Parallel()

	blog := MustNew()
	blog.Handle(`^(?P<post_id>\d+)/$`, noop).Name("blog_detail")

	app := MustNew()
	require.NoError(t, app.Mount(`posts/`, blog))

	path, err := app.URLFor("blog_detail", 42)
	require.NoError(t, err)
	assert.Equal(t, "/posts/42/", path)
}

func TestMount_NameCollision(t *testing.T) {
	t.Parallel()

	sub := MustNew()
	sub.Handle(`^x/$`, noop).Name("thing")

	app := MustNew()
	app.Handle(`^y/$`, noop).Name("thing")

	err := app.Mount(`sub/`, sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, ErrDuplicateRouteName)
}

func TestMount_CarriesMethods(t *testing.T) {
	t.Parallel()

	sub := MustNew()
	sub.Handle(`^items/$`, noop).Methods(http.MethodPost)

	app := MustNew()
	require.NoError(t, app.Mount(`api/`, sub))

	req := httptest.NewRequest(http.MethodGet, "/api/items/", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "POST", w.Header().Get("Allow"))
}

func TestMount_FoldsSubrouterMiddleware(t *testing.T) {
	t.Parallel()

	var order []string
	sub := MustNew()
	sub.Use(func(c *Context) {
		order = append(order, "sub-mw")
		c.Next()
	})
	sub.Handle(`^x/$`, func(_ *Context) {
		order = append(order, "handler")
	})

	app := MustNew()
	app.Use(func(c *Context) {
		order = append(order, "app-mw")
		c.Next()
	})
	require.NoError(t, app.Mount(`sub/`, sub))

	req := httptest.NewRequest(http.MethodGet, "/sub/x/", nil)
	app.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"app-mw", "sub-mw", "handler"}, order)
}

func TestMount_CopyByValue(t *testing.T) {
	t.Parallel()

	sub := MustNew()
	sub.Handle(`^before/$`, noop)

	app := MustNew()
	require.NoError(t, app.Mount(`sub/`, sub))

	// Routes added to the subrouter after Mount are not reflected.
	sub.Handle(`^after/$`, noop)

	_, err := app.Resolve("/sub/before/")
	require.NoError(t, err)

	_, err = app.Resolve("/sub/after/")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMount_StripsAnchorsFromPrefix(t *testing.T) {
	t.Parallel()

	sub := MustNew()
	sub.Handle(`^x/$`, noop)

	app := MustNew()
	require.NoError(t, app.Mount(`^sub/$`, sub))

	_, err := app.Resolve("/sub/x/")
	require.NoError(t, err)
}
