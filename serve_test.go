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
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServeHTTP_Basic(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^posts/(?P<post_id>\d+)/$`, func(c *Context) {
		c.String(http.StatusOK, "post "+c.Param("post_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/posts/1234/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "post 1234", w.Body.String())
}

func TestServeHTTP_RootPath(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^$`, func(c *Context) {
		c.String(http.StatusOK, "home")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "home", w.Body.String())
}

func TestServeHTTP_NotFound(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^posts/(?P<post_id>\d+)/$`, noop)

	req := httptest.NewRequest(http.MethodGet, "/posts/abc/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeHTTP_FirstMatchWins(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^posts/special/$`, func(c *Context) {
		c.String(http.StatusOK, "special")
	})
	r.Handle(`^posts/(?P<slug>\w+)/$`, func(c *Context) {
		c.String(http.StatusOK, "generic "+c.Param("slug"))
	})

	req := httptest.NewRequest(http.MethodGet, "/posts/special/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "special", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/posts/other/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "generic other", w.Body.String())
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^posts/$`, noop).Methods(http.MethodGet, http.MethodHead)

	req := httptest.NewRequest(http.MethodDelete, "/posts/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
}

func TestServeHTTP_MethodAllowed(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^posts/$`, func(c *Context) {
		c.Status(http.StatusCreated)
	}).Methods("post")

	// Methods normalizes case.
	req := httptest.NewRequest(http.MethodPost, "/posts/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestServeHTTP_FreezesOnFirstRequest(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^$`, noop)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, r.Frozen())
	assert.Panics(t, func() {
		r.Handle(`^late/$`, noop)
	})
}

func TestServeHTTP_GlobalMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	r := MustNew()
	r.Use(func(c *Context) {
		order = append(order, "mw1")
		c.Next()
		order = append(order, "mw1-after")
	})
	r.Use(func(c *Context) {
		order = append(order, "mw2")
		c.Next()
	})
	r.Handle(`^$`, func(_ *Context) {
		order = append(order, "handler")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"mw1", "mw2", "handler", "mw1-after"}, order)
}

func TestServeHTTP_MiddlewareAbort(t *testing.T) {
	t.Parallel()

	handlerRan := false
	r := MustNew()
	r.Use(func(c *Context) {
		c.Abort()
		c.Status(http.StatusUnauthorized)
	})
	r.Handle(`^$`, func(_ *Context) {
		handlerRan = true
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, handlerRan, "abort must stop the chain before the handler")
}

func TestServeHTTP_NoRouteHandler(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^posts/$`, noop)
	r.NoRoute(func(c *Context) {
		c.JSON(http.StatusNotFound, map[string]string{"error": "nothing here"})
	})

	req := httptest.NewRequest(http.MethodGet, "/missing/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"nothing here"}`, w.Body.String())
}

func TestServeHTTP_PositionalParams(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^archive/(\d{4})/(\d{2})/$`, func(c *Context) {
		c.Stringf(http.StatusOK, "%s-%s", c.Positional(0), c.Positional(1))
	})

	req := httptest.NewRequest(http.MethodGet, "/archive/2024/07/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "2024-07", w.Body.String())
}

func TestServeHTTP_ManyParams(t *testing.T) {
	t.Parallel()

	// Ten named groups overflow the inline parameter arrays.
	pat := `^v/(?P<a>\w)/(?P<b>\w)/(?P<c>\w)/(?P<d>\w)/(?P<e>\w)/(?P<f>\w)/(?P<g>\w)/(?P<h>\w)/(?P<i>\w)/(?P<j>\w)/$`

	r := MustNew()
	r.Handle(pat, func(c *Context) {
		c.String(http.StatusOK, c.Param("a")+c.Param("i")+c.Param("j"))
	})

	req := httptest.NewRequest(http.MethodGet, "/v/1/2/3/4/5/6/7/8/9/0/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "190", w.Body.String())
}

func TestServeHTTP_ConcurrentRequests(t *testing.T) {
	t.Parallel()

	r := MustNew()
	r.Handle(`^posts/(?P<id>\d+)/$`, func(c *Context) {
		c.String(http.StatusOK, c.Param("id"))
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			id := fmt.Sprintf("%d", n)
			req := httptest.NewRequest(http.MethodGet, "/posts/"+id+"/", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, id, w.Body.String())
		}(i)
	}
	wg.Wait()
}

func TestShutdown_NoServer(t *testing.T) {
	t.Parallel()

	r := MustNew()
	assert.NoError(t, r.Shutdown(context.Background()))
}
