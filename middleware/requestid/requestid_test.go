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

package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reroute-dev/reroute"
)

func TestRequestID_GeneratesUUIDv7(t *testing.T) {
	t.Parallel()

	var seen string
	r := reroute.MustNew()
	r.Use(New())
	r.Handle(`^$`, func(c *reroute.Context) {
		seen = Get(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	header := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, header)
	assert.Equal(t, header, seen, "Get must return the same ID set on the response")

	id, err := uuid.Parse(header)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestRequestID_ClientIDPassthrough(t *testing.T) {
	t.Parallel()

	r := reroute.MustNew()
	r.Use(New())
	r.Handle(`^$`, func(_ *reroute.Context) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied", w.Header().Get("X-Request-ID"))
}

func TestRequestID_ClientIDDisallowed(t *testing.T) {
	t.Parallel()

	r := reroute.MustNew()
	r.Use(New(WithAllowClientID(false)))
	r.Handle(`^$`, func(_ *reroute.Context) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	got := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "client-supplied", got)
}

func TestRequestID_CustomHeader(t *testing.T) {
	t.Parallel()

	r := reroute.MustNew()
	r.Use(New(WithHeader("X-Correlation-ID")))
	r.Handle(`^$`, func(_ *reroute.Context) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	assert.Empty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestID_ULID(t *testing.T) {
	t.Parallel()

	r := reroute.MustNew()
	r.Use(New(WithULID()))
	r.Handle(`^$`, func(_ *reroute.Context) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get("X-Request-ID")
	require.Len(t, id, 26)
	_, err := ulid.Parse(id)
	assert.NoError(t, err)
}

func TestRequestID_CustomGenerator(t *testing.T) {
	t.Parallel()

	r := reroute.MustNew()
	r.Use(New(WithGenerator(func() string { return "fixed-id" })))
	r.Handle(`^$`, func(_ *reroute.Context) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
}

func TestGet_WithoutMiddleware(t *testing.T) {
	t.Parallel()

	c := reroute.NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, Get(c))
}
