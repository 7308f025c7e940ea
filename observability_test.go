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
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver is a test double capturing the observability lifecycle.
type recordingObserver struct {
	started      int
	ended        int
	wrapped      int
	endPattern   string
	endStatus    int
	endSize      int64
	excludePaths map[string]bool
}

type observerState struct{ path string }

func (o *recordingObserver) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if o.excludePaths[req.URL.Path] {
		return ctx, nil
	}
	o.started++

	return ctx, &observerState{path: req.URL.Path}
}

func (o *recordingObserver) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	if state == nil {
		return w
	}
	o.wrapped++

	return NewResponseWriter(w)
}

func (o *recordingObserver) BuildRequestLogger(_ context.Context, _ *http.Request, _ string) *slog.Logger {
	return NoopLogger()
}

func (o *recordingObserver) OnRequestEnd(_ context.Context, state any, writer http.ResponseWriter, routePattern string) {
	if state == nil {
		return
	}
	o.ended++
	o.endPattern = routePattern
	if info, ok := writer.(ResponseInfo); ok {
		o.endStatus = info.StatusCode()
		o.endSize = info.Size()
	}
}

func TestObservability_Lifecycle(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	r := MustNew(WithObservability(obs))
	r.Handle(`^posts/(?P<id>\d+)/$`, func(c *Context) {
		c.String(http.StatusOK, "hello")
	})

	req := httptest.NewRequest(http.MethodGet, "/posts/7/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, obs.started)
	assert.Equal(t, 1, obs.wrapped)
	assert.Equal(t, 1, obs.ended)
	assert.Equal(t, `^posts/(?P<id>\d+)/$`, obs.endPattern, "metrics label by pattern, not raw path")
	assert.Equal(t, http.StatusOK, obs.endStatus)
	assert.Equal(t, int64(5), obs.endSize)
}

func TestObservability_NotFoundSentinel(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	r := MustNew(WithObservability(obs))

	req := httptest.NewRequest(http.MethodGet, "/nowhere/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "_not_found", obs.endPattern)
	assert.Equal(t, http.StatusNotFound, obs.endStatus)
}

func TestObservability_MethodNotAllowedSentinel(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	r := MustNew(WithObservability(obs))
	r.Handle(`^posts/$`, noop).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodDelete, "/posts/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "_method_not_allowed", obs.endPattern)
	assert.Equal(t, http.StatusMethodNotAllowed, obs.endStatus)
}

func TestObservability_ExcludedPath(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{excludePaths: map[string]bool{"/healthz": true}}
	r := MustNew(WithObservability(obs))
	r.Handle(`^healthz$`, func(c *Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "excluded requests are still served")
	assert.Equal(t, 0, obs.started)
	assert.Equal(t, 0, obs.wrapped)
	assert.Equal(t, 0, obs.ended)
}

func TestResponseWriter_CapturesStatusAndSize(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)
	_, err := rw.Write([]byte("short and stout"))
	require.NoError(t, err)

	info, ok := rw.(ResponseInfo)
	require.True(t, ok)
	assert.Equal(t, http.StatusTeapot, info.StatusCode())
	assert.Equal(t, int64(15), info.Size())
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	t.Parallel()

	rw := NewResponseWriter(httptest.NewRecorder())
	_, err := rw.Write([]byte("x"))
	require.NoError(t, err)

	info := rw.(ResponseInfo)
	assert.Equal(t, http.StatusOK, info.StatusCode())
}

func TestResponseWriter_SuppressesDuplicateWriteHeader(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, http.StatusAccepted, rw.(ResponseInfo).StatusCode())
}
