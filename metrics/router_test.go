// Copyright 2025 The Rivaas Authors
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

//go:build !integration

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"rivaas.dev/router"
)

func TestRouterMiddleware(t *testing.T) {
	t.Parallel()

	exp := &RecordingExporter{}
	rec := TestingRecorder(t, WithExporter(exp))

	r := router.MustNew()
	r.Use(RouterMiddleware(rec))
	r.GET("/users/:id", func(c *router.Context) {
		_ = c.String(http.StatusOK, "user "+c.Param("id")) //nolint:errcheck // test handler
	})
	r.GET("/fail", func(c *router.Context) {
		c.Status(http.StatusServiceUnavailable)
	})
	r.GET(rec.Endpoint(), RouterHandler(rec))

	for _, target := range []string{"/users/1", "/users/2", "/fail"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	}

	reg := rec.Registry()
	assert.InDelta(t, 2, counterValue(t, reg, requestsMetric, map[string]string{"route": "/users/:id", "status_code": "200"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, errorsMetric, map[string]string{"route": "/fail", "status_code": "503"}), 0)

	size := findSeries(t, reg, sizeMetric, map[string]string{"route": "/users/:id"})
	if assert.NotNil(t, size) {
		assert.InDelta(t, 12, size.GetHistogram().GetSampleSum(), 0)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `route="/users/:id"`)
}
