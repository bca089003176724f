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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenCollector always yields an invalid metric, making Gather fail.
type brokenCollector struct{}

func (brokenCollector) Describe(chan<- *prometheus.Desc) {}

func (brokenCollector) Collect(ch chan<- prometheus.Metric) {
	desc := prometheus.NewDesc("broken_metric", "always fails", nil, nil)
	ch <- prometheus.NewInvalidMetric(desc, errors.New("sensor offline"))
}

func TestHandler_Text(t *testing.T) {
	t.Parallel()

	rec := TestingRecorder(t, WithCustomMetrics(MetricDefinition{Type: Gauge, Name: "active_connections_total"}))
	rec.SetGauge("active_connections_total", 42, nil)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "# TYPE active_connections_total gauge\n")
	assert.Contains(t, w.Body.String(), "\nactive_connections_total 42\n")
}

func TestHandler_JSON(t *testing.T) {
	t.Parallel()

	rec := TestingRecorder(t, WithDurationBuckets(10, 50))
	rec.RecordHTTPRequest(request("GET", "/a", 200))

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics?format=json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var families []FamilyJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &families))

	byName := make(map[string]FamilyJSON, len(families))
	for _, f := range families {
		byName[f.Name] = f
	}

	requests := byName[requestsMetric]
	assert.Equal(t, "counter", requests.Type)
	require.Len(t, requests.Metrics, 1)
	require.NotNil(t, requests.Metrics[0].Value)
	assert.InDelta(t, 1, *requests.Metrics[0].Value, 0)
	assert.Equal(t, "/a", requests.Metrics[0].Labels["route"])

	duration := byName[durationMetric]
	assert.Equal(t, "histogram", duration.Type)
	require.Len(t, duration.Metrics, 1)
	assert.Equal(t, map[string]uint64{"10": 0, "50": 1}, duration.Metrics[0].Buckets)
	require.NotNil(t, duration.Metrics[0].Count)
	assert.Equal(t, uint64(1), *duration.Metrics[0].Count)
}

func TestHandler_RenderFailure(t *testing.T) {
	t.Parallel()

	for _, target := range []string{"/metrics", "/metrics?format=json"} {
		t.Run(target, func(t *testing.T) {
			t.Parallel()

			events := &eventRecorder{}
			rec := TestingRecorder(t, WithEventHandler(events.handle))
			require.NoError(t, rec.Registry().RegisterCollector(brokenCollector{}))

			w := httptest.NewRecorder()
			rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, "application/problem+json; charset=utf-8", w.Header().Get("Content-Type"))

			var problem map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.InDelta(t, 500, problem["status"], 0)
			assert.Equal(t, codeRenderFailed, problem["code"])
			assert.Equal(t, "/metrics", problem["instance"])

			assert.Contains(t, events.messages(EventError), "Failed to render metrics")
		})
	}
}
