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

package metrics

import (
	"errors"
	"maps"
	"strconv"
	"time"

	"rivaas.dev/httpmetrics/internal/semconv"
)

// HTTPRequestMetrics is the outcome of one request.
type HTTPRequestMetrics struct {
	Method     string
	Route      string
	StatusCode int
	Duration   time.Duration

	// ResponseSize is the response body size in bytes. Zero or negative
	// means unknown and skips the response size histogram.
	ResponseSize int64

	// Labels are extra labels. They are only kept on metrics that declare them.
	Labels map[string]string
}

// RequestTiming marks when a request was received. See [Recorder.Begin].
type RequestTiming struct {
	start time.Time
}

// Begin marks the start of a request. Pass the result to [Recorder.Finish]
// once the response is complete.
func (r *Recorder) Begin() *RequestTiming {
	return &RequestTiming{start: r.now()}
}

// Finish records a request started with [Recorder.Begin]. It must be called
// exactly once per request; a nil timing is ignored.
//
// Parameters:
//   - t: timing returned from [Recorder.Begin]
//   - method: HTTP method
//   - route: route template (e.g. "/users/{id}"), or the raw path if none matched
//   - status: response status code
//   - size: response body size in bytes, zero or negative if unknown
func (r *Recorder) Finish(t *RequestTiming, method, route string, status int, size int64) {
	if t == nil {
		return
	}

	r.record(HTTPRequestMetrics{
		Method:       method,
		Route:        route,
		StatusCode:   status,
		Duration:     r.now().Sub(t.start),
		ResponseSize: size,
	})
}

// RecordHTTPRequest records the outcome of one request measured by the caller.
// It is not idempotent: each call counts one request.
func (r *Recorder) RecordHTTPRequest(m HTTPRequestMetrics) {
	r.record(m)
}

// record updates the built-in HTTP metrics for one request and forwards the
// same observations to the exporter. Success is 200-399 and error is 400 and
// above, so 1xx responses count towards neither.
func (r *Recorder) record(m HTTPRequestMetrics) {
	if !r.filter.allows(m.Route) {
		return
	}

	labels := r.requestLabels(m)
	isError := m.StatusCode >= 400
	isSuccess := m.StatusCode >= 200 && m.StatusCode < 400
	hm := r.cfg.HTTPMetrics

	if hm.RequestDuration.Enabled {
		ms := float64(m.Duration) / float64(time.Millisecond)
		r.forward(hm.RequestDuration.Name, ms, labels,
			r.registry.Observe(Histogram, hm.RequestDuration.Name, ms, labels))
	}
	if hm.RequestCount.Enabled {
		r.forward(hm.RequestCount.Name, 1, labels,
			r.registry.Add(hm.RequestCount.Name, 1, labels))
	}
	if hm.ResponseSize.Enabled && m.ResponseSize > 0 {
		size := float64(m.ResponseSize)
		r.forward(hm.ResponseSize.Name, size, labels,
			r.registry.Observe(Histogram, hm.ResponseSize.Name, size, labels))
	}
	if hm.ErrorCount.Enabled && isError {
		r.forward(hm.ErrorCount.Name, 1, labels,
			r.registry.Add(hm.ErrorCount.Name, 1, labels))
	}
	if hm.SuccessCount.Enabled && isSuccess {
		r.forward(hm.SuccessCount.Name, 1, labels,
			r.registry.Add(hm.SuccessCount.Name, 1, labels))
	}
}

// forward sends an observation to the exporter once the primitive was
// updated. A missing primitive (e.g. after ClearMetrics) skips both.
func (r *Recorder) forward(name string, value float64, labels map[string]string, updateErr error) {
	if updateErr != nil {
		if !errors.Is(updateErr, ErrMetricNotFound) {
			r.emitWarning("Failed to record HTTP metric", semconv.MetricName, name, semconv.Error, updateErr)
		}
		return
	}
	if r.exporter != nil {
		r.exporter.ExportMetric(name, value, labels)
	}
}

// requestLabels merges default labels, extra labels and the derived
// method/route/status_code labels, later sources winning.
func (r *Recorder) requestLabels(m HTTPRequestMetrics) map[string]string {
	labels := make(map[string]string, len(r.cfg.DefaultLabels)+len(m.Labels)+3)
	maps.Copy(labels, r.cfg.DefaultLabels)
	maps.Copy(labels, m.Labels)
	labels[labelMethod] = m.Method
	labels[labelRoute] = m.Route
	labels[labelStatusCode] = strconv.Itoa(m.StatusCode)

	return labels
}

// IncrementCounter adds one to a counter. Unknown names are ignored.
func (r *Recorder) IncrementCounter(name string, labels map[string]string) {
	r.AddCounter(name, 1, labels)
}

// AddCounter adds value to a counter. Unknown names, other kinds and
// negative values are ignored and counted in [Recorder.DroppedObservations].
func (r *Recorder) AddCounter(name string, value float64, labels map[string]string) {
	r.dropOnError(Counter, name, r.registry.Add(name, value, labels))
}

// SetGauge sets a gauge. Unknown names are ignored.
func (r *Recorder) SetGauge(name string, value float64, labels map[string]string) {
	r.dropOnError(Gauge, name, r.registry.Set(name, value, labels))
}

// ObserveHistogram records value in a histogram. Unknown names are ignored.
func (r *Recorder) ObserveHistogram(name string, value float64, labels map[string]string) {
	r.dropOnError(Histogram, name, r.registry.Observe(Histogram, name, value, labels))
}

// ObserveSummary records value in a summary. Unknown names are ignored.
func (r *Recorder) ObserveSummary(name string, value float64, labels map[string]string) {
	r.dropOnError(Summary, name, r.registry.Observe(Summary, name, value, labels))
}

func (r *Recorder) dropOnError(kind MetricType, name string, err error) {
	if err == nil {
		return
	}
	r.dropped.Add(1)
	r.emitDebug("Observation dropped", semconv.MetricName, name, semconv.MetricKind, kind, semconv.Error, err)
}

// Metrics renders every metric in the Prometheus text exposition format.
func (r *Recorder) Metrics() (string, error) {
	return r.registry.Text()
}

// MetricsJSON renders every metric as JSON. See [FamilyJSON].
func (r *Recorder) MetricsJSON() ([]byte, error) {
	return r.registry.JSON()
}

// ClearMetrics unregisters every metric, including the built-in HTTP
// metrics and default collectors. Later recordings are ignored until
// metrics are registered again.
func (r *Recorder) ClearMetrics() {
	r.registry.Clear()
	r.emitInfo("Metrics cleared")
}

// ResetMetrics drops all recorded values but keeps every registration.
func (r *Recorder) ResetMetrics() {
	r.registry.Reset()
}

// Register adds a custom metric at runtime. The configured prefix is applied.
func (r *Recorder) Register(def MetricDefinition) error {
	def.Name = r.cfg.Prefix + def.Name
	return r.registry.Register(def)
}

// Unregister removes a metric by its full name. It reports whether one existed.
func (r *Recorder) Unregister(name string) bool {
	return r.registry.Unregister(name)
}
