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
	"context"
	"maps"
	"sync"
	"testing"
	"time"
)

// TestingRecorder creates a test [Recorder] with the Go runtime and process
// collectors disabled, so rendered output only holds HTTP and custom metrics.
// The recorder is shut down when the test ends.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    recorder := metrics.TestingRecorder(t)
//	    // Use recorder...
//	}
func TestingRecorder(t testing.TB, opts ...Option) *Recorder {
	t.Helper()

	allOpts := append([]Option{WithDefaultMetrics(false)}, opts...)

	recorder, err := New(allOpts...)
	if err != nil {
		t.Fatalf("TestingRecorder: failed to create recorder: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.Shutdown(ctx); err != nil {
			t.Logf("TestingRecorder: shutdown warning: %v", err)
		}
	})

	return recorder
}

// ExportedMetric is one call captured by [RecordingExporter].
type ExportedMetric struct {
	Name   string
	Value  float64
	Labels map[string]string
}

// RecordingExporter is an [Exporter] that keeps every call in memory.
// It is safe for concurrent use.
type RecordingExporter struct {
	mu      sync.Mutex
	metrics []ExportedMetric
}

// ExportMetric records the call.
func (e *RecordingExporter) ExportMetric(name string, value float64, labels map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = append(e.metrics, ExportedMetric{Name: name, Value: value, Labels: maps.Clone(labels)})
}

// Exported returns a copy of every recorded call, in call order.
func (e *RecordingExporter) Exported() []ExportedMetric {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ExportedMetric, len(e.metrics))
	copy(out, e.metrics)

	return out
}

// Names returns the recorded metric names, in call order.
func (e *RecordingExporter) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.metrics))
	for i, m := range e.metrics {
		names[i] = m.Name
	}

	return names
}
