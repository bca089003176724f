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
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// findSeries returns the series of family name whose labels include every
// pair in labels, or nil.
func findSeries(t *testing.T, reg *Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			got := labelPairs(m.GetLabel())
			for k, v := range labels {
				if got[k] != v {
					continue series
				}
			}
			return m
		}
	}

	return nil
}

// counterValue returns the value of a counter series, 0 if it does not exist.
func counterValue(t *testing.T, reg *Registry, name string, labels map[string]string) float64 {
	t.Helper()

	m := findSeries(t, reg, name, labels)
	if m == nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// histogramCount returns the sample count of a histogram series, 0 if it does not exist.
func histogramCount(t *testing.T, reg *Registry, name string, labels map[string]string) uint64 {
	t.Helper()

	m := findSeries(t, reg, name, labels)
	if m == nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

// eventRecorder collects events emitted by a recorder.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) messages(t EventType) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e.Message)
		}
	}
	return out
}
