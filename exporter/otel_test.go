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

package exporter

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOTelSender_ResourceMetricsGroupsByName(t *testing.T) {
	t.Parallel()

	s := NewOTelSender(nil, "checkout")
	ts := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)

	rm := s.resourceMetrics([]Observation{
		{Name: "orders", Value: 1, Labels: map[string]string{"region": "eu"}, Timestamp: ts},
		{Name: "latency_ms", Value: 12, Timestamp: ts},
		{Name: "orders", Value: 2, Labels: map[string]string{"region": "us"}, Timestamp: ts},
	})

	v, ok := rm.Resource.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "checkout", v.AsString())

	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, scopeName, rm.ScopeMetrics[0].Scope.Name)

	ms := rm.ScopeMetrics[0].Metrics
	require.Len(t, ms, 2)
	assert.Equal(t, "orders", ms[0].Name)
	assert.Equal(t, "latency_ms", ms[1].Name)

	gauge, ok := ms[0].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 2)
	assert.InDelta(t, 1.0, gauge.DataPoints[0].Value, 0)
	assert.Equal(t, ts, gauge.DataPoints[0].Time)

	region, ok := gauge.DataPoints[1].Attributes.Value(attribute.Key("region"))
	require.True(t, ok)
	assert.Equal(t, "us", region.AsString())
}

func TestStdoutSender_WritesBatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s, err := NewStdoutSender(&buf, "checkout")
	require.NoError(t, err)

	err = s.Send(context.Background(), []Observation{
		{Name: "orders_placed", Value: 3, Labels: map[string]string{"region": "eu"}, Timestamp: time.Now()},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "orders_placed")
	assert.Contains(t, out, "checkout")

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestNewOTLPSender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
	}{
		{"default endpoint", ""},
		{"insecure with path", "http://localhost:4318/v1/metrics"},
		{"secure", "https://collector.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := NewOTLPSender(context.Background(), tt.endpoint, "checkout")
			require.NoError(t, err)
			require.NotNil(t, s)
			require.NoError(t, s.Shutdown(context.Background()))
		})
	}
}
