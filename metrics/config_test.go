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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/httpmetrics/exporter"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/metrics", cfg.Endpoint)
	assert.True(t, cfg.EnableDefaultMetrics)
	assert.Equal(t, 10*time.Second, cfg.DefaultMetricsInterval)
	assert.Equal(t, []string{"/health", "/healthcheck"}, cfg.ExcludeRoutes)
	assert.Empty(t, cfg.IncludeRoutes)

	for field, m := range cfg.HTTPMetrics.all() {
		assert.True(t, m.Enabled, field)
		assert.Equal(t, []string{"method", "route", "status_code"}, m.Labels, field)
	}
	assert.Equal(t, DefaultDurationBuckets, cfg.HTTPMetrics.RequestDuration.Buckets)
	assert.Equal(t, DefaultSizeBuckets, cfg.HTTPMetrics.ResponseSize.Buckets)
}

func TestDefaultConfig_FreshSlices(t *testing.T) {
	t.Parallel()

	a := DefaultConfig()
	a.ExcludeRoutes[0] = "/changed"
	a.HTTPMetrics.RequestCount.Labels[0] = "verb"
	a.HTTPMetrics.RequestDuration.Buckets[0] = 99

	b := DefaultConfig()
	assert.Equal(t, "/health", b.ExcludeRoutes[0])
	assert.Equal(t, "method", b.HTTPMetrics.RequestCount.Labels[0])
	assert.InDelta(t, 0.1, b.HTTPMetrics.RequestDuration.Buckets[0], 0)
	assert.InDelta(t, 0.1, DefaultDurationBuckets[0], 0)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tooManyLabels := make(map[string]string)
	for i := range maxDefaultLabels + 1 {
		tooManyLabels[fmt.Sprintf("l%d", i)] = "v"
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "relative endpoint", mutate: func(c *Config) { c.Endpoint = "metrics" }, wantErr: "absolute path"},
		{name: "empty endpoint", mutate: func(c *Config) { c.Endpoint = "" }, wantErr: "absolute path"},
		{name: "negative interval", mutate: func(c *Config) { c.DefaultMetricsInterval = -time.Second }, wantErr: "cannot be negative"},
		{name: "too many default labels", mutate: func(c *Config) { c.DefaultLabels = tooManyLabels }, wantErr: "too many default labels"},
		{name: "invalid default label", mutate: func(c *Config) { c.DefaultLabels = map[string]string{"1x": "v"} }, wantErr: "default label"},
		{name: "route as default label", mutate: func(c *Config) { c.DefaultLabels = map[string]string{"route": "all"} }, wantErr: `default label "route"`},
		{name: "status code as default label", mutate: func(c *Config) { c.DefaultLabels = map[string]string{"status_code": "200"} }, wantErr: `default label "status_code"`},
		{name: "le as default label", mutate: func(c *Config) { c.DefaultLabels = map[string]string{"le": "1"} }, wantErr: `default label "le"`},
		{
			name:    "le on duration histogram",
			mutate:  func(c *Config) { c.HTTPMetrics.RequestDuration.Labels = []string{"method", "le"} },
			wantErr: `httpMetrics.requestDuration: label name "le" is reserved`,
		},
		{
			name:   "le on a counter is allowed",
			mutate: func(c *Config) { c.HTTPMetrics.RequestCount.Labels = []string{"method", "le"} },
		},
		{
			name:    "invalid http metric name",
			mutate:  func(c *Config) { c.HTTPMetrics.ErrorCount.Name = "bad name" },
			wantErr: "httpMetrics.errorCount",
		},
		{
			name:    "unsorted http buckets",
			mutate:  func(c *Config) { c.HTTPMetrics.ResponseSize.Buckets = []float64{10, 1} },
			wantErr: "httpMetrics.responseSize: buckets must be strictly increasing",
		},
		{
			name: "disabled metric is not checked",
			mutate: func(c *Config) {
				c.HTTPMetrics.SuccessCount.Enabled = false
				c.HTTPMetrics.SuccessCount.Name = ""
			},
		},
		{
			name:    "cloudwatch without namespace",
			mutate:  func(c *Config) { c.AWSCloudWatch = &exporter.CloudWatchConfig{} },
			wantErr: "awsCloudWatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMetricType_Valid(t *testing.T) {
	t.Parallel()

	for _, k := range []MetricType{Counter, Gauge, Histogram, Summary} {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, MetricType("meter").Valid())
	assert.False(t, MetricType("").Valid())
}
