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
	"fmt"
	"slices"
	"strings"
	"time"

	"rivaas.dev/httpmetrics/exporter"
)

// MetricType is the kind of a registered primitive.
type MetricType string

const (
	Counter   MetricType = "counter"
	Gauge     MetricType = "gauge"
	Histogram MetricType = "histogram"
	Summary   MetricType = "summary"
)

// Valid reports whether t is one of the four supported kinds.
func (t MetricType) Valid() bool {
	switch t {
	case Counter, Gauge, Histogram, Summary:
		return true
	}
	return false
}

const (
	// DefaultEndpoint is the path of the pull endpoint.
	DefaultEndpoint = "/metrics"

	// DefaultMetricsInterval is accepted for configuration compatibility.
	// Go runtime and process metrics are sampled at scrape time.
	DefaultMetricsInterval = 10 * time.Second
)

const (
	labelMethod     = "method"
	labelRoute      = "route"
	labelStatusCode = "status_code"

	defaultSummaryMaxAge     = 10 * time.Minute
	defaultSummaryAgeBuckets = 5

	maxDefaultLabels             = 16
	maxCustomLabelNamesPerMetric = 16
)

var (
	// DefaultDurationBuckets are the request duration histogram boundaries, in milliseconds.
	DefaultDurationBuckets = []float64{0.1, 5, 15, 50, 100, 200, 300, 400, 500, 1000, 2000, 5000}

	// DefaultSizeBuckets are the response size histogram boundaries, in bytes.
	DefaultSizeBuckets = []float64{1, 100, 1000, 10000, 100000, 1000000}

	// DefaultPercentiles are the summary quantiles used when a definition has none.
	DefaultPercentiles = []float64{0.01, 0.05, 0.5, 0.9, 0.95, 0.99, 0.999}
)

// reservedDefaultLabels cannot be default labels: the request labels would
// collapse into one constant series, and le/quantile belong to client_golang.
var reservedDefaultLabels = []string{labelMethod, labelRoute, labelStatusCode, "le", "quantile"}

// ErrUnknownMetricType is returned for a definition whose Type is not a supported kind.
var ErrUnknownMetricType = errors.New("unknown metric type")

// HTTPMetricConfig configures one of the built-in HTTP metrics.
type HTTPMetricConfig struct {
	Enabled bool      `config:"enabled" json:"enabled"`
	Name    string    `config:"name" json:"name"`
	Help    string    `config:"help" json:"help"`
	Buckets []float64 `config:"buckets" json:"buckets,omitempty"`
	Labels  []string  `config:"labels" json:"labels"`
}

// HTTPMetricsConfig groups the five built-in HTTP metrics.
type HTTPMetricsConfig struct {
	RequestDuration HTTPMetricConfig `config:"requestDuration" json:"requestDuration"`
	RequestCount    HTTPMetricConfig `config:"requestCount" json:"requestCount"`
	ResponseSize    HTTPMetricConfig `config:"responseSize" json:"responseSize"`
	ErrorCount      HTTPMetricConfig `config:"errorCount" json:"errorCount"`
	SuccessCount    HTTPMetricConfig `config:"successCount" json:"successCount"`
}

// MetricConfig holds the type-specific settings of a [MetricDefinition].
// Buckets apply to histograms; the rest to summaries.
type MetricConfig struct {
	Buckets     []float64     `config:"buckets" json:"buckets,omitempty"`
	Percentiles []float64     `config:"percentiles" json:"percentiles,omitempty"`
	MaxAge      time.Duration `config:"maxAge" json:"maxAge,omitempty"`
	AgeBuckets  uint32        `config:"ageBuckets" json:"ageBuckets,omitempty"`
}

// MetricDefinition describes a custom business metric.
//
// Example:
//
//	metrics.MetricDefinition{
//	    Type:   metrics.Counter,
//	    Name:   "orders_placed_total",
//	    Help:   "Orders placed",
//	    Labels: []string{"region"},
//	}
type MetricDefinition struct {
	Type   MetricType   `config:"type" json:"type"`
	Name   string       `config:"name" json:"name"`
	Help   string       `config:"help" json:"help"`
	Labels []string     `config:"labels" json:"labels,omitempty"`
	Config MetricConfig `config:"config" json:"config,omitzero"`
}

// Validate checks the definition on its own, without a registry.
func (d MetricDefinition) Validate() error {
	var errs []error
	if !d.Type.Valid() {
		errs = append(errs, fmt.Errorf("%w %q", ErrUnknownMetricType, d.Type))
	}
	if err := validateMetricName(d.Name); err != nil {
		errs = append(errs, err)
	}
	if len(d.Labels) > maxCustomLabelNamesPerMetric {
		errs = append(errs, fmt.Errorf("too many labels: %d (max %d)", len(d.Labels), maxCustomLabelNamesPerMetric))
	}
	for _, l := range d.Labels {
		if err := validateLabelNameFor(d.Type, l); err != nil {
			errs = append(errs, err)
		}
	}
	if d.Type == Histogram && !isStrictlyIncreasing(d.Config.Buckets) {
		errs = append(errs, fmt.Errorf("histogram buckets must be strictly increasing"))
	}
	for _, p := range d.Config.Percentiles {
		if p <= 0 || p >= 1 {
			errs = append(errs, fmt.Errorf("percentile %v out of range (0, 1)", p))
		}
	}
	if d.Config.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("max age cannot be negative, got %v", d.Config.MaxAge))
	}

	return errors.Join(errs...)
}

// Config is the complete recorder configuration. [DefaultConfig] returns it
// fully populated; options and configuration files modify that value.
type Config struct {
	Endpoint               string                     `config:"endpoint" json:"endpoint"`
	EnableDefaultMetrics   bool                       `config:"enableDefaultMetrics" json:"enableDefaultMetrics"`
	DefaultMetricsInterval time.Duration              `config:"defaultMetricsInterval" json:"defaultMetricsInterval"`
	HTTPMetrics            HTTPMetricsConfig          `config:"httpMetrics" json:"httpMetrics"`
	CustomMetrics          []MetricDefinition         `config:"customMetrics" json:"customMetrics,omitempty"`
	AWSCloudWatch          *exporter.CloudWatchConfig `config:"awsCloudWatch" json:"awsCloudWatch,omitempty"`
	ExcludeRoutes          []string                   `config:"excludeRoutes" json:"excludeRoutes"`
	IncludeRoutes          []string                   `config:"includeRoutes" json:"includeRoutes"`
	ExcludePatterns        []string                   `config:"excludePatterns" json:"excludePatterns,omitempty"`
	DefaultLabels          map[string]string          `config:"defaultLabels" json:"defaultLabels,omitempty"`

	// Prefix is prepended to the names of custom metrics.
	Prefix string `config:"prefix" json:"prefix,omitempty"`

	// StrictDefinitions makes New fail on an invalid custom metric instead
	// of skipping it with a warning.
	StrictDefinitions bool `config:"strictDefinitions" json:"strictDefinitions,omitempty"`

	// OpenTelemetry exposes an OpenTelemetry Meter whose instruments are
	// collected into the same registry.
	OpenTelemetry bool `config:"openTelemetry" json:"openTelemetry,omitempty"`
}

// DefaultConfig returns the default configuration. Every call returns fresh
// slices, so callers may modify the result freely.
func DefaultConfig() Config {
	labels := func() []string { return []string{labelMethod, labelRoute, labelStatusCode} }

	return Config{
		Endpoint:               DefaultEndpoint,
		EnableDefaultMetrics:   true,
		DefaultMetricsInterval: DefaultMetricsInterval,
		HTTPMetrics: HTTPMetricsConfig{
			RequestDuration: HTTPMetricConfig{
				Enabled: true,
				Name:    "http_request_duration_ms",
				Help:    "Duration of HTTP requests in milliseconds",
				Buckets: slices.Clone(DefaultDurationBuckets),
				Labels:  labels(),
			},
			RequestCount: HTTPMetricConfig{
				Enabled: true,
				Name:    "http_requests_total",
				Help:    "Total number of HTTP requests",
				Labels:  labels(),
			},
			ResponseSize: HTTPMetricConfig{
				Enabled: true,
				Name:    "http_response_size_bytes",
				Help:    "Size of HTTP responses in bytes",
				Buckets: slices.Clone(DefaultSizeBuckets),
				Labels:  labels(),
			},
			ErrorCount: HTTPMetricConfig{
				Enabled: true,
				Name:    "http_errors_total",
				Help:    "Total number of HTTP errors",
				Labels:  labels(),
			},
			SuccessCount: HTTPMetricConfig{
				Enabled: true,
				Name:    "http_success_total",
				Help:    "Total number of successful HTTP requests",
				Labels:  labels(),
			},
		},
		ExcludeRoutes: []string{"/health", "/healthcheck"},
		IncludeRoutes: []string{},
	}
}

// Validate reports every configuration problem that prevents building a
// recorder. Invalid custom metric definitions are not reported here; they
// are handled when the recorder registers them.
func (c Config) Validate() error {
	var errs []error

	if c.Endpoint == "" || !strings.HasPrefix(c.Endpoint, "/") {
		errs = append(errs, fmt.Errorf("endpoint must be an absolute path, got %q", c.Endpoint))
	}
	if c.DefaultMetricsInterval < 0 {
		errs = append(errs, fmt.Errorf("default metrics interval cannot be negative, got %v", c.DefaultMetricsInterval))
	}
	if len(c.DefaultLabels) > maxDefaultLabels {
		errs = append(errs, fmt.Errorf("too many default labels: %d (max %d)", len(c.DefaultLabels), maxDefaultLabels))
	}
	for name := range c.DefaultLabels {
		if err := validateLabelName(name); err != nil {
			errs = append(errs, fmt.Errorf("default label: %w", err))
		}
		if slices.Contains(reservedDefaultLabels, name) {
			errs = append(errs, fmt.Errorf("default label %q collides with a request or bucket label", name))
		}
	}

	for field, m := range c.HTTPMetrics.all() {
		if !m.Enabled {
			continue
		}
		if err := validateMetricName(m.Name); err != nil {
			errs = append(errs, fmt.Errorf("httpMetrics.%s: %w", field, err))
		}
		if len(m.Buckets) > 0 && !isStrictlyIncreasing(m.Buckets) {
			errs = append(errs, fmt.Errorf("httpMetrics.%s: buckets must be strictly increasing", field))
		}
		for _, l := range m.Labels {
			if err := validateLabelNameFor(httpMetricKind(field), l); err != nil {
				errs = append(errs, fmt.Errorf("httpMetrics.%s: %w", field, err))
			}
		}
	}

	if c.AWSCloudWatch != nil {
		if err := c.AWSCloudWatch.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("awsCloudWatch: %w", err))
		}
	}

	return errors.Join(errs...)
}

// all yields the built-in metric configurations keyed by their config field name.
func (h HTTPMetricsConfig) all() map[string]HTTPMetricConfig {
	return map[string]HTTPMetricConfig{
		"requestDuration": h.RequestDuration,
		"requestCount":    h.RequestCount,
		"responseSize":    h.ResponseSize,
		"errorCount":      h.ErrorCount,
		"successCount":    h.SuccessCount,
	}
}

// httpMetricKind returns the metric type of a built-in by its config field name.
func httpMetricKind(field string) MetricType {
	if field == "requestDuration" || field == "responseSize" {
		return Histogram
	}
	return Counter
}

func isStrictlyIncreasing(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			return false
		}
	}
	return true
}
