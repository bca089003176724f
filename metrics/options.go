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
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rivaas.dev/httpmetrics/exporter"
)

// Option defines functional options for Recorder configuration.
type Option func(*Recorder)

// WithConfig replaces the whole configuration, typically one produced by
// the config package. Options applied after it modify the given value.
//
// Example:
//
//	cfg, err := config.Load(ctx, config.WithFile("metrics.yaml"))
//	recorder, err := metrics.New(metrics.WithConfig(cfg))
func WithConfig(cfg Config) Option {
	return func(r *Recorder) {
		r.cfg = cfg
	}
}

// WithRegistry uses reg instead of a fresh private registry.
// The global prometheus.DefaultRegisterer is never used implicitly.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Recorder) {
		if reg == nil {
			r.validationErrors = append(r.validationErrors, fmt.Errorf("registry cannot be nil"))
			return
		}
		r.promRegistry = reg
	}
}

// WithEndpoint sets the path reported by [Recorder.Endpoint].
func WithEndpoint(path string) Option {
	return func(r *Recorder) {
		r.cfg.Endpoint = path
	}
}

// WithDefaultMetrics enables or disables the Go runtime and process collectors.
func WithDefaultMetrics(enabled bool) Option {
	return func(r *Recorder) {
		r.cfg.EnableDefaultMetrics = enabled
	}
}

// WithDefaultMetricsInterval sets the default metrics interval.
func WithDefaultMetricsInterval(d time.Duration) Option {
	return func(r *Recorder) {
		r.cfg.DefaultMetricsInterval = d
	}
}

// WithHTTPMetrics replaces the configuration of the built-in HTTP metrics.
func WithHTTPMetrics(cfg HTTPMetricsConfig) Option {
	return func(r *Recorder) {
		r.cfg.HTTPMetrics = cfg
	}
}

// WithDurationBuckets sets the request duration histogram boundaries, in milliseconds.
//
// Example:
//
//	recorder := metrics.MustNew(
//	    metrics.WithDurationBuckets(10, 50, 100, 500, 1000),
//	)
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		r.cfg.HTTPMetrics.RequestDuration.Buckets = slices.Clone(buckets)
	}
}

// WithSizeBuckets sets the response size histogram boundaries, in bytes.
func WithSizeBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		r.cfg.HTTPMetrics.ResponseSize.Buckets = slices.Clone(buckets)
	}
}

// WithCustomMetrics adds business metric definitions.
func WithCustomMetrics(defs ...MetricDefinition) Option {
	return func(r *Recorder) {
		r.cfg.CustomMetrics = append(r.cfg.CustomMetrics, defs...)
	}
}

// WithCloudWatch forwards every HTTP observation to Amazon CloudWatch
// through a buffered exporter owned by the recorder.
func WithCloudWatch(cfg exporter.CloudWatchConfig) Option {
	return func(r *Recorder) {
		r.cfg.AWSCloudWatch = &cfg
	}
}

// WithExporter forwards every HTTP observation to exp. If exp has a
// Shutdown(context.Context) error method, [Recorder.Shutdown] calls it; if it
// is a prometheus.Collector, it is registered alongside the other metrics.
//
// Example:
//
//	exp, _ := exporter.New(exporter.NewHTTPSender(url, 5*time.Second))
//	recorder := metrics.MustNew(metrics.WithExporter(exp))
func WithExporter(exp Exporter) Option {
	return func(r *Recorder) {
		r.exporter = exp
	}
}

// WithExcludeRoutes skips recording for routes containing any of the substrings.
// It replaces the defaults ("/health", "/healthcheck").
func WithExcludeRoutes(routes ...string) Option {
	return func(r *Recorder) {
		r.cfg.ExcludeRoutes = slices.Clone(routes)
	}
}

// WithIncludeRoutes records only routes containing one of the substrings.
func WithIncludeRoutes(routes ...string) Option {
	return func(r *Recorder) {
		r.cfg.IncludeRoutes = slices.Clone(routes)
	}
}

// WithExcludePatterns skips recording for routes matching any of the regular
// expressions. Invalid patterns make New return an error.
//
// Example:
//
//	metrics.WithExcludePatterns(`^/v[0-9]+/internal/`, `^/debug/`)
func WithExcludePatterns(patterns ...string) Option {
	return func(r *Recorder) {
		r.cfg.ExcludePatterns = append(r.cfg.ExcludePatterns, patterns...)
	}
}

// WithDefaultLabels attaches constant labels to every metric.
func WithDefaultLabels(labels map[string]string) Option {
	return func(r *Recorder) {
		r.cfg.DefaultLabels = maps.Clone(labels)
	}
}

// WithPrefix prepends prefix to the names of custom metrics.
func WithPrefix(prefix string) Option {
	return func(r *Recorder) {
		r.cfg.Prefix = prefix
	}
}

// WithStrictDefinitions makes New fail on invalid custom metric definitions.
func WithStrictDefinitions() Option {
	return func(r *Recorder) {
		r.cfg.StrictDefinitions = true
	}
}

// WithOpenTelemetry exposes an OpenTelemetry Meter through [Recorder.Meter]
// whose instruments appear on the same endpoint.
func WithOpenTelemetry() Option {
	return func(r *Recorder) {
		r.cfg.OpenTelemetry = true
	}
}

// WithEventHandler sets a custom [EventHandler] for internal operational events.
//
// Example:
//
//	metrics.New(metrics.WithEventHandler(func(e metrics.Event) {
//	    if e.Type == metrics.EventError {
//	        alerts.Notify(e.Message)
//	    }
//	}))
func WithEventHandler(handler EventHandler) Option {
	return func(r *Recorder) {
		r.eventHandler = handler
	}
}

// WithLogger sets the logger for internal operational events using the default event handler.
//
// Example:
//
//	recorder := metrics.MustNew(metrics.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}

// withClock replaces time.Now for request timing.
func withClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}
