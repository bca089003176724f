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
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"rivaas.dev/httpmetrics/exporter"
	"rivaas.dev/httpmetrics/internal/semconv"
)

// Event types are shared with the exporter package so one handler can serve both.
type (
	Event        = exporter.Event
	EventType    = exporter.EventType
	EventHandler = exporter.EventHandler
)

const (
	EventError   = exporter.EventError
	EventWarning = exporter.EventWarning
	EventInfo    = exporter.EventInfo
	EventDebug   = exporter.EventDebug
)

// DefaultEventHandler returns an EventHandler that logs events to logger.
// If logger is nil, events are discarded.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	return exporter.DefaultEventHandler(logger)
}

// Exporter receives every HTTP observation the recorder makes.
// [exporter.Exporter] satisfies it.
type Exporter interface {
	ExportMetric(name string, value float64, labels map[string]string)
}

// Recorder instruments HTTP requests and owns the metrics registry, the
// optional exporter and the application metrics API.
// All methods are safe for concurrent use.
type Recorder struct {
	cfg          Config
	registry     *Registry
	exporter     Exporter
	filter       *routeFilter
	eventHandler EventHandler
	now          func() time.Time

	promRegistry *prometheus.Registry // injected with WithRegistry
	ownsExporter bool                 // built from Config.AWSCloudWatch

	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	validationErrors []error

	dropped        atomic.Int64
	isShuttingDown atomic.Bool
}

// New creates a [Recorder]. It registers the built-in HTTP metrics, the
// custom metrics from the configuration and, unless disabled, the Go
// runtime and process collectors.
//
// Errors:
//   - Returns error if the configuration is invalid
//   - Returns error if a built-in metric cannot be registered
//   - Returns error if a custom metric is invalid and [WithStrictDefinitions] is set
//   - Returns error if the CloudWatch exporter cannot be created
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		cfg: DefaultConfig(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	prom := r.promRegistry
	if prom == nil {
		prom = prometheus.NewRegistry()
	}
	r.registry = newRegistry(prom, r.cfg.DefaultLabels)

	filter, err := newRouteFilter(r.cfg.ExcludeRoutes, r.cfg.IncludeRoutes, r.cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	r.filter = filter

	if err := r.registerDefaultCollectors(); err != nil {
		return nil, fmt.Errorf("failed to register default metrics: %w", err)
	}
	if err := r.registerHTTPMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}
	if err := r.registerCustomMetrics(); err != nil {
		return nil, err
	}
	if err := r.initOpenTelemetry(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry bridge: %w", err)
	}
	if err := r.initExporter(); err != nil {
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize metrics: %v", err))
	}

	return r
}

func (r *Recorder) validate() error {
	errs := r.validationErrors
	if err := r.cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if r.exporter != nil && r.cfg.AWSCloudWatch != nil {
		errs = append(errs, errors.New("WithExporter and an awsCloudWatch configuration cannot be combined"))
	}

	return errors.Join(errs...)
}

func (r *Recorder) registerDefaultCollectors() error {
	if !r.cfg.EnableDefaultMetrics {
		return nil
	}

	if err := r.registry.RegisterCollector(collectors.NewGoCollector()); err != nil {
		return err
	}

	return r.registry.RegisterCollector(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

func (r *Recorder) registerHTTPMetrics() error {
	hm := r.cfg.HTTPMetrics
	builtins := []struct {
		cfg  HTTPMetricConfig
		kind MetricType
	}{
		{hm.RequestDuration, Histogram},
		{hm.RequestCount, Counter},
		{hm.ResponseSize, Histogram},
		{hm.ErrorCount, Counter},
		{hm.SuccessCount, Counter},
	}

	for _, b := range builtins {
		if !b.cfg.Enabled {
			continue
		}
		def := MetricDefinition{
			Type:   b.kind,
			Name:   b.cfg.Name,
			Help:   b.cfg.Help,
			Labels: b.cfg.Labels,
			Config: MetricConfig{Buckets: b.cfg.Buckets},
		}
		if err := r.registry.Register(def); err != nil {
			return err
		}
	}

	return nil
}

// registerCustomMetrics materializes the configured business metrics.
// Invalid definitions are skipped with a warning unless StrictDefinitions is set.
func (r *Recorder) registerCustomMetrics() error {
	for _, def := range r.cfg.CustomMetrics {
		def.Name = r.cfg.Prefix + def.Name

		if err := r.registry.Register(def); err != nil {
			if r.cfg.StrictDefinitions {
				return fmt.Errorf("custom metric %q: %w", def.Name, err)
			}
			r.emitWarning("Skipping invalid custom metric", semconv.MetricName, def.Name, semconv.MetricKind, def.Type, semconv.Error, err)
			continue
		}
		r.emitDebug("Registered custom metric", semconv.MetricName, def.Name, semconv.MetricKind, def.Type)
	}

	return nil
}

// initExporter builds the CloudWatch exporter when configured and exposes
// the exporter's own metrics in the registry.
func (r *Recorder) initExporter() error {
	if cw := r.cfg.AWSCloudWatch; cw != nil {
		sender, err := exporter.NewCloudWatchSender(context.Background(), *cw)
		if err != nil {
			return err
		}
		opts := append(cw.Options(), exporter.WithEventHandler(r.eventHandler))
		exp, err := exporter.New(sender, opts...)
		if err != nil {
			return err
		}
		r.exporter = exp
		r.ownsExporter = true
		r.emitInfo("CloudWatch exporter started", semconv.CloudWatchNamespace, sender.Namespace(), semconv.CloudRegion, cw.WithDefaults().Region)
	}

	if c, ok := r.exporter.(prometheus.Collector); ok {
		if err := r.registry.RegisterCollector(c); err != nil {
			return fmt.Errorf("register exporter metrics: %w", err)
		}
	}

	return nil
}

// Shutdown flushes and stops the exporter and shuts down the OpenTelemetry
// bridge. It is idempotent; only the first call does any work.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error

	if s, ok := r.exporter.(interface{ Shutdown(context.Context) error }); ok {
		r.emitDebug("Flushing exporter")
		if err := s.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("exporter shutdown: %w", err))
		}
	}

	if r.meterProvider != nil {
		if err := r.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Config returns a copy of the effective configuration.
func (r *Recorder) Config() Config {
	return r.cfg
}

// Endpoint returns the path of the pull endpoint.
func (r *Recorder) Endpoint() string {
	return r.cfg.Endpoint
}

// Registry returns the registry holding every primitive.
func (r *Recorder) Registry() *Registry {
	return r.registry
}

// Exporter returns the attached exporter, or nil.
func (r *Recorder) Exporter() Exporter {
	return r.exporter
}

// DroppedObservations returns how many application API calls were ignored
// because the metric did not exist, had another kind, or rejected the value.
func (r *Recorder) DroppedObservations() int64 {
	return r.dropped.Load()
}

func (r *Recorder) emit(t EventType, msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: t, Message: msg, Args: args})
	}
}

func (r *Recorder) emitError(msg string, args ...any)   { r.emit(EventError, msg, args...) }
func (r *Recorder) emitWarning(msg string, args ...any) { r.emit(EventWarning, msg, args...) }
func (r *Recorder) emitInfo(msg string, args ...any)    { r.emit(EventInfo, msg, args...) }
func (r *Recorder) emitDebug(msg string, args ...any)   { r.emit(EventDebug, msg, args...) }
