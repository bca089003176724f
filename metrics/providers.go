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

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"rivaas.dev/httpmetrics/internal/semconv"
)

// instrumentationName is the OpenTelemetry scope of the bridged Meter.
const instrumentationName = "rivaas.dev/httpmetrics"

// initOpenTelemetry bridges an OpenTelemetry MeterProvider into the
// registry, so instruments created from [Recorder.Meter] are rendered by
// the pull endpoint next to the native metrics.
func (r *Recorder) initOpenTelemetry() error {
	if !r.cfg.OpenTelemetry {
		return nil
	}

	exp, err := prometheus.New(
		prometheus.WithRegisterer(r.registry.Registerer()),
		prometheus.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create Prometheus reader: %w", err)
	}

	r.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	r.meter = r.meterProvider.Meter(instrumentationName)
	r.emitDebug("OpenTelemetry bridge enabled", semconv.OTelScope, instrumentationName)

	return nil
}

// Meter returns the bridged OpenTelemetry Meter. Without [WithOpenTelemetry]
// it returns a no-op Meter, so callers never need a nil check.
//
// Example:
//
//	hits, _ := recorder.Meter().Int64Counter("cache_hits_total")
//	hits.Add(ctx, 1)
func (r *Recorder) Meter() metric.Meter {
	if r.meter == nil {
		return noop.NewMeterProvider().Meter(instrumentationName)
	}

	return r.meter
}
