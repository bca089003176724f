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

// Package semconv holds the attribute keys used in httpmetrics log records
// and events. Keys follow OpenTelemetry semantic conventions where one
// exists, so logs can be correlated with other telemetry.
package semconv

// Service metadata, set once on the process logger.
const (
	ServiceName    = "service.name"
	ServiceVersion = "service.version"
)

// HTTP attributes.
const (
	// HTTPRoute is the route template, not the requested path ("/users/:id").
	HTTPRoute     = "http.route"
	URLPath       = "url.path"
	ServerAddress = "server.address"
)

// Metric attributes.
const (
	MetricName      = "metric.name"
	MetricKind      = "metric.kind"
	MetricValue     = "metric.value"
	MetricsEndpoint = "metrics.endpoint"
	OTelScope       = "otel.scope.name"
)

// Exporter attributes.
const (
	ExporterName          = "exporter.name"
	ExporterBuffered      = "exporter.buffered"
	ExporterBatchSize     = "exporter.batch.size"
	ExporterDropped       = "exporter.dropped"
	ExporterMaxBufferSize = "exporter.max_buffer_size"
	CloudWatchNamespace   = "aws.cloudwatch.namespace"
	CloudRegion           = "cloud.region"
)

// Error is the key of error values.
const Error = "error"
