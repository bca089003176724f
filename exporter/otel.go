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

package exporter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

const scopeName = "rivaas.dev/httpmetrics/exporter"

// OTelSender converts batches to OpenTelemetry metric data and hands them to
// an SDK exporter. Every observation becomes one gauge data point; points
// with the same name are grouped under one metric, in first-seen order.
type OTelSender struct {
	exporter sdkmetric.Exporter
	resource *resource.Resource
	scope    instrumentation.Scope
}

// NewOTelSender wraps exp. serviceName is recorded as the service.name
// resource attribute.
func NewOTelSender(exp sdkmetric.Exporter, serviceName string) *OTelSender {
	return &OTelSender{
		exporter: exp,
		resource: resource.NewSchemaless(attribute.String("service.name", serviceName)),
		scope:    instrumentation.Scope{Name: scopeName},
	}
}

// NewOTLPSender creates an [OTelSender] backed by an OTLP/HTTP exporter.
// An "http://" endpoint disables TLS; any path component is ignored.
//
// Example:
//
//	sender, err := exporter.NewOTLPSender(ctx, "http://localhost:4318", "my-api")
func NewOTLPSender(ctx context.Context, endpoint, serviceName string) (*OTelSender, error) {
	var opts []otlpmetrichttp.Option

	if endpoint != "" {
		host := endpoint
		insecure := false

		if strings.HasPrefix(host, "http://") {
			host = strings.TrimPrefix(host, "http://")
			insecure = true
		} else {
			host = strings.TrimPrefix(host, "https://")
		}
		if idx := strings.Index(host, "/"); idx != -1 {
			host = host[:idx]
		}

		opts = append(opts, otlpmetrichttp.WithEndpoint(host))
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
	}

	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	return NewOTelSender(exp, serviceName), nil
}

// NewStdoutSender creates an [OTelSender] that writes JSON-encoded batches
// to w. Intended for development.
func NewStdoutSender(w io.Writer, serviceName string) (*OTelSender, error) {
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	return NewOTelSender(exp, serviceName), nil
}

// Send implements [Sender].
func (s *OTelSender) Send(ctx context.Context, batch []Observation) error {
	if err := s.exporter.Export(ctx, s.resourceMetrics(batch)); err != nil {
		return fmt.Errorf("otel export: %w", err)
	}

	return nil
}

// Shutdown flushes and shuts down the wrapped exporter.
func (s *OTelSender) Shutdown(ctx context.Context) error {
	return s.exporter.Shutdown(ctx)
}

func (s *OTelSender) resourceMetrics(batch []Observation) *metricdata.ResourceMetrics {
	var order []string
	points := make(map[string][]metricdata.DataPoint[float64])

	for _, o := range batch {
		if _, seen := points[o.Name]; !seen {
			order = append(order, o.Name)
		}
		points[o.Name] = append(points[o.Name], metricdata.DataPoint[float64]{
			Attributes: attributeSet(o.Labels),
			Time:       o.Timestamp,
			Value:      o.Value,
		})
	}

	ms := make([]metricdata.Metrics, 0, len(order))
	for _, name := range order {
		ms = append(ms, metricdata.Metrics{
			Name: name,
			Data: metricdata.Gauge[float64]{DataPoints: points[name]},
		})
	}

	return &metricdata.ResourceMetrics{
		Resource: s.resource,
		ScopeMetrics: []metricdata.ScopeMetrics{{
			Scope:   s.scope,
			Metrics: ms,
		}},
	}
}

func attributeSet(labels map[string]string) attribute.Set {
	kvs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		kvs = append(kvs, attribute.String(k, v))
	}

	return attribute.NewSet(kvs...)
}
