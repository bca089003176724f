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

// Package metrics records HTTP request metrics into a Prometheus registry,
// serves them on a pull endpoint and optionally forwards every observation
// to a push exporter (see package exporter).
//
// # Basic Usage
//
//	recorder := metrics.MustNew(
//	    metrics.WithPrefix("shop_"),
//	    metrics.WithDefaultLabels(map[string]string{"service": "shop"}),
//	)
//	defer recorder.Shutdown(context.Background())
//
//	mux := http.NewServeMux()
//	mux.Handle(recorder.Endpoint(), recorder.Handler())
//	mux.HandleFunc("GET /orders/{id}", getOrder)
//	http.ListenAndServe(":8080", metrics.Middleware(recorder)(mux))
//
// [RouterMiddleware] does the same for the rivaas router; the ginmetrics and
// echometrics subpackages cover gin and echo.
//
// # HTTP Metrics
//
// Each request updates up to five metrics labelled with method, route and
// status_code: a duration histogram in milliseconds, a request counter, a
// response size histogram, an error counter (status 400 and above) and a
// success counter (status 200 to 399). Each can be renamed, rebucketed or
// disabled through [HTTPMetricsConfig]. Routes can be filtered with
// [WithExcludeRoutes], [WithIncludeRoutes] and [WithExcludePatterns].
//
// # Application Metrics
//
// Counters, gauges, histograms and summaries are declared up front with
// [WithCustomMetrics] or at runtime with [Recorder.Register], then updated
// by name:
//
//	recorder.IncrementCounter("shop_orders_total", map[string]string{"status": "paid"})
//	recorder.SetGauge("shop_queue_depth", 12, nil)
//
// Calls on unknown names never fail; they are counted in
// [Recorder.DroppedObservations]. Label values are matched to the declared
// label names, missing ones rendering as empty.
//
// # Events
//
// Warnings and failures are reported through an [EventHandler] instead of a
// logger. [WithLogger] installs [DefaultEventHandler].
//
// # Thread Safety
//
// All [Recorder] and [Registry] methods are safe for concurrent use.
package metrics
