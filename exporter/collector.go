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

import "github.com/prometheus/client_golang/prometheus"

var (
	bufferedDesc = prometheus.NewDesc(
		"httpmetrics_exporter_buffered_observations",
		"Number of observations waiting to be flushed.",
		[]string{"exporter"}, nil,
	)
	sentDesc = prometheus.NewDesc(
		"httpmetrics_exporter_sent_observations_total",
		"Total number of observations accepted by the sender.",
		[]string{"exporter"}, nil,
	)
	failuresDesc = prometheus.NewDesc(
		"httpmetrics_exporter_flush_failures_total",
		"Total number of flushes whose send failed.",
		[]string{"exporter"}, nil,
	)
	requeuedDesc = prometheus.NewDesc(
		"httpmetrics_exporter_requeued_observations_total",
		"Total number of observations put back into the buffer after a failed send.",
		[]string{"exporter"}, nil,
	)
	droppedDesc = prometheus.NewDesc(
		"httpmetrics_exporter_dropped_observations_total",
		"Total number of observations discarded without being sent.",
		[]string{"exporter"}, nil,
	)
)

var _ prometheus.Collector = (*Exporter)(nil)

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- bufferedDesc
	ch <- sentDesc
	ch <- failuresDesc
	ch <- requeuedDesc
	ch <- droppedDesc
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.Stats()
	ch <- prometheus.MustNewConstMetric(bufferedDesc, prometheus.GaugeValue, float64(s.Buffered), e.name)
	ch <- prometheus.MustNewConstMetric(sentDesc, prometheus.CounterValue, float64(s.Sent), e.name)
	ch <- prometheus.MustNewConstMetric(failuresDesc, prometheus.CounterValue, float64(s.FlushFailures), e.name)
	ch <- prometheus.MustNewConstMetric(requeuedDesc, prometheus.CounterValue, float64(s.Requeued), e.name)
	ch <- prometheus.MustNewConstMetric(droppedDesc, prometheus.CounterValue, float64(s.Dropped), e.name)
}
