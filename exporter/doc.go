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

// Package exporter buffers metric observations and ships them in batches to a
// remote monitoring backend.
//
// An [Exporter] accumulates [Observation] values in memory. A flush is
// triggered when the buffer reaches the configured batch size, when the
// recurring flush interval elapses, or when [Exporter.Flush] is called
// explicitly. Each flush takes ownership of the whole buffer and hands it to a
// [Sender]. If the send fails the batch is put back in front of anything that
// was buffered in the meantime, so it is retried by the next flush.
//
// Delivery is at-least-once. There is no backoff and no retry limit: under a
// sustained backend outage the buffer keeps growing unless a cap is configured
// with [WithMaxBufferSize]. The exporter implements prometheus.Collector so the
// buffer size and failure counts can be scraped and alerted on.
//
// Senders are provided for Amazon CloudWatch ([CloudWatchSender]),
// OpenTelemetry exporters such as OTLP/HTTP and stdout ([OTelSender]), plain
// HTTP collectors ([HTTPSender]) and NATS subjects ([NATSSender]).
//
// Basic usage:
//
//	sender, err := exporter.NewCloudWatchSender(ctx, exporter.CloudWatchConfig{
//	    Namespace: "MyService",
//	})
//	if err != nil {
//	    return err
//	}
//
//	exp := exporter.MustNew(sender,
//	    exporter.WithBatchSize(20),
//	    exporter.WithFlushInterval(time.Minute),
//	    exporter.WithLogger(slog.Default()),
//	)
//	defer exp.Shutdown(context.Background())
//
//	exp.ExportMetric("orders_total", 1, map[string]string{"region": "eu"})
package exporter
