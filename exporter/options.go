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
	"fmt"
	"log/slog"
	"time"
)

// Option defines functional options for Exporter configuration.
type Option func(*Exporter)

// WithBatchSize sets the number of buffered observations that triggers a flush.
// Zero keeps [DefaultBatchSize].
func WithBatchSize(n int) Option {
	return func(e *Exporter) {
		if n != 0 {
			e.batchSize = n
		}
	}
}

// WithFlushInterval sets the period of the recurring flush.
// Zero keeps [DefaultFlushInterval].
func WithFlushInterval(d time.Duration) Option {
	return func(e *Exporter) {
		if d != 0 {
			e.flushInterval = d
		}
	}
}

// WithMaxBufferSize caps the number of buffered observations kept after a
// failed send. When the cap is exceeded the oldest observations are dropped.
// The default of 0 means unbounded.
func WithMaxBufferSize(n int) Option {
	return func(e *Exporter) {
		e.maxBufferSize = n
	}
}

// WithName names the exporter in events and in the "exporter" label of its
// own metrics. Useful when one process runs several exporters.
func WithName(name string) Option {
	return func(e *Exporter) {
		if name == "" {
			e.validationErrors = append(e.validationErrors, fmt.Errorf("exporter name cannot be empty"))
			return
		}
		e.name = name
	}
}

// WithEventHandler sets a custom [EventHandler] for internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(e *Exporter) {
		e.eventHandler = handler
	}
}

// WithLogger routes internal operational events to logger using [DefaultEventHandler].
//
// Example:
//
//	exporter.New(sender, exporter.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}

// withClock replaces time.Now for observation timestamps.
func withClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}
