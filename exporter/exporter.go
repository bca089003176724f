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
	"errors"
	"fmt"
	"maps"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"rivaas.dev/httpmetrics/internal/semconv"
)

const (
	// DefaultBatchSize is the number of buffered observations that triggers a flush.
	DefaultBatchSize = 20

	// DefaultFlushInterval is the period of the recurring flush.
	DefaultFlushInterval = 60 * time.Second
)

// ErrNilSender is returned by [New] when no [Sender] is given.
var ErrNilSender = errors.New("exporter: sender cannot be nil")

// Observation is one metric fact to export.
// The exporter copies the label map on intake, so callers may reuse theirs.
type Observation struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Stats is a snapshot of the exporter's cumulative counters.
type Stats struct {
	Buffered      int   // observations currently waiting for a flush
	Sent          int64 // observations accepted by the sender
	FlushFailures int64 // flushes whose send returned an error
	Requeued      int64 // observations put back after a failed send
	Dropped       int64 // observations discarded at intake, by the buffer cap or by ClearBuffer
}

// Exporter batches observations and flushes them to a [Sender].
// All methods are safe for concurrent use.
type Exporter struct {
	sender       Sender
	eventHandler EventHandler
	name         string
	now          func() time.Time

	batchSize     int
	flushInterval time.Duration
	maxBufferSize int

	validationErrors []error

	mu     sync.Mutex // guards buffer and closed
	buffer []Observation
	closed bool // set by Shutdown, no new background flushes after that

	// sendMu serializes flushes so at most one batch is in flight and a
	// failed batch is requeued before the next one is taken.
	sendMu sync.Mutex

	ticker       *time.Ticker
	done         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	flushPending atomic.Bool

	sent     atomic.Int64
	failures atomic.Int64
	requeued atomic.Int64
	dropped  atomic.Int64
}

// New creates an [Exporter] that ships batches to sender and starts its
// recurring flush task. Call [Exporter.Shutdown] (or at least [Exporter.Stop])
// when done so the background goroutine exits.
func New(sender Sender, opts ...Option) (*Exporter, error) {
	if sender == nil {
		return nil, ErrNilSender
	}

	e := &Exporter{
		sender:        sender,
		name:          "default",
		now:           time.Now,
		batchSize:     DefaultBatchSize,
		flushInterval: DefaultFlushInterval,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e.buffer = make([]Observation, 0, e.batchSize)
	e.ticker = time.NewTicker(e.flushInterval)

	e.wg.Add(1)
	go e.flusher()

	return e, nil
}

// MustNew is like [New] but panics on error.
func MustNew(sender Sender, opts ...Option) *Exporter {
	e, err := New(sender, opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize exporter: %v", err))
	}

	return e
}

func (e *Exporter) validate() error {
	errs := e.validationErrors
	if e.batchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be at least 1, got %d", e.batchSize))
	}
	if e.flushInterval <= 0 {
		errs = append(errs, fmt.Errorf("flush interval must be positive, got %v", e.flushInterval))
	}
	if e.maxBufferSize < 0 {
		errs = append(errs, fmt.Errorf("max buffer size cannot be negative, got %d", e.maxBufferSize))
	}

	return errors.Join(errs...)
}

// ExportMetric buffers one observation stamped with the current time.
func (e *Exporter) ExportMetric(name string, value float64, labels map[string]string) {
	e.Export(Observation{Name: name, Value: value, Labels: labels})
}

// Export buffers one observation. A zero Timestamp is replaced with the
// current time. When the buffer reaches the batch size an asynchronous flush
// is started; Export itself never blocks on the sender.
//
// NaN and infinite values are dropped with a warning: no sender can encode
// them, so a requeued batch holding one would never be delivered.
func (e *Exporter) Export(o Observation) {
	if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
		e.dropped.Add(1)
		e.emitWarning("Non-finite observation dropped",
			semconv.ExporterName, e.name, semconv.MetricName, o.Name, semconv.MetricValue, o.Value)
		return
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = e.now()
	}
	o.Labels = maps.Clone(o.Labels)

	e.mu.Lock()
	e.buffer = append(e.buffer, o)
	trigger := len(e.buffer) >= e.batchSize && !e.closed &&
		e.flushPending.CompareAndSwap(false, true)
	if trigger {
		e.wg.Add(1)
	}
	e.mu.Unlock()

	if trigger {
		go e.sizeTriggeredFlush()
	}
}

// ExportMetrics buffers each observation in order.
func (e *Exporter) ExportMetrics(list []Observation) {
	for _, o := range list {
		e.Export(o)
	}
}

func (e *Exporter) sizeTriggeredFlush() {
	defer e.wg.Done()
	defer e.flushPending.Store(false)

	if err := e.Flush(context.Background()); err != nil {
		e.emitError("Size-triggered flush failed",
			semconv.ExporterName, e.name, semconv.Error, err, semconv.ExporterBuffered, e.BufferSize())
	}
}

// flusher runs the recurring flush until Stop is called.
func (e *Exporter) flusher() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ticker.C:
			if err := e.Flush(context.Background()); err != nil {
				e.emitError("Scheduled flush failed",
					semconv.ExporterName, e.name, semconv.Error, err, semconv.ExporterBuffered, e.BufferSize())
			}
		case <-e.done:
			return
		}
	}
}

// Flush sends everything buffered so far. It is a no-op when the buffer is
// empty. On failure the batch is put back ahead of observations buffered
// during the send, and the sender's error is returned wrapped.
func (e *Exporter) Flush(ctx context.Context) error {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	batch := e.take()
	if len(batch) == 0 {
		return nil
	}

	if err := e.sender.Send(ctx, batch); err != nil {
		e.failures.Add(1)
		e.requeue(batch)
		return fmt.Errorf("send batch of %d observations: %w", len(batch), err)
	}

	e.sent.Add(int64(len(batch)))
	e.emitDebug("Batch sent", semconv.ExporterName, e.name, semconv.ExporterBatchSize, len(batch))

	return nil
}

// take swaps the buffer for an empty one and returns the old contents.
func (e *Exporter) take() []Observation {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.buffer) == 0 {
		return nil
	}
	batch := e.buffer
	e.buffer = make([]Observation, 0, e.batchSize)

	return batch
}

// requeue prepends a failed batch, keeping its order ahead of newer observations.
func (e *Exporter) requeue(batch []Observation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	merged := make([]Observation, 0, len(batch)+len(e.buffer))
	merged = append(merged, batch...)
	merged = append(merged, e.buffer...)

	if e.maxBufferSize > 0 && len(merged) > e.maxBufferSize {
		drop := len(merged) - e.maxBufferSize
		merged = merged[drop:]
		e.dropped.Add(int64(drop))
		e.emitWarning("Buffer cap reached, oldest observations dropped",
			semconv.ExporterName, e.name, semconv.ExporterDropped, drop, semconv.ExporterMaxBufferSize, e.maxBufferSize)
	}

	e.buffer = merged
	e.requeued.Add(int64(len(batch)))
}

// BufferSize returns the number of observations waiting for a flush.
func (e *Exporter) BufferSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.buffer)
}

// ClearBuffer discards every buffered observation.
func (e *Exporter) ClearBuffer() {
	e.mu.Lock()
	n := len(e.buffer)
	e.buffer = make([]Observation, 0, e.batchSize)
	e.mu.Unlock()

	if n > 0 {
		e.dropped.Add(int64(n))
	}
}

// Stop cancels the recurring flush. It does not interrupt a send that is
// already in flight and it is safe to call more than once. Buffered
// observations stay in place; size-triggered and explicit flushes still work.
func (e *Exporter) Stop() {
	e.stopOnce.Do(func() {
		e.ticker.Stop()
		close(e.done)
	})
}

// Shutdown stops the recurring flush, waits for background flushes to
// finish, and flushes whatever is left. The context bounds both the wait and
// the final send.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.Stop()

	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(idle)
	}()

	select {
	case <-idle:
	case <-ctx.Done():
		return fmt.Errorf("waiting for background flushes: %w", ctx.Err())
	}

	return e.Flush(ctx)
}

// Stats returns a snapshot of the exporter counters.
func (e *Exporter) Stats() Stats {
	return Stats{
		Buffered:      e.BufferSize(),
		Sent:          e.sent.Load(),
		FlushFailures: e.failures.Load(),
		Requeued:      e.requeued.Load(),
		Dropped:       e.dropped.Load(),
	}
}

// BatchSize returns the configured batch size.
func (e *Exporter) BatchSize() int {
	return e.batchSize
}

// FlushInterval returns the configured recurring flush period.
func (e *Exporter) FlushInterval() time.Duration {
	return e.flushInterval
}

// Name returns the exporter name used in events and metric labels.
func (e *Exporter) Name() string {
	return e.name
}
