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

//go:build !integration

package exporter

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend unavailable")

func names(obs []Observation) []string {
	out := make([]string, len(obs))
	for i, o := range obs {
		out[i] = o.Name
	}
	return out
}

// eventRecorder collects events emitted by an exporter.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sender  Sender
		opts    []Option
		wantErr string
	}{
		{
			name:    "nil sender",
			sender:  nil,
			wantErr: "sender cannot be nil",
		},
		{
			name:    "negative batch size",
			sender:  NewRecordingSender(),
			opts:    []Option{WithBatchSize(-1)},
			wantErr: "batch size must be at least 1",
		},
		{
			name:    "negative flush interval",
			sender:  NewRecordingSender(),
			opts:    []Option{WithFlushInterval(-time.Second)},
			wantErr: "flush interval must be positive",
		},
		{
			name:    "negative max buffer size",
			sender:  NewRecordingSender(),
			opts:    []Option{WithMaxBufferSize(-5)},
			wantErr: "max buffer size cannot be negative",
		},
		{
			name:    "empty name",
			sender:  NewRecordingSender(),
			opts:    []Option{WithName("")},
			wantErr: "exporter name cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := New(tt.sender, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	e, err := New(NewRecordingSender())
	require.NoError(t, err)
	t.Cleanup(e.Stop)

	assert.Equal(t, DefaultBatchSize, e.BatchSize())
	assert.Equal(t, DefaultFlushInterval, e.FlushInterval())
	assert.Equal(t, "default", e.Name())
	assert.Equal(t, 0, e.BufferSize())
}

func TestMustNew_PanicsOnError(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustNew(nil)
	})
}

func TestExportMetric_BufferGrowsUntilBatchSize(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	e := TestingExporter(t, sender, WithBatchSize(10))

	for i := 1; i <= 9; i++ {
		e.ExportMetric("requests", float64(i), nil)
		assert.Equal(t, i, e.BufferSize())
	}
	assert.Equal(t, 0, sender.Calls())
}

func TestExportMetric_BatchSizeTriggersSingleFlush(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	e := TestingExporter(t, sender, WithBatchSize(5))

	for i := range 5 {
		e.ExportMetric("requests", float64(i), map[string]string{"route": "/users"})
	}

	require.Eventually(t, func() bool { return sender.Calls() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return e.BufferSize() == 0 }, time.Second, 5*time.Millisecond)

	batches := sender.Batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 5)
	for i, o := range batches[0] {
		assert.InDelta(t, float64(i), o.Value, 0)
		assert.Equal(t, "/users", o.Labels["route"])
	}

	// A flush of an empty buffer does not reach the sender again.
	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, 1, sender.Calls())
}

func TestFlush_EmptyBufferIsNoop(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	e := TestingExporter(t, sender)

	require.NoError(t, e.Flush(context.Background()))
	require.NoError(t, e.Flush(context.Background()))

	assert.Equal(t, 0, sender.Calls())
	assert.Equal(t, int64(0), e.Stats().Sent)
}

func TestFlush_FailureRequeuesBatch(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	sender.FailNext(errBackend)
	e := TestingExporter(t, sender)

	e.ExportMetric("a", 1, nil)
	e.ExportMetric("b", 2, nil)
	e.ExportMetric("c", 3, nil)

	err := e.Flush(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, 3, e.BufferSize())

	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, 0, e.BufferSize())
	assert.Equal(t, []string{"a", "b", "c"}, names(sender.Observations()))

	stats := e.Stats()
	assert.Equal(t, int64(3), stats.Sent)
	assert.Equal(t, int64(1), stats.FlushFailures)
	assert.Equal(t, int64(3), stats.Requeued)
}

func TestFlush_FailedBatchPrecedesNewerObservations(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	var delivered []Observation

	sender := SenderFunc(func(_ context.Context, batch []Observation) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		if first {
			close(entered)
			<-release
			return errBackend
		}

		mu.Lock()
		delivered = append(delivered, batch...)
		mu.Unlock()
		return nil
	})
	e := TestingExporter(t, sender)

	e.ExportMetric("a", 1, nil)
	e.ExportMetric("b", 2, nil)

	flushErr := make(chan error, 1)
	go func() { flushErr <- e.Flush(context.Background()) }()

	<-entered
	e.ExportMetric("c", 3, nil)
	e.ExportMetric("d", 4, nil)
	close(release)

	require.ErrorIs(t, <-flushErr, errBackend)
	assert.Equal(t, 4, e.BufferSize())

	require.NoError(t, e.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(delivered))
}

func TestFlush_MaxBufferSizeDropsOldest(t *testing.T) {
	t.Parallel()

	events := &eventRecorder{}
	sender := NewRecordingSender()
	sender.FailNext(errBackend)
	e := TestingExporter(t, sender,
		WithMaxBufferSize(2),
		WithEventHandler(events.handle),
	)

	e.ExportMetric("a", 1, nil)
	e.ExportMetric("b", 2, nil)
	e.ExportMetric("c", 3, nil)

	require.Error(t, e.Flush(context.Background()))
	assert.Equal(t, 2, e.BufferSize())
	assert.Equal(t, int64(1), e.Stats().Dropped)
	assert.Len(t, events.ofType(EventWarning), 1)

	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, []string{"b", "c"}, names(sender.Observations()))
}

func TestScheduledFlush_SendsBufferedObservations(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	e, err := New(sender, WithFlushInterval(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })

	e.ExportMetric("heartbeat", 1, nil)

	require.Eventually(t, func() bool { return len(sender.Observations()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, e.BufferSize())
}

func TestScheduledFlush_ReportsErrorsThroughEventHandler(t *testing.T) {
	t.Parallel()

	events := &eventRecorder{}
	sender := SenderFunc(func(context.Context, []Observation) error { return errBackend })
	e, err := New(sender,
		WithFlushInterval(20*time.Millisecond),
		WithEventHandler(events.handle),
		WithName("scheduled"),
	)
	require.NoError(t, err)
	t.Cleanup(e.Stop)

	e.ExportMetric("heartbeat", 1, nil)

	require.Eventually(t, func() bool { return len(events.ofType(EventError)) > 0 }, 2*time.Second, 10*time.Millisecond)

	ev := events.ofType(EventError)[0]
	assert.Equal(t, "Scheduled flush failed", ev.Message)
	assert.Contains(t, ev.Args, "scheduled")
	assert.Equal(t, 1, e.BufferSize())
}

func TestExport_CopiesLabelsAndStampsTime(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	sender := NewRecordingSender()
	e := TestingExporter(t, sender, withClock(func() time.Time { return fixed }))

	labels := map[string]string{"route": "/a"}
	e.ExportMetric("requests", 1, labels)
	labels["route"] = "/mutated"

	explicit := fixed.Add(-time.Minute)
	e.Export(Observation{Name: "latency_ms", Value: 12.5, Timestamp: explicit})

	require.NoError(t, e.Flush(context.Background()))

	obs := sender.Observations()
	require.Len(t, obs, 2)
	assert.Equal(t, "/a", obs[0].Labels["route"])
	assert.Equal(t, fixed, obs[0].Timestamp)
	assert.Equal(t, explicit, obs[1].Timestamp)
}

func TestExport_DropsNonFiniteValues(t *testing.T) {
	t.Parallel()

	events := &eventRecorder{}
	pub := &fakePublisher{}
	e := TestingExporter(t, NewNATSSender(pub, "metrics"), WithEventHandler(events.handle))

	e.ExportMetric("latency_ms", math.NaN(), nil)
	e.ExportMetric("latency_ms", math.Inf(1), nil)
	e.ExportMetric("latency_ms", math.Inf(-1), nil)
	e.ExportMetric("latency_ms", 12.5, nil)

	assert.Equal(t, 1, e.BufferSize())
	assert.Equal(t, int64(3), e.Stats().Dropped)
	assert.Len(t, events.ofType(EventWarning), 3)

	require.NoError(t, e.Flush(context.Background()))
	require.Len(t, pub.msgs, 1)
	assert.Zero(t, e.BufferSize())
	assert.Equal(t, int64(1), e.Stats().Sent)
}

func TestExportMetrics_KeepsOrder(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	e := TestingExporter(t, sender)

	e.ExportMetrics([]Observation{{Name: "x"}, {Name: "y"}, {Name: "z"}})
	require.NoError(t, e.Flush(context.Background()))

	assert.Equal(t, []string{"x", "y", "z"}, names(sender.Observations()))
}

func TestClearBuffer(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	e := TestingExporter(t, sender)

	e.ExportMetric("a", 1, nil)
	e.ExportMetric("b", 1, nil)
	e.ClearBuffer()

	assert.Equal(t, 0, e.BufferSize())
	assert.Equal(t, int64(2), e.Stats().Dropped)

	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, 0, sender.Calls())
}

func TestStop_IsIdempotentAndKeepsBuffer(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	e, err := New(sender, WithBatchSize(3), WithFlushInterval(10*time.Millisecond))
	require.NoError(t, err)

	e.Stop()
	e.Stop()

	e.ExportMetric("a", 1, nil)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, e.BufferSize(), "no scheduled flush after Stop")

	// Size-triggered flushes still run after Stop.
	e.ExportMetric("b", 1, nil)
	e.ExportMetric("c", 1, nil)
	require.Eventually(t, func() bool { return len(sender.Observations()) == 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, e.Shutdown(context.Background()))
}

func TestShutdown_FlushesRemaining(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	e, err := New(sender, WithFlushInterval(time.Hour))
	require.NoError(t, err)

	e.ExportMetric("a", 1, nil)
	e.ExportMetric("b", 2, nil)

	require.NoError(t, e.Shutdown(context.Background()))
	assert.Equal(t, []string{"a", "b"}, names(sender.Observations()))
	assert.Equal(t, 0, e.BufferSize())

	// Shutdown twice is harmless.
	require.NoError(t, e.Shutdown(context.Background()))
}

func TestShutdown_ReturnsSendError(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	sender.FailNext(errBackend)
	e, err := New(sender, WithFlushInterval(time.Hour))
	require.NoError(t, err)

	e.ExportMetric("a", 1, nil)

	err = e.Shutdown(context.Background())
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, 1, e.BufferSize())
}

func TestShutdown_ContextBoundsWait(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	sender := SenderFunc(func(context.Context, []Observation) error {
		<-release
		return nil
	})
	e, err := New(sender, WithBatchSize(1), WithFlushInterval(time.Hour))
	require.NoError(t, err)

	e.ExportMetric("slow", 1, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = e.Shutdown(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, e.Shutdown(context.Background()))
}

func TestConcurrentExport(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	e, err := New(sender, WithBatchSize(7), WithFlushInterval(time.Hour))
	require.NoError(t, err)

	const (
		workers = 8
		perG    = 50
	)

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for range perG {
				e.ExportMetric("requests", 1, nil)
			}
		})
	}
	wg.Wait()

	require.NoError(t, e.Shutdown(context.Background()))
	assert.Len(t, sender.Observations(), workers*perG)
	assert.Equal(t, int64(workers*perG), e.Stats().Sent)
}

func TestMultiSender_JoinsErrors(t *testing.T) {
	t.Parallel()

	ok := NewRecordingSender()
	failing := NewRecordingSender()
	failing.FailNext(errBackend)

	m := MultiSender{ok, failing}
	err := m.Send(context.Background(), []Observation{{Name: "a"}})

	require.ErrorIs(t, err, errBackend)
	assert.Contains(t, err.Error(), "sender[1]")
	assert.Len(t, ok.Observations(), 1)
	assert.Equal(t, 1, failing.Calls())
}

func TestCollector(t *testing.T) {
	t.Parallel()

	sender := NewRecordingSender()
	sender.FailNext(errBackend)
	e := TestingExporter(t, sender, WithName("primary"))

	e.ExportMetric("a", 1, nil)
	e.ExportMetric("b", 1, nil)
	require.Error(t, e.Flush(context.Background()))
	e.ExportMetric("c", 1, nil)

	assert.Equal(t, 5, testutil.CollectAndCount(e))

	expected := `
# HELP httpmetrics_exporter_buffered_observations Number of observations waiting to be flushed.
# TYPE httpmetrics_exporter_buffered_observations gauge
httpmetrics_exporter_buffered_observations{exporter="primary"} 3
# HELP httpmetrics_exporter_flush_failures_total Total number of flushes whose send failed.
# TYPE httpmetrics_exporter_flush_failures_total counter
httpmetrics_exporter_flush_failures_total{exporter="primary"} 1
# HELP httpmetrics_exporter_requeued_observations_total Total number of observations put back into the buffer after a failed send.
# TYPE httpmetrics_exporter_requeued_observations_total counter
httpmetrics_exporter_requeued_observations_total{exporter="primary"} 2
`
	require.NoError(t, testutil.CollectAndCompare(e, strings.NewReader(expected),
		"httpmetrics_exporter_buffered_observations",
		"httpmetrics_exporter_flush_failures_total",
		"httpmetrics_exporter_requeued_observations_total",
	))
}

func TestEventType_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  EventType
		want string
	}{
		{EventError, "error"},
		{EventWarning, "warning"},
		{EventInfo, "info"},
		{EventDebug, "debug"},
		{EventType(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestDefaultEventHandler_NilLogger(t *testing.T) {
	t.Parallel()

	h := DefaultEventHandler(nil)
	assert.NotPanics(t, func() {
		h(Event{Type: EventError, Message: "ignored"})
	})
}
