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
	"slices"
	"sync"
	"testing"
	"time"
)

// RecordingSender is an in-memory [Sender] for tests. It records every
// successful batch and can be told to fail upcoming sends.
type RecordingSender struct {
	mu       sync.Mutex
	batches  [][]Observation
	failures []error
	calls    int
}

// NewRecordingSender creates an empty [RecordingSender].
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

// FailNext makes the next len(errs) sends return errs in order.
func (s *RecordingSender) FailNext(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, errs...)
}

// Send implements [Sender].
func (s *RecordingSender) Send(_ context.Context, batch []Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return err
	}
	s.batches = append(s.batches, slices.Clone(batch))

	return nil
}

// Calls returns the number of Send invocations, failed ones included.
func (s *RecordingSender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Batches returns a copy of every successfully sent batch.
func (s *RecordingSender) Batches() [][]Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.batches)
}

// Observations returns every successfully sent observation in send order.
func (s *RecordingSender) Observations() []Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []Observation
	for _, b := range s.batches {
		all = append(all, b...)
	}
	return all
}

// TestingExporter creates an [Exporter] for unit tests. The recurring flush
// defaults to one hour so only explicit and size-triggered flushes happen,
// and the exporter is shut down via t.Cleanup.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    sender := exporter.NewRecordingSender()
//	    exp := exporter.TestingExporter(t, sender, exporter.WithBatchSize(5))
//	    // Use exp...
//	}
func TestingExporter(t testing.TB, sender Sender, opts ...Option) *Exporter {
	t.Helper()

	allOpts := append([]Option{WithFlushInterval(time.Hour)}, opts...)

	e, err := New(sender, allOpts...)
	if err != nil {
		t.Fatalf("TestingExporter: failed to create exporter: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			t.Logf("TestingExporter: shutdown warning: %v", err)
		}
	})

	return e
}
