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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSender_PostsPayload(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		keys    []string
		payload Payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		keys = append(keys, r.Header.Get(IdempotencyKeyHeader))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	s := NewHTTPSender(srv.URL+"/ingest", 5*time.Second)
	batch := []Observation{
		{Name: "orders", Value: 2, Labels: map[string]string{"region": "eu"}, Timestamp: time.Unix(1700000000, 0).UTC()},
	}

	require.NoError(t, s.Send(context.Background(), batch))
	require.NoError(t, s.Send(context.Background(), batch))
	require.NoError(t, s.Send(context.Background(), append(batch, Observation{Name: "refunds", Value: 1, Timestamp: batch[0].Timestamp})))

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, keys, 3)
	for _, k := range keys {
		_, err := uuid.Parse(k)
		require.NoError(t, err)
	}
	assert.Equal(t, keys[0], keys[1], "a resent batch keeps its key")
	assert.NotEqual(t, keys[0], keys[2])

	require.Len(t, payload.Observations, 2)
	assert.Equal(t, "orders", payload.Observations[0].Name)
	assert.Equal(t, "eu", payload.Observations[0].Labels["region"])
	assert.False(t, payload.SentAt.IsZero())
}

func TestHTTPSender_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	s := NewHTTPSender(srv.URL, time.Second)
	err := s.Send(context.Background(), []Observation{{Name: "orders", Value: 1}})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "overloaded")
}

func TestHTTPSender_WithExporterRetries(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		attempts int
		received []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, o := range p.Observations {
			received = append(received, o.Name)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	e := TestingExporter(t, NewHTTPSender(srv.URL, time.Second))
	e.ExportMetric("a", 1, nil)
	e.ExportMetric("b", 1, nil)

	require.Error(t, e.Flush(context.Background()))
	e.ExportMetric("c", 1, nil)
	require.NoError(t, e.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, received)
}
