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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sender delivers one batch to a remote backend.
//
// Send must not retain or modify batch after it returns. A non-nil error
// means the whole batch is retried later, so partial deliveries are repeated.
type Sender interface {
	Send(ctx context.Context, batch []Observation) error
}

// SenderFunc adapts an ordinary function to the [Sender] interface.
type SenderFunc func(ctx context.Context, batch []Observation) error

// Send calls f(ctx, batch).
func (f SenderFunc) Send(ctx context.Context, batch []Observation) error {
	return f(ctx, batch)
}

// MultiSender sends every batch to each sender in turn.
// All senders are attempted; their errors are joined. Since a failure
// requeues the batch, senders that did succeed will see it again.
type MultiSender []Sender

// Send implements [Sender].
func (m MultiSender) Send(ctx context.Context, batch []Observation) error {
	var errs []error
	for i, s := range m {
		if err := s.Send(ctx, batch); err != nil {
			errs = append(errs, fmt.Errorf("sender[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// batchNamespace scopes the name-based UUIDs returned by [BatchID].
var batchNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://rivaas.dev/httpmetrics/batch"))

// BatchID derives a UUID from the content of batch. Observations are stamped
// at intake, so resending an unchanged batch yields the same ID. A batch
// that was requeued and merged with newer observations gets a new one.
func BatchID(batch []Observation) (string, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("encode observations: %w", err)
	}
	return uuid.NewSHA1(batchNamespace, data).String(), nil
}

// Payload is the JSON document shipped by [HTTPSender] and [NATSSender].
type Payload struct {
	Observations []Observation `json:"observations"`
	SentAt       time.Time     `json:"sent_at"`
}
