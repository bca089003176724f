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
	"time"

	"github.com/go-resty/resty/v2"
)

// IdempotencyKeyHeader carries the [BatchID] of the posted batch, so a
// collector can discard an unchanged batch it already accepted.
const IdempotencyKeyHeader = "Idempotency-Key"

// StatusError is returned by [HTTPSender] when the collector answers with a
// non-success status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector responded with status %d: %s", e.StatusCode, e.Body)
}

// HTTPSender POSTs each batch as a JSON [Payload] to a collector URL.
type HTTPSender struct {
	client *resty.Client
	url    string
	now    func() time.Time
}

// NewHTTPSender creates a sender posting to url with the given request
// timeout. A zero timeout means no timeout.
func NewHTTPSender(url string, timeout time.Duration) *HTTPSender {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return NewHTTPSenderWithClient(client, url)
}

// NewHTTPSenderWithClient uses a preconfigured resty client, e.g. one with
// authentication or retries set up.
func NewHTTPSenderWithClient(client *resty.Client, url string) *HTTPSender {
	return &HTTPSender{client: client, url: url, now: time.Now}
}

// Send implements [Sender].
func (s *HTTPSender) Send(ctx context.Context, batch []Observation) error {
	id, err := BatchID(batch)
	if err != nil {
		return err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader(IdempotencyKeyHeader, id).
		SetBody(Payload{Observations: batch, SentAt: s.now()}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("post observations: %w", err)
	}
	if resp.IsError() {
		return &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return nil
}
