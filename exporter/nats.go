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
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the part of *nats.Conn the sender uses.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSSender publishes each batch as a JSON [Payload] on a subject.
// Messages carry the [BatchID] in a Nats-Msg-Id header, so a JetStream
// stream with a duplicate window drops an unchanged batch published twice.
type NATSSender struct {
	conn    Publisher
	subject string
	now     func() time.Time
}

// NewNATSSender creates a sender publishing on subject. The caller owns conn
// and is responsible for draining it.
func NewNATSSender(conn Publisher, subject string) *NATSSender {
	return &NATSSender{conn: conn, subject: subject, now: time.Now}
}

// Send implements [Sender]. Core NATS publishing is fire-and-forget, so the
// context is only checked before publishing.
func (s *NATSSender) Send(ctx context.Context, batch []Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := BatchID(batch)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Payload{Observations: batch, SentAt: s.now()})
	if err != nil {
		return fmt.Errorf("encode observations: %w", err)
	}

	msg := nats.NewMsg(s.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, id)

	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to %s: %w", s.subject, err)
	}

	return nil
}
