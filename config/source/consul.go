// Copyright 2025 The Rivaas Authors
// Copyright 2025 Company.info B.V.
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

package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/consul/api"

	"rivaas.dev/httpmetrics/config/codec"
)

// ConsulKV is the subset of the Consul KV client used by [Consul].
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// Consul loads configuration from one key of Consul's key/value store.
// The client is configured from the standard CONSUL_HTTP_ADDR and
// CONSUL_HTTP_TOKEN environment variables.
//
// With a document decoder (JSON, YAML, TOML) the value holds a whole
// configuration document. With a caster decoder the value is a single
// setting, placed under the key path below the configured root:
//
//	root "httpmetrics", key "httpmetrics/awscloudwatch/flushinterval"
//	-> {"awscloudwatch": {"flushinterval": "30s"}}
//
// Without a root only the last path segment is used.
type Consul struct {
	kv      ConsulKV
	path    string
	root    string
	decoder codec.Decoder
}

// ConsulOption configures a [Consul] source.
type ConsulOption func(*Consul)

// WithKeyRoot sets the path prefix stripped from keys read with a caster
// decoder before they are nested on "/".
func WithKeyRoot(root string) ConsulOption {
	return func(c *Consul) {
		c.root = strings.Trim(root, "/")
	}
}

// NewConsul returns a source for path. When kv is nil a client is built
// from the environment.
func NewConsul(path string, decoder codec.Decoder, kv ConsulKV, opts ...ConsulOption) (*Consul, error) {
	if kv == nil {
		client, err := api.NewClient(api.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create consul client: %w", err)
		}
		kv = client.KV()
	}

	c := &Consul{kv: kv, path: path, decoder: decoder}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Load fetches and decodes the key. A missing key yields an empty map.
func (c *Consul) Load(ctx context.Context) (map[string]any, error) {
	pair, _, err := c.kv.Get(c.path, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get consul key: %w", err)
	}
	if pair == nil {
		return make(map[string]any), nil
	}

	if caster, ok := c.decoder.(*codec.CasterCodec); ok {
		var val any
		if err := caster.Decode(pair.Value, &val); err != nil {
			return nil, fmt.Errorf("failed to decode consul value: %w", err)
		}
		// Durations travel as strings so schema validation sees plain JSON types.
		if d, ok := val.(time.Duration); ok {
			val = d.String()
		}
		return c.nest(pair.Key, val), nil
	}

	var config map[string]any
	if err := c.decoder.Decode(pair.Value, &config); err != nil {
		return nil, fmt.Errorf("failed to decode consul value: %w", err)
	}
	if config == nil {
		config = make(map[string]any)
	}

	return config, nil
}

func (c *Consul) nest(key string, val any) map[string]any {
	key = strings.Trim(key, "/")

	var parts []string
	if rest, ok := strings.CutPrefix(key, c.root+"/"); c.root != "" && ok {
		parts = strings.Split(rest, "/")
	} else {
		parts = []string{key[strings.LastIndex(key, "/")+1:]}
	}

	config := map[string]any{parts[len(parts)-1]: val}
	for i := len(parts) - 2; i >= 0; i-- {
		config = map[string]any{parts[i]: config}
	}
	return config
}

// String describes the source in error messages.
func (c *Consul) String() string {
	return "consul:" + c.path
}
