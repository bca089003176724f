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

package config

import (
	"encoding/json"
	"fmt"
	"time"

	"rivaas.dev/httpmetrics/config/codec"
	"rivaas.dev/httpmetrics/metrics"
)

// Redacted replaces secrets in rendered configuration.
const Redacted = "REDACTED"

// Render encodes cfg in the given format. Durations are written as Go
// duration strings and unset values are left out, so the output can be
// loaded back. CloudWatch secrets are replaced by [Redacted].
func Render(cfg metrics.Config, format codec.Type) ([]byte, error) {
	encoder, err := codec.GetEncoder(format)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal configuration: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to marshal configuration: %w", err)
	}

	dropNulls(doc)
	formatDuration(doc, "defaultMetricsInterval")
	if cw, ok := doc["awsCloudWatch"].(map[string]any); ok {
		formatDuration(cw, "flushInterval")
		if creds, ok := cw["credentials"].(map[string]any); ok {
			for _, key := range []string{"secretAccessKey", "sessionToken"} {
				if v, ok := creds[key].(string); ok && v != "" {
					creds[key] = Redacted
				}
			}
		}
	}
	if custom, ok := doc["customMetrics"].([]any); ok {
		for _, item := range custom {
			if def, ok := item.(map[string]any); ok {
				if mc, ok := def["config"].(map[string]any); ok {
					formatDuration(mc, "maxAge")
				}
			}
		}
	}

	return encoder.Encode(doc)
}

func formatDuration(m map[string]any, key string) {
	if ns, ok := m[key].(float64); ok {
		m[key] = time.Duration(ns).String()
	}
}

func dropNulls(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			dropNulls(val)
		case []any:
			for _, item := range val {
				if nested, ok := item.(map[string]any); ok {
					dropNulls(nested)
				}
			}
		}
	}
}
