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

package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"slices"
	"strings"
)

// TypeEnvVar is the environment variable format: one KEY=value pair per
// line. Underscores in a key nest it, so AWSCLOUDWATCH_NAMESPACE=Shop
// decodes to {"awscloudwatch": {"namespace": "Shop"}}.
const TypeEnvVar Type = "env_var"

func init() {
	RegisterEncoder(TypeEnvVar, EnvVarCodec{})
	RegisterDecoder(TypeEnvVar, EnvVarCodec{})
}

// EnvVarCodec decodes environment variable listings into nested maps and
// encodes nested maps back into sorted KEY=value lines.
type EnvVarCodec struct{}

// Encode implements [Encoder]. Only generic maps are supported.
func (EnvVarCodec) Encode(v any) ([]byte, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("EnvVarCodec.Encode: expected map[string]any, got %T", v)
	}

	var lines []string
	flattenEnv(nil, m, &lines)
	slices.Sort(lines)

	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func flattenEnv(prefix []string, m map[string]any, out *[]string) {
	for k, v := range m {
		key := append(slices.Clone(prefix), strings.ToUpper(k))
		switch val := v.(type) {
		case map[string]any:
			flattenEnv(key, val, out)
		case []any:
			parts := make([]string, len(val))
			for i, item := range val {
				parts[i] = fmt.Sprint(item)
			}
			*out = append(*out, strings.Join(key, "_")+"="+strings.Join(parts, ","))
		default:
			*out = append(*out, strings.Join(key, "_")+"="+fmt.Sprint(val))
		}
	}
}

// Decode implements [Decoder]. v must be a *map[string]any. Blank lines,
// lines without "=" and keys made only of underscores are ignored. A key
// that is both a value and a parent keeps the nested form.
func (EnvVarCodec) Decode(data []byte, v any) error {
	ptr, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("EnvVarCodec.Decode: expected *map[string]any, got %T", v)
	}

	conf := make(map[string]any)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), "=")
		if !found {
			continue
		}

		var parts []string
		for part := range strings.SplitSeq(strings.ToLower(strings.TrimSpace(key)), "_") {
			if part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) == 0 {
			continue
		}

		current := conf
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[part] = next
			}
			current = next
		}

		last := parts[len(parts)-1]
		if _, nested := current[last].(map[string]any); nested {
			continue
		}
		current[last] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	*ptr = conf
	return nil
}
