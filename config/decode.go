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
	"fmt"
	"maps"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// verbatimKeys name maps whose own keys are data rather than settings and
// therefore keep their case.
var verbatimKeys = map[string]bool{
	"defaultlabels": true,
}

// normalizeMapKeys lowercases keys recursively so that sources merge
// case-insensitively. TOML arrays of tables and YAML maps with non-string
// keys are converted to the generic JSON shapes the schema validator
// understands.
func normalizeMapKeys(m map[string]any) map[string]any {
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		key := strings.ToLower(k)
		if verbatim, ok := v.(map[string]any); ok && verbatimKeys[key] {
			normalized[key] = maps.Clone(verbatim)
			continue
		}
		normalized[key] = normalizeValue(v)
	}
	return normalized
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMapKeys(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = item
		}
		return normalizeMapKeys(m)
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeMapKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

var durationType = reflect.TypeFor[time.Duration]()

// durationHook accepts Go duration strings ("30s") and plain numbers,
// which are read as milliseconds. Numeric strings from environment
// variables are treated like numbers.
func durationHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != durationType || from == durationType {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			s := strings.TrimSpace(reflect.ValueOf(data).String())
			if d, err := time.ParseDuration(s); err == nil {
				return d, nil
			}
			ms, err := cast.ToFloat64E(s)
			if err != nil {
				return nil, fmt.Errorf("invalid duration %q", s)
			}
			return millis(ms), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			ms, err := cast.ToFloat64E(data)
			if err != nil {
				return nil, err
			}
			return millis(ms), nil
		default:
			return data, nil
		}
	}
}

// commaSliceHook splits comma separated strings for any slice target, so
// HTTPMETRICS_EXCLUDEROUTES=/health,/ready and bucket lists like "1,5,10"
// both decode. Elements are converted by weak typing afterwards.
func commaSliceHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
			return data, nil
		}

		raw := strings.TrimSpace(reflect.ValueOf(data).String())
		if raw == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// decode binds values onto out. Slices and maps present in values replace
// the defaults in out instead of being merged element by element.
func decode(values map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			durationHook(),
			commaSliceHook(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}
