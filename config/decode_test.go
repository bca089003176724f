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

//go:build !integration

package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMapKeys(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"AWSCloudWatch": map[string]any{"Namespace": "Shop"},
		"DefaultLabels": map[string]any{"Service": "shop"},
		"CustomMetrics": []map[string]any{{"Type": "counter", "Name": "jobs_total"}},
		"ExcludeRoutes": []any{"/Health"},
		"Legacy":        map[any]any{"Key": 1},
	}

	assert.Equal(t, map[string]any{
		"awscloudwatch": map[string]any{"namespace": "Shop"},
		"defaultlabels": map[string]any{"Service": "shop"},
		"custommetrics": []any{map[string]any{"type": "counter", "name": "jobs_total"}},
		"excluderoutes": []any{"/Health"},
		"legacy":        map[string]any{"key": 1},
	}, normalizeMapKeys(in))
}

func TestDurationHook(t *testing.T) {
	t.Parallel()

	hook := durationHook()
	to := reflect.TypeFor[time.Duration]()

	tests := []struct {
		name  string
		input any
		want  time.Duration
	}{
		{name: "duration string", input: "30s", want: 30 * time.Second},
		{name: "integer millis", input: 1500, want: 1500 * time.Millisecond},
		{name: "unsigned millis", input: uint64(250), want: 250 * time.Millisecond},
		{name: "fractional millis", input: 0.5, want: 500 * time.Microsecond},
		{name: "numeric string", input: " 2000 ", want: 2 * time.Second},
		{name: "already a duration", input: time.Minute, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := hook(reflect.TypeOf(tt.input), to, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := hook(reflect.TypeFor[string](), to, "soon")
	require.Error(t, err)

	got, err := hook(reflect.TypeFor[int](), reflect.TypeFor[int](), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got, "other targets are untouched")
}

func TestCommaSliceHook(t *testing.T) {
	t.Parallel()

	hook := commaSliceHook()
	strType := reflect.TypeFor[string]()

	got, err := hook(strType, reflect.TypeFor[[]float64](), "1, 2.5 ,10")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2.5", "10"}, got)

	got, err = hook(strType, reflect.TypeFor[[]string](), "  ")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	got, err = hook(strType, strType, "a,b")
	require.NoError(t, err)
	assert.Equal(t, "a,b", got)
}
