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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rivaas.dev/httpmetrics/metrics"
)

// TestSource returns a source that always yields conf.
func TestSource(conf map[string]any) Source {
	return SourceFunc(func(context.Context) (map[string]any, error) {
		return conf, nil
	})
}

// TestSourceWithError returns a source that always fails with err.
func TestSourceWithError(err error) Source {
	return SourceFunc(func(context.Context) (map[string]any, error) {
		return nil, err
	})
}

// TestLoad loads a configuration from opts and fails the test on error.
func TestLoad(t testing.TB, opts ...Option) metrics.Config {
	t.Helper()

	cfg, err := Load(context.Background(), opts...)
	require.NoError(t, err)
	return cfg
}

// TestYAMLFile writes content to a temporary YAML file and returns its path.
func TestYAMLFile(t testing.TB, content []byte) string {
	t.Helper()
	return writeTestFile(t, "httpmetrics.yaml", content)
}

// TestJSONFile writes content to a temporary JSON file and returns its path.
func TestJSONFile(t testing.TB, content []byte) string {
	t.Helper()
	return writeTestFile(t, "httpmetrics.json", content)
}

// TestTOMLFile writes content to a temporary TOML file and returns its path.
func TestTOMLFile(t testing.TB, content []byte) string {
	t.Helper()
	return writeTestFile(t, "httpmetrics.toml", content)
}

func writeTestFile(t testing.TB, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}
