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
	"os"
	"strings"

	"rivaas.dev/httpmetrics/config/codec"
)

// OSEnvVar loads every environment variable starting with a prefix. The
// prefix is stripped and the remainder is nested on underscores, so with
// prefix "HTTPMETRICS" the variable HTTPMETRICS_AWSCLOUDWATCH_REGION
// becomes awscloudwatch.region.
type OSEnvVar struct {
	prefix  string
	environ func() []string
	decoder codec.Decoder
}

// NewOSEnvVar returns an environment source for prefix. A trailing
// underscore is added to the prefix when missing.
func NewOSEnvVar(prefix string) *OSEnvVar {
	if prefix != "" && !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return &OSEnvVar{
		prefix:  prefix,
		environ: os.Environ,
		decoder: codec.EnvVarCodec{},
	}
}

// Load decodes the matching variables. Values spanning several lines are
// skipped because the listing is line oriented.
func (e *OSEnvVar) Load(context.Context) (map[string]any, error) {
	var lines []string
	for _, env := range e.environ() {
		rest, ok := strings.CutPrefix(env, e.prefix)
		if !ok || strings.ContainsAny(rest, "\r\n") {
			continue
		}
		lines = append(lines, rest)
	}

	var config map[string]any
	if err := e.decoder.Decode([]byte(strings.Join(lines, "\n")), &config); err != nil {
		return nil, fmt.Errorf("failed to decode environment variables: %w", err)
	}

	return config, nil
}

// String describes the source in error messages.
func (e *OSEnvVar) String() string {
	return "env:" + e.prefix
}
