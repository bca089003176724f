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

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rivaas.dev/httpmetrics/config"
	"rivaas.dev/httpmetrics/config/codec"
	"rivaas.dev/httpmetrics/metrics"
)

func newValidateCmd(global *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and print the effective settings",
		Long: `Load the configuration file and environment exactly as serve does, check
it, build a recorder from it and print the merged result. Secrets are
redacted.

Examples:
  httpmetrics validate --config httpmetrics.yaml
  HTTPMETRICS_ENDPOINT=/internal/metrics httpmetrics validate --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			// Building a recorder catches problems only registration can see,
			// such as conflicting custom metric names under strict definitions.
			recorder, err := metrics.New(metrics.WithConfig(cfg))
			if err != nil {
				return fmt.Errorf("create recorder: %w", err)
			}
			if err := recorder.Shutdown(cmd.Context()); err != nil {
				return err
			}

			out, err := config.Render(cfg, codec.Type(strings.ToLower(output)))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml, json, toml, env_var")
	return cmd
}
