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
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"rivaas.dev/httpmetrics/config"
	"rivaas.dev/httpmetrics/metrics"
)

type globalFlags struct {
	configFile string
	envPrefix  string
	logFormat  string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "httpmetrics",
		Short: "HTTP metrics add-on with a Prometheus pull endpoint and buffered push export",
		Long: `httpmetrics records request count, duration, response size and error/success
counts for HTTP servers, exposes them on a Prometheus pull endpoint and can
push them in batches to AWS CloudWatch.

Configuration is read from an optional file and from environment variables
with the HTTPMETRICS_ prefix, for example HTTPMETRICS_AWSCLOUDWATCH_NAMESPACE.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "configuration file (.yaml, .json or .toml)")
	cmd.PersistentFlags().StringVar(&flags.envPrefix, "env-prefix", "HTTPMETRICS", "prefix of configuration environment variables")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "console", "log format: console, json, text")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(newServeCmd(flags), newValidateCmd(flags), newVersionCmd())
	return cmd
}

// loadConfig merges the configuration file, if any, with the environment.
func (f *globalFlags) loadConfig(ctx context.Context) (metrics.Config, error) {
	var opts []config.Option
	if f.configFile != "" {
		opts = append(opts, config.WithFile(f.configFile))
	}
	if f.envPrefix != "" {
		opts = append(opts, config.WithEnv(f.envPrefix))
	}
	return config.Load(ctx, opts...)
}

func (f *globalFlags) logger(cmd *cobra.Command) (*slog.Logger, error) {
	return newLogger(cmd.ErrOrStderr(), f.logFormat, f.logLevel)
}
