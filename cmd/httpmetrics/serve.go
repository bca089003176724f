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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"rivaas.dev/router"

	"rivaas.dev/httpmetrics/internal/semconv"
	"rivaas.dev/httpmetrics/metrics"
)

type serveFlags struct {
	addr            string
	shutdownTimeout time.Duration
}

func newServeCmd(global *globalFlags) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a demo API instrumented with HTTP metrics",
		Long: `Start an HTTP server whose routes are recorded by the metrics add-on.

The metrics endpoint (default /metrics) serves the Prometheus text format,
or JSON with ?format=json. When awsCloudWatch is configured, observations
are also pushed to CloudWatch in batches and flushed on shutdown.

Examples:
  # Defaults plus HTTPMETRICS_* environment variables
  httpmetrics serve

  # With a configuration file on another port
  httpmetrics serve --config httpmetrics.yaml --addr :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, global, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().DurationVar(&flags.shutdownTimeout, "shutdown-timeout", 10*time.Second, "time allowed for draining requests and flushing metrics")
	return cmd
}

func runServe(cmd *cobra.Command, global *globalFlags, flags *serveFlags) error {
	logger, err := global.logger(cmd)
	if err != nil {
		return err
	}
	logger = logger.With(semconv.ServiceName, cmd.Root().Name(), semconv.ServiceVersion, Version)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := global.loadConfig(ctx)
	if err != nil {
		return err
	}

	recorder, err := metrics.New(metrics.WithConfig(cfg), metrics.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create recorder: %w", err)
	}

	server := &http.Server{
		Addr:              flags.addr,
		Handler:           newDemoRouter(recorder),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", semconv.ServerAddress, flags.addr, semconv.MetricsEndpoint, recorder.Endpoint())
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = recorder.Shutdown(context.Background()) //nolint:errcheck // the listen error is reported
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), flags.shutdownTimeout)
	defer cancel()

	return errors.Join(
		server.Shutdown(shutdownCtx),
		recorder.Shutdown(shutdownCtx),
	)
}

// newDemoRouter wires a small API and the metrics endpoint behind the
// recording middleware.
func newDemoRouter(recorder *metrics.Recorder) *router.Router {
	// Registering twice only fails with ErrMetricExists, which is fine here.
	_ = recorder.Register(metrics.MetricDefinition{ //nolint:errcheck // see above
		Type: metrics.Counter,
		Name: "demo_user_lookups_total",
		Help: "User lookups served by the demo API",
	})

	r := router.MustNew()
	r.Use(metrics.RouterMiddleware(recorder))

	r.GET("/health", func(c *router.Context) {
		_ = c.String(http.StatusOK, "ok") //nolint:errcheck // best effort
	})
	r.GET("/users/:id", func(c *router.Context) {
		recorder.IncrementCounter("demo_user_lookups_total", nil)
		_ = c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")}) //nolint:errcheck // best effort
	})
	r.POST("/orders", func(c *router.Context) {
		c.Status(http.StatusAccepted)
	})
	r.GET("/fail", func(c *router.Context) {
		_ = c.String(http.StatusInternalServerError, "simulated failure") //nolint:errcheck // best effort
	})
	r.GET(recorder.Endpoint(), metrics.RouterHandler(recorder))

	return r
}
