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

// Package echometrics records HTTP metrics for echo servers.
//
//	recorder := metrics.MustNew()
//	e := echo.New()
//	e.Use(echometrics.Middleware(recorder))
//	e.GET(recorder.Endpoint(), echometrics.Handler(recorder))
package echometrics

import (
	"github.com/labstack/echo/v4"

	"rivaas.dev/httpmetrics/metrics"
)

// Middleware records every request handled by the server. The route
// label is echo's path template ("/users/:id"), falling back to the raw
// path for unmatched requests.
//
// A handler error is passed to the server's HTTPErrorHandler before the
// request is recorded, so the status written for the error is the one
// that gets counted.
func Middleware(recorder *metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			timing := recorder.Begin()

			if err := next(c); err != nil {
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			recorder.Finish(timing, req.Method, route, res.Status, metrics.ResponseSize(res.Header(), res.Size))
			return nil
		}
	}
}

// Handler serves the recorder's pull endpoint.
func Handler(recorder *metrics.Recorder) echo.HandlerFunc {
	return echo.WrapHandler(recorder.Handler())
}
