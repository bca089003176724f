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

// Package ginmetrics records HTTP metrics for gin engines.
//
//	recorder := metrics.MustNew()
//	engine := gin.New()
//	engine.Use(ginmetrics.Middleware(recorder))
//	engine.GET(recorder.Endpoint(), ginmetrics.Handler(recorder))
package ginmetrics

import (
	"github.com/gin-gonic/gin"

	"rivaas.dev/httpmetrics/metrics"
)

// Middleware records every request passing through the engine. The route
// label is gin's full path template ("/users/:id"); requests that matched
// no route fall back to the raw path.
func Middleware(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		timing := recorder.Begin()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		size := metrics.ResponseSize(c.Writer.Header(), int64(c.Writer.Size()))
		recorder.Finish(timing, c.Request.Method, route, c.Writer.Status(), size)
	}
}

// Handler serves the recorder's pull endpoint.
func Handler(recorder *metrics.Recorder) gin.HandlerFunc {
	return gin.WrapH(recorder.Handler())
}
