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

package metrics

import (
	"rivaas.dev/router"
)

// RouterMiddleware returns a rivaas router middleware recording every
// request. The route label is the matched pattern (e.g. "/users/:id").
//
// Example:
//
//	r := router.MustNew()
//	r.Use(metrics.RouterMiddleware(recorder))
//	r.GET("/users/:id", getUser)
func RouterMiddleware(recorder *Recorder) router.HandlerFunc {
	return func(c *router.Context) {
		timing := recorder.Begin()

		original := c.Response
		rw := newResponseWriter(original)
		c.Response = rw

		c.Next()

		c.Response = original

		route := c.RoutePattern()
		if route == "" {
			route = c.Request.URL.Path
		}
		recorder.Finish(timing, c.Request.Method, route, rw.StatusCode(), rw.ResponseSize())
	}
}

// RouterHandler adapts [Recorder.Handler] to a rivaas route handler.
//
// Example:
//
//	r.GET(recorder.Endpoint(), metrics.RouterHandler(recorder))
func RouterHandler(recorder *Recorder) router.HandlerFunc {
	h := recorder.Handler()
	return func(c *router.Context) {
		h.ServeHTTP(c.Response, c.Request)
	}
}
