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
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Middleware records every request served by next. The route is the
// [http.ServeMux] pattern that matched (without its method), or the raw
// path when next is not a ServeMux or nothing matched.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /users/{id}", getUser)
//	mux.Handle(recorder.Endpoint(), recorder.Handler())
//
//	http.ListenAndServe(":8080", metrics.Middleware(recorder)(mux))
func Middleware(recorder *Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			timing := recorder.Begin()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, req)

			recorder.Finish(timing, req.Method, routeOf(req), rw.StatusCode(), rw.ResponseSize())
		})
	}
}

// routeOf returns the ServeMux pattern path ("GET /users/{id}" becomes
// "/users/{id}"). ServeMux sets Pattern on the request it serves.
func routeOf(req *http.Request) string {
	if p := req.Pattern; p != "" {
		if i := strings.Index(p, "/"); i >= 0 {
			return p[i:]
		}
	}
	return req.URL.Path
}

// responseWriter wraps [http.ResponseWriter] to capture status code and size.
// It also implements optional interfaces ([http.Flusher], [http.Hijacker], [http.Pusher]) if the
// underlying ResponseWriter supports them.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

// WriteHeader captures the status code and prevents duplicate calls.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

// Write captures the response size.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.written = true
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)

	return n, err
}

// StatusCode returns the HTTP status code, 200 if none was written.
func (rw *responseWriter) StatusCode() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}

	return rw.statusCode
}

// ResponseSize returns the Content-Length header if the handler set a valid
// one, otherwise the number of body bytes written.
func (rw *responseWriter) ResponseSize() int64 {
	return ResponseSize(rw.Header(), rw.size)
}

// ResponseSize picks the size recorded for a response: a valid
// Content-Length in header wins over written, the count of body bytes
// actually written. Negative counts, which some frameworks use for "no
// body yet", are reported as zero.
func ResponseSize(header http.Header, written int64) int64 {
	if cl := header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n >= 0 {
			return n
		}
	}

	return max(written, 0)
}

// Flush implements [http.Flusher] if the underlying ResponseWriter supports it.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements [http.Hijacker] for WebSocket support.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}

	return nil, nil, fmt.Errorf("underlying ResponseWriter doesn't support Hijack")
}

// Push implements [http.Pusher] for HTTP/2 server push.
func (rw *responseWriter) Push(target string, opts *http.PushOptions) error {
	if p, ok := rw.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}

	return http.ErrNotSupported
}

// Unwrap returns the underlying ResponseWriter for [http.ResponseController] support.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
