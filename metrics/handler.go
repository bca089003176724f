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
	"io"
	"net/http"

	riverrors "rivaas.dev/httpmetrics/errors"
	"rivaas.dev/httpmetrics/internal/semconv"
)

// ContentType is the media type of the text exposition format.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// codeRenderFailed is the problem type slug for rendering failures.
const codeRenderFailed = "metrics-render-failed"

var problems = riverrors.NewRFC9457("https://rivaas.dev/httpmetrics/problems")

// Handler serves the pull endpoint. It renders the text exposition format,
// or JSON when the query has format=json. A rendering failure is answered
// with a 500 problem document.
//
// Example:
//
//	mux.Handle(recorder.Endpoint(), recorder.Handler())
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("format") == "json" {
			body, err := r.MetricsJSON()
			if err != nil {
				r.writeRenderError(w, req, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body) //nolint:errcheck // client went away
			return
		}

		text, err := r.Metrics()
		if err != nil {
			r.writeRenderError(w, req, err)
			return
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, text) //nolint:errcheck // client went away
	})
}

func (r *Recorder) writeRenderError(w http.ResponseWriter, req *http.Request, err error) {
	r.emitError("Failed to render metrics", semconv.Error, err)
	if wErr := problems.Write(w, req, riverrors.WithCode(err, codeRenderFailed)); wErr != nil {
		r.emitDebug("Failed to write problem response", semconv.Error, wErr)
	}
}
