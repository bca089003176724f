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

// Package errors renders failures of the metrics endpoints as RFC 9457
// Problem Details (application/problem+json).
//
// Errors can implement optional interfaces to shape the response:
//
//   - [ErrorType]: declare the HTTP status code
//   - [ErrorCode]: provide a machine-readable code, used as the problem type slug
//   - [ErrorDetails]: attach structured details under the "errors" member
//
// [WithStatus] and [WithCode] decorate plain errors with the first two.
//
// # Quick Start
//
//	formatter := errors.NewRFC9457("https://httpmetrics.dev/problems")
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		if err := render(w); err != nil {
//			formatter.Write(w, r, errors.WithCode(err, "render-failed"))
//		}
//	}
//
// Every problem carries an "error_id" member (a UUID) so a response can be
// matched with the event that reported it.
package errors
