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

package errors

import (
	"net/http"
)

// Formatter turns an error into the parts of an HTTP response.
type Formatter interface {
	Format(req *http.Request, err error) Response
}

// Response represents a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is marshaled to JSON when written.
	Body any
}

// ErrorType allows errors to declare their own HTTP status code.
//
// Example:
//
//	type unavailableError struct{ backend string }
//
//	func (e unavailableError) Error() string   { return e.backend + " is unavailable" }
//	func (e unavailableError) HTTPStatus() int { return http.StatusServiceUnavailable }
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows errors to provide structured information.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// WithStatus wraps err with an explicit HTTP status code.
// If err is nil, the status text is used as the message.
//
// Example:
//
//	return errors.WithStatus(err, http.StatusServiceUnavailable)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }

// WithCode wraps err with a machine-readable code.
func WithCode(err error, code string) error {
	return &codeError{err: err, code: code}
}

type codeError struct {
	err  error
	code string
}

func (e *codeError) Error() string {
	if e.err == nil {
		return e.code
	}
	return e.err.Error()
}

func (e *codeError) Unwrap() error { return e.err }
func (e *codeError) Code() string  { return e.code }
