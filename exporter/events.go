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

package exporter

import "log/slog"

// EventType represents the severity of an internal operational event.
type EventType int

const (
	// EventError indicates an error event (e.g., a scheduled flush failed).
	EventError EventType = iota
	// EventWarning indicates a warning event (e.g., observations were dropped).
	EventWarning
	// EventInfo indicates an informational event.
	EventInfo
	// EventDebug indicates a debug event (e.g., a batch was sent).
	EventDebug
)

// String returns the lowercase name of the event type.
func (t EventType) String() string {
	switch t {
	case EventError:
		return "error"
	case EventWarning:
		return "warning"
	case EventInfo:
		return "info"
	case EventDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// Event represents an internal operational event.
// Events are how background failures (which have no caller to return an
// error to) reach the application.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events.
//
// Example custom handler:
//
//	exporter.WithEventHandler(func(e exporter.Event) {
//	    if e.Type == exporter.EventError {
//	        alerts.Notify(e.Message)
//	    }
//	    slog.Default().Info(e.Message, e.Args...)
//	})
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler that logs events to the provided slog.Logger.
// If logger is nil, returns a no-op handler that discards all events.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}

	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

func (e *Exporter) emit(t EventType, msg string, args ...any) {
	if e.eventHandler != nil {
		e.eventHandler(Event{Type: t, Message: msg, Args: args})
	}
}

func (e *Exporter) emitError(msg string, args ...any)   { e.emit(EventError, msg, args...) }
func (e *Exporter) emitWarning(msg string, args ...any) { e.emit(EventWarning, msg, args...) }
func (e *Exporter) emitDebug(msg string, args ...any)   { e.emit(EventDebug, msg, args...) }
