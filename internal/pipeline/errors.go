package pipeline

/*
certfisk — phishing domain detection over Certificate Transparency streams
Copyright (C) 2026  certfisk authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import "errors"

// pipelineError is an error carrying a retryable flag so submitters can decide
// whether a failed operation is worth another attempt.
type pipelineError struct {
	message   string
	retryable bool
}

// NewError creates a pipeline error with the given message and retryable status.
func NewError(msg string, retryable bool) error {
	return &pipelineError{message: msg, retryable: retryable}
}

func (e *pipelineError) Error() string {
	return e.message
}

// IsRetryable reports whether err is (or wraps) a retryable pipeline error.
// Unknown error types default to non-retryable.
func IsRetryable(err error) bool {
	var e *pipelineError
	if errors.As(err, &e) {
		return e.retryable
	}
	return false
}

var (
	// ErrQueueFull indicates a worker queue is at capacity; backpressure, retryable.
	ErrQueueFull = NewError("queue full", true)
	// ErrWorkerShutdown indicates the scheduler no longer accepts work.
	ErrWorkerShutdown = NewError("worker shutdown", false)
)
