package task

import "errors"

// Standard errors returned by the queue.
var (
	// ErrAlreadyRunning indicates Start was called on a running queue.
	ErrAlreadyRunning = errors.New("task queue already running")

	// ErrNotRunning indicates Stop was called on a stopped queue.
	ErrNotRunning = errors.New("task queue not running")
)
