package async

import "errors"

// Errors returned by the loop.
var (
	// ErrAlreadyRunning is returned when Run is called on a running loop.
	ErrAlreadyRunning = errors.New("loop already running")

	// ErrStopped is returned when Run is called after Quit.
	ErrStopped = errors.New("loop stopped")

	// ErrPanic wraps a panic recovered from a function started with Go.
	ErrPanic = errors.New("panic in async step")
)
