package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Standard errors returned by backends.
var (
	// ErrNotFound indicates the location does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotRegularFile indicates the location is a directory or special file.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrNotMounted indicates the location's volume must be mounted first.
	ErrNotMounted = errors.New("location not mounted")

	// ErrPermission indicates access was denied.
	ErrPermission = errors.New("permission denied")

	// ErrReadOnly indicates the location or its file system is read-only.
	ErrReadOnly = errors.New("file is read-only")

	// ErrTooBig indicates the file exceeds the configured size limit.
	ErrTooBig = errors.New("file too large")

	// ErrUnsupportedScheme indicates no backend is registered for a scheme.
	ErrUnsupportedScheme = errors.New("unsupported location scheme")

	// ErrMountFailed indicates a mount attempt did not succeed.
	ErrMountFailed = errors.New("mount failed")

	// ErrIO is the catch-all for transport failures.
	ErrIO = errors.New("i/o error")
)

// PathError records a failed backend operation on a location.
type PathError struct {
	Op   string // open, stat, replace, commit, mount
	Path string // location URI
	Err  error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError creates a PathError, mapping err onto the package sentinels.
func NewPathError(op string, loc Location, err error) *PathError {
	return &PathError{Op: op, Path: loc.String(), Err: Classify(err)}
}

// Classify maps operating system errors onto the package sentinels. The
// original error stays in the chain. Errors that already match a sentinel,
// and context errors, are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range []error{ErrNotFound, ErrNotRegularFile, ErrNotMounted, ErrPermission,
		ErrReadOnly, ErrTooBig, ErrUnsupportedScheme, ErrMountFailed, ErrIO} {
		if errors.Is(err, s) {
			return err
		}
	}

	switch {
	case errors.Is(err, syscall.EROFS):
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermission, err)
	case errors.Is(err, syscall.EISDIR):
		return fmt.Errorf("%w: %w", ErrNotRegularFile, err)
	case errors.Is(err, syscall.EFBIG):
		return fmt.Errorf("%w: %w", ErrTooBig, err)
	}
	return err
}

// IsNotFound returns true if the error indicates a missing location.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotMounted returns true if the error indicates an unmounted location.
func IsNotMounted(err error) bool {
	return errors.Is(err, ErrNotMounted)
}

// IsUnsupported returns true if the error indicates an unknown scheme.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedScheme)
}
