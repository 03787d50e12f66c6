package docio

import (
	"errors"
	"fmt"

	"github.com/dshills/docio/internal/vfs"
)

// Errors returned by loaders and savers.
var (
	// ErrCancelled is the terminal error of a cancelled load.
	ErrCancelled = errors.New("operation cancelled")

	// ErrExternallyModified is returned by Save when the destination changed
	// since the document was loaded.
	ErrExternallyModified = errors.New("file was modified externally")

	// ErrConversionFallback is the terminal status of a load that completed
	// but had to replace undecodable characters. The buffer holds the
	// converted text.
	ErrConversionFallback = errors.New("some characters could not be converted")

	// ErrAlreadyUsed is returned when a Loader or Saver is started twice.
	ErrAlreadyUsed = errors.New("session already started")
)

// OpError is the terminal error of a load or save.
type OpError struct {
	Op       string // "load" or "save"
	Location vfs.Location
	State    State // state the session was in when it ended
	Err      error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Location, e.State, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// IsSoft reports whether err is a status that still leaves a usable result,
// such as ErrConversionFallback.
func IsSoft(err error) bool {
	return errors.Is(err, ErrConversionFallback)
}
