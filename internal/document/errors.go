package document

import "errors"

// Errors returned by documents and the manager.
var (
	// ErrUntitled is returned by Save for a document that has no location.
	ErrUntitled = errors.New("document has no location")

	// ErrNotOpen is returned for a document the manager does not hold.
	ErrNotOpen = errors.New("document not open")

	// ErrAlreadyOpen is returned by SaveAs when another open document
	// already uses the target location.
	ErrAlreadyOpen = errors.New("location already open in another document")

	// ErrManagerClosed is returned after Close.
	ErrManagerClosed = errors.New("document manager closed")
)
