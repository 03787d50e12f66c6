// Package vfs provides the storage backends documents are loaded from and
// saved to.
//
// A Location names a file by URI. The Registry selects a Backend once from
// the location's scheme; every backend offers the same four operations:
// Open for reading, QueryInfo for metadata, Replace for atomic writes, and
// Mount for locations that must be mounted before use.
//
// Replace returns a ReplaceWriter. Nothing written through it is visible
// at the destination until Close is called with a live context. Closing with
// a cancelled context discards the write and leaves any existing file as it
// was.
//
// Backend errors wrap the package sentinels (ErrNotFound, ErrNotMounted, ...)
// inside a *PathError, so callers can use errors.Is regardless of backend.
package vfs
