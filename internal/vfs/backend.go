package vfs

import (
	"context"
	"io"
	"time"
)

// FileType classifies what a location refers to.
type FileType uint8

const (
	TypeUnknown FileType = iota
	TypeRegular
	TypeDirectory
	TypeSpecial
)

// String returns the type name.
func (t FileType) String() string {
	switch t {
	case TypeRegular:
		return "regular"
	case TypeDirectory:
		return "directory"
	case TypeSpecial:
		return "special"
	default:
		return "unknown"
	}
}

// FileInfo describes a location.
type FileInfo struct {
	Name        string
	Size        int64
	ModTime     time.Time
	Type        FileType
	ContentType string
	Writable    bool
}

// IsRegular reports whether the location is a regular file.
func (fi FileInfo) IsRegular() bool {
	return fi.Type == TypeRegular
}

// ReplaceOptions controls an atomic replace.
type ReplaceOptions struct {
	// Backup keeps the previous content next to the destination.
	Backup bool

	// PreserveBackup leaves an existing backup untouched instead of
	// overwriting it with the current content.
	PreserveBackup bool
}

// ReplaceWriter receives the new content of a location.
//
// Close commits the content when ctx is live. When ctx is already done,
// Close discards everything written and returns ctx.Err(); the destination
// keeps its previous content.
type ReplaceWriter interface {
	io.Writer
	Close(ctx context.Context) error
}

// MountOperation answers the questions a backend asks while mounting, such
// as credentials for a remote volume.
type MountOperation interface {
	AskPassword(ctx context.Context, loc Location, message string) (user, password string, err error)
}

// MountOperationFactory creates a MountOperation for one mount attempt.
type MountOperationFactory func() MountOperation

// Backend is the storage strategy for one or more location schemes.
type Backend interface {
	// Open opens loc for reading.
	Open(ctx context.Context, loc Location) (io.ReadCloser, error)

	// QueryInfo returns metadata for loc.
	QueryInfo(ctx context.Context, loc Location) (FileInfo, error)

	// Replace starts an atomic replace of loc.
	Replace(ctx context.Context, loc Location, opts ReplaceOptions) (ReplaceWriter, error)

	// Mount mounts the volume holding loc. op may be nil.
	Mount(ctx context.Context, loc Location, op MountOperation) error
}
