//go:build unix

package vfs

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// writable asks the kernel whether the current user may write p, which
// accounts for read-only mounts and ACLs as well as mode bits.
func writable(p string, _ fs.FileInfo) bool {
	return unix.Access(p, unix.W_OK) == nil
}

func checkWritable(p string) error {
	return unix.Access(p, unix.W_OK)
}
