//go:build !unix

package vfs

import (
	"io/fs"
	"os"
)

func writable(_ string, info fs.FileInfo) bool {
	return info.Mode().Perm()&0o200 != 0
}

func checkWritable(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o200 == 0 {
		return fs.ErrPermission
	}
	return nil
}
