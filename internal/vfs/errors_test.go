package vfs

import (
	"errors"
	"io/fs"
	"syscall"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not exist", fs.ErrNotExist, ErrNotFound},
		{"path error", &fs.PathError{Op: "open", Path: "/x", Err: syscall.ENOENT}, ErrNotFound},
		{"permission", syscall.EACCES, ErrPermission},
		{"read-only fs", syscall.EROFS, ErrReadOnly},
		{"directory", syscall.EISDIR, ErrNotRegularFile},
		{"already classified", ErrNotMounted, ErrNotMounted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("Classify(%v) lost the original error", tt.err)
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) != nil")
	}
}

func TestPathError(t *testing.T) {
	err := NewPathError("open", MustParseLocation("/tmp/x"), fs.ErrNotExist)
	if got := err.Error(); got != "open file:///tmp/x: not found: file does not exist" {
		t.Errorf("Error() = %q", got)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false")
	}
}
