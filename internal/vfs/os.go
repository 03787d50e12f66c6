package vfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultBackupSuffix is appended to a file name to form its backup name.
const DefaultBackupSuffix = "~"

// OSBackend stores documents in the local file system.
type OSBackend struct {
	backupSuffix string
}

// OSOption configures an OSBackend.
type OSOption func(*OSBackend)

// WithBackupSuffix sets the suffix used for backup files.
func WithBackupSuffix(suffix string) OSOption {
	return func(b *OSBackend) {
		if suffix != "" {
			b.backupSuffix = suffix
		}
	}
}

// NewOSBackend creates a backend for file locations.
func NewOSBackend(opts ...OSOption) *OSBackend {
	b := &OSBackend{backupSuffix: DefaultBackupSuffix}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Ensure OSBackend implements Backend.
var _ Backend = (*OSBackend)(nil)

func (b *OSBackend) localPath(op string, loc Location) (string, error) {
	p, ok := loc.LocalPath()
	if !ok {
		return "", &PathError{Op: op, Path: loc.String(), Err: ErrUnsupportedScheme}
	}
	return p, nil
}

// Open opens a file for reading.
func (b *OSBackend) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := b.localPath("open", loc)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, NewPathError("open", loc, err)
	}
	return f, nil
}

// QueryInfo returns file information.
func (b *OSBackend) QueryInfo(ctx context.Context, loc Location) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	p, err := b.localPath("stat", loc)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return FileInfo{}, NewPathError("stat", loc, err)
	}

	fi := FileInfo{
		Name:     info.Name(),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Type:     fileType(info.Mode()),
		Writable: writable(p, info),
	}
	if fi.IsRegular() {
		fi.ContentType = contentType(p)
	}
	return fi, nil
}

// Replace starts an atomic replace. Content goes to a temporary file in the
// destination directory, which is renamed over the destination on commit.
// A symbolic link is followed, so the link stays and its target is replaced.
func (b *OSBackend) Replace(ctx context.Context, loc Location, opts ReplaceOptions) (ReplaceWriter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := b.localPath("replace", loc)
	if err != nil {
		return nil, err
	}
	if p, err = resolveLink(p); err != nil {
		return nil, NewPathError("replace", loc, err)
	}

	mode := fs.FileMode(0o644)
	exists := false
	if info, err := os.Stat(p); err == nil {
		if !info.Mode().IsRegular() {
			return nil, &PathError{Op: "replace", Path: loc.String(), Err: ErrNotRegularFile}
		}
		if err := checkWritable(p); err != nil {
			return nil, NewPathError("replace", loc, err)
		}
		mode = info.Mode().Perm()
		exists = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, NewPathError("replace", loc, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".docio-*")
	if err != nil {
		return nil, NewPathError("replace", loc, err)
	}

	w := &osReplaceWriter{
		loc:    loc,
		path:   p,
		tmp:    tmp,
		mode:   mode,
		exists: exists,
	}
	if opts.Backup && exists {
		w.backup = p + b.backupSuffix
		w.preserveBackup = opts.PreserveBackup
	}
	return w, nil
}

// Mount is a no-op: local files are always mounted.
func (b *OSBackend) Mount(ctx context.Context, loc Location, op MountOperation) error {
	return ctx.Err()
}

type osReplaceWriter struct {
	loc            Location
	path           string
	tmp            *os.File
	mode           fs.FileMode
	exists         bool
	backup         string
	preserveBackup bool
	closed         bool
}

func (w *osReplaceWriter) Write(p []byte) (int, error) {
	n, err := w.tmp.Write(p)
	if err != nil {
		return n, NewPathError("write", w.loc, err)
	}
	return n, nil
}

func (w *osReplaceWriter) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := ctx.Err(); err != nil {
		w.discard()
		return err
	}

	if err := w.tmp.Sync(); err != nil {
		w.discard()
		return NewPathError("commit", w.loc, err)
	}
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return NewPathError("commit", w.loc, err)
	}
	if err := os.Chmod(w.tmp.Name(), w.mode); err != nil {
		os.Remove(w.tmp.Name())
		return NewPathError("commit", w.loc, err)
	}

	if w.backup != "" && !(w.preserveBackup && fileExists(w.backup)) {
		if err := copyFile(w.path, w.backup, w.mode); err != nil {
			os.Remove(w.tmp.Name())
			return NewPathError("backup", w.loc, err)
		}
	}

	if err := os.Rename(w.tmp.Name(), w.path); err != nil {
		os.Remove(w.tmp.Name())
		return NewPathError("commit", w.loc, err)
	}
	return nil
}

func (w *osReplaceWriter) discard() {
	w.tmp.Close()
	os.Remove(w.tmp.Name())
}

func fileType(mode fs.FileMode) FileType {
	switch {
	case mode.IsRegular():
		return TypeRegular
	case mode.IsDir():
		return TypeDirectory
	default:
		return TypeSpecial
	}
}

// contentType guesses a MIME type from the extension, then from content.
func contentType(p string) string {
	if t := mime.TypeByExtension(filepath.Ext(p)); t != "" {
		return t
	}
	f, err := os.Open(p)
	if err != nil {
		return ""
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if n == 0 {
		return "text/plain"
	}
	return http.DetectContentType(head[:n])
}

// resolveLink returns the file p refers to after following symbolic links.
// A path that does not exist yet is returned unchanged.
func resolveLink(p string) (string, error) {
	r, err := filepath.EvalSymlinks(p)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	return r, err
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// copyFile copies src to dst through a temporary file so dst is never left
// half-written.
func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".docio-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("copy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
