package vfs

import (
	"bytes"
	"context"
	"io"
	"path"
	"sync"
	"time"
)

// MemBackend is an in-memory backend. Besides holding files it can simulate
// an unmounted volume, short writes and write failures, which makes it the
// test double for the load and save state machines.
//
// MemBackend is safe for concurrent use.
type MemBackend struct {
	mu    sync.Mutex
	files map[string]*memFile
	dirs  map[string]bool
	now   func() time.Time

	mounted    bool
	mountErr   error
	mountCalls int
	mountUser  string

	maxWrite  int
	failAfter int64
	failErr   error
	opens     int
	replaces  int
}

type memFile struct {
	content  []byte
	modTime  time.Time
	readOnly bool
}

// MemOption configures a MemBackend.
type MemOption func(*MemBackend)

// WithClock sets the time source used for modification times.
func WithClock(now func() time.Time) MemOption {
	return func(m *MemBackend) {
		m.now = now
	}
}

// WithMaxWrite limits every Write on a replace writer to n bytes, forcing
// callers to loop on short writes.
func WithMaxWrite(n int) MemOption {
	return func(m *MemBackend) {
		m.maxWrite = n
	}
}

// NewMemBackend creates an empty, mounted in-memory backend.
func NewMemBackend(opts ...MemOption) *MemBackend {
	m := &MemBackend{
		files:   make(map[string]*memFile),
		dirs:    map[string]bool{"/": true},
		now:     time.Now,
		mounted: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure MemBackend implements Backend.
var _ Backend = (*MemBackend)(nil)

// SetFile creates or replaces a file.
func (m *MemBackend) SetFile(p string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path.Clean(p)] = &memFile{content: bytes.Clone(content), modTime: m.now()}
}

// SetModTime sets a file's modification time.
func (m *MemBackend) SetModTime(p string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[path.Clean(p)]; ok {
		f.modTime = t
	}
}

// SetReadOnly marks a file read-only.
func (m *MemBackend) SetReadOnly(p string, readOnly bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[path.Clean(p)]; ok {
		f.readOnly = readOnly
	}
}

// AddDir creates a directory entry.
func (m *MemBackend) AddDir(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path.Clean(p)] = true
}

// File returns a copy of a file's content.
func (m *MemBackend) File(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path.Clean(p)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(f.content), true
}

// SetMounted sets whether the volume is mounted.
func (m *MemBackend) SetMounted(mounted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mounted = mounted
}

// SetMountError makes Mount fail with err.
func (m *MemBackend) SetMountError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mountErr = err
}

// FailWritesAfter makes replace writers fail with err once n bytes have been
// written to them.
func (m *MemBackend) FailWritesAfter(n int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.failErr = err
}

// MountCalls returns how many times Mount was called.
func (m *MemBackend) MountCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mountCalls
}

// MountUser returns the user name supplied by the last mount operation.
func (m *MemBackend) MountUser() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mountUser
}

// Opens returns how many times Open was called.
func (m *MemBackend) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Replaces returns how many replace writers were created.
func (m *MemBackend) Replaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaces
}

// Open opens a file for reading. The reader sees a snapshot of the content.
func (m *MemBackend) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opens++
	if !m.mounted {
		return nil, &PathError{Op: "open", Path: loc.String(), Err: ErrNotMounted}
	}
	p := path.Clean(loc.Path())
	f, ok := m.files[p]
	if !ok {
		if m.dirs[p] {
			return nil, &PathError{Op: "open", Path: loc.String(), Err: ErrNotRegularFile}
		}
		return nil, &PathError{Op: "open", Path: loc.String(), Err: ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(f.content))), nil
}

// QueryInfo returns file information.
func (m *MemBackend) QueryInfo(ctx context.Context, loc Location) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.mounted {
		return FileInfo{}, &PathError{Op: "stat", Path: loc.String(), Err: ErrNotMounted}
	}
	p := path.Clean(loc.Path())
	if f, ok := m.files[p]; ok {
		return FileInfo{
			Name:        path.Base(p),
			Size:        int64(len(f.content)),
			ModTime:     f.modTime,
			Type:        TypeRegular,
			ContentType: "text/plain",
			Writable:    !f.readOnly,
		}, nil
	}
	if m.dirs[p] {
		return FileInfo{Name: path.Base(p), Type: TypeDirectory}, nil
	}
	return FileInfo{}, &PathError{Op: "stat", Path: loc.String(), Err: ErrNotFound}
}

// Replace starts an atomic replace of a file.
func (m *MemBackend) Replace(ctx context.Context, loc Location, opts ReplaceOptions) (ReplaceWriter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.mounted {
		return nil, &PathError{Op: "replace", Path: loc.String(), Err: ErrNotMounted}
	}
	p := path.Clean(loc.Path())
	if m.dirs[p] {
		return nil, &PathError{Op: "replace", Path: loc.String(), Err: ErrNotRegularFile}
	}
	if f, ok := m.files[p]; ok && f.readOnly {
		return nil, &PathError{Op: "replace", Path: loc.String(), Err: ErrReadOnly}
	}

	m.replaces++
	return &memReplaceWriter{m: m, loc: loc, path: p, opts: opts}, nil
}

// Mount mounts the volume. It asks op for credentials when op is not nil.
func (m *MemBackend) Mount(ctx context.Context, loc Location, op MountOperation) error {
	m.mu.Lock()
	m.mountCalls++
	mountErr := m.mountErr
	m.mu.Unlock()

	var user string
	if op != nil {
		u, _, err := op.AskPassword(ctx, loc, "Enter credentials for "+loc.Host())
		if err != nil {
			return &PathError{Op: "mount", Path: loc.String(), Err: err}
		}
		user = u
	}
	if mountErr != nil {
		return &PathError{Op: "mount", Path: loc.String(), Err: mountErr}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.mounted = true
	m.mountUser = user
	return nil
}

type memReplaceWriter struct {
	m       *MemBackend
	loc     Location
	path    string
	opts    ReplaceOptions
	buf     bytes.Buffer
	written int64
	closed  bool
}

func (w *memReplaceWriter) Write(p []byte) (int, error) {
	w.m.mu.Lock()
	maxWrite, failAfter, failErr := w.m.maxWrite, w.m.failAfter, w.m.failErr
	w.m.mu.Unlock()

	if maxWrite > 0 && len(p) > maxWrite {
		p = p[:maxWrite]
	}
	if failErr != nil && w.written+int64(len(p)) > failAfter {
		keep := max(failAfter-w.written, 0)
		w.buf.Write(p[:keep])
		w.written += keep
		return int(keep), &PathError{Op: "write", Path: w.loc.String(), Err: failErr}
	}
	n, _ := w.buf.Write(p)
	w.written += int64(n)
	return n, nil
}

func (w *memReplaceWriter) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := ctx.Err(); err != nil {
		return err
	}

	w.m.mu.Lock()
	defer w.m.mu.Unlock()

	if old, ok := w.m.files[w.path]; ok && w.opts.Backup {
		backup := w.path + DefaultBackupSuffix
		if _, exists := w.m.files[backup]; !exists || !w.opts.PreserveBackup {
			w.m.files[backup] = &memFile{content: bytes.Clone(old.content), modTime: old.modTime}
		}
	}
	w.m.files[w.path] = &memFile{content: bytes.Clone(w.buf.Bytes()), modTime: w.m.now()}
	return nil
}
