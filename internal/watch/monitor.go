// Package watch reports external changes to files that are open as
// documents.
//
// A Monitor watches the directories holding its files, so atomic replaces
// that swap the file's inode are still seen. Each file carries the digest of
// the content the document last loaded or saved; a notification whose file
// content hashes to the same digest is dropped, which keeps a document's own
// saves from showing up as external modifications.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/docio/internal/vfs"
)

// Errors returned by the monitor.
var (
	ErrMonitorClosed = errors.New("monitor is closed")
	ErrNotWatching   = errors.New("path is not being watched")
	ErrPathNotExist  = errors.New("path does not exist")
)

// Change is the kind of external change.
type Change uint8

const (
	// ChangeModified means the file content differs from the known digest.
	ChangeModified Change = iota + 1

	// ChangeRemoved means the file no longer exists.
	ChangeRemoved
)

// String returns the change name.
func (c Change) String() string {
	switch c {
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event describes an external change to a watched file.
type Event struct {
	Path      string
	Change    Change
	Digest    vfs.Digest // digest of the new content, zero when removed
	Timestamp time.Time
}

type entry struct {
	digest vfs.Digest
	timer  *time.Timer
}

// Monitor watches files for external changes.
type Monitor struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	files   map[string]*entry
	dirs    map[string]int

	delay  time.Duration
	log    *slog.Logger
	events chan Event
	errors chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithDelay sets how long the monitor waits after the last notification for
// a file before it looks at the file. Bursts of writes collapse into one
// check.
func WithDelay(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.log = l
		}
	}
}

// NewMonitor creates a monitor.
func NewMonitor(opts ...Option) (*Monitor, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		watcher: fsw,
		files:   make(map[string]*entry),
		dirs:    make(map[string]int),
		delay:   100 * time.Millisecond,
		log:     slog.New(slog.DiscardHandler),
		events:  make(chan Event, 64),
		errors:  make(chan error, 16),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.closedWg.Add(1)
	go m.processLoop()
	return m, nil
}

// Watch starts watching path, taking digest as the known content. Watching
// a path again only replaces its digest.
func (m *Monitor) Watch(path string, digest vfs.Digest) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrMonitorClosed
	}
	if e, ok := m.files[absPath]; ok {
		e.digest = digest
		return nil
	}

	dir := filepath.Dir(absPath)
	if m.dirs[dir] == 0 {
		if err := m.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	m.dirs[dir]++
	m.files[absPath] = &entry{digest: digest}
	return nil
}

// Update replaces the known digest of a watched path.
func (m *Monitor) Update(path string, digest vfs.Digest) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.files[absPath]
	if !ok {
		return ErrNotWatching
	}
	e.digest = digest
	return nil
}

// Unwatch stops watching path.
func (m *Monitor) Unwatch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrMonitorClosed
	}
	e, ok := m.files[absPath]
	if !ok {
		return ErrNotWatching
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(m.files, absPath)

	dir := filepath.Dir(absPath)
	m.dirs[dir]--
	if m.dirs[dir] <= 0 {
		delete(m.dirs, dir)
		if err := m.watcher.Remove(dir); err != nil {
			return fmt.Errorf("unwatch %s: %w", dir, err)
		}
	}
	return nil
}

// IsWatching reports whether path is watched.
func (m *Monitor) IsWatching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[absPath]
	return ok
}

// Events returns the channel of external changes. Events are dropped when
// the channel is full.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Errors returns the channel of watcher errors.
func (m *Monitor) Errors() <-chan error {
	return m.errors
}

// Close stops the monitor and closes its channels.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.closeCh)
	for _, e := range m.files {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	m.mu.Unlock()

	m.closedWg.Wait()
	close(m.events)
	close(m.errors)
	return m.watcher.Close()
}

func (m *Monitor) processLoop() {
	defer m.closedWg.Done()

	for {
		select {
		case <-m.closeCh:
			return

		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.schedule(filepath.Clean(ev.Name))

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.mu.Lock()
			if !m.closed {
				select {
				case m.errors <- err:
				default:
				}
			}
			m.mu.Unlock()
		}
	}
}

// schedule arranges a check of path once notifications for it settle.
func (m *Monitor) schedule(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.files[path]
	if !ok || m.closed {
		return
	}
	if e.timer != nil {
		e.timer.Reset(m.delay)
		return
	}
	e.timer = time.AfterFunc(m.delay, func() {
		m.check(path)
	})
}

// check hashes path and reports a change if it differs from the known
// digest.
func (m *Monitor) check(path string) {
	change, digest, err := inspect(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.files[path]
	if !ok || m.closed {
		return
	}
	if err != nil {
		m.log.Warn("check failed", slog.String("path", path), slog.Any("error", err))
		select {
		case m.errors <- err:
		default:
		}
		return
	}
	if digest == e.digest {
		return
	}
	e.digest = digest

	m.log.Debug("external change", slog.String("path", path), slog.String("change", change.String()))
	select {
	case m.events <- Event{Path: path, Change: change, Digest: digest, Timestamp: time.Now()}:
	default:
		m.log.Warn("event channel full, dropping event", slog.String("path", path))
	}
}

func inspect(path string) (Change, vfs.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ChangeRemoved, vfs.Digest{}, nil
		}
		return 0, vfs.Digest{}, err
	}
	defer f.Close()

	digest, _, err := vfs.SumReader(f)
	if err != nil {
		return 0, vfs.Digest{}, err
	}
	return ChangeModified, digest, nil
}
