package document

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/config"
	"github.com/dshills/docio/internal/docio"
	"github.com/dshills/docio/internal/engine/buffer"
	"github.com/dshills/docio/internal/metadata"
	"github.com/dshills/docio/internal/textstream"
	"github.com/dshills/docio/internal/vfs"
	"github.com/dshills/docio/internal/watch"
)

// Manager manages all open documents.
type Manager struct {
	mu       sync.RWMutex
	docs     map[string]*Document // location or untitled key -> document
	order    []string             // open order
	active   *Document
	untitled untitledSet
	closed   bool

	registry     *vfs.Registry
	log          *slog.Logger
	mountOp      vfs.MountOperationFactory
	candidates   []*charset.Encoding
	chunkSize    int
	maxSize      int64
	backups      bool
	backupSuffix string
	newline      textstream.Newline
	meta         Metadata
	monitor      *watch.Monitor
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry sets the backend registry.
func WithRegistry(r *vfs.Registry) Option {
	return func(m *Manager) {
		m.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMountOperation sets the factory used when a location needs mounting.
func WithMountOperation(f vfs.MountOperationFactory) Option {
	return func(m *Manager) {
		m.mountOp = f
	}
}

// WithMetadata sets the store remembering encodings and cursor positions.
func WithMetadata(md Metadata) Option {
	return func(m *Manager) {
		m.meta = md
	}
}

// WithMonitor reports external changes of open local files.
func WithMonitor(mon *watch.Monitor) Option {
	return func(m *Manager) {
		m.monitor = mon
	}
}

// WithConfig applies the encodings, files and io sections.
func WithConfig(cfg *config.Config) Option {
	return func(m *Manager) {
		if cands, _ := cfg.Encodings().Candidates(); len(cands) > 0 {
			m.candidates = cands
		}
		files := cfg.Files()
		m.backups = files.CreateBackup
		m.backupSuffix = files.BackupSuffix
		m.maxSize = files.MaxSize
		m.newline = files.Newline()
		m.chunkSize = cfg.IO().ChunkSize
	}
}

// NewManager creates a document manager. Without WithRegistry, file
// locations are served by the OS backend.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		docs:         make(map[string]*Document),
		log:          slog.New(slog.DiscardHandler),
		chunkSize:    docio.DefaultChunkSize,
		backups:      true,
		backupSuffix: vfs.DefaultBackupSuffix,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = vfs.NewRegistry()
		m.registry.Register(vfs.SchemeFile, vfs.NewOSBackend(vfs.WithBackupSuffix(m.backupSuffix)))
	}
	return m
}

// New creates an empty untitled document and makes it active.
func (m *Manager) New() *Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := &Document{
		mgr:      m,
		buf:      buffer.NewBuffer(),
		untitled: m.untitled.acquire(),
		encoding: charset.UTF8(),
		newline:  m.newline,
	}
	m.add(d)
	return d
}

// Open loads loc into a new document and makes it active. If loc is
// already open the existing document is returned without reloading.
//
// A soft status such as docio.ErrConversionFallback is returned together
// with the document; any other error leaves nothing open.
func (m *Manager) Open(ctx context.Context, loc vfs.Location, opts LoadOptions) (*Document, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if d, ok := m.docs[loc.String()]; ok {
		m.active = d
		m.mu.Unlock()
		return d, nil
	}
	m.mu.Unlock()

	d := &Document{mgr: m, buf: buffer.NewBuffer(), loc: loc}
	err := d.Load(ctx, opts)
	if err != nil && !docio.IsSoft(err) {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.docs[loc.String()]; ok {
		// Opened concurrently; keep the first.
		m.active = existing
		return existing, nil
	}
	m.add(d)
	return d, err
}

// Close removes doc from the manager, remembering its cursor position.
// Unsaved changes are discarded; check Modified first.
func (m *Manager) Close(ctx context.Context, d *Document) error {
	m.mu.Lock()
	key := d.key()
	if m.docs[key] != d {
		m.mu.Unlock()
		return ErrNotOpen
	}
	m.remove(key)
	if d.IsUntitled() {
		m.untitled.release(d.untitled)
	}
	m.mu.Unlock()

	d.rememberPosition(ctx)
	m.unwatch(d)
	return nil
}

// CloseAll closes every document and refuses further opens.
func (m *Manager) CloseAll(ctx context.Context) {
	for _, d := range m.All() {
		_ = m.Close(ctx, d)
	}
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Get returns the open document for loc.
func (m *Manager) Get(loc vfs.Location) (*Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[loc.String()]
	return d, ok
}

// All returns the open documents in the order they were opened.
func (m *Manager) All() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]*Document, 0, len(m.order))
	for _, key := range m.order {
		docs = append(docs, m.docs[key])
	}
	return docs
}

// Count returns the number of open documents.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Active returns the active document, or nil.
func (m *Manager) Active() *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// SetActive makes d the active document.
func (m *Manager) SetActive(d *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[d.key()] != d {
		return ErrNotOpen
	}
	m.active = d
	return nil
}

// Modified returns the documents with unsaved changes.
func (m *Manager) Modified() []*Document {
	var dirty []*Document
	for _, d := range m.All() {
		if d.Modified() {
			dirty = append(dirty, d)
		}
	}
	return dirty
}

// HandleEvent marks the document affected by a monitor event as
// externally changed and returns it.
func (m *Manager) HandleEvent(ev watch.Event) (*Document, bool) {
	for _, d := range m.All() {
		p, ok := d.loc.LocalPath()
		if !ok || !samePath(p, ev.Path) {
			continue
		}
		if ev.Change == watch.ChangeModified && ev.Digest == d.digest {
			return d, false
		}
		d.external = true
		return d, true
	}
	return nil, false
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

func (d *Document) key() string {
	if d.IsUntitled() {
		return "untitled:" + strconv.Itoa(d.untitled)
	}
	return d.loc.String()
}

// add registers d and makes it active. Caller holds mu.
func (m *Manager) add(d *Document) {
	key := d.key()
	m.docs[key] = d
	m.order = append(m.order, key)
	m.active = d
}

// remove drops key and moves the active document to a neighbour.
// Caller holds mu.
func (m *Manager) remove(key string) {
	d := m.docs[key]
	delete(m.docs, key)
	idx := -1
	for i, k := range m.order {
		if k == key {
			idx = i
			break
		}
	}
	if idx >= 0 {
		m.order = append(m.order[:idx], m.order[idx+1:]...)
	}
	if m.active != d {
		return
	}
	m.active = nil
	if len(m.order) > 0 {
		m.active = m.docs[m.order[min(idx, len(m.order)-1)]]
	}
}

// rekey binds d to loc after a successful SaveAs.
func (m *Manager) rekey(d *Document, loc vfs.Location) error {
	m.unwatch(d)

	m.mu.Lock()
	oldKey := d.key()
	if _, ok := m.docs[oldKey]; !ok {
		m.mu.Unlock()
		return ErrNotOpen
	}
	if d.IsUntitled() {
		m.untitled.release(d.untitled)
		d.untitled = 0
	}
	d.loc = loc
	newKey := d.key()
	delete(m.docs, oldKey)
	m.docs[newKey] = d
	for i, k := range m.order {
		if k == oldKey {
			m.order[i] = newKey
		}
	}
	m.mu.Unlock()

	m.watch(d)
	return nil
}

func (m *Manager) sessionOptions(progress docio.ProgressFunc) []docio.Option {
	opts := []docio.Option{
		docio.WithRegistry(m.registry),
		docio.WithLogger(m.log),
		docio.WithChunkSize(m.chunkSize),
		docio.WithMaxSize(m.maxSize),
		docio.WithBackups(m.backups),
	}
	if m.mountOp != nil {
		opts = append(opts, docio.WithMountOperation(m.mountOp))
	}
	if len(m.candidates) > 0 {
		opts = append(opts, docio.WithCandidates(m.candidates))
	}
	if progress != nil {
		opts = append(opts, docio.WithProgress(progress))
	}
	return opts
}

func (m *Manager) rememberedEncoding(loc vfs.Location) *charset.Encoding {
	if m.meta == nil {
		return nil
	}
	name, ok := m.meta.Get(loc, metadata.KeyEncoding)
	if !ok {
		return nil
	}
	enc, err := charset.Lookup(name)
	if err != nil {
		m.log.Debug("ignoring remembered encoding", slog.String("encoding", name), slog.String("error", err.Error()))
		return nil
	}
	return enc
}

func (m *Manager) rememberedLine(loc vfs.Location) int {
	if m.meta == nil {
		return 0
	}
	s, ok := m.meta.Get(loc, metadata.KeyPosition)
	if !ok {
		return 0
	}
	line, err := strconv.Atoi(s)
	if err != nil || line < 0 {
		return 0
	}
	return line
}

// remember stores a metadata value. Failures are logged, not returned.
func (m *Manager) remember(ctx context.Context, loc vfs.Location, key, value string) {
	if m.meta == nil {
		return
	}
	if err := m.meta.Set(ctx, loc, key, value); err != nil {
		m.log.Warn("metadata write failed",
			slog.String("location", loc.String()),
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// watch starts or refreshes monitoring of d's file.
func (m *Manager) watch(d *Document) {
	if m.monitor == nil {
		return
	}
	p, ok := d.loc.LocalPath()
	if !ok {
		return
	}
	if err := m.monitor.Watch(p, d.digest); err != nil {
		m.log.Debug("not watching", slog.String("path", p), slog.String("error", err.Error()))
	}
}

func (m *Manager) unwatch(d *Document) {
	if m.monitor == nil {
		return
	}
	if p, ok := d.loc.LocalPath(); ok && m.monitor.IsWatching(p) {
		if err := m.monitor.Unwatch(p); err != nil {
			m.log.Debug("unwatch failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
}
