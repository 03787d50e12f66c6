// Package metadata keeps small per-document values, such as the encoding a
// file was last opened with, in a JSON file.
//
// Entries are keyed by the BLAKE3 digest of the document URI:
//
//	{
//	  "entries": {
//	    "<hex digest>": {"uri": "file:///tmp/a.txt", "atime": 1700000000, "encoding": "ISO-8859-15"}
//	  }
//	}
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/docio/internal/vfs"
)

// Well-known keys.
const (
	KeyEncoding = "encoding"
	KeyPosition = "position"
)

// Reserved entry fields.
const (
	fieldURI   = "uri"
	fieldAtime = "atime"
)

// ErrCorrupt is returned when the metadata file is not valid JSON.
var ErrCorrupt = errors.New("metadata file is corrupt")

// DefaultMaxEntries bounds the number of documents remembered.
const DefaultMaxEntries = 1000

// Store holds metadata for many locations. A Store is safe for concurrent
// use.
type Store struct {
	mu         sync.Mutex
	data       []byte
	backend    vfs.Backend
	loc        vfs.Location
	maxEntries int
	now        func() time.Time
	log        *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries sets how many documents are remembered before the least
// recently used ones are dropped.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock sets the time source for access times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func newStore(opts []Option) *Store {
	s := &Store{
		data:       []byte(`{"entries":{}}`),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMemoryStore returns a store that is never persisted.
func NewMemoryStore(opts ...Option) *Store {
	return newStore(opts)
}

// Open loads the store kept at loc. A missing file yields an empty store;
// it is created on the first Set.
func Open(ctx context.Context, backend vfs.Backend, loc vfs.Location, opts ...Option) (*Store, error) {
	s := newStore(opts)
	s.backend = backend
	s.loc = loc

	r, err := backend.Open(ctx, loc)
	if err != nil {
		if vfs.IsNotFound(err) {
			return s, nil
		}
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, vfs.NewPathError("read", loc, err)
	}
	if len(data) > 0 {
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("%w: %s", ErrCorrupt, loc)
		}
		s.data = data
	}
	return s, nil
}

// Key returns the entry key for loc.
func Key(loc vfs.Location) string {
	return vfs.SumBytes([]byte(loc.String())).String()
}

func entryPath(loc vfs.Location) string {
	return "entries." + Key(loc)
}

func fieldPath(loc vfs.Location, key string) string {
	return entryPath(loc) + "." + escape(key)
}

// escape quotes gjson path syntax in a key.
func escape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Get returns the value stored under key for loc.
func (s *Store) Get(loc vfs.Location, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := gjson.GetBytes(s.data, fieldPath(loc, key))
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// Set stores value under key for loc and writes the store.
func (s *Store) Set(ctx context.Context, loc vfs.Location, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := sjson.SetBytes(s.data, fieldPath(loc, key), value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if data, err = s.touch(data, loc); err != nil {
		return err
	}
	s.data = s.prune(data)
	return s.save(ctx)
}

// Delete removes key for loc and writes the store.
func (s *Store) Delete(ctx context.Context, loc vfs.Location, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := sjson.DeleteBytes(s.data, fieldPath(loc, key))
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.data = data
	return s.save(ctx)
}

// Forget removes every value kept for loc.
func (s *Store) Forget(ctx context.Context, loc vfs.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := sjson.DeleteBytes(s.data, entryPath(loc))
	if err != nil {
		return err
	}
	s.data = data
	return s.save(ctx)
}

// Locations returns the URIs with stored metadata, most recently used
// first.
func (s *Store) Locations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries(s.data)
	uris := make([]string, len(entries))
	for i, e := range entries {
		uris[i] = e.uri
	}
	return uris
}

// Len returns the number of locations with stored metadata.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(gjson.GetBytes(s.data, "entries").Map())
}

func (s *Store) touch(data []byte, loc vfs.Location) ([]byte, error) {
	data, err := sjson.SetBytes(data, entryPath(loc)+"."+fieldURI, loc.String())
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(data, entryPath(loc)+"."+fieldAtime, s.now().UnixNano())
}

type entryInfo struct {
	key   string
	uri   string
	atime int64
}

// entries lists the entries, most recently used first.
func (s *Store) entries(data []byte) []entryInfo {
	var list []entryInfo
	gjson.GetBytes(data, "entries").ForEach(func(k, v gjson.Result) bool {
		list = append(list, entryInfo{
			key:   k.String(),
			uri:   v.Get(fieldURI).String(),
			atime: v.Get(fieldAtime).Int(),
		})
		return true
	})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].atime > list[j].atime
	})
	return list
}

// prune drops the least recently used entries beyond the limit.
func (s *Store) prune(data []byte) []byte {
	entries := s.entries(data)
	if len(entries) <= s.maxEntries {
		return data
	}
	for _, e := range entries[s.maxEntries:] {
		pruned, err := sjson.DeleteBytes(data, "entries."+e.key)
		if err != nil {
			s.log.Warn("prune metadata", slog.String("uri", e.uri), slog.Any("error", err))
			continue
		}
		data = pruned
	}
	return data
}

func (s *Store) save(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	w, err := s.backend.Replace(ctx, s.loc, vfs.ReplaceOptions{})
	if err != nil {
		return err
	}
	if _, err := vfs.FullWriter(w).Write(s.data); err != nil {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		w.Close(cancelled)
		return err
	}
	return w.Close(ctx)
}
