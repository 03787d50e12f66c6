package docio

import (
	"log/slog"

	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/vfs"
)

// DefaultChunkSize is the number of bytes moved per read or write step.
const DefaultChunkSize = 8192

// DefaultCandidates are the charsets tried, in order, when loading without
// an explicit encoding.
var DefaultCandidates = []string{"UTF-8", "ISO-8859-15", "UTF-16"}

// ProgressFunc receives the bytes processed so far and the expected total.
// It runs on the session's loop.
type ProgressFunc func(done, total int64)

type settings struct {
	registry    *vfs.Registry
	logger      *slog.Logger
	chunkSize   int
	mountOp     vfs.MountOperationFactory
	candidates  []*charset.Encoding
	hint        *charset.Encoding
	maxSize     int64
	backups     bool
	initialLine int
	progress    ProgressFunc
}

func defaultSettings() settings {
	candidates := make([]*charset.Encoding, 0, len(DefaultCandidates))
	for _, name := range DefaultCandidates {
		candidates = append(candidates, charset.MustLookup(name))
	}
	return settings{
		registry:   vfs.DefaultRegistry(),
		logger:     slog.New(slog.DiscardHandler),
		chunkSize:  DefaultChunkSize,
		candidates: candidates,
		backups:    true,
	}
}

// Option configures a Loader or Saver.
type Option func(*settings)

// WithRegistry sets the backend registry used to resolve locations.
func WithRegistry(r *vfs.Registry) Option {
	return func(s *settings) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLogger sets the logger. Sessions log state changes at debug level and
// failures at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChunkSize sets the number of bytes moved per step. Values below
// charset.MaxSequenceLen are raised to it.
func WithChunkSize(n int) Option {
	return func(s *settings) {
		s.chunkSize = max(n, charset.MaxSequenceLen)
	}
}

// WithMountOperation sets the factory used when a location has to be
// mounted before it can be accessed.
func WithMountOperation(f vfs.MountOperationFactory) Option {
	return func(s *settings) {
		s.mountOp = f
	}
}

// WithCandidates sets the charsets tried when loading without an explicit
// encoding.
func WithCandidates(encs []*charset.Encoding) Option {
	return func(s *settings) {
		if len(encs) > 0 {
			s.candidates = encs
		}
	}
}

// WithEncodingHint puts enc, usually the encoding the document was last
// loaded or saved with, in front of the candidates.
func WithEncodingHint(enc *charset.Encoding) Option {
	return func(s *settings) {
		s.hint = enc
	}
}

// WithMaxSize makes loads of files larger than n bytes fail with
// vfs.ErrTooBig. Zero means no limit.
func WithMaxSize(n int64) Option {
	return func(s *settings) {
		s.maxSize = n
	}
}

// WithBackups sets whether saves to local files keep a backup of the
// previous content.
func WithBackups(enabled bool) Option {
	return func(s *settings) {
		s.backups = enabled
	}
}

// WithInitialLine places the cursor at the start of the given 1-based line
// after a successful load. Lines past the end place it at the end.
func WithInitialLine(line int) Option {
	return func(s *settings) {
		s.initialLine = line
	}
}

// WithProgress sets the progress callback.
func WithProgress(f ProgressFunc) Option {
	return func(s *settings) {
		s.progress = f
	}
}

// candidateList returns the hint followed by the candidates, without
// duplicates.
func (s *settings) candidateList() []*charset.Encoding {
	list := make([]*charset.Encoding, 0, len(s.candidates)+1)
	add := func(enc *charset.Encoding) {
		for _, e := range list {
			if e.Equal(enc) {
				return
			}
		}
		list = append(list, enc)
	}
	if s.hint != nil {
		add(s.hint)
	}
	for _, enc := range s.candidates {
		add(enc)
	}
	return list
}
