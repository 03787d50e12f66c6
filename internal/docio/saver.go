package docio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/dshills/docio/internal/async"
	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/textstream"
	"github.com/dshills/docio/internal/vfs"
)

// SaveFlags modify how a save treats the existing file.
type SaveFlags uint8

const (
	// SaveIgnoreMtime saves even if the file changed since it was loaded.
	SaveIgnoreMtime SaveFlags = 1 << iota

	// SaveIgnoreBackup skips the backup, as for autosaves.
	SaveIgnoreBackup

	// SavePreserveBackup keeps an existing backup instead of replacing it.
	SavePreserveBackup
)

// Has reports whether all bits of flag are set.
func (f SaveFlags) Has(flag SaveFlags) bool {
	return f&flag == flag
}

// SaveOptions describe the bytes a Saver produces.
type SaveOptions struct {
	// Encoding is the target charset. Nil means UTF-8.
	Encoding *charset.Encoding

	// Newline is written for every line terminator.
	Newline textstream.Newline

	// Compression is applied to the encoded bytes.
	Compression vfs.Compression

	Flags SaveFlags

	// PriorMtime is the modification time the caller last saw. A zero value
	// disables the conflict check.
	PriorMtime time.Time
}

// Saver writes a buffer to a location.
type Saver struct {
	session
	buf  Buffer
	save SaveOptions

	source  *textstream.Source
	dest    vfs.ReplaceWriter
	hashed  *vfs.HashWriter
	encoder *transform.Writer
	out     io.Writer
	chunk   []byte
	pending []byte
	written int
	total   int64

	info   vfs.FileInfo
	digest vfs.Digest
}

// NewSaver creates a Saver that writes buf to loc.
func NewSaver(buf Buffer, loc vfs.Location, so SaveOptions, opts ...Option) *Saver {
	if so.Encoding == nil {
		so.Encoding = charset.UTF8()
	}
	s := &Saver{buf: buf, save: so}
	s.init("save", loc, opts)
	s.cleanup = s.release
	return s
}

// Save runs the saver to completion. Cancelling ctx makes the pending step
// fail, which discards the write.
func (s *Saver) Save(ctx context.Context) error {
	return s.run(func(loop *async.Loop, done func(error)) error {
		return s.Start(ctx, loop, done)
	})
}

// Start schedules the save on loop. done is called on the loop exactly once
// with the outcome.
func (s *Saver) Start(ctx context.Context, loop *async.Loop, done func(error)) error {
	if err := s.begin(ctx, loop, done); err != nil {
		return err
	}
	loop.Post(s.checkConflict)
	return nil
}

// State returns the current state. Call it from the loop.
func (s *Saver) State() State {
	return s.state
}

// Info returns the file information read back after the save.
func (s *Saver) Info() vfs.FileInfo {
	return s.info
}

// Digest returns the digest of the stored bytes.
func (s *Saver) Digest() vfs.Digest {
	return s.digest
}

// BytesWritten returns the number of buffer bytes written so far.
func (s *Saver) BytesWritten() int64 {
	if s.source == nil {
		return 0
	}
	return s.source.Tell()
}

// Options returns the options the saver writes with.
func (s *Saver) Options() SaveOptions {
	return s.save
}

func (s *Saver) checkConflict() {
	if s.interrupted() || !s.resolve() {
		return
	}
	s.setState(StateCheckingConflict)
	step(&s.session, func(ctx context.Context) (vfs.FileInfo, error) {
		return s.backend.QueryInfo(ctx, s.loc)
	}, s.checked)
}

func (s *Saver) checked(info vfs.FileInfo, err error) {
	switch {
	case err == nil:
		prior := s.save.PriorMtime
		if !prior.IsZero() && !info.ModTime.Equal(prior) && !s.save.Flags.Has(SaveIgnoreMtime) {
			s.fail(ErrExternallyModified)
			return
		}
	case s.shouldMount(err):
		s.mount(s.checkConflict)
		return
	case !vfs.IsNotFound(err):
		s.fail(err)
		return
	}
	s.open()
}

func (s *Saver) open() {
	if s.interrupted() {
		return
	}
	s.setState(StateOpening)
	ro := vfs.ReplaceOptions{
		Backup:         s.opts.backups && s.loc.IsLocal() && !s.save.Flags.Has(SaveIgnoreBackup),
		PreserveBackup: s.save.Flags.Has(SavePreserveBackup),
	}
	step(&s.session, func(ctx context.Context) (vfs.ReplaceWriter, error) {
		return s.backend.Replace(ctx, s.loc, ro)
	}, s.opened)
}

func (s *Saver) opened(w vfs.ReplaceWriter, err error) {
	if err != nil {
		s.fail(err)
		return
	}
	s.hashed = vfs.NewHashWriter(w)
	s.dest = s.hashed

	dest, err := vfs.Compress(s.hashed, s.save.Compression)
	if err != nil {
		s.fail(err)
		return
	}
	s.dest = dest

	s.out = dest
	if enc := s.save.Encoding; !enc.IsUTF8() || enc.WritesBOM() {
		s.encoder = transform.NewWriter(vfs.FullWriter(dest), enc.NewEncoder())
		s.out = s.encoder
	}

	s.source = textstream.NewSource(s.buf, s.save.Newline)
	s.total = s.source.TotalSize()
	s.chunk = make([]byte, s.opts.chunkSize)
	s.setState(StateWriting)
	s.readChunk()
}

func (s *Saver) readChunk() {
	if s.interrupted() {
		return
	}
	n, err := s.source.Read(s.chunk)
	switch {
	case errors.Is(err, io.EOF):
		s.closeStreams()
		return
	case err != nil:
		s.fail(err)
		return
	}
	s.pending = s.chunk[:n]
	s.written = 0
	s.writeChunk()
}

func (s *Saver) writeChunk() {
	out, p := s.out, s.pending[s.written:]
	step(&s.session, func(context.Context) (int, error) {
		return out.Write(p)
	}, s.wrote)
}

func (s *Saver) wrote(n int, err error) {
	s.written += n
	if err != nil {
		s.fail(conversionError(err))
		return
	}
	if s.written < len(s.pending) {
		if n == 0 {
			s.fail(io.ErrShortWrite)
			return
		}
		s.writeChunk()
		return
	}
	s.progress(s.source.Tell(), s.total)
	s.readChunk()
}

func (s *Saver) closeStreams() {
	s.setState(StateClosing)
	if err := s.source.Close(); err != nil {
		s.fail(err)
		return
	}
	encoder := s.encoder
	step(&s.session, func(context.Context) (struct{}, error) {
		if encoder == nil {
			return struct{}{}, nil
		}
		return struct{}{}, encoder.Close()
	}, func(_ struct{}, err error) {
		if err != nil {
			s.fail(conversionError(err))
			return
		}
		s.commit()
	})
}

func (s *Saver) commit() {
	dest := s.dest
	s.dest = nil
	step(&s.session, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, dest.Close(ctx)
	}, func(_ struct{}, err error) {
		if err != nil {
			s.fail(err)
			return
		}
		s.digest = s.hashed.Digest()
		s.queryInfo()
	})
}

func (s *Saver) queryInfo() {
	if s.interrupted() {
		return
	}
	s.setState(StateQueryingInfo)
	step(&s.session, func(ctx context.Context) (vfs.FileInfo, error) {
		return s.backend.QueryInfo(ctx, s.loc)
	}, func(info vfs.FileInfo, err error) {
		if err != nil {
			s.fail(err)
			return
		}
		s.info = info
		s.log.Debug("saved",
			slog.Int64("bytes", s.hashed.Count()),
			slog.String("encoding", s.save.Encoding.Charset()),
			slog.String("newline", s.save.Newline.String()))
		s.finish(nil)
	})
}

// release discards an uncommitted destination and frees the source mark.
func (s *Saver) release() {
	if s.source != nil {
		s.source.Close()
	}
	if s.dest != nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s.dest.Close(ctx)
		s.dest = nil
	}
}

// conversionError maps encoder failures onto textstream.ErrInvalidData.
func conversionError(err error) error {
	var rep interface{ Replacement() byte }
	if errors.As(err, &rep) || errors.Is(err, encoding.ErrInvalidUTF8) {
		return fmt.Errorf("%w: %w", textstream.ErrInvalidData, err)
	}
	return err
}
