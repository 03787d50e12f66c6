package docio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dshills/docio/internal/async"
	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/engine/buffer"
	"github.com/dshills/docio/internal/textstream"
	"github.com/dshills/docio/internal/vfs"
)

// Buffer is the text buffer a Loader fills and a Saver reads.
// *buffer.Buffer implements it.
type Buffer interface {
	textstream.TextBuffer
	LineStartOffset(line int) buffer.ByteOffset
	PlaceCursor(offset buffer.ByteOffset)
}

var _ Buffer = (*buffer.Buffer)(nil)

// Loader reads a location into a buffer, replacing its content.
type Loader struct {
	session
	buf Buffer

	explicit *charset.Encoding
	info     vfs.FileInfo
	raw      *vfs.HashReader
	stream   io.ReadCloser
	decoder  *textstream.DecodeReader
	guesser  *textstream.Guesser
	sink     *textstream.Sink
	chunk    []byte

	encoding    *charset.Encoding
	newline     textstream.Newline
	compression vfs.Compression
	digest      vfs.Digest
	fallbacks   int
}

// NewLoader creates a Loader that reads loc into buf.
func NewLoader(buf Buffer, loc vfs.Location, opts ...Option) *Loader {
	l := &Loader{buf: buf}
	l.init("load", loc, opts)
	l.cancellable = true
	l.cleanup = l.release
	return l
}

// Load runs the loader to completion. enc selects the encoding; nil means
// guess it from the candidates. Cancelling ctx cancels the load.
func (l *Loader) Load(ctx context.Context, enc *charset.Encoding) error {
	return l.run(func(loop *async.Loop, done func(error)) error {
		return l.Start(ctx, loop, enc, done)
	})
}

// Start schedules the load on loop. done is called on the loop exactly once
// with the outcome. Start fails with ErrAlreadyUsed if the loader was
// already started.
func (l *Loader) Start(ctx context.Context, loop *async.Loop, enc *charset.Encoding, done func(error)) error {
	if err := l.begin(ctx, loop, done); err != nil {
		return err
	}
	l.explicit = enc
	loop.Post(l.open)
	return nil
}

// Cancel requests cancellation. The load stops at the next step boundary
// and ends with ErrCancelled. Cancel may be called from any goroutine.
func (l *Loader) Cancel() {
	l.cancelled.Store(true)
}

// State returns the current state. Call it from the loop.
func (l *Loader) State() State {
	return l.state
}

// Info returns the file information fetched during the load.
func (l *Loader) Info() vfs.FileInfo {
	return l.info
}

// Encoding returns the encoding the content was decoded with.
func (l *Loader) Encoding() *charset.Encoding {
	return l.encoding
}

// Newline returns the newline style detected in the content.
func (l *Loader) Newline() textstream.Newline {
	return l.newline
}

// Compression returns the compression the stored bytes used.
func (l *Loader) Compression() vfs.Compression {
	return l.compression
}

// Digest returns the digest of the stored bytes.
func (l *Loader) Digest() vfs.Digest {
	return l.digest
}

// BytesRead returns the number of stored bytes read.
func (l *Loader) BytesRead() int64 {
	if l.raw == nil {
		return 0
	}
	return l.raw.Count()
}

// Fallbacks returns the number of characters that could not be decoded and
// were replaced with U+FFFD.
func (l *Loader) Fallbacks() int {
	return l.fallbacks
}

func (l *Loader) open() {
	if l.interrupted() || !l.resolve() {
		return
	}
	l.setState(StateOpening)
	step(&l.session, func(ctx context.Context) (io.ReadCloser, error) {
		return l.backend.Open(ctx, l.loc)
	}, l.opened)
}

func (l *Loader) opened(r io.ReadCloser, err error) {
	if err != nil {
		if l.shouldMount(err) {
			l.mount(l.open)
			return
		}
		l.fail(err)
		return
	}
	l.raw = vfs.NewHashReader(r)
	l.queryInfo()
}

func (l *Loader) queryInfo() {
	if l.interrupted() {
		return
	}
	l.setState(StateQueryingInfo)
	step(&l.session, func(ctx context.Context) (vfs.FileInfo, error) {
		return l.backend.QueryInfo(ctx, l.loc)
	}, l.queried)
}

func (l *Loader) queried(info vfs.FileInfo, err error) {
	if err != nil {
		if l.shouldMount(err) {
			l.mount(l.queryInfo)
			return
		}
		l.fail(err)
		return
	}
	if !info.IsRegular() {
		l.fail(&vfs.PathError{Op: "stat", Path: l.loc.String(), Err: vfs.ErrNotRegularFile})
		return
	}
	if l.opts.maxSize > 0 && info.Size > l.opts.maxSize {
		l.fail(&vfs.PathError{Op: "stat", Path: l.loc.String(),
			Err: fmt.Errorf("%w: %d bytes exceeds limit of %d", vfs.ErrTooBig, info.Size, l.opts.maxSize)})
		return
	}
	l.info = info
	l.log.Debug("info", slog.Int64("bytes", info.Size), slog.String("content_type", info.ContentType))
	l.startReading()
}

type decompressed struct {
	rc io.ReadCloser
	c  vfs.Compression
}

func (l *Loader) startReading() {
	if l.interrupted() {
		return
	}
	l.setState(StateReading)
	raw := l.raw
	step(&l.session, func(context.Context) (decompressed, error) {
		rc, c, err := vfs.Decompress(raw)
		return decompressed{rc, c}, err
	}, func(d decompressed, err error) {
		if err != nil {
			l.fail(err)
			return
		}
		l.stream = d.rc
		l.compression = d.c

		if l.explicit != nil {
			l.guesser = textstream.NewExplicitGuesser(l.explicit)
		} else {
			l.guesser = textstream.NewGuesser(l.opts.candidateList())
		}
		l.decoder = textstream.NewDecodeReader(l.stream, l.guesser, l.opts.chunkSize)
		l.chunk = make([]byte, l.opts.chunkSize)

		l.sink = textstream.NewSink(l.buf, 0)
		if n := l.buf.Len(); n > 0 {
			if err := l.buf.Delete(0, n); err != nil {
				l.fail(err)
				return
			}
		}
		l.read()
	})
}

func (l *Loader) read() {
	if l.interrupted() {
		return
	}
	dec, chunk := l.decoder, l.chunk
	step(&l.session, func(context.Context) (int, error) {
		return dec.Read(chunk)
	}, l.readDone)
}

func (l *Loader) readDone(n int, err error) {
	if n > 0 {
		if _, werr := l.sink.Write(l.chunk[:n]); werr != nil {
			l.fail(werr)
			return
		}
		l.progress(l.raw.Count(), l.info.Size)
	}
	switch {
	case errors.Is(err, io.EOF):
		l.complete()
	case err != nil:
		l.fail(err)
	default:
		l.read()
	}
}

func (l *Loader) complete() {
	if l.interrupted() {
		return
	}
	if err := l.sink.Close(); err != nil {
		l.fail(err)
		return
	}
	l.encoding = l.decoder.Encoding()
	l.newline = l.sink.Newline()
	l.fallbacks = l.decoder.Fallbacks()

	stream := l.stream
	l.stream = nil
	step(&l.session, func(context.Context) (struct{}, error) {
		return struct{}{}, stream.Close()
	}, func(_ struct{}, err error) {
		if err != nil {
			l.fail(err)
			return
		}
		l.digest = l.raw.Digest()
		l.placeCursor()
		l.log.Debug("loaded",
			slog.Int64("bytes", l.raw.Count()),
			slog.String("encoding", l.encoding.Charset()),
			slog.String("newline", l.newline.String()),
			slog.String("compression", l.compression.String()))

		if l.fallbacks > 0 {
			l.finish(fmt.Errorf("%w: %d replaced", ErrConversionFallback, l.fallbacks))
			return
		}
		l.finish(nil)
	})
}

func (l *Loader) placeCursor() {
	if l.opts.initialLine <= 0 {
		l.buf.PlaceCursor(0)
		return
	}
	l.buf.PlaceCursor(l.buf.LineStartOffset(l.opts.initialLine - 1))
}

// release frees whatever the session still holds when it ends.
func (l *Loader) release() {
	if l.sink != nil {
		l.sink.Abort()
	}
	switch {
	case l.stream != nil:
		l.stream.Close()
		l.stream = nil
	case l.raw != nil && l.decoder == nil:
		l.raw.Close()
	}
}
