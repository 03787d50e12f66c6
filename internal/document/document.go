// Package document manages open documents: a text buffer bound to a
// location together with the encoding, newline style and on-disk state
// needed to save it back the way it was read.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/docio"
	"github.com/dshills/docio/internal/engine/buffer"
	"github.com/dshills/docio/internal/metadata"
	"github.com/dshills/docio/internal/textstream"
	"github.com/dshills/docio/internal/vfs"
)

// Metadata persists small per-location values. *metadata.Store implements it.
type Metadata interface {
	Get(loc vfs.Location, key string) (string, bool)
	Set(ctx context.Context, loc vfs.Location, key, value string) error
}

var _ Metadata = (*metadata.Store)(nil)

// LoadOptions control Document.Load and Manager.Open.
type LoadOptions struct {
	// Encoding forces a charset. Nil guesses from the configured
	// candidates, trying the remembered encoding first.
	Encoding *charset.Encoding

	// Line is the 1-based line to place the cursor on. Zero restores the
	// remembered position.
	Line int

	// CreateIfMissing turns a missing file into an empty document.
	CreateIfMissing bool

	// Progress receives bytes read and the file size.
	Progress docio.ProgressFunc
}

// SaveAsOptions describe the bytes written by SaveAs. Zero fields keep the
// document's current settings.
type SaveAsOptions struct {
	Encoding    *charset.Encoding
	Newline     *textstream.Newline
	Compression *vfs.Compression
	Flags       docio.SaveFlags
	Progress    docio.ProgressFunc
}

// Document is a buffer bound to a location.
//
// A Document is not safe for concurrent use. Load and Save block until the
// operation ends.
type Document struct {
	mgr *Manager
	buf *buffer.Buffer

	loc      vfs.Location
	untitled int

	encoding    *charset.Encoding
	newline     textstream.Newline
	compression vfs.Compression
	modTime     time.Time
	digest      vfs.Digest
	readOnly    bool
	external    bool
}

// Buffer returns the document's text buffer.
func (d *Document) Buffer() *buffer.Buffer {
	return d.buf
}

// Location returns the document location. It is zero for untitled documents.
func (d *Document) Location() vfs.Location {
	return d.loc
}

// IsUntitled reports whether the document has never been saved.
func (d *Document) IsUntitled() bool {
	return d.untitled > 0
}

// Name returns a display name.
func (d *Document) Name() string {
	if d.IsUntitled() {
		return fmt.Sprintf("Untitled Document %d", d.untitled)
	}
	return d.loc.Base()
}

// Encoding returns the charset the document is saved with.
func (d *Document) Encoding() *charset.Encoding {
	return d.encoding
}

// SetEncoding changes the charset used by the next Save.
func (d *Document) SetEncoding(enc *charset.Encoding) {
	if enc != nil {
		d.encoding = enc
	}
}

// Newline returns the line terminator style.
func (d *Document) Newline() textstream.Newline {
	return d.newline
}

// SetNewline changes the terminator used by the next Save.
func (d *Document) SetNewline(nl textstream.Newline) {
	d.newline = nl
}

// Compression returns the compression of the stored file.
func (d *Document) Compression() vfs.Compression {
	return d.compression
}

// ModTime returns the modification time seen at the last load or save.
func (d *Document) ModTime() time.Time {
	return d.modTime
}

// Digest returns the digest of the stored bytes at the last load or save.
func (d *Document) Digest() vfs.Digest {
	return d.digest
}

// ReadOnly reports whether the backend refused write access.
func (d *Document) ReadOnly() bool {
	return d.readOnly
}

// Modified reports unsaved changes.
func (d *Document) Modified() bool {
	return d.buf.Modified()
}

// ExternallyChanged reports whether the file changed on disk since the
// last load or save.
func (d *Document) ExternallyChanged() bool {
	return d.external
}

// Load reads the document's location into its buffer. A soft status such
// as docio.ErrConversionFallback is returned with the content loaded.
func (d *Document) Load(ctx context.Context, opts LoadOptions) error {
	if d.IsUntitled() {
		return ErrUntitled
	}
	m := d.mgr
	log := m.log.With(slog.String("location", d.loc.String()))

	dopts := m.sessionOptions(opts.Progress)
	if opts.Encoding == nil {
		if enc := m.rememberedEncoding(d.loc); enc != nil {
			dopts = append(dopts, docio.WithEncodingHint(enc))
		}
	}
	line := opts.Line
	if line == 0 {
		line = m.rememberedLine(d.loc)
	}
	dopts = append(dopts, docio.WithInitialLine(line))

	l := docio.NewLoader(d.buf, d.loc, dopts...)
	err := l.Load(ctx, opts.Encoding)
	if err != nil && !docio.IsSoft(err) {
		if opts.CreateIfMissing && errors.Is(err, vfs.ErrNotFound) {
			log.Debug("new file", slog.String("error", err.Error()))
			d.encoding = opts.Encoding
			if d.encoding == nil {
				d.encoding = charset.UTF8()
			}
			d.newline = m.newline
			return nil
		}
		return err
	}

	d.encoding = l.Encoding()
	d.newline = l.Newline()
	d.compression = l.Compression()
	d.modTime = l.Info().ModTime
	d.digest = l.Digest()
	d.readOnly = !l.Info().Writable
	d.external = false

	m.remember(ctx, d.loc, metadata.KeyEncoding, d.encoding.Charset())
	m.watch(d)
	return err
}

// Save writes the buffer back to its location with the document's
// encoding, newline style and compression.
func (d *Document) Save(ctx context.Context, flags docio.SaveFlags) error {
	if d.IsUntitled() {
		return ErrUntitled
	}
	return d.save(ctx, d.loc, docio.SaveOptions{
		Encoding:    d.encoding,
		Newline:     d.newline,
		Compression: d.compression,
		Flags:       flags,
		PriorMtime:  d.modTime,
	}, nil)
}

// SaveAs writes the buffer to loc and binds the document to it. Saving to a
// new location skips the modification time check.
func (d *Document) SaveAs(ctx context.Context, loc vfs.Location, opts SaveAsOptions) error {
	if loc.Equal(d.loc) {
		so := docio.SaveOptions{Encoding: d.encoding, Newline: d.newline, Compression: d.compression, Flags: opts.Flags, PriorMtime: d.modTime}
		applySaveAs(&so, opts)
		return d.save(ctx, loc, so, opts.Progress)
	}
	if other, ok := d.mgr.Get(loc); ok && other != d {
		return fmt.Errorf("%w: %s", ErrAlreadyOpen, loc)
	}

	so := docio.SaveOptions{
		Encoding:    d.encoding,
		Newline:     d.newline,
		Compression: d.compression,
		Flags:       opts.Flags | docio.SaveIgnoreMtime,
	}
	applySaveAs(&so, opts)
	if err := d.save(ctx, loc, so, opts.Progress); err != nil {
		return err
	}
	return d.mgr.rekey(d, loc)
}

func applySaveAs(so *docio.SaveOptions, opts SaveAsOptions) {
	if opts.Encoding != nil {
		so.Encoding = opts.Encoding
	}
	if opts.Newline != nil {
		so.Newline = *opts.Newline
	}
	if opts.Compression != nil {
		so.Compression = *opts.Compression
	}
}

func (d *Document) save(ctx context.Context, loc vfs.Location, so docio.SaveOptions, progress docio.ProgressFunc) error {
	m := d.mgr
	s := docio.NewSaver(d.buf, loc, so, m.sessionOptions(progress)...)
	if err := s.Save(ctx); err != nil {
		return err
	}

	d.encoding = so.Encoding
	if d.encoding == nil {
		d.encoding = charset.UTF8()
	}
	d.newline = so.Newline
	d.compression = so.Compression
	d.modTime = s.Info().ModTime
	d.digest = s.Digest()
	d.readOnly = !s.Info().Writable
	d.external = false
	d.buf.SetModified(false)

	m.remember(ctx, loc, metadata.KeyEncoding, d.encoding.Charset())
	if loc.Equal(d.loc) {
		m.watch(d)
	}
	return nil
}

// rememberPosition stores the cursor line for the next load.
func (d *Document) rememberPosition(ctx context.Context) {
	if d.IsUntitled() {
		return
	}
	line := d.buf.LineAt(d.buf.Cursor()) + 1
	d.mgr.remember(ctx, d.loc, metadata.KeyPosition, strconv.Itoa(line))
}
