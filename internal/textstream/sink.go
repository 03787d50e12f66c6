package textstream

import (
	"unicode/utf8"

	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/engine/buffer"
)

// Sink inserts UTF-8 bytes into a buffer. Writes may split characters and
// "\r\n" pairs at any point; the incomplete tail of a write is held until the
// next one. All inserts happen inside a not-undoable action that ends on
// Close. Sink implements io.WriteCloser.
type Sink struct {
	buf      TextBuffer
	start    buffer.MarkID
	pos      buffer.MarkID
	pending  []byte
	newline  Newline
	detected bool
	written  int64
	closed   bool
}

// NewSink returns a Sink that inserts at pos.
func NewSink(buf TextBuffer, pos buffer.ByteOffset) *Sink {
	buf.BeginNotUndoableAction()
	return &Sink{
		buf:   buf,
		start: buf.CreateMark(pos, true),
		pos:   buf.CreateMark(pos, false),
	}
}

// Write inserts the longest valid UTF-8 prefix of the held bytes followed by
// p. It fails with ErrInvalidData when the rest cannot be the start of a
// character.
func (s *Sink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	data := p
	if len(s.pending) > 0 {
		data = append(s.pending, p...)
		s.pending = nil
	}

	valid := validPrefix(data)
	rest := data[valid:]
	if len(rest) > 0 && !isPartial(rest) {
		return 0, ErrInvalidData
	}

	text := data[:valid]
	var held []byte
	if len(text) > 0 && text[len(text)-1] == '\r' {
		text = text[:len(text)-1]
		held = append(held, '\r')
	}
	if len(held)+len(rest) > 0 {
		s.pending = append(held, rest...)
	}

	if err := s.insert(text); err != nil {
		return 0, err
	}
	s.written += int64(len(p))
	return len(p), nil
}

func (s *Sink) insert(text []byte) error {
	if len(text) == 0 {
		return nil
	}
	if !s.detected {
		if nl, ok := DetectNewline(text); ok {
			s.newline = nl
			s.detected = true
		}
	}

	off, err := s.buf.MarkOffset(s.pos)
	if err != nil {
		return err
	}
	_, err = s.buf.Insert(off, string(text))
	return err
}

// Newline returns the style of the first line terminator written, or
// NewlineLF if none was seen.
func (s *Sink) Newline() Newline {
	return s.newline
}

// Written returns the number of bytes accepted by Write.
func (s *Sink) Written() int64 {
	return s.written
}

// Close flushes a held carriage return and ends the not-undoable action. If
// the input ended inside a character it returns ErrIncompleteSequence.
// Otherwise it removes the final line terminator, which the saving side
// always adds, and clears the buffer's modified flag.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer func() {
		s.buf.DeleteMark(s.start)
		s.buf.DeleteMark(s.pos)
		s.buf.EndNotUndoableAction()
	}()

	if len(s.pending) > 0 && s.pending[0] == '\r' {
		if err := s.insert([]byte{'\r'}); err != nil {
			return err
		}
		if !s.detected {
			s.newline = NewlineCR
			s.detected = true
		}
		s.pending = s.pending[1:]
	}
	if len(s.pending) > 0 {
		return ErrIncompleteSequence
	}

	if err := s.stripFinalTerminator(); err != nil {
		return err
	}
	s.buf.SetModified(false)
	return nil
}

// Abort ends the not-undoable action without touching the inserted text or
// the modified flag. It is used when a load fails part way through. Abort
// after Close is a no-op.
func (s *Sink) Abort() {
	if s.closed {
		return
	}
	s.closed = true
	s.pending = nil
	s.buf.DeleteMark(s.start)
	s.buf.DeleteMark(s.pos)
	s.buf.EndNotUndoableAction()
}

func (s *Sink) stripFinalTerminator() error {
	start, err := s.buf.MarkOffset(s.start)
	if err != nil {
		return err
	}
	end, err := s.buf.MarkOffset(s.pos)
	if err != nil {
		return err
	}
	if end <= start {
		return nil
	}

	last, _ := s.buf.ByteAt(end - 1)
	switch last {
	case '\n':
		if end-2 >= start {
			if prev, _ := s.buf.ByteAt(end - 2); prev == '\r' {
				return s.buf.Delete(end-2, end)
			}
		}
		return s.buf.Delete(end-1, end)
	case '\r':
		return s.buf.Delete(end-1, end)
	}
	return nil
}

// validPrefix returns the length of the longest valid UTF-8 prefix of b.
func validPrefix(b []byte) int {
	i := 0
	for i < len(b) {
		if b[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		i += size
	}
	return i
}

// isPartial reports whether b could be the start of a character that
// continues in later input.
func isPartial(b []byte) bool {
	return len(b) < charset.MaxSequenceLen && !utf8.FullRune(b)
}
