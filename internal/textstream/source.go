package textstream

import (
	"io"
	"unicode/utf8"

	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/engine/buffer"
)

// Source reads the content of a buffer as bytes. Every line terminator in
// the buffer ("\n", "\r" or "\r\n") is written as the configured newline
// sequence, and a non-empty buffer gets exactly one extra terminator after
// its last line.
//
// Read never splits a UTF-8 character across calls and needs room for at
// least charset.MaxSequenceLen bytes. Source implements io.ReadCloser.
type Source struct {
	buf        TextBuffer
	newline    Newline
	mark       buffer.MarkID
	read       int64
	finalAdded bool
	closed     bool
}

// NewSource returns a Source positioned at the start of buf. It holds a mark
// in buf until closed.
func NewSource(buf TextBuffer, nl Newline) *Source {
	return &Source{
		buf:     buf,
		newline: nl,
		mark:    buf.CreateMark(0, true),
	}
}

// Read fills p with the next bytes of the buffer. It returns io.EOF once the
// buffer and its final terminator have been produced, and ErrInvalidData when
// the buffer holds a byte run that is not a character.
func (s *Source) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(p) < charset.MaxSequenceLen {
		return 0, ErrNoSpace
	}

	off, err := s.buf.MarkOffset(s.mark)
	if err != nil {
		return 0, err
	}

	seq := s.newline.Sequence()
	n := 0
	for n < len(p) {
		end, next := s.buf.LineEnd(off)

		if off < end {
			cut := off + min(int64(len(p)-n), end-off)
			for cut > off && cut < end {
				if c, _ := s.buf.ByteAt(cut); utf8.RuneStart(c) {
					break
				}
				cut--
			}
			if cut == off {
				if n == 0 {
					return 0, ErrInvalidData
				}
				break
			}
			n += s.buf.CopyRange(p[n:], off, cut)
			off = cut
			continue
		}

		if end < next {
			if len(p)-n < len(seq) {
				break
			}
			n += copy(p[n:], seq)
			off = next
			continue
		}

		if s.buf.Len() > 0 && !s.finalAdded && len(p)-n >= len(seq) {
			n += copy(p[n:], seq)
			s.finalAdded = true
		}
		break
	}

	if err := s.buf.MoveMark(s.mark, off); err != nil {
		return n, err
	}
	s.read += int64(n)

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Tell returns the number of bytes produced so far.
func (s *Source) Tell() int64 {
	return s.read
}

// TotalSize estimates the number of bytes Read will produce. The estimate
// ignores newline rewriting.
func (s *Source) TotalSize() int64 {
	return s.buf.Len()
}

// Close releases the buffer mark. Closing twice is a no-op.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.buf.DeleteMark(s.mark)
	return nil
}
