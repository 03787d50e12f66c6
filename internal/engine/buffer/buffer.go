package buffer

import (
	"errors"
	"sync"
	"unicode/utf8"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrInvalidUTF8      = errors.New("text is not valid UTF-8")
	ErrUnknownMark      = errors.New("unknown mark")
	ErrNothingToUndo    = errors.New("nothing to undo")
)

// Buffer is an editable UTF-8 text buffer.
type Buffer struct {
	mu         sync.RWMutex
	data       []byte
	revisionID RevisionID
	modified   bool
	cursor     ByteOffset

	marks    map[MarkID]*mark
	nextMark MarkID

	history     []change
	maxUndo     int
	notUndoable int
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		revisionID: NewRevisionID(),
		marks:      make(map[MarkID]*mark),
		maxUndo:    1000,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewBufferFromString creates a buffer with initial content.
// The buffer starts unmodified with empty undo history.
//
// s must be valid UTF-8. Unlike Insert, the content is not checked.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.data = []byte(s)
	return b
}

// Read Operations

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.data)
}

// TextRange returns text in the given byte range.
// The range is clamped to the buffer.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start, end = b.clamp(start), b.clamp(end)
	if start >= end {
		return ""
	}
	return string(b.data[start:end])
}

// CopyRange copies bytes from [start, end) into dst and returns the number of
// bytes copied. It copies at most len(dst) bytes.
func (b *Buffer) CopyRange(dst []byte, start, end ByteOffset) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start, end = b.clamp(start), b.clamp(end)
	if start >= end {
		return 0
	}
	return copy(dst, b.data[start:end])
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.data))
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// ByteAt returns the byte at the given offset.
func (b *Buffer) ByteAt(offset ByteOffset) (byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset < 0 || offset >= ByteOffset(len(b.data)) {
		return 0, false
	}
	return b.data[offset], true
}

// LineCount returns the number of lines. A trailing terminator starts a
// final empty line, so "a\n" has two lines.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 1
	for i := 0; i < len(b.data); i++ {
		switch b.data[i] {
		case '\r':
			if i+1 < len(b.data) && b.data[i+1] == '\n' {
				i++
			}
			count++
		case '\n':
			count++
		}
	}
	return count
}

// LineStartOffset returns the byte offset of the start of a 0-indexed line.
// Lines past the end return the buffer length.
func (b *Buffer) LineStartOffset(line int) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if line <= 0 {
		return 0
	}
	for i := 0; i < len(b.data); i++ {
		switch b.data[i] {
		case '\r':
			if i+1 < len(b.data) && b.data[i+1] == '\n' {
				i++
			}
		case '\n':
		default:
			continue
		}
		line--
		if line == 0 {
			return ByteOffset(i + 1)
		}
	}
	return ByteOffset(len(b.data))
}

// LineAt returns the 0-indexed line containing offset.
func (b *Buffer) LineAt(offset ByteOffset) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	end := int(b.clamp(offset))
	line := 0
	for i := 0; i < end; i++ {
		switch b.data[i] {
		case '\r':
			if i+1 < len(b.data) && b.data[i+1] == '\n' {
				if i+1 == end {
					return line
				}
				i++
			}
			line++
		case '\n':
			line++
		}
	}
	return line
}

// LineEnd finds the first line terminator at or after offset. It returns the
// offset where the terminator starts and the offset just past it. When no
// terminator follows, both values equal the buffer length.
func (b *Buffer) LineEnd(offset ByteOffset) (end, next ByteOffset) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := ByteOffset(len(b.data))
	for i := b.clamp(offset); i < n; i++ {
		switch b.data[i] {
		case '\n':
			return i, i + 1
		case '\r':
			if i+1 < n && b.data[i+1] == '\n' {
				return i, i + 2
			}
			return i, i + 1
		}
	}
	return n, n
}

// Write Operations

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > ByteOffset(len(b.data)) {
		return 0, ErrOffsetOutOfRange
	}
	if !utf8.ValidString(text) {
		return 0, ErrInvalidUTF8
	}
	if text == "" {
		return offset, nil
	}

	b.insertLocked(offset, text)
	b.record(change{offset: offset, inserted: text})

	return offset + ByteOffset(len(text)), nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > ByteOffset(len(b.data)) {
		return ErrRangeInvalid
	}
	if start == end {
		return nil
	}

	removed := string(b.data[start:end])
	b.deleteLocked(start, end)
	b.record(change{offset: start, removed: removed})

	return nil
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// Modified reports whether the buffer changed since the flag was last cleared.
func (b *Buffer) Modified() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.modified
}

// SetModified sets the modified flag.
func (b *Buffer) SetModified(modified bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modified = modified
}

// Cursor returns the cursor offset.
func (b *Buffer) Cursor() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// PlaceCursor moves the cursor, clamped to the buffer.
func (b *Buffer) PlaceCursor(offset ByteOffset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = b.clamp(offset)
}

func (b *Buffer) insertLocked(offset ByteOffset, text string) {
	n := ByteOffset(len(text))
	b.data = append(b.data[:offset], append([]byte(text), b.data[offset:]...)...)

	for _, m := range b.marks {
		if m.offset > offset || (m.offset == offset && !m.leftGravity) {
			m.offset += n
		}
	}
	if b.cursor > offset {
		b.cursor += n
	}

	b.revisionID = NewRevisionID()
	b.modified = true
}

func (b *Buffer) deleteLocked(start, end ByteOffset) {
	n := end - start
	b.data = append(b.data[:start], b.data[end:]...)

	for _, m := range b.marks {
		m.offset = shiftForDelete(m.offset, start, end, n)
	}
	b.cursor = shiftForDelete(b.cursor, start, end, n)

	b.revisionID = NewRevisionID()
	b.modified = true
}

func shiftForDelete(off, start, end, n ByteOffset) ByteOffset {
	switch {
	case off >= end:
		return off - n
	case off > start:
		return start
	default:
		return off
	}
}

func (b *Buffer) clamp(off ByteOffset) ByteOffset {
	if off < 0 {
		return 0
	}
	if n := ByteOffset(len(b.data)); off > n {
		return n
	}
	return off
}
