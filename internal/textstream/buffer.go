package textstream

import "github.com/dshills/docio/internal/engine/buffer"

// TextBuffer is the buffer the streams read from and write to.
// *buffer.Buffer implements it.
type TextBuffer interface {
	Len() buffer.ByteOffset
	ByteAt(offset buffer.ByteOffset) (byte, bool)
	CopyRange(dst []byte, start, end buffer.ByteOffset) int
	LineEnd(offset buffer.ByteOffset) (end, next buffer.ByteOffset)
	Insert(offset buffer.ByteOffset, text string) (buffer.ByteOffset, error)
	Delete(start, end buffer.ByteOffset) error

	CreateMark(offset buffer.ByteOffset, leftGravity bool) buffer.MarkID
	MarkOffset(id buffer.MarkID) (buffer.ByteOffset, error)
	MoveMark(id buffer.MarkID, offset buffer.ByteOffset) error
	DeleteMark(id buffer.MarkID)

	SetModified(modified bool)
	BeginNotUndoableAction()
	EndNotUndoableAction()
}

var _ TextBuffer = (*buffer.Buffer)(nil)
