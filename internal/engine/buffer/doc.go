// Package buffer provides the editable text buffer that documents load into
// and save from.
//
// The buffer stores UTF-8 text verbatim. Line terminators are kept exactly as
// inserted ("\n", "\r" or "\r\n"); converting them to a particular newline
// style is the job of the streams that move text in and out of the buffer.
//
// The package provides:
//
//   - Byte-offset editing (Insert, Delete) with a revision counter
//   - Marks that follow edits, with left or right gravity
//   - A modified flag, cleared by loads and saves
//   - Undo history, with not-undoable actions that reset it
//   - A cursor offset used to honor the initial line of a load
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("hello\n")
//
//	m := buf.CreateMark(buf.Len(), false)
//	buf.Insert(buf.MarkOffset(m), "world\n")
//	buf.DeleteMark(m)
//
//	buf.BeginNotUndoableAction()
//	buf.Delete(0, buf.Len())
//	buf.EndNotUndoableAction()
//
// Thread Safety:
//
// All Buffer methods are safe for concurrent use. The load and save pipeline
// only touches a buffer from its control loop, so contention is not expected.
package buffer
