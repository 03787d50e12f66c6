// Package docio loads documents from storage into a text buffer and saves
// them back.
//
// A Loader and a Saver are single-use state machines. Each I/O step (open,
// stat, mount, read, write, close) runs on a background goroutine and its
// completion resumes the machine on an async.Loop, so the buffer is only
// touched from the loop's goroutine. Every session ends with exactly one
// terminal event: the error passed to the done callback of Start, or the
// error returned by the blocking Load and Save helpers.
//
// Loading:
//
//	Idle → Opening → QueryingInfo → Reading → Completed | Failed | Cancelled
//
// A NotMounted error while opening or querying info triggers a single
// mount attempt through the configured MountOperationFactory; the step is
// then retried once.
//
// Saving:
//
//	Idle → CheckingConflict → Opening → Writing → Closing → QueryingInfo → Completed | Failed
//
// The destination is written through an atomic replace. When writing or
// closing fails, the replace is discarded so the previous file content is
// left untouched.
package docio
