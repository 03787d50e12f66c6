package textstream

import (
	"errors"
	"testing"

	"github.com/dshills/docio/internal/engine/buffer"
)

// writeChunks writes in through a new Sink in chunks of n bytes.
func writeChunks(t *testing.T, buf *buffer.Buffer, in string, n int) (*Sink, error) {
	t.Helper()
	sink := NewSink(buf, buf.Len())
	data := []byte(in)
	for len(data) > 0 {
		k := min(n, len(data))
		if _, err := sink.Write(data[:k]); err != nil {
			return sink, err
		}
		data = data[k:]
	}
	return sink, nil
}

func TestSinkWrite(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		chunk       int
		want        string
		wantNewline Newline
	}{
		{"lone crlf", "\r\n", 2, "", NewlineCRLF},
		{"crlf lines", "hello\r\nhow\r\nare\r\nyou\r\n", 2, "hello\r\nhow\r\nare\r\nyou", NewlineCRLF},
		{"crlf split by every chunk", "a\r\nb\r\n", 1, "a\r\nb", NewlineCRLF},
		{"big char", "\343\203\200\343\203\200", 2, "ダダ", NewlineLF},
		{"big char one byte at a time", "x日本\n", 1, "x日本", NewlineLF},
		{"cr lines", "a\rb\r", 3, "a\rb", NewlineCR},
		{"lf lines", "one\ntwo\n", 64, "one\ntwo", NewlineLF},
		{"no final newline", "one\ntwo", 64, "one\ntwo", NewlineLF},
		{"only newline", "\n", 64, "", NewlineLF},
		{"two newlines", "\n\n", 64, "\n", NewlineLF},
		{"three crlf", "\r\n\r\n\r\n", 4, "\r\n\r\n", NewlineCRLF},
		{"empty", "", 64, "", NewlineLF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := buffer.NewBuffer()
			sink, err := writeChunks(t, buf, tt.in, tt.chunk)
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := sink.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			if got := buf.Text(); got != tt.want {
				t.Errorf("buffer = %q, want %q", got, tt.want)
			}
			if sink.Newline() != tt.wantNewline {
				t.Errorf("Newline() = %v, want %v", sink.Newline(), tt.wantNewline)
			}
			if buf.Modified() {
				t.Error("buffer modified after Close")
			}
			if buf.MarkCount() != 0 {
				t.Errorf("MarkCount() = %d after Close", buf.MarkCount())
			}
		})
	}
}

func TestSinkInvalidData(t *testing.T) {
	buf := buffer.NewBuffer()
	sink := NewSink(buf, 0)
	defer sink.Close()

	if _, err := sink.Write([]byte("abc\xffdef")); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Write() error = %v, want ErrInvalidData", err)
	}
}

func TestSinkIncompleteSequence(t *testing.T) {
	buf := buffer.NewBuffer()
	sink := NewSink(buf, 0)

	if _, err := sink.Write([]byte("abc\xe6\x96")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := buf.Text(); got != "abc" {
		t.Errorf("buffer = %q, want %q", got, "abc")
	}
	if err := sink.Close(); !errors.Is(err, ErrIncompleteSequence) {
		t.Errorf("Close() error = %v, want ErrIncompleteSequence", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSinkNotUndoable(t *testing.T) {
	buf := buffer.NewBuffer()
	if _, err := buf.Insert(0, "typed"); err != nil {
		t.Fatal(err)
	}

	sink := NewSink(buf, 0)
	if _, err := sink.Write([]byte("loaded\n")); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	if got := buf.Text(); got != "loadedtyped" {
		t.Errorf("buffer = %q", got)
	}
	if buf.CanUndo() {
		t.Error("load left undo history behind")
	}
}

func TestSinkWriteAfterClose(t *testing.T) {
	sink := NewSink(buffer.NewBuffer(), 0)
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := sink.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after Close error = %v, want ErrClosed", err)
	}
}

func TestSinkAbort(t *testing.T) {
	buf := buffer.NewBuffer()
	sink := NewSink(buf, 0)
	if _, err := sink.Write([]byte("partial\n")); err != nil {
		t.Fatal(err)
	}
	sink.Abort()
	sink.Abort()

	if got := buf.Text(); got != "partial\n" {
		t.Errorf("buffer = %q, want %q", got, "partial\n")
	}
	if !buf.Modified() {
		t.Error("Abort() cleared the modified flag")
	}
	if got := buf.MarkCount(); got != 0 {
		t.Errorf("MarkCount() = %d, want 0", got)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close() after Abort error = %v", err)
	}
}
