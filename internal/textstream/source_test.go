package textstream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dshills/docio/internal/engine/buffer"
)

// readChunks reads src to EOF with reads of size n and returns the chunks.
func readChunks(t *testing.T, src *Source, n int) [][]byte {
	t.Helper()
	var chunks [][]byte
	for {
		p := make([]byte, n)
		got, err := src.Read(p)
		if errors.Is(err, io.EOF) {
			return chunks
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got == 0 {
			t.Fatal("Read() returned 0 bytes without error")
		}
		chunks = append(chunks, p[:got])
	}
}

func TestSourceRead(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		newline Newline
		chunk   int
		want    string
	}{
		{"lf to crlf", "\nfo\nbar\n\nblah\n", NewlineCRLF, 8, "\r\nfo\r\nbar\r\n\r\nblah\r\n\r\n"},
		{"cr to lf", "\rfo\rbar\r\rblah\r", NewlineLF, 200, "\nfo\nbar\n\nblah\n\n"},
		{"multibyte to cr", "hello\nhello\xe6\x96\x87\nworld\n", NewlineCR, 6, "hello\rhello文\rworld\r\r"},
		{"crlf to lf", "a\r\nb\r\n", NewlineLF, 6, "a\nb\n\n"},
		{"no trailing newline", "abc", NewlineLF, 64, "abc\n"},
		{"empty", "", NewlineCRLF, 64, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSource(buffer.NewBufferFromString(tt.text), tt.newline)
			defer src.Close()

			got := bytes.Join(readChunks(t, src, tt.chunk), nil)
			if string(got) != tt.want {
				t.Errorf("Read() = %q, want %q", got, tt.want)
			}
			if src.Tell() != int64(len(tt.want)) {
				t.Errorf("Tell() = %d, want %d", src.Tell(), len(tt.want))
			}
		})
	}
}

func TestSourceChunkSizes(t *testing.T) {
	text := strings.Repeat("ascii line\r\nzwölf Äpfel\n日本語のテキスト\r🙂 emoji\n\n", 7)

	for _, nl := range []Newline{NewlineLF, NewlineCR, NewlineCRLF} {
		whole := NewSource(buffer.NewBufferFromString(text), nl)
		want := bytes.Join(readChunks(t, whole, 1<<16), nil)
		whole.Close()

		for size := 6; size <= 64; size++ {
			src := NewSource(buffer.NewBufferFromString(text), nl)
			chunks := readChunks(t, src, size)
			src.Close()

			for i, c := range chunks {
				if !utf8.Valid(c) {
					t.Fatalf("newline %v size %d: chunk %d splits a character: %q", nl, size, i, c)
				}
			}
			if got := bytes.Join(chunks, nil); !bytes.Equal(got, want) {
				t.Fatalf("newline %v size %d: chunked read differs\ngot  %q\nwant %q", nl, size, got, want)
			}
		}
	}
}

func TestSourceNoSpace(t *testing.T) {
	src := NewSource(buffer.NewBufferFromString("hello"), NewlineLF)
	defer src.Close()

	if _, err := src.Read(make([]byte, 5)); !errors.Is(err, ErrNoSpace) {
		t.Errorf("Read(5 bytes) error = %v, want ErrNoSpace", err)
	}
}

func TestSourceInvalidContent(t *testing.T) {
	src := NewSource(buffer.NewBufferFromString("ab\x80\x80\x80\x80\x80\x80\x80\x80cd\n"), NewlineLF)
	defer src.Close()

	var out []byte
	var err error
	for range 16 {
		p := make([]byte, 6)
		var n int
		n, err = src.Read(p)
		out = append(out, p[:n]...)
		if err != nil {
			break
		}
	}
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("Read() error = %v after %q, want ErrInvalidData", err, out)
	}
	if string(out) != "a" {
		t.Errorf("Read() = %q before the error, want %q", out, "a")
	}
}

func TestSourceCloseIdempotent(t *testing.T) {
	buf := buffer.NewBufferFromString("line\n")
	src := NewSource(buf, NewlineLF)

	if buf.MarkCount() != 1 {
		t.Fatalf("MarkCount() = %d, want 1 while open", buf.MarkCount())
	}

	got := bytes.Join(readChunks(t, src, 64), nil)
	if string(got) != "line\n\n" {
		t.Fatalf("Read() = %q", got)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if buf.MarkCount() != 0 {
		t.Errorf("MarkCount() = %d after Close, want 0", buf.MarkCount())
	}
	if src.Tell() != int64(len("line\n\n")) {
		t.Errorf("Tell() = %d after Close", src.Tell())
	}
	if _, err := src.Read(make([]byte, 64)); !errors.Is(err, ErrClosed) {
		t.Errorf("Read() after Close error = %v, want ErrClosed", err)
	}
}

func TestSourceFollowsEdits(t *testing.T) {
	buf := buffer.NewBufferFromString("abcdef\n")
	src := NewSource(buf, NewlineLF)
	defer src.Close()

	first := make([]byte, 6)
	if _, err := src.Read(first); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Insert(0, "XX"); err != nil {
		t.Fatal(err)
	}

	rest := bytes.Join(readChunks(t, src, 64), nil)
	if string(rest) != "\n\n" {
		t.Errorf("Read() after edit = %q, want %q", rest, "\n\n")
	}
}
