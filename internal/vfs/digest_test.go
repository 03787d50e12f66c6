package vfs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestSumReader(t *testing.T) {
	content := "hello, world\n"
	d, n, err := SumReader(strings.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(content)) {
		t.Errorf("SumReader() n = %d, want %d", n, len(content))
	}
	if d != SumBytes([]byte(content)) {
		t.Error("SumReader() and SumBytes() disagree")
	}
	if d.IsZero() {
		t.Error("IsZero() = true for a computed digest")
	}
	if got := len(d.String()); got != 64 {
		t.Errorf("len(String()) = %d, want 64", got)
	}
}

func TestHashReader(t *testing.T) {
	content := []byte("some file content")
	r := NewHashReader(io.NopCloser(bytes.NewReader(content)))
	if _, err := io.Copy(io.Discard, r); err != nil {
		t.Fatal(err)
	}
	if got := r.Count(); got != int64(len(content)) {
		t.Errorf("Count() = %d, want %d", got, len(content))
	}
	if r.Digest() != SumBytes(content) {
		t.Error("Digest() does not match SumBytes()")
	}
}

func TestHashWriter(t *testing.T) {
	ctx := context.Background()
	m := NewMemBackend(WithMaxWrite(3))
	loc := MustParseLocation("file:///hash.txt")
	rw, err := m.Replace(ctx, loc, ReplaceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	w := NewHashWriter(rw)
	if _, err := FullWriter(w).Write([]byte("abcdefgh")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if got := w.Count(); got != 8 {
		t.Errorf("Count() = %d, want 8", got)
	}
	if w.Digest() != SumBytes([]byte("abcdefgh")) {
		t.Error("Digest() does not match SumBytes()")
	}
}
