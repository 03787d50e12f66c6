package vfs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	content := strings.Repeat("line of text with some repetition\n", 200)

	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			m := NewMemBackend(WithMaxWrite(7))
			loc := MustParseLocation("mem:///doc")
			ctx := context.Background()

			rw, err := m.Replace(ctx, loc, ReplaceOptions{})
			if err != nil {
				t.Fatal(err)
			}
			w, err := Compress(rw, c)
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			if _, err := FullWriter(w).Write([]byte(content)); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := w.Close(ctx); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			stored, _ := m.File("/doc")
			if got := DetectCompression(stored); got != c {
				t.Errorf("DetectCompression() = %v, want %v", got, c)
			}

			r, err := m.Open(ctx, loc)
			if err != nil {
				t.Fatal(err)
			}
			dr, detected, err := Decompress(r)
			if err != nil {
				t.Fatalf("Decompress() error = %v", err)
			}
			defer dr.Close()
			if detected != c {
				t.Errorf("Decompress() detected %v, want %v", detected, c)
			}
			got, err := io.ReadAll(dr)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != content {
				t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(content))
			}
		})
	}
}

func TestCompressDiscard(t *testing.T) {
	m := NewMemBackend()
	m.SetFile("/doc", []byte("original"))
	loc := MustParseLocation("mem:///doc")

	rw, _ := m.Replace(context.Background(), loc, ReplaceOptions{})
	w, err := Compress(rw, CompressionGzip)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("replacement"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Close(ctx)

	if got, _ := m.File("/doc"); !bytes.Equal(got, []byte("original")) {
		t.Errorf("content = %q, want original", got)
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{"", CompressionNone, false},
		{"gz", CompressionGzip, false},
		{"zstd", CompressionZstd, false},
		{"lz4", CompressionLZ4, false},
		{"bzip2", CompressionNone, true},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCompression(%q) = %v, %v", tt.in, got, err)
		}
	}
}
