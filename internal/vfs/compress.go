package vfs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies a stream compression format.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// String returns the format name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ContentType returns the MIME type of the compressed container.
func (c Compression) ContentType() string {
	switch c {
	case CompressionGzip:
		return "application/gzip"
	case CompressionZstd:
		return "application/zstd"
	case CompressionLZ4:
		return "application/x-lz4"
	default:
		return ""
	}
}

// ParseCompression parses a format name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression: %q", name)
	}
}

// DetectCompression identifies a format from the first bytes of a stream.
func DetectCompression(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(head, magicLZ4):
		return CompressionLZ4
	case bytes.HasPrefix(head, magicGzip):
		return CompressionGzip
	default:
		return CompressionNone
	}
}

// Decompress sniffs r and, if it holds a known compressed format, returns a
// reader of the decompressed content. Closing the result closes r.
func Decompress(r io.ReadCloser) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(magicZstd))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, CompressionNone, err
	}

	c := DetectCompression(head)
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("gzip: %w", err)
		}
		return &decompressReader{Reader: zr, closers: []io.Closer{zr, r}}, c, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("zstd: %w", err)
		}
		return &decompressReader{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), r}}, c, nil
	case CompressionLZ4:
		return &decompressReader{Reader: lz4.NewReader(br), closers: []io.Closer{r}}, c, nil
	default:
		return &decompressReader{Reader: br, closers: []io.Closer{r}}, c, nil
	}
}

type decompressReader struct {
	io.Reader
	closers []io.Closer
}

func (d *decompressReader) Close() error {
	var errs []error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Compress wraps w so that content is compressed with c before it reaches
// the destination. CompressionNone returns w unchanged.
func Compress(w ReplaceWriter, c Compression) (ReplaceWriter, error) {
	full := FullWriter(w)
	var cw io.WriteCloser
	switch c {
	case CompressionNone:
		return w, nil
	case CompressionGzip:
		cw = gzip.NewWriter(full)
	case CompressionZstd:
		zw, err := zstd.NewWriter(full)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		cw = zw
	case CompressionLZ4:
		cw = lz4.NewWriter(full)
	default:
		return nil, fmt.Errorf("unsupported compression: %v", c)
	}
	return &compressWriter{cw: cw, dst: w}, nil
}

type compressWriter struct {
	cw  io.WriteCloser
	dst ReplaceWriter
}

func (w *compressWriter) Write(p []byte) (int, error) {
	return w.cw.Write(p)
}

// Close flushes the compressor and commits, or discards both when ctx is
// done.
func (w *compressWriter) Close(ctx context.Context) error {
	if ctx.Err() != nil {
		return w.dst.Close(ctx)
	}
	if err := w.cw.Close(); err != nil {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		w.dst.Close(cancelled)
		return err
	}
	return w.dst.Close(ctx)
}

// FullWriter returns a writer that retries short writes on w until all of p
// is written or w fails.
func FullWriter(w io.Writer) io.Writer {
	return fullWriter{w}
}

type fullWriter struct {
	w io.Writer
}

func (f fullWriter) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := f.w.Write(p[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}
