package vfs

import (
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"
)

// Digest is the BLAKE3-256 hash of a file's stored bytes.
type Digest [32]byte

// String returns the digest in hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is unset.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// SumBytes returns the digest of b.
func SumBytes(b []byte) Digest {
	return Digest(blake3.Sum256(b))
}

// SumReader reads r to the end and returns the digest and byte count.
func SumReader(r io.Reader) (Digest, int64, error) {
	h := blake3.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return Digest{}, n, err
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, n, nil
}

// HashReader counts and hashes the bytes read through it.
type HashReader struct {
	rc io.ReadCloser
	h  *blake3.Hasher
	n  int64
}

// NewHashReader wraps rc. Closing the HashReader closes rc.
func NewHashReader(rc io.ReadCloser) *HashReader {
	return &HashReader{rc: rc, h: blake3.New()}
}

func (r *HashReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if n > 0 {
		r.h.Write(p[:n])
		r.n += int64(n)
	}
	return n, err
}

func (r *HashReader) Close() error {
	return r.rc.Close()
}

// Count returns the number of bytes read.
func (r *HashReader) Count() int64 {
	return r.n
}

// Digest returns the digest of the bytes read so far.
func (r *HashReader) Digest() Digest {
	var d Digest
	copy(d[:], r.h.Sum(nil))
	return d
}

// HashWriter counts and hashes the bytes written through it to a
// ReplaceWriter.
type HashWriter struct {
	ReplaceWriter
	h *blake3.Hasher
	n int64
}

// NewHashWriter wraps w.
func NewHashWriter(w ReplaceWriter) *HashWriter {
	return &HashWriter{ReplaceWriter: w, h: blake3.New()}
}

func (w *HashWriter) Write(p []byte) (int, error) {
	n, err := w.ReplaceWriter.Write(p)
	if n > 0 {
		w.h.Write(p[:n])
		w.n += int64(n)
	}
	return n, err
}

// Count returns the number of bytes accepted by the destination.
func (w *HashWriter) Count() int64 {
	return w.n
}

// Digest returns the digest of the bytes written so far.
func (w *HashWriter) Digest() Digest {
	var d Digest
	copy(d[:], w.h.Sum(nil))
	return d
}
