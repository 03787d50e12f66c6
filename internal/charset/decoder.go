package charset

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

var (
	bomUTF8     = []byte{0xEF, 0xBB, 0xBF}
	replacement = []byte(string(utf8.RuneError))
)

// Decoder converts bytes to UTF-8. For encodings other than UTF-8 it counts
// the U+FFFD characters the conversion produced, which mark input bytes that
// had no mapping.
type Decoder struct {
	t         transform.Transformer
	count     bool
	fallbacks int
}

// Transform implements transform.Transformer.
func (d *Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	nDst, nSrc, err = d.t.Transform(dst, src, atEOF)
	if d.count && nDst > 0 {
		d.fallbacks += bytes.Count(dst[:nDst], replacement)
	}
	return nDst, nSrc, err
}

// Reset implements transform.Transformer.
func (d *Decoder) Reset() {
	d.t.Reset()
	d.fallbacks = 0
}

// Fallbacks returns the number of substituted characters seen so far.
func (d *Decoder) Fallbacks() int {
	return d.fallbacks
}

// bomStripper copies UTF-8 input through, dropping a leading byte order mark.
type bomStripper struct {
	checked bool
}

func (s *bomStripper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if !s.checked {
		if !atEOF && len(src) < len(bomUTF8) && bytes.HasPrefix(bomUTF8, src) {
			return 0, 0, transform.ErrShortSrc
		}
		if bytes.HasPrefix(src, bomUTF8) {
			nSrc = len(bomUTF8)
		}
		s.checked = true
	}

	n := copy(dst, src[nSrc:])
	nDst = n
	nSrc += n
	if nSrc < len(src) {
		err = transform.ErrShortDst
	}
	return nDst, nSrc, err
}

func (s *bomStripper) Reset() {
	s.checked = false
}

// HasUTF8BOM reports whether b starts with a UTF-8 byte order mark.
func HasUTF8BOM(b []byte) bool {
	return bytes.HasPrefix(b, bomUTF8)
}
