package charset

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// MaxSequenceLen bounds the bytes a partial character may occupy at the end
// of a chunk. It is also the smallest chunk the save stream accepts.
const MaxSequenceLen = 6

// TryDecode converts src to UTF-8 in one shot and reports whether the
// conversion was clean: no conversion errors, no U+FFFD substitutions, and a
// valid UTF-8 result. src may end in the middle of a character; an
// unconverted tail shorter than MaxSequenceLen is tolerated.
func (e *Encoding) TryDecode(src []byte) ([]byte, bool) {
	if e.IsUTF8() {
		return src, utf8.Valid(src)
	}

	t := e.enc.NewDecoder()
	out := make([]byte, 0, 2*len(src)+16)
	buf := make([]byte, 2*len(src)+16)

	for {
		nDst, nSrc, err := t.Transform(buf, src, false)
		out = append(out, buf[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			return out, clean(out)
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				buf = make([]byte, 2*len(buf))
			}
		case errors.Is(err, transform.ErrShortSrc):
			return out, len(src) < MaxSequenceLen && clean(out)
		default:
			return nil, false
		}
	}
}

func clean(b []byte) bool {
	return utf8.Valid(b) && !bytes.Contains(b, replacement)
}
