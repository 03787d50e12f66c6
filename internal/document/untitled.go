package document

import "math/bits"

// untitledSet hands out the smallest unused positive number. It backs the
// "Untitled Document N" names.
type untitledSet struct {
	words []uint64
}

// acquire returns the smallest positive number not in use and marks it used.
func (s *untitledSet) acquire() int {
	for i, w := range s.words {
		if w != ^uint64(0) {
			bit := bits.TrailingZeros64(^w)
			s.words[i] |= 1 << bit
			return i*64 + bit + 1
		}
	}
	s.words = append(s.words, 1)
	return (len(s.words)-1)*64 + 1
}

// release returns n to the pool. Unknown numbers are ignored.
func (s *untitledSet) release(n int) {
	if n <= 0 {
		return
	}
	i, bit := (n-1)/64, (n-1)%64
	if i >= len(s.words) {
		return
	}
	s.words[i] &^= 1 << bit
	for len(s.words) > 0 && s.words[len(s.words)-1] == 0 {
		s.words = s.words[:len(s.words)-1]
	}
}

// inUse reports whether n is currently handed out.
func (s *untitledSet) inUse(n int) bool {
	if n <= 0 {
		return false
	}
	i, bit := (n-1)/64, (n-1)%64
	return i < len(s.words) && s.words[i]&(1<<bit) != 0
}
