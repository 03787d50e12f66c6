package textstream

import "github.com/dshills/docio/internal/charset"

// Guesser chooses the charset of a byte stream from an ordered candidate
// list by trial-converting the first block of the stream.
type Guesser struct {
	candidates []*charset.Encoding
	explicit   bool
	chosen     *charset.Encoding
	trials     int
}

// NewGuesser returns a Guesser that tries candidates in order.
func NewGuesser(candidates []*charset.Encoding) *Guesser {
	return &Guesser{candidates: candidates}
}

// NewExplicitGuesser returns a Guesser that always chooses enc.
func NewExplicitGuesser(enc *charset.Encoding) *Guesser {
	return &Guesser{candidates: []*charset.Encoding{enc}, explicit: true}
}

// Guess chooses an encoding for a stream starting with lead. atEOF reports
// that lead is the whole stream. Once an encoding is chosen, Guess returns it
// without looking at lead again.
//
// An explicit encoding, or a single candidate, is chosen without a trial.
// Otherwise UTF-8 is accepted when lead is valid or ends in what can only be
// a split character, and any other candidate is accepted when it converts
// lead without errors or substitutions.
func (g *Guesser) Guess(lead []byte, atEOF bool) (*charset.Encoding, error) {
	if g.chosen != nil {
		return g.chosen, nil
	}
	if len(g.candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if g.explicit || len(g.candidates) == 1 {
		g.chosen = g.candidates[0]
		return g.chosen, nil
	}

	for _, c := range g.candidates {
		g.trials++
		if c.IsUTF8() {
			if utf8Acceptable(lead, atEOF) {
				g.chosen = c
				return c, nil
			}
			continue
		}
		if _, ok := c.TryDecode(lead); ok {
			g.chosen = c
			return c, nil
		}
	}
	return nil, ErrEncodingDetectionFailed
}

func utf8Acceptable(lead []byte, atEOF bool) bool {
	n := validPrefix(lead)
	if n == len(lead) {
		return true
	}
	return !atEOF && isPartial(lead[n:])
}

// Chosen returns the chosen encoding, or nil before a successful Guess.
func (g *Guesser) Chosen() *charset.Encoding {
	return g.chosen
}

// Trials returns how many candidates were examined by Guess.
func (g *Guesser) Trials() int {
	return g.trials
}

// Candidates returns the candidate list.
func (g *Guesser) Candidates() []*charset.Encoding {
	return g.candidates
}

// Reset forgets the chosen encoding so the Guesser can be reused.
func (g *Guesser) Reset() {
	g.chosen = nil
	g.trials = 0
}

