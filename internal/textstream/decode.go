package textstream

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/text/transform"

	"github.com/dshills/docio/internal/charset"
)

// DecodeReader converts a byte stream to UTF-8. The first Read pulls a lead
// block from the underlying reader, hands it to the Guesser, and from then on
// every byte goes through the chosen encoding's decoder.
type DecodeReader struct {
	r        io.Reader
	guesser  *Guesser
	leadSize int

	dec *charset.Decoder
	out io.Reader
	err error
}

// NewDecodeReader returns a DecodeReader that guesses from the first
// leadSize bytes of r.
func NewDecodeReader(r io.Reader, g *Guesser, leadSize int) *DecodeReader {
	if leadSize < charset.MaxSequenceLen {
		leadSize = charset.MaxSequenceLen
	}
	return &DecodeReader{r: r, guesser: g, leadSize: leadSize}
}

// Read implements io.Reader.
func (d *DecodeReader) Read(p []byte) (int, error) {
	if d.out == nil {
		if d.err == nil {
			d.err = d.start()
		}
		if d.err != nil {
			return 0, d.err
		}
	}
	return d.out.Read(p)
}

func (d *DecodeReader) start() error {
	lead := make([]byte, d.leadSize)
	n, err := io.ReadFull(d.r, lead)
	atEOF := false
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		atEOF = true
	case err != nil:
		return err
	}
	lead = lead[:n]

	enc, err := d.guesser.Guess(lead, atEOF)
	if err != nil {
		return err
	}

	d.dec = enc.NewDecoder()
	d.out = transform.NewReader(io.MultiReader(bytes.NewReader(lead), d.r), d.dec)
	return nil
}

// Encoding returns the chosen encoding, or nil before the first Read.
func (d *DecodeReader) Encoding() *charset.Encoding {
	return d.guesser.Chosen()
}

// Fallbacks returns the number of characters replaced with U+FFFD so far.
func (d *DecodeReader) Fallbacks() int {
	if d.dec == nil {
		return 0
	}
	return d.dec.Fallbacks()
}
