package textstream

import "errors"

// Errors returned by the streams.
var (
	// ErrNoSpace is returned by Source.Read when the destination cannot
	// hold a character and a line terminator.
	ErrNoSpace = errors.New("not enough space in destination buffer")

	// ErrInvalidData is returned by Sink.Write for input that is not UTF-8,
	// and by Source.Read for a buffer that is not.
	ErrInvalidData = errors.New("invalid UTF-8 data")

	// ErrIncompleteSequence is returned by Sink.Close when the input ended
	// in the middle of a character.
	ErrIncompleteSequence = errors.New("incomplete UTF-8 sequence at end of input")

	// ErrEncodingDetectionFailed is returned by Guesser.Guess when no
	// candidate converts the input cleanly.
	ErrEncodingDetectionFailed = errors.New("could not detect character encoding")

	// ErrNoCandidates is returned when a guesser has nothing to try.
	ErrNoCandidates = errors.New("no candidate encodings")

	// ErrClosed is returned when a closed stream is used.
	ErrClosed = errors.New("stream is closed")
)
