// Package textstream moves text between a buffer and byte streams.
//
// Source reads a buffer as bytes, rewriting every line terminator to a
// chosen newline style and adding one final terminator. Sink is its inverse:
// it inserts decoded UTF-8 into a buffer, carrying incomplete characters and
// a trailing carriage return across writes, then removes the final
// terminator when closed. Guesser picks the charset for a byte stream from an
// ordered list of candidates, and DecodeReader applies it.
//
// None of these types are safe for concurrent use.
package textstream
