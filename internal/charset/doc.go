// Package charset names the character encodings documents can be loaded from
// and saved to, and builds the transformers that convert between them and
// UTF-8.
//
// Encodings are identified by their charset name ("UTF-8", "ISO-8859-15",
// "WINDOWS-1252"). Lookup accepts common aliases and falls back to the IANA
// and WHATWG registries for names outside the built-in table.
//
// UTF-8 is the buffer encoding, so its decoder only strips a leading byte
// order mark and its encoder is the identity transform. Every other encoding
// decodes through golang.org/x/text and reports how many characters had to be
// replaced with U+FFFD.
package charset
