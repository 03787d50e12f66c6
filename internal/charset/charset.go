package charset

import (
	"errors"
	"fmt"

	gdenc "github.com/gdamore/encoding"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned when a charset name cannot be resolved.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Encoding is a named character encoding.
type Encoding struct {
	charset string
	name    string
	enc     encoding.Encoding
	bom     bool
}

// Charset returns the canonical charset name, e.g. "ISO-8859-15".
func (e *Encoding) Charset() string {
	return e.charset
}

// Name returns the human readable name, e.g. "Western".
func (e *Encoding) Name() string {
	return e.name
}

// String returns "Name (CHARSET)".
func (e *Encoding) String() string {
	if e.name == "" {
		return e.charset
	}
	return fmt.Sprintf("%s (%s)", e.name, e.charset)
}

// IsUTF8 reports whether the encoding stores text as UTF-8, with or without
// a byte order mark.
func (e *Encoding) IsUTF8() bool {
	return e.enc == nil || e.bom
}

// WritesBOM reports whether the encoder emits a UTF-8 byte order mark.
func (e *Encoding) WritesBOM() bool {
	return e.bom
}

// Equal reports whether two encodings name the same charset.
func (e *Encoding) Equal(other *Encoding) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.charset == other.charset
}

// NewDecoder returns a transformer from this encoding to UTF-8.
func (e *Encoding) NewDecoder() *Decoder {
	if e.IsUTF8() {
		return &Decoder{t: &bomStripper{}}
	}
	return &Decoder{t: e.enc.NewDecoder(), count: true}
}

// NewEncoder returns a transformer from UTF-8 to this encoding.
func (e *Encoding) NewEncoder() transform.Transformer {
	switch {
	case e.bom:
		return unicode.UTF8BOM.NewEncoder()
	case e.enc == nil:
		return transform.Nop
	default:
		return e.enc.NewEncoder()
	}
}

var utf8Encoding = &Encoding{charset: "UTF-8", name: "Unicode"}

// UTF8 returns the UTF-8 encoding.
func UTF8() *Encoding {
	return utf8Encoding
}

// table lists the built-in encodings in display order.
var table = []*Encoding{
	utf8Encoding,
	{charset: "UTF-8-BOM", name: "Unicode", enc: unicode.UTF8BOM, bom: true},
	{charset: "UTF-16", name: "Unicode", enc: unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
	{charset: "UTF-16BE", name: "Unicode", enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
	{charset: "UTF-16LE", name: "Unicode", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{charset: "UTF-32", name: "Unicode", enc: utf32.UTF32(utf32.BigEndian, utf32.UseBOM)},
	{charset: "UTF-32BE", name: "Unicode", enc: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
	{charset: "UTF-32LE", name: "Unicode", enc: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
	{charset: "ASCII", name: "US-ASCII", enc: gdenc.ASCII},
	{charset: "EBCDIC", name: "EBCDIC", enc: gdenc.EBCDIC},

	{charset: "ISO-8859-1", name: "Western", enc: charmap.ISO8859_1},
	{charset: "ISO-8859-2", name: "Central European", enc: charmap.ISO8859_2},
	{charset: "ISO-8859-3", name: "South European", enc: charmap.ISO8859_3},
	{charset: "ISO-8859-4", name: "Baltic", enc: charmap.ISO8859_4},
	{charset: "ISO-8859-5", name: "Cyrillic", enc: charmap.ISO8859_5},
	{charset: "ISO-8859-6", name: "Arabic", enc: charmap.ISO8859_6},
	{charset: "ISO-8859-7", name: "Greek", enc: charmap.ISO8859_7},
	{charset: "ISO-8859-8", name: "Hebrew Visual", enc: charmap.ISO8859_8},
	{charset: "ISO-8859-9", name: "Turkish", enc: charmap.ISO8859_9},
	{charset: "ISO-8859-10", name: "Nordic", enc: charmap.ISO8859_10},
	{charset: "ISO-8859-13", name: "Baltic", enc: charmap.ISO8859_13},
	{charset: "ISO-8859-14", name: "Celtic", enc: charmap.ISO8859_14},
	{charset: "ISO-8859-15", name: "Western", enc: charmap.ISO8859_15},
	{charset: "ISO-8859-16", name: "Romanian", enc: charmap.ISO8859_16},

	{charset: "IBM437", name: "Western", enc: charmap.CodePage437},
	{charset: "IBM850", name: "Western", enc: charmap.CodePage850},
	{charset: "IBM852", name: "Central European", enc: charmap.CodePage852},
	{charset: "IBM855", name: "Cyrillic", enc: charmap.CodePage855},
	{charset: "IBM862", name: "Hebrew", enc: charmap.CodePage862},
	{charset: "IBM866", name: "Cyrillic/Russian", enc: charmap.CodePage866},
	{charset: "KOI8-R", name: "Cyrillic", enc: charmap.KOI8R},
	{charset: "KOI8-U", name: "Cyrillic/Ukrainian", enc: charmap.KOI8U},
	{charset: "MACINTOSH", name: "Western", enc: charmap.Macintosh},
	{charset: "MAC-CYRILLIC", name: "Cyrillic", enc: charmap.MacintoshCyrillic},

	{charset: "WINDOWS-874", name: "Thai", enc: charmap.Windows874},
	{charset: "WINDOWS-1250", name: "Central European", enc: charmap.Windows1250},
	{charset: "WINDOWS-1251", name: "Cyrillic", enc: charmap.Windows1251},
	{charset: "WINDOWS-1252", name: "Western", enc: charmap.Windows1252},
	{charset: "WINDOWS-1253", name: "Greek", enc: charmap.Windows1253},
	{charset: "WINDOWS-1254", name: "Turkish", enc: charmap.Windows1254},
	{charset: "WINDOWS-1255", name: "Hebrew", enc: charmap.Windows1255},
	{charset: "WINDOWS-1256", name: "Arabic", enc: charmap.Windows1256},
	{charset: "WINDOWS-1257", name: "Baltic", enc: charmap.Windows1257},
	{charset: "WINDOWS-1258", name: "Vietnamese", enc: charmap.Windows1258},

	{charset: "SHIFT_JIS", name: "Japanese", enc: japanese.ShiftJIS},
	{charset: "EUC-JP", name: "Japanese", enc: japanese.EUCJP},
	{charset: "ISO-2022-JP", name: "Japanese", enc: japanese.ISO2022JP},
	{charset: "EUC-KR", name: "Korean", enc: korean.EUCKR},
	{charset: "GBK", name: "Chinese Simplified", enc: simplifiedchinese.GBK},
	{charset: "GB18030", name: "Chinese Simplified", enc: simplifiedchinese.GB18030},
	{charset: "HZ-GB-2312", name: "Chinese Simplified", enc: simplifiedchinese.HZGB2312},
	{charset: "BIG5", name: "Chinese Traditional", enc: traditionalchinese.Big5},
}

// aliases maps normalized alternative names to table charsets.
var aliases = map[string]string{
	"UTF8":        "UTF-8",
	"UTF-8-SIG":   "UTF-8-BOM",
	"US-ASCII":    "ASCII",
	"LATIN1":      "ISO-8859-1",
	"LATIN-1":     "ISO-8859-1",
	"ISO8859-1":   "ISO-8859-1",
	"LATIN9":      "ISO-8859-15",
	"LATIN-9":     "ISO-8859-15",
	"ISO8859-15":  "ISO-8859-15",
	"CP437":       "IBM437",
	"CP850":       "IBM850",
	"CP852":       "IBM852",
	"CP866":       "IBM866",
	"CP1250":      "WINDOWS-1250",
	"CP1251":      "WINDOWS-1251",
	"CP1252":      "WINDOWS-1252",
	"SJIS":        "SHIFT_JIS",
	"SHIFT-JIS":   "SHIFT_JIS",
	"EUCJP":       "EUC-JP",
	"EUCKR":       "EUC-KR",
	"BIG-5":       "BIG5",
	"IBM037":      "EBCDIC",
	"MAC":         "MACINTOSH",
	"MACCYRILLIC": "MAC-CYRILLIC",
}

// All returns the built-in encodings in display order.
func All() []*Encoding {
	out := make([]*Encoding, len(table))
	copy(out, table)
	return out
}
