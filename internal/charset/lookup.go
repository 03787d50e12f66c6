package charset

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

var byCharset = func() map[string]*Encoding {
	m := make(map[string]*Encoding, len(table))
	for _, e := range table {
		m[e.charset] = e
	}
	return m
}()

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Lookup resolves a charset name. The built-in table and its aliases are
// consulted first, then the IANA registry, then the WHATWG encoding names.
func Lookup(name string) (*Encoding, error) {
	key := normalize(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	}
	if e, ok := byCharset[key]; ok {
		return e, nil
	}
	if target, ok := aliases[key]; ok {
		return byCharset[target], nil
	}
	if e := fromIndex(key); e != nil {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// MustLookup is like Lookup but panics on unknown names. It is meant for
// package-level defaults.
func MustLookup(name string) *Encoding {
	e, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return e
}

func fromIndex(key string) *Encoding {
	if enc, err := ianaindex.IANA.Encoding(key); err == nil && enc != nil {
		canonical, err := ianaindex.MIME.Name(enc)
		if err != nil || canonical == "" {
			canonical, err = ianaindex.IANA.Name(enc)
		}
		if err != nil || canonical == "" {
			canonical = key
		}
		return adopt(canonical, enc)
	}
	if enc, err := htmlindex.Get(key); err == nil && enc != nil {
		canonical, err := htmlindex.Name(enc)
		if err != nil {
			canonical = key
		}
		return adopt(canonical, enc)
	}
	return nil
}

// adopt returns the table entry for canonical when one exists so that equal
// charsets share an Encoding value.
func adopt(canonical string, enc encoding.Encoding) *Encoding {
	key := normalize(canonical)
	if e, ok := byCharset[key]; ok {
		return e
	}
	if target, ok := aliases[key]; ok {
		return byCharset[target]
	}
	if key == "UTF-8" {
		return utf8Encoding
	}
	return &Encoding{charset: key, enc: enc}
}

// LookupAll resolves every name in order. Unknown names are skipped and
// reported together in the returned error; the resolved encodings are
// returned either way.
func LookupAll(names []string) ([]*Encoding, error) {
	out := make([]*Encoding, 0, len(names))
	var errs []error
	for _, name := range names {
		e, err := Lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, e)
	}
	return out, errors.Join(errs...)
}
