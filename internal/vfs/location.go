package vfs

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// SchemeFile is the scheme of local files.
const SchemeFile = "file"

// Location identifies a document by URI. Plain paths are file locations.
type Location struct {
	u *url.URL
}

// ParseLocation parses a URI or a local path. Relative paths are made
// absolute against the working directory.
func ParseLocation(s string) (Location, error) {
	if s == "" {
		return Location{}, errors.New("empty location")
	}
	if !strings.Contains(s, "://") && !strings.HasPrefix(s, "file:") {
		abs, err := filepath.Abs(s)
		if err != nil {
			return Location{}, err
		}
		return FileLocation(abs), nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", s, err)
	}
	if u.Scheme == "" {
		return Location{}, fmt.Errorf("location %q has no scheme", s)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Path == "" && u.Opaque != "" {
		u.Path, u.Opaque = u.Opaque, ""
	}
	return Location{u: u}, nil
}

// MustParseLocation is like ParseLocation but panics on error.
func MustParseLocation(s string) Location {
	loc, err := ParseLocation(s)
	if err != nil {
		panic(err)
	}
	return loc
}

// FileLocation returns the location of an absolute local path.
func FileLocation(p string) Location {
	return Location{u: &url.URL{Scheme: SchemeFile, Path: filepath.ToSlash(filepath.Clean(p))}}
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l.u == nil
}

// Scheme returns the lower-case URI scheme.
func (l Location) Scheme() string {
	if l.u == nil {
		return ""
	}
	return l.u.Scheme
}

// Host returns the URI host, empty for local files.
func (l Location) Host() string {
	if l.u == nil {
		return ""
	}
	return l.u.Host
}

// Path returns the slash-separated path component.
func (l Location) Path() string {
	if l.u == nil {
		return ""
	}
	return l.u.Path
}

// LocalPath returns the OS path of a file location.
func (l Location) LocalPath() (string, bool) {
	if !l.IsLocal() {
		return "", false
	}
	return filepath.FromSlash(l.u.Path), true
}

// IsLocal reports whether the location is a local file.
func (l Location) IsLocal() bool {
	return l.Scheme() == SchemeFile
}

// Base returns the last element of the path.
func (l Location) Base() string {
	return path.Base(l.Path())
}

// String returns the URI.
func (l Location) String() string {
	if l.u == nil {
		return ""
	}
	return l.u.String()
}

// Equal reports whether two locations name the same URI.
func (l Location) Equal(other Location) bool {
	return l.String() == other.String()
}
