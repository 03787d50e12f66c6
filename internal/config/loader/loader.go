// Package loader reads docio configuration sources into nested maps.
//
// Files are parsed by extension: TOML, YAML, and JSON with comments. The
// environment is read through EnvLoader. Sources are combined with DeepMerge,
// later sources overriding earlier ones.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for a config file with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Loader is the interface for configuration loaders.
type Loader interface {
	// Load reads configuration from the source and returns a map.
	// Returns nil, nil if the source doesn't exist.
	Load() (map[string]any, error)
}

// ParseFunc parses raw file content. source names the content in errors.
type ParseFunc func(source string, data []byte) (map[string]any, error)

// FileSystem is the file access used by FileLoader.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FileLoader loads one configuration file with a parser chosen by extension.
type FileLoader struct {
	fs    FileSystem
	path  string
	parse ParseFunc
}

// ForPath returns a FileLoader for path. The format is taken from the
// file extension.
func ForPath(path string) (*FileLoader, error) {
	return ForPathWithFS(OSFS{}, path)
}

// ForPathWithFS is ForPath with a custom file system.
func ForPathWithFS(fsys FileSystem, path string) (*FileLoader, error) {
	parse, err := ParserFor(path)
	if err != nil {
		return nil, err
	}
	return &FileLoader{fs: fsys, path: path, parse: parse}, nil
}

// ParserFor returns the parser for the extension of path.
func ParserFor(path string) (ParseFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseTOML, nil
	case ".yaml", ".yml":
		return ParseYAML, nil
	case ".json", ".jsonc":
		return ParseJSON, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Path returns the file the loader reads.
func (l *FileLoader) Path() string {
	return l.path
}

// Load reads and parses the file. A missing file yields nil, nil.
func (l *FileLoader) Load() (map[string]any, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}
	return l.parse(l.path, data)
}
