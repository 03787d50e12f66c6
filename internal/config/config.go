package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/docio/internal/config/loader"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "DOCIO_"

// Config holds the merged configuration.
type Config struct {
	mu   sync.RWMutex
	data map[string]any

	path    string
	fs      loader.FileSystem
	prefix  string
	environ func() []string

	// configErrors stores type mismatches found while reading sections.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the configuration file. A missing file is not an error.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithFileSystem sets the file system the configuration file is read from.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fsys
	}
}

// WithEnvPrefix sets the environment variable prefix. An empty prefix
// disables the environment layer.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.prefix = prefix
	}
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ func() []string) Option {
	return func(c *Config) {
		c.environ = environ
	}
}

// New creates a Config holding only the built-in defaults. Call Load to
// apply the file and environment layers.
func New(opts ...Option) *Config {
	c := &Config{
		data:    defaultConfig(),
		fs:      loader.OSFS{},
		prefix:  EnvPrefix,
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load rebuilds the configuration from defaults, the file, and the
// environment, then validates the result.
func (c *Config) Load(_ context.Context) error {
	data := defaultConfig()

	if c.path != "" {
		fl, err := loader.ForPathWithFS(c.fs, c.path)
		if err != nil {
			return err
		}
		fileData, err := fl.Load()
		if err != nil {
			return err
		}
		data = loader.DeepMerge(data, fileData)
	}

	if c.prefix != "" {
		envData, err := loader.NewEnvLoader(c.prefix).WithEnviron(c.environ).Load()
		if err != nil {
			return err
		}
		data = loader.DeepMerge(data, envData)
	}

	c.mu.Lock()
	c.data = data
	c.configErrors = nil
	c.mu.Unlock()

	return c.Validate()
}

// Path returns the configuration file path, if any.
func (c *Config) Path() string {
	return c.path
}

// Get returns the raw value at path.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.GetByPath(c.data, path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt64 returns an integer value at the given path. Whole floats are
// accepted since JSON numbers decode as float64.
func (c *Config) GetInt64(path string) (int64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case uint64:
		return int64(val), nil
	case float64:
		if val == float64(int64(val)) {
			return int64(val), nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, err := c.GetInt64(path)
	return int(v), err
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetStringSlice returns a string slice value at the given path.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Path: path, Expected: "[]string", Actual: "[]" + typeName(item)}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
}

// Set sets the value at path, creating sections as needed.
func (c *Config) Set(path string, value any) error {
	if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	loader.SetByPath(c.data, path, value)
	return nil
}

// Merged returns a deep copy of the merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.data)
}

// DefaultPath returns the default configuration file location,
// $XDG_CONFIG_HOME/docio/config.toml or the platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "docio", "config.toml")
}

// DefaultMetadataPath returns $XDG_DATA_HOME/docio/metadata.json, falling
// back to ~/.local/share when XDG_DATA_HOME is unset.
func DefaultMetadataPath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "docio", "metadata.json")
}

func defaultConfig() map[string]any {
	return map[string]any{
		"encodings": map[string]any{
			"auto_detected": []any{"UTF-8", "ISO-8859-15", "UTF-16"},
			"shown_in_menu": []any{"UTF-8", "ISO-8859-15", "WINDOWS-1252", "UTF-16", "SHIFT_JIS", "EUC-KR"},
		},
		"files": map[string]any{
			"create_backup":   true,
			"backup_suffix":   "~",
			"max_size":        int64(0),
			"default_newline": "lf",
		},
		"io": map[string]any{
			"chunk_size": int64(8192),
		},
		"logging": map[string]any{
			"level":  "warn",
			"format": "text",
		},
		"metadata": map[string]any{
			"path": DefaultMetadataPath(),
		},
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float"
	case []any, []string:
		return "array"
	case map[string]any:
		return "table"
	default:
		return fmt.Sprintf("%T", v)
	}
}
