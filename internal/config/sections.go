package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/textstream"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration. Use Config.Set()
// to update configuration values.

// EncodingsConfig lists the character sets offered to the user.
type EncodingsConfig struct {
	// AutoDetected is the candidate list tried, in order, when a file is
	// loaded without an explicit encoding.
	AutoDetected []string

	// ShownInMenu is the list offered for explicit selection.
	ShownInMenu []string
}

// Candidates resolves AutoDetected to encodings.
func (e EncodingsConfig) Candidates() ([]*charset.Encoding, error) {
	return charset.LookupAll(e.AutoDetected)
}

// FilesConfig controls how files are read and written.
type FilesConfig struct {
	// CreateBackup keeps the previous content of a file when saving.
	CreateBackup bool

	// BackupSuffix is appended to the file name to form the backup name.
	BackupSuffix string

	// MaxSize refuses loads of files larger than this many bytes. Zero
	// means no limit.
	MaxSize int64

	// DefaultNewline is the terminator for new documents ("lf", "cr", "crlf").
	DefaultNewline string
}

// Newline returns DefaultNewline parsed, or LF when it is invalid.
func (f FilesConfig) Newline() textstream.Newline {
	nl, _ := textstream.ParseNewline(f.DefaultNewline)
	return nl
}

// IOConfig tunes the streaming pipeline.
type IOConfig struct {
	// ChunkSize is the number of bytes moved per read or write step.
	ChunkSize int
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Format is "text" or "json".
	Format string
}

// MetadataConfig locates the per-file metadata store.
type MetadataConfig struct {
	// Path is the JSON file holding metadata. Empty disables persistence.
	Path string
}

// Encodings returns the encodings section.
func (c *Config) Encodings() EncodingsConfig {
	return EncodingsConfig{
		AutoDetected: c.getStringSliceOr("encodings.auto_detected", []string{"UTF-8", "ISO-8859-15", "UTF-16"}),
		ShownInMenu:  c.getStringSliceOr("encodings.shown_in_menu", nil),
	}
}

// Files returns the files section.
func (c *Config) Files() FilesConfig {
	return FilesConfig{
		CreateBackup:   c.getBoolOr("files.create_backup", true),
		BackupSuffix:   c.getStringOr("files.backup_suffix", "~"),
		MaxSize:        c.getInt64Or("files.max_size", 0),
		DefaultNewline: c.getStringOr("files.default_newline", "lf"),
	}
}

// IO returns the io section.
func (c *Config) IO() IOConfig {
	return IOConfig{
		ChunkSize: c.getIntOr("io.chunk_size", 8192),
	}
}

// Logging returns the logging section.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  c.getStringOr("logging.level", "warn"),
		Format: c.getStringOr("logging.format", "text"),
	}
}

// Metadata returns the metadata section.
func (c *Config) Metadata() MetadataConfig {
	return MetadataConfig{
		Path: c.getStringOr("metadata.path", DefaultMetadataPath()),
	}
}

// Validate checks every section and returns all problems found, joined.
// Type mismatches recorded while reading sections are included.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(path string, value any, format string, args ...any) {
		errs = append(errs, &ValidationError{Path: path, Value: value, Message: fmt.Sprintf(format, args...)})
	}

	enc := c.Encodings()
	if len(enc.AutoDetected) == 0 {
		invalid("encodings.auto_detected", enc.AutoDetected, "at least one encoding is required")
	}
	for _, name := range enc.AutoDetected {
		if _, err := charset.Lookup(name); err != nil {
			invalid("encodings.auto_detected", name, "unknown encoding")
		}
	}
	for _, name := range enc.ShownInMenu {
		if _, err := charset.Lookup(name); err != nil {
			invalid("encodings.shown_in_menu", name, "unknown encoding")
		}
	}

	files := c.Files()
	if files.CreateBackup && files.BackupSuffix == "" {
		invalid("files.backup_suffix", files.BackupSuffix, "must not be empty when backups are enabled")
	}
	if strings.ContainsRune(files.BackupSuffix, '/') {
		invalid("files.backup_suffix", files.BackupSuffix, "must not contain a path separator")
	}
	if files.MaxSize < 0 {
		invalid("files.max_size", files.MaxSize, "must not be negative")
	}
	if _, err := textstream.ParseNewline(files.DefaultNewline); err != nil {
		invalid("files.default_newline", files.DefaultNewline, "must be lf, cr or crlf")
	}

	if n := c.IO().ChunkSize; n < charset.MaxSequenceLen {
		invalid("io.chunk_size", n, "must be at least %d", charset.MaxSequenceLen)
	}

	logging := c.Logging()
	switch strings.ToLower(logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid("logging.level", logging.Level, "must be debug, info, warn or error")
	}
	switch strings.ToLower(logging.Format) {
	case "text", "json":
	default:
		invalid("logging.format", logging.Format, "must be text or json")
	}

	for _, err := range c.ConfigErrors() {
		errs = append(errs, fmt.Errorf("%w: %w", ErrValidationFailed, err))
	}
	return errors.Join(errs...)
}

// These methods only return the default for ErrSettingNotFound.
// Type errors are recorded and return the default to avoid breaking callers,
// but indicate a configuration problem that should be fixed.

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getInt64Or(path string, defaultValue int64) int64 {
	v, err := c.GetInt64(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getStringSliceOr(path string, defaultValue []string) []string {
	v, err := c.GetStringSlice(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return append([]string(nil), defaultValue...)
	}
	return v
}

// recordConfigError stores configuration errors for later retrieval.
// Only the first error for each path is recorded.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

// ConfigErrors returns any configuration errors encountered during access.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.configErrors == nil {
		return nil
	}
	result := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		result[k] = v
	}
	return result
}
