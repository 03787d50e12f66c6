package config

import (
	"context"
	"errors"
	"io/fs"
	"reflect"
	"testing"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func noEnv() []string { return nil }

func TestNewDefaults(t *testing.T) {
	c := New(WithEnviron(noEnv))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := c.IO().ChunkSize; got != 8192 {
		t.Errorf("IO().ChunkSize = %d, want 8192", got)
	}
	files := c.Files()
	if !files.CreateBackup || files.BackupSuffix != "~" || files.MaxSize != 0 || files.DefaultNewline != "lf" {
		t.Errorf("Files() = %+v", files)
	}
	want := []string{"UTF-8", "ISO-8859-15", "UTF-16"}
	if got := c.Encodings().AutoDetected; !reflect.DeepEqual(got, want) {
		t.Errorf("Encodings().AutoDetected = %v, want %v", got, want)
	}
	cands, err := c.Encodings().Candidates()
	if err != nil || len(cands) != 3 || !cands[0].IsUTF8() {
		t.Errorf("Candidates() = %v, %v", cands, err)
	}
	if got := c.Logging(); got.Level != "warn" || got.Format != "text" {
		t.Errorf("Logging() = %+v", got)
	}
	if c.ConfigErrors() != nil {
		t.Errorf("ConfigErrors() = %v, want nil", c.ConfigErrors())
	}
}

func TestLoadLayers(t *testing.T) {
	fsys := memFS{"/cfg/docio.yaml": `
files:
  create_backup: false
  max_size: 1048576
io:
  chunk_size: 1024
logging:
  level: info
`}
	env := func() []string {
		return []string{"DOCIO_IO_CHUNK_SIZE=512", "DOCIO_FILES_DEFAULT_NEWLINE=crlf"}
	}
	c := New(WithFile("/cfg/docio.yaml"), WithFileSystem(fsys), WithEnviron(env))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env over file", c.IO().ChunkSize, 512},
		{"file over default", c.Files().CreateBackup, false},
		{"file int64", c.Files().MaxSize, int64(1048576)},
		{"env only", c.Files().DefaultNewline, "crlf"},
		{"default kept", c.Files().BackupSuffix, "~"},
		{"file string", c.Logging().Level, "info"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := New(WithFile("/nope.toml"), WithFileSystem(memFS{}), WithEnviron(noEnv))
	if err := c.Load(context.Background()); err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}
}

func TestLoadParseError(t *testing.T) {
	fsys := memFS{"/bad.toml": "[io\n"}
	c := New(WithFile("/bad.toml"), WithFileSystem(fsys), WithEnviron(noEnv))
	err := c.Load(context.Background())
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load() error = %v, want *ParseError", err)
	}
	if perr.Path != "/bad.toml" {
		t.Errorf("ParseError.Path = %q", perr.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		path string
		val  any
	}{
		{"chunk too small", "io.chunk_size", 5},
		{"unknown encoding", "encodings.auto_detected", []any{"UTF-8", "KLINGON"}},
		{"empty candidates", "encodings.auto_detected", []any{}},
		{"bad newline", "files.default_newline", "lfcr"},
		{"negative size", "files.max_size", -1},
		{"empty suffix", "files.backup_suffix", ""},
		{"bad level", "logging.level", "loud"},
		{"bad format", "logging.format", "xml"},
		{"wrong type", "io.chunk_size", "big"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			if err := c.Set(tt.path, tt.val); err != nil {
				t.Fatal(err)
			}
			err := c.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Errorf("Validate() = %v, want ErrValidationFailed", err)
			}
		})
	}

	if err := New().Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestTypeMismatchRecorded(t *testing.T) {
	c := New()
	_ = c.Set("files.create_backup", "sometimes")

	if got := c.Files().CreateBackup; !got {
		t.Errorf("Files().CreateBackup = %v, want default true", got)
	}
	errs := c.ConfigErrors()
	var terr *TypeError
	if !errors.As(errs["files.create_backup"], &terr) {
		t.Fatalf("ConfigErrors()[files.create_backup] = %v, want *TypeError", errs["files.create_backup"])
	}
	if terr.Expected != "bool" || terr.Actual != "string" {
		t.Errorf("TypeError = %+v", terr)
	}
}

func TestGetInt64(t *testing.T) {
	c := New()
	tests := []struct {
		val     any
		want    int64
		wantErr bool
	}{
		{7, 7, false},
		{int64(8), 8, false},
		{float64(9), 9, false},
		{9.5, 0, true},
		{"10", 0, true},
	}
	for _, tt := range tests {
		_ = c.Set("x.n", tt.val)
		got, err := c.GetInt64("x.n")
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("GetInt64(%v) = %d, %v, want %d (err %v)", tt.val, got, err, tt.want, tt.wantErr)
		}
	}
	if _, err := c.GetInt64("x.missing"); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("GetInt64(missing) error = %v, want ErrSettingNotFound", err)
	}
}

func TestSetInvalidPath(t *testing.T) {
	c := New()
	for _, p := range []string{"", ".io", "io.", "io..x"} {
		if err := c.Set(p, 1); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Set(%q) error = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestMergedIsCopy(t *testing.T) {
	c := New()
	m := c.Merged()
	m["io"].(map[string]any)["chunk_size"] = int64(1)
	if got := c.IO().ChunkSize; got != 8192 {
		t.Errorf("IO().ChunkSize = %d after mutating Merged(), want 8192", got)
	}
}

func TestFilesNewline(t *testing.T) {
	f := FilesConfig{DefaultNewline: "CRLF"}
	if got := f.Newline().String(); got != "crlf" {
		t.Errorf("Newline() = %s, want crlf", got)
	}
	f.DefaultNewline = "bogus"
	if got := f.Newline().String(); got != "lf" {
		t.Errorf("Newline() = %s, want lf", got)
	}
}
