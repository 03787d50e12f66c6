package loader

import (
	"reflect"
	"testing"
)

func TestEnvLoaderLoad(t *testing.T) {
	env := []string{
		"DOCIO_IO_CHUNK_SIZE=4096",
		"DOCIO_FILES_CREATE_BACKUP=no",
		"DOCIO_LOGGING_LEVEL=debug",
		"DOCIO_ENCODINGS_AUTO_DETECTED=UTF-8, SHIFT_JIS",
		"DOCIO_BROKEN=1",
		"HOME=/home/test",
		"XDG_DATA_HOME=/data",
	}
	l := NewEnvLoader("DOCIO_").WithEnviron(func() []string { return env })
	l.AddMapping("XDG_DATA_HOME", "paths.data_home")

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"io.chunk_size", int64(4096)},
		{"files.create_backup", false},
		{"logging.level", "debug"},
		{"encodings.auto_detected", []any{"UTF-8", "SHIFT_JIS"}},
		{"paths.data_home", "/data"},
	}
	for _, tt := range tests {
		got, ok := GetByPath(cfg, tt.path)
		if !ok || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s = %#v, want %#v", tt.path, got, tt.want)
		}
	}
	if _, ok := cfg["broken"]; ok {
		t.Error("variable without a key was loaded")
	}
	if _, ok := cfg["home"]; ok {
		t.Error("unprefixed variable was loaded")
	}
}

func TestEnvToPath(t *testing.T) {
	l := NewEnvLoader("DOCIO_")
	tests := []struct {
		env  string
		want string
	}{
		{"DOCIO_IO_CHUNK_SIZE", "io.chunk_size"},
		{"DOCIO_METADATA_PATH", "metadata.path"},
		{"DOCIO_IO", ""},
		{"DOCIO__X", ""},
	}
	for _, tt := range tests {
		if got := l.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}
