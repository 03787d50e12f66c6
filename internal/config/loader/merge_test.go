package loader

import (
	"reflect"
	"testing"
)

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"io":    map[string]any{"chunk_size": 8192, "keep": true},
		"files": map[string]any{"max_size": 0},
	}
	src := map[string]any{
		"io":      map[string]any{"chunk_size": 1024},
		"files":   "replaced",
		"logging": map[string]any{"level": "warn"},
	}
	got := DeepMerge(dst, src)
	want := map[string]any{
		"io":      map[string]any{"chunk_size": 1024, "keep": true},
		"files":   "replaced",
		"logging": map[string]any{"level": "warn"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DeepMerge() = %v, want %v", got, want)
	}

	// The merged map must not alias src.
	src["logging"].(map[string]any)["level"] = "error"
	if v, _ := GetByPath(got, "logging.level"); v != "warn" {
		t.Errorf("logging.level = %v after mutating src, want warn", v)
	}
}

func TestSetGetByPath(t *testing.T) {
	m := map[string]any{"io": "scalar"}
	SetByPath(m, "io.chunk_size", 6)
	SetByPath(m, "a.b.c", "deep")

	if v, ok := GetByPath(m, "io.chunk_size"); !ok || v != 6 {
		t.Errorf("GetByPath(io.chunk_size) = %v, %v", v, ok)
	}
	if v, ok := GetByPath(m, "a.b.c"); !ok || v != "deep" {
		t.Errorf("GetByPath(a.b.c) = %v, %v", v, ok)
	}
	if _, ok := GetByPath(m, "a.b.c.d"); ok {
		t.Error("GetByPath through a scalar succeeded")
	}
	if _, ok := GetByPath(nil, "a"); ok {
		t.Error("GetByPath(nil) succeeded")
	}
}

func TestClone(t *testing.T) {
	src := map[string]any{"list": []any{map[string]any{"k": 1}}}
	c := Clone(src)
	c["list"].([]any)[0].(map[string]any)["k"] = 2
	if src["list"].([]any)[0].(map[string]any)["k"] != 1 {
		t.Error("Clone() shares nested values")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) != nil")
	}
}
